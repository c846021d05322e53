package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/artxchange/artx-api/internal/api/handler/v1/request"
	"github.com/artxchange/artx-api/internal/api/handler/v1/response"
	"github.com/artxchange/artx-api/internal/config"
	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/pkg/jwthelper"
	"github.com/artxchange/artx-api/internal/service"
)

type AuthService interface {
	Signup(ctx context.Context, in service.SignupInput) (domain.Account, error)
	Login(ctx context.Context, email, password string) (domain.Account, error)
}

type AuthHandler struct {
	conf *config.APIConfig
	svc  AuthService
}

func NewAuthHandler(conf *config.APIConfig, svc AuthService) *AuthHandler {
	return &AuthHandler{
		conf: conf,
		svc:  svc,
	}
}

// HandleSignup godoc
// @Summary      Sign up a new account
// @Description  Charges the registration fee and creates the account.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      request.SignupRequest  true  "request body"
// @Success      201      {object}  domain.Account
// @Failure      400      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Failure      502      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /auth/signup [post]
func (h *AuthHandler) HandleSignup(ctx *gin.Context) {
	var req request.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	account, err := h.svc.Signup(ctx.Request.Context(), service.SignupInput{
		Account:      req.Account(),
		Password:     req.Password,
		Method:       domain.PaymentMethod(req.PaymentMethod),
		PaymentToken: req.PaymentToken,
	})
	if err != nil {
		if errors.Is(err, service.ErrAccountEmailExists) {
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrAccountEmailExists))
			return
		}

		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleSignup -> h.svc.Signup -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, account)
}

// HandleLogin godoc
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      request.LoginRequest  true  "request body"
// @Success      200      {object}  response.LoginResponse
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	account, err := h.svc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) || errors.Is(err, service.ErrWrongPassword) {
			response.RenderErr(ctx, response.ErrWrongCredentials(err))
			return
		}

		err = fmt.Errorf("v1.HandleLogin -> h.svc.Login -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	token, err := jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), account.ID, string(account.Role), ctx.Request.UserAgent())
	if err != nil {
		err = fmt.Errorf("v1.HandleLogin -> jwthelper.GenerateToken -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Token:   token,
		Account: account,
	})
}
