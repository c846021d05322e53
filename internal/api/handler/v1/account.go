package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/artxchange/artx-api/internal/api/handler/v1/response"
	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/service"
)

type AccountService interface {
	GetAccount(ctx context.Context, id string) (domain.Account, error)
}

type EligibilityEngine interface {
	Eligibility(ctx context.Context, accountID string) (service.EligibilityReport, error)
	Votes(ctx context.Context, accountID string) ([]domain.VoteRecord, error)
	Enforcements(ctx context.Context, accountID string) ([]domain.EnforcementAction, error)
}

type AccountHandler struct {
	svc    AccountService
	engine EligibilityEngine
}

func NewAccountHandler(svc AccountService, engine EligibilityEngine) *AccountHandler {
	return &AccountHandler{
		svc:    svc,
		engine: engine,
	}
}

// HandleGetMe godoc
// @Summary      Current account
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  domain.Account
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /accounts/me [get]
// @Security BearerAuth
func (h *AccountHandler) HandleGetMe(ctx *gin.Context) {
	id, respErr := getAccountID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	account, err := h.svc.GetAccount(ctx.Request.Context(), id)
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleGetMe -> h.svc.GetAccount -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, account)
}

// HandleGetEligibility godoc
// @Summary      Current limits and decisions
// @Description  Reports every capped action with its usage and whether it is allowed right now.
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  service.EligibilityReport
// @Failure      401  {object}  response.Err
// @Router       /accounts/me/eligibility [get]
// @Security BearerAuth
func (h *AccountHandler) HandleGetEligibility(ctx *gin.Context) {
	id, respErr := getAccountID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	report, err := h.engine.Eligibility(ctx.Request.Context(), id)
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleGetEligibility -> h.engine.Eligibility -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, report)
}

// HandleGetVotes godoc
// @Summary      Votes cast by the current account
// @Tags         accounts
// @Produce      json
// @Success      200  {array}   domain.VoteRecord
// @Failure      401  {object}  response.Err
// @Router       /accounts/me/votes [get]
// @Security BearerAuth
func (h *AccountHandler) HandleGetVotes(ctx *gin.Context) {
	id, respErr := getAccountID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	votes, err := h.engine.Votes(ctx.Request.Context(), id)
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleGetVotes -> h.engine.Votes -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, votes)
}

// HandleGetEnforcements godoc
// @Summary      Enforcement actions against the current account
// @Tags         accounts
// @Produce      json
// @Success      200  {array}   domain.EnforcementAction
// @Failure      401  {object}  response.Err
// @Router       /accounts/me/enforcements [get]
// @Security BearerAuth
func (h *AccountHandler) HandleGetEnforcements(ctx *gin.Context) {
	id, respErr := getAccountID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	actions, err := h.engine.Enforcements(ctx.Request.Context(), id)
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleGetEnforcements -> h.engine.Enforcements -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, actions)
}
