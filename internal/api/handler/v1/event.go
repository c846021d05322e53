package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/artxchange/artx-api/internal/api/handler/v1/request"
	"github.com/artxchange/artx-api/internal/api/handler/v1/response"
	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/service"
)

type EventEngine interface {
	CreateEvent(ctx context.Context, in service.EventInput) (domain.Event, error)
	RegisterForEvent(ctx context.Context, in service.RegistrationInput) (domain.EventRegistration, error)
}

type EventHandler struct {
	engine EventEngine
}

func NewEventHandler(engine EventEngine) *EventHandler {
	return &EventHandler{
		engine: engine,
	}
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Description  Only event creator accounts, up to their monthly cap.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateEventRequest  true  "event"
// @Success      201      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /events [post]
// @Security BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	accountID, respErr := getAccountID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.engine.CreateEvent(ctx.Request.Context(), service.EventInput{
		AccountID:   accountID,
		Title:       req.Title,
		Description: req.Description,
		Type:        domain.EventType(req.Type),
		StartsAt:    req.StartsAt,
		Location:    req.Location,
		Address:     req.Address,
		Capacity:    req.Capacity,
		Price:       domain.Cents(req.PriceCents),
		Hashtags:    req.Hashtags,
	})
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleCreateEvent -> h.engine.CreateEvent -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, event)
}

// HandleRegister godoc
// @Summary      Register for an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        eventID  path      string                       true  "Event ID"
// @Param        request  body      request.RegistrationRequest  true  "registration"
// @Success      201      {object}  domain.EventRegistration
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Failure      502      {object}  response.Err
// @Router       /events/{eventID}/registrations [post]
// @Security BearerAuth
func (h *EventHandler) HandleRegister(ctx *gin.Context) {
	accountID, respErr := getAccountID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.RegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.engine.RegisterForEvent(ctx.Request.Context(), service.RegistrationInput{
		AccountID:    accountID,
		EventID:      ctx.Param("eventID"),
		Name:         req.Name,
		Email:        req.Email,
		Message:      req.Message,
		Quantity:     req.Quantity,
		Method:       domain.PaymentMethod(req.PaymentMethod),
		PaymentToken: req.PaymentToken,
	})
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleRegister -> h.engine.RegisterForEvent -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, reg)
}
