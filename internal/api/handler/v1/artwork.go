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

type ArtworkEngine interface {
	SubmitArtwork(ctx context.Context, in service.ArtworkInput) (domain.Artwork, error)
	CanVote(ctx context.Context, accountID, artworkID string) (domain.Decision, error)
	Vote(ctx context.Context, in service.VoteInput) (service.VoteResult, error)
	Donate(ctx context.Context, in service.DonationInput) (domain.DonationRecord, error)
}

type ArtworkHandler struct {
	engine ArtworkEngine
}

func NewArtworkHandler(engine ArtworkEngine) *ArtworkHandler {
	return &ArtworkHandler{
		engine: engine,
	}
}

// HandleSubmitArtwork godoc
// @Summary      Submit an artwork
// @Description  Artists may submit up to their monthly cap. The cap resets on the 1st of each month.
// @Tags         artworks
// @Accept       json
// @Produce      json
// @Param        request  body      request.SubmitArtworkRequest  true  "artwork"
// @Success      201      {object}  domain.Artwork
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /artworks [post]
// @Security BearerAuth
func (h *ArtworkHandler) HandleSubmitArtwork(ctx *gin.Context) {
	accountID, respErr := getAccountID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.SubmitArtworkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	artwork, err := h.engine.SubmitArtwork(ctx.Request.Context(), service.ArtworkInput{
		AccountID:   accountID,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Hashtags:    req.Hashtags,
	})
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleSubmitArtwork -> h.engine.SubmitArtwork -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, artwork)
}

// HandleCanVote godoc
// @Summary      Check whether the account may vote for an artwork
// @Tags         artworks
// @Produce      json
// @Param        artworkID  path      string  true  "Artwork ID"
// @Success      200        {object}  response.DecisionResponse
// @Failure      404        {object}  response.Err
// @Router       /artworks/{artworkID}/vote [get]
// @Security BearerAuth
func (h *ArtworkHandler) HandleCanVote(ctx *gin.Context) {
	accountID, respErr := getAccountID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	d, err := h.engine.CanVote(ctx.Request.Context(), accountID, ctx.Param("artworkID"))
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleCanVote -> h.engine.CanVote -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, response.NewDecisionResponse(domain.ActionVote, d))
}

// HandleVote godoc
// @Summary      Pay the vote fee and vote for an artwork
// @Description  One vote per account and artwork, at most 10 votes per day.
// @Tags         artworks
// @Accept       json
// @Produce      json
// @Param        artworkID  path      string               true  "Artwork ID"
// @Param        request    body      request.VoteRequest  true  "payment"
// @Success      201        {object}  service.VoteResult
// @Failure      403        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Failure      422        {object}  response.Err
// @Failure      502        {object}  response.Err
// @Router       /artworks/{artworkID}/vote [post]
// @Security BearerAuth
func (h *ArtworkHandler) HandleVote(ctx *gin.Context) {
	accountID, respErr := getAccountID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.VoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.engine.Vote(ctx.Request.Context(), service.VoteInput{
		AccountID:     accountID,
		ArtworkID:     ctx.Param("artworkID"),
		DeviceID:      req.DeviceID,
		Method:        domain.PaymentMethod(req.PaymentMethod),
		PaymentToken:  req.PaymentToken,
		TermsAccepted: req.TermsAccepted,
	})
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleVote -> h.engine.Vote -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, result)
}

// HandleDonate godoc
// @Summary      Donate to an artist
// @Description  Between 1 and 10 euros, at most 10 donations per day. 14% of the amount is withheld as tax.
// @Tags         donations
// @Accept       json
// @Produce      json
// @Param        artistID  path      string                   true  "Artist account ID"
// @Param        request   body      request.DonationRequest  true  "donation"
// @Success      201       {object}  domain.DonationRecord
// @Failure      403       {object}  response.Err
// @Failure      409       {object}  response.Err
// @Failure      422       {object}  response.Err
// @Failure      502       {object}  response.Err
// @Router       /artists/{artistID}/donations [post]
// @Security BearerAuth
func (h *ArtworkHandler) HandleDonate(ctx *gin.Context) {
	accountID, respErr := getAccountID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.DonationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	donation, err := h.engine.Donate(ctx.Request.Context(), service.DonationInput{
		AccountID:     accountID,
		ArtistID:      ctx.Param("artistID"),
		ArtworkID:     req.ArtworkID,
		Amount:        domain.Cents(req.AmountCents),
		Message:       req.Message,
		Method:        domain.PaymentMethod(req.PaymentMethod),
		PaymentToken:  req.PaymentToken,
		TermsAccepted: req.TermsAccepted,
	})
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleDonate -> h.engine.Donate -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, donation)
}
