package v1

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/artxchange/artx-api/internal/api/handler/v1/request"
	"github.com/artxchange/artx-api/internal/api/handler/v1/response"
	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/service"
)

const attachmentsField = "attachments"

type ModerationEngine interface {
	RecordEnforcement(ctx context.Context, in service.EnforcementInput) (domain.EnforcementAction, error)
	CanAppeal(ctx context.Context, accountID, enforcementID string) (domain.Decision, error)
	SubmitAppeal(ctx context.Context, in service.AppealInput) (domain.Appeal, error)
	ResolveAppeal(ctx context.Context, appealID string, outcome domain.AppealOutcome, note string) (domain.Appeal, error)
	Policy() domain.Policy
}

type ModerationHandler struct {
	engine ModerationEngine
}

func NewModerationHandler(engine ModerationEngine) *ModerationHandler {
	return &ModerationHandler{
		engine: engine,
	}
}

// HandleRecordEnforcement godoc
// @Summary      Record a violation against an account
// @Description  Applies the next tier of the category's escalation ladder.
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Param        accountID  path      string                      true  "Account ID"
// @Param        request    body      request.EnforcementRequest  true  "violation"
// @Success      201        {object}  domain.EnforcementAction
// @Failure      400        {object}  response.Err
// @Failure      403        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Router       /moderation/accounts/{accountID}/enforcements [post]
// @Security BearerAuth
func (h *ModerationHandler) HandleRecordEnforcement(ctx *gin.Context) {
	var req request.EnforcementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	action, err := h.engine.RecordEnforcement(ctx.Request.Context(), service.EnforcementInput{
		AccountID: ctx.Param("accountID"),
		Category:  domain.ViolationCategory(req.ViolationType),
		At:        req.At,
		ArtworkID: req.ArtworkID,
		Note:      req.Note,
	})
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleRecordEnforcement -> h.engine.RecordEnforcement -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, action)
}

// HandleCanAppeal godoc
// @Summary      Check whether an enforcement action can still be appealed
// @Tags         moderation
// @Produce      json
// @Param        enforcementID  path      string  true  "Enforcement ID"
// @Success      200            {object}  response.DecisionResponse
// @Failure      403            {object}  response.Err
// @Failure      404            {object}  response.Err
// @Router       /enforcements/{enforcementID}/appeal [get]
// @Security BearerAuth
func (h *ModerationHandler) HandleCanAppeal(ctx *gin.Context) {
	accountID, respErr := getAccountID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	d, err := h.engine.CanAppeal(ctx.Request.Context(), accountID, ctx.Param("enforcementID"))
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleCanAppeal -> h.engine.CanAppeal -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, response.NewDecisionResponse(domain.ActionAppeal, d))
}

// HandleSubmitAppeal godoc
// @Summary      Appeal an enforcement action
// @Description  Appeals are accepted within 14 days of the action, whatever the account's status.
// @Tags         moderation
// @Accept       multipart/form-data
// @Produce      json
// @Param        enforcementID   path      string  true   "Enforcement ID"
// @Param        email           formData  string  true   "Contact email"
// @Param        violation_type  formData  string  true   "Violation type of the action"
// @Param        reason          formData  string  true   "Why the action should be lifted"
// @Param        evidence        formData  string  false  "Supporting evidence"
// @Param        attachments     formData  file    false  "Images or PDF documents"
// @Success      201             {object}  domain.Appeal
// @Failure      400             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      409             {object}  response.Err
// @Failure      502             {object}  response.Err
// @Router       /enforcements/{enforcementID}/appeals [post]
// @Security BearerAuth
func (h *ModerationHandler) HandleSubmitAppeal(ctx *gin.Context) {
	accountID, respErr := getAccountID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	p := h.engine.Policy()
	limit := int64(p.MaxAppealAttachments+1) * p.MaxAttachmentBytes
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)

	var req request.AppealRequest
	if err := ctx.ShouldBind(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	attachments, err := readAttachments(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	appeal, err := h.engine.SubmitAppeal(ctx.Request.Context(), service.AppealInput{
		AccountID:     accountID,
		EnforcementID: ctx.Param("enforcementID"),
		Email:         req.Email,
		Category:      domain.ViolationCategory(req.ViolationType),
		Reason:        req.Reason,
		Evidence:      req.Evidence,
		Attachments:   attachments,
	})
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleSubmitAppeal -> h.engine.SubmitAppeal -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, appeal)
}

// readAttachments sniffs the content type of every uploaded file. The type
// the client claims is ignored.
func readAttachments(ctx *gin.Context) ([]domain.Attachment, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("ctx.MultipartForm -> %w", err)
	}

	files := form.File[attachmentsField]
	out := make([]domain.Attachment, 0, len(files))
	for _, fh := range files {
		contentType, err := detect(fh)
		if err != nil {
			return nil, fmt.Errorf("detect(%q) -> %w", fh.Filename, err)
		}

		out = append(out, domain.Attachment{
			Name:        fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
		})
	}

	return out, nil
}

func detect(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}

	// Drop parameters such as "; charset=utf-8".
	ct, _, _ := strings.Cut(mt.String(), ";")
	return strings.TrimSpace(ct), nil
}

// HandleResolveAppeal godoc
// @Summary      Resolve an appeal
// @Description  An overturned appeal reverts the enforcement action.
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Param        appealID  path      string                     true  "Appeal ID"
// @Param        request   body      request.ResolutionRequest  true  "outcome"
// @Success      200       {object}  domain.Appeal
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Router       /moderation/appeals/{appealID}/resolution [post]
// @Security BearerAuth
func (h *ModerationHandler) HandleResolveAppeal(ctx *gin.Context) {
	var req request.ResolutionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	appeal, err := h.engine.ResolveAppeal(ctx.Request.Context(), ctx.Param("appealID"), domain.AppealOutcome(req.Outcome), req.Note)
	if err != nil {
		response.RenderErr(ctx, response.FromEngine(fmt.Errorf("v1.HandleResolveAppeal -> h.engine.ResolveAppeal -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, appeal)
}
