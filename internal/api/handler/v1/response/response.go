package response

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/service"
)

type Err struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`

	// Set for policy denials.
	Reason   domain.DenialReason `json:"reason,omitempty"`
	Message  string              `json:"message,omitempty"`
	ResetsAt *time.Time          `json:"resets_at,omitempty"`

	// Set for failed payment or moderation calls.
	Retryable *bool `json:"retryable,omitempty"`
}

func (e *Err) Error() string {
	if e.Err == nil {
		return e.StatusText
	}
	return e.Err.Error()
}

// RenderErr aborts the request with e. Server side errors are logged.
func RenderErr(ctx *gin.Context, e *Err) {
	if e.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("request_id", requestid.Get(ctx)),
			zap.String("path", ctx.FullPath()),
			zap.Int("status", e.HTTPStatusCode),
			zap.Error(e.Err),
		)
	}

	ctx.AbortWithStatusJSON(e.HTTPStatusCode, e)
}

func newErr(status int, err error) *Err {
	e := &Err{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
	}
	if err != nil && status < http.StatusInternalServerError {
		e.ErrorText = err.Error()
	}
	return e
}

func ErrBadRequest(err error) *Err {
	return newErr(http.StatusBadRequest, err)
}

func ErrUnauthorized(err error) *Err {
	return newErr(http.StatusUnauthorized, err)
}

func ErrWrongCredentials(err error) *Err {
	return newErr(http.StatusUnauthorized, errors.New("wrong email or password"))
}

func ErrPermissionDenied(err error) *Err {
	return newErr(http.StatusForbidden, err)
}

func ErrConflict(err error) *Err {
	return newErr(http.StatusConflict, err)
}

func ErrTooManyRequests(retryAfter time.Duration) *Err {
	return newErr(http.StatusTooManyRequests, fmt.Errorf("too many requests, retry in %s", retryAfter.Round(time.Second)))
}

func ErrInternalServerError(err error) *Err {
	return newErr(http.StatusInternalServerError, err)
}

// ErrDenied renders a policy denial: 403 when the account may not act at
// all, 422 when the request is out of bounds and 409 when a limit or
// duplicate blocks it.
func ErrDenied(d *domain.Denial) *Err {
	e := newErr(DenialStatus(d.Reason), d)
	e.Reason = d.Reason
	e.Message = d.Message()
	e.ResetsAt = d.ResetsAt
	return e
}

func DenialStatus(reason domain.DenialReason) int {
	switch reason {
	case domain.ReasonAccountSuspended,
		domain.ReasonAccountBanned,
		domain.ReasonSubmissionsPaused,
		domain.ReasonSubmissionsBanned,
		domain.ReasonKindNotPermitted,
		domain.ReasonSelfDonation:
		return http.StatusForbidden
	case domain.ReasonAmountOutOfRange,
		domain.ReasonMessageTooLong,
		domain.ReasonMethodNotAccepted,
		domain.ReasonTermsNotAccepted,
		domain.ReasonQuantityOutOfRange,
		domain.ReasonCategoryMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusConflict
	}
}

// ErrExternal renders a failed payment or moderation call.
func ErrExternal(f *service.ExternalFailure) *Err {
	e := newErr(http.StatusBadGateway, f)
	e.ErrorText = f.Error()
	retryable := f.Retryable()
	e.Retryable = &retryable
	return e
}

// FromEngine maps an error returned by the engine. Errors it does not know
// become a 500.
func FromEngine(err error) *Err {
	var (
		denial  *domain.Denial
		failure *service.ExternalFailure
	)

	switch {
	case errors.As(err, &denial):
		return ErrDenied(denial)
	case errors.As(err, &failure):
		return ErrExternal(failure)
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidAppealTransition):
		return ErrBadRequest(err)
	case errors.Is(err, service.ErrNotOwner):
		return ErrPermissionDenied(err)
	case errors.Is(err, service.ErrVersionConflict):
		return ErrConflict(service.ErrVersionConflict)
	case errors.Is(err, service.ErrAccountNotFound):
		return newErr(http.StatusNotFound, service.ErrAccountNotFound)
	case errors.Is(err, service.ErrArtworkNotFound):
		return newErr(http.StatusNotFound, service.ErrArtworkNotFound)
	case errors.Is(err, service.ErrEventNotFound):
		return newErr(http.StatusNotFound, service.ErrEventNotFound)
	case errors.Is(err, service.ErrEnforcementNotFound):
		return newErr(http.StatusNotFound, service.ErrEnforcementNotFound)
	case errors.Is(err, service.ErrAppealNotFound):
		return newErr(http.StatusNotFound, service.ErrAppealNotFound)
	default:
		return ErrInternalServerError(err)
	}
}
