package service

import (
	"errors"
	"fmt"

	"github.com/artxchange/artx-api/internal/pkg/moderation"
	"github.com/artxchange/artx-api/internal/pkg/payment"
	"github.com/artxchange/artx-api/internal/repository"
)

var (
	ErrAccountNotFound     = repository.ErrAccountNotFound
	ErrAccountEmailExists  = repository.ErrAccountEmailExists
	ErrArtworkNotFound     = repository.ErrArtworkNotFound
	ErrEventNotFound       = repository.ErrEventNotFound
	ErrEnforcementNotFound = repository.ErrEnforcementNotFound
	ErrAppealNotFound      = repository.ErrAppealNotFound
	ErrVersionConflict     = repository.ErrVersionConflict

	ErrPaymentDeclined       = payment.ErrDeclined
	ErrPaymentUnavailable    = payment.ErrUnavailable
	ErrModerationUnavailable = moderation.ErrUnavailable

	ErrWrongPassword = errors.New("wrong password")
	ErrNotOwner      = errors.New("not the owner of this resource")
	ErrInvalidInput  = errors.New("invalid input")
)

// ExternalFailure is a failed call to the payment gateway or the moderation
// queue. Nothing was committed when one is returned.
type ExternalFailure struct {
	Service string
	Op      string
	Err     error
}

func (e *ExternalFailure) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalFailure) Unwrap() error {
	return e.Err
}

// Retryable reports whether trying again may succeed. A declined payment
// needs a different payment method instead.
func (e *ExternalFailure) Retryable() bool {
	return !errors.Is(e.Err, payment.ErrDeclined)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
