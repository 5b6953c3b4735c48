package service

import (
	"errors"
	"fmt"

	"github.com/maheshrc27/adsync/internal/transfer"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("campaign not found")
	ErrPreconditionFailed = errors.New("campaign has no remote campaign id")
	// ErrCredentials means no request was sent because the advertiser
	// credential could not be resolved.
	ErrCredentials = errors.New("tiktok credentials unavailable")
)

// RemoteBusinessError is returned when the platform answered with a non-zero
// envelope code. Payload carries the full envelope.
type RemoteBusinessError struct {
	Operation transfer.Operation
	Code      int64
	Message   string
	Payload   map[string]any
}

func (e *RemoteBusinessError) Error() string {
	return fmt.Sprintf("%s rejected by remote platform (code %d): %s", e.Operation, e.Code, e.Message)
}

// TransportError means the exchange itself did not complete, so whether the
// platform executed the command is unknown.
type TransportError struct {
	Operation transfer.Operation
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport failure: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
