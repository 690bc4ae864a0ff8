package apperr

import "errors"

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUnknownUser       = errors.New("unknown user")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrEmptyMessage      = errors.New("empty message")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrDeliveryFailed    = errors.New("delivery failed")
	ErrInternal          = errors.New("internal error")
)
