package forecast

import "errors"

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrDataUnavailable  = errors.New("session data unavailable")
	ErrModelNotFound    = errors.New("demand model not found")
	ErrSchemaMismatch   = errors.New("feature schema mismatch")
	ErrPersistence      = errors.New("model persistence failure")
	ErrCorrupt          = errors.New("model artifact corrupt")
	ErrInvalidHorizon   = errors.New("invalid forecast horizon")
)
