package analyses

import "errors"

var (
	ErrNotFound        = errors.New("analysis not found")
	ErrAlreadyFinished = errors.New("analysis already finished")
	ErrInvalidInput    = errors.New("validation: clientId is required")
)

// Failure codes stored on failed analyses.
const (
	ErrorCodeValidation = "VALIDATION_ERROR"
	ErrorCodeStorage    = "STORAGE_ERROR"
	ErrorCodeInternal   = "INTERNAL_ERROR"
)
