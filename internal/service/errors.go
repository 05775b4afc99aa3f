package service

import (
	"errors"
	"fmt"
)

// ValidationError reports a rejected input. No partial write occurs; the
// error is surfaced directly to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func validationErr(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConsistencyError reports a live balance diverging from replay beyond
// tolerance. The recomputation engine self-heals by applying the recomputed
// value; the error is recorded for audit, not returned to abort the run.
type ConsistencyError struct {
	UserID     string
	Live       string
	Recomputed string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("balance divergence for %s: live %s, recomputed %s", e.UserID, e.Live, e.Recomputed)
}
