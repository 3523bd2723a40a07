package model

import (
	"errors"
	"strings"
)

// ErrConcurrentUpdate is returned when a document changed between read and write.
var ErrConcurrentUpdate = errors.New("document was modified concurrently, retry")

// CodeValidationFailed is the HTTP error code for rejected input.
const CodeValidationFailed = "VALIDATION_FAILED"

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors lists every violated field of a request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// JoinValidation merges the field errors of each err, keeping the first
// message reported for a field. A non-validation error is returned as is.
func JoinValidation(errs ...error) error {
	var out ValidationErrors
	seen := map[string]bool{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			if !seen[fe.Field] {
				seen[fe.Field] = true
				out = append(out, fe)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// NewValidationError builds a single-field ValidationErrors.
func NewValidationError(field, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message}}
}
