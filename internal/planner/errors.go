package planner

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested id has no backing request record at all.
var ErrNotFound = errors.New("meal plan request not found")

// ErrEmptyGeneration indicates the model returned no usable text.
var ErrEmptyGeneration = errors.New("model returned no usable text")

// ExternalServiceError is any OCR or LLM transport failure, timeout, or
// refusal. It is never retried by the pipeline; callers may resubmit.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service %s failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// PlanFormatError indicates the model returned text that is not parseable or
// shape-valid JSON. RawText is for operator logs only and must never be shown
// to end users.
type PlanFormatError struct {
	RawText string
	Err     error
}

func (e *PlanFormatError) Error() string {
	return fmt.Sprintf("meal plan response is not a valid plan document: %v", e.Err)
}

func (e *PlanFormatError) Unwrap() error {
	return e.Err
}
