package llm

import (
	"errors"
	"fmt"
)

// InvocationError wraps a model-call failure after retries are exhausted.
// The evaluation runner records the affected example as failed and moves
// on; it never aborts a run for one bad call.
type InvocationError struct {
	Provider string
	Err      error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("model invocation failed (%s): %v", e.Provider, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// IsInvocationError reports whether err is (or wraps) an InvocationError.
func IsInvocationError(err error) bool {
	var ie *InvocationError
	return errors.As(err, &ie)
}
