package gather

import "fmt"

// SoftFetchError marks an external-call failure the pipeline absorbs:
// the step records the error and continues with empty evidence instead
// of aborting the job.
type SoftFetchError struct {
	Op  string
	Err error
}

func (e *SoftFetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SoftFetchError) Unwrap() error {
	return e.Err
}

func NewSoftFetchError(op string, err error) *SoftFetchError {
	return &SoftFetchError{Op: op, Err: err}
}
