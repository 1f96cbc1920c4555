package utils

import "fmt"

// ErrStage marks an error of a pipeline stage,
// the recording is moved to failed on such error
type ErrStage struct {
	Stage string
	err   error
}

// NewErrStage creates new error
func NewErrStage(stage fmt.Stringer, err error) error {
	return &ErrStage{Stage: stage.String(), err: err}
}

func (e *ErrStage) Error() string {
	return e.Stage + " failed: " + e.err.Error()
}

func (e *ErrStage) Unwrap() error {
	return e.err
}

// Limit cuts the string to max runes
func Limit(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
