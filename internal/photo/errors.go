package photo

import "fmt"

// CaptureError is returned when a capture device fails to produce an image.
type CaptureError struct {
	Reason string
	Err    error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture failed: %s", e.Reason)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

func captureFailed(reason string, err error) *CaptureError {
	return &CaptureError{Reason: reason, Err: err}
}
