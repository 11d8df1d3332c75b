package gateway

import "fmt"

// InitError is returned when a Client cannot be constructed from its Config
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("gateway: init client: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *InitError) Unwrap() error {
	return e.Err
}
