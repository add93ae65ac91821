package stock

import (
	"errors"
	"fmt"
)

var ErrOrderNotFound = errors.New("order not found")

// UpdateError is returned by UpdateStock on any failure. The whole deduction
// rolled back; callers (the task worker, an API layer) decide retry or mapping.
type UpdateError struct {
	OrderID int64
	Cause   error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("stock update for order %d failed: %v", e.OrderID, e.Cause)
}

func (e *UpdateError) Unwrap() error {
	return e.Cause
}
