package catalog

import (
	"errors"
	"fmt"
)

var ErrProductNotFound = errors.New("product not found")

// ValidationError rejects producer input before any backend call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
