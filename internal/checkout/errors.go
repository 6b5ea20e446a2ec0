package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyPaid     = errors.New("checkout attempt is already paid")
	ErrAttemptNotFound = errors.New("checkout attempt not found")
	// ErrVerificationIncomplete means the return from the payment gateway
	// lacked a reference or a known attempt.
	ErrVerificationIncomplete = errors.New("payment reference or checkout attempt missing")
	ErrPaymentNotVerified     = errors.New("payment could not be verified")
	ErrIllegalTransition      = errors.New("illegal transition of checkout status")
)

// ValidationError is returned before any remote call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StepError records which saga step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("checkout step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
