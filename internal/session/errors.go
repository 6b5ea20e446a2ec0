package session

import "errors"

var (
	ErrIllegalTransition = errors.New("illegal session state transition")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrNoUser            = errors.New("No user found")
	ErrInvalidToken      = errors.New("invalid access token")
)

// ErrEmailNotConfirmed is returned by SignIn for identities that have not
// confirmed their email. Its text is shown to the user as is.
var ErrEmailNotConfirmed = errors.New("Please confirm your email before signing in. Check your email for the confirmation link.")
