package invitation

import "errors"

// Error texts are shown to the user as is.
var (
	ErrActiveInvitationExists = errors.New("An active invitation already exists for this email")
	ErrInvalidInvitation      = errors.New("This invitation link is invalid or has expired.")
	ErrInvalidEmail           = errors.New("Please enter a valid email address")
	ErrPasswordMismatch       = errors.New("Passwords do not match")
	ErrPasswordTooShort       = errors.New("Password must be at least 6 characters long")
)
