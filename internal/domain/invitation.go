package domain

import "time"

const InvitationTTL = 7 * 24 * time.Hour

type AdminInvitation struct {
	ID        string    `json:"id,omitempty"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Active reports whether the invitation is unused and unexpired at now.
func (i *AdminInvitation) Active(now time.Time) bool {
	return i != nil && !i.Used && now.Before(i.ExpiresAt)
}
