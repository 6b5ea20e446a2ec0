// Package guard decides whether a session may use a view or API route.
package guard

import (
	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/session"
)

const (
	PublicEntry = "/"
	AuthEntry   = "/auth"
)

type Kind int

const (
	Wait Kind = iota
	Allow
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonUnverified      Reason = "unverified"
	ReasonForbiddenRole   Reason = "forbidden_role"
)

type Decision struct {
	Kind     Kind
	Location string
	Reason   Reason
}

type Requirement struct {
	RequireVerified bool
	// Roles is empty when any role may pass.
	Roles []domain.Role
}

func (r Requirement) allows(role domain.Role) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if role == allowed {
			return true
		}
	}
	return false
}

// Decide applies, in order: wait while loading, send anonymous or
// profile-less sessions to the public entry, send unconfirmed sessions to
// sign-in when verification is required, and send disallowed roles to the
// public entry.
func Decide(snap session.Snapshot, req Requirement) Decision {
	if snap.Loading() {
		return Decision{Kind: Wait}
	}
	if snap.Identity == nil || snap.Profile == nil {
		return Decision{Kind: Redirect, Location: PublicEntry, Reason: ReasonUnauthenticated}
	}
	if req.RequireVerified && !snap.Confirmed() {
		return Decision{Kind: Redirect, Location: AuthEntry, Reason: ReasonUnverified}
	}
	if !req.allows(snap.Role()) {
		return Decision{Kind: Redirect, Location: PublicEntry, Reason: ReasonForbiddenRole}
	}
	return Decision{Kind: Allow}
}

// Landing picks where the index page sends a visitor.
func Landing(snap session.Snapshot) string {
	if snap.Loading() || snap.Identity == nil {
		return PublicEntry
	}
	if !snap.Confirmed() {
		return AuthEntry
	}
	if snap.Role() == domain.RoleFarmer {
		return "/dashboard"
	}
	return "/marketplace"
}

var (
	Public    = Requirement{}
	Checkout  = Requirement{RequireVerified: true}
	Dashboard = Requirement{RequireVerified: true, Roles: []domain.Role{domain.RoleFarmer, domain.RoleAdmin}}
	Admin     = Requirement{RequireVerified: true, Roles: []domain.Role{domain.RoleAdmin}}
)
