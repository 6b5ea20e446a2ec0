package session

import "fmt"

type State int

const (
	StateInitializing State = iota
	StateUnauthenticated
	StateAuthenticatedUnconfirmed
	StateAuthenticatedConfirmed
	StateProfileLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticatedUnconfirmed:
		return "authenticated_unconfirmed"
	case StateAuthenticatedConfirmed:
		return "authenticated_confirmed"
	case StateProfileLoading:
		return "profile_loading"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Loading is true until the session check and any profile fetch have
// settled.
func (s State) Loading() bool {
	return s != StateUnauthenticated && s != StateReady
}

var transitions = map[State][]State{
	StateInitializing: {
		StateUnauthenticated, StateAuthenticatedUnconfirmed, StateAuthenticatedConfirmed,
	},
	StateUnauthenticated: {
		StateUnauthenticated, StateAuthenticatedUnconfirmed, StateAuthenticatedConfirmed,
	},
	StateAuthenticatedUnconfirmed: {
		StateUnauthenticated, StateAuthenticatedUnconfirmed, StateAuthenticatedConfirmed, StateProfileLoading,
	},
	StateAuthenticatedConfirmed: {
		StateUnauthenticated, StateProfileLoading,
	},
	StateProfileLoading: {
		StateUnauthenticated, StateReady,
	},
	StateReady: {
		StateUnauthenticated, StateAuthenticatedUnconfirmed, StateAuthenticatedConfirmed, StateProfileLoading,
	},
}

func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
