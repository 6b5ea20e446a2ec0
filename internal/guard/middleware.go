package guard

import (
	"encoding/json"
	"net/http"

	"github.com/IGSolution/carehappyfarmsdemo/internal/session"
)

type deniedResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code"`
	Location string `json:"location"`
}

// Middleware enforces req on API routes. Waiting becomes 503 with
// Retry-After, an unauthenticated redirect becomes 401 and every other
// redirect becomes 403.
func Middleware(req Requirement) func(http.Handler) http.Handler {
	return middleware(req, func(r *http.Request) session.Snapshot {
		return session.SnapshotFromContext(r.Context())
	})
}

func middleware(req Requirement, snapshot func(*http.Request) session.Snapshot) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Decide(snapshot(r), req)
			switch d.Kind {
			case Allow:
				next.ServeHTTP(w, r)
			case Wait:
				w.Header().Set("Retry-After", "1")
				writeDenied(w, http.StatusServiceUnavailable, deniedResponse{
					Error: "session is still loading",
					Code:  "SESSION_LOADING",
				})
			default:
				status := http.StatusForbidden
				if d.Reason == ReasonUnauthenticated {
					status = http.StatusUnauthorized
				}
				w.Header().Set("Location", d.Location)
				writeDenied(w, status, deniedResponse{
					Error:    messageFor(d.Reason),
					Code:     string(d.Reason),
					Location: d.Location,
				})
			}
		})
	}
}

func messageFor(reason Reason) string {
	switch reason {
	case ReasonUnauthenticated:
		return "Please sign in to continue"
	case ReasonUnverified:
		return "Please confirm your email to continue"
	}
	return "You do not have access to this page"
}

func writeDenied(w http.ResponseWriter, status int, body deniedResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
