package session

import "context"

type storeKey struct{}

// NewContext attaches the request's session store to ctx.
func NewContext(ctx context.Context, st *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, st)
}

// FromContext returns the session store of an authenticated request.
func FromContext(ctx context.Context) (*Store, bool) {
	st, ok := ctx.Value(storeKey{}).(*Store)
	return st, ok && st != nil
}

// SnapshotFromContext treats a request without a session as signed out.
func SnapshotFromContext(ctx context.Context) Snapshot {
	if st, ok := FromContext(ctx); ok {
		return st.Snapshot()
	}
	return Snapshot{State: StateUnauthenticated}
}
