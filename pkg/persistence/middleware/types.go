package middleware

import "github.com/skillgate/skillgate/pkg/ports"

// Middleware allows wrapping an AuditStore to add behavior.
type Middleware func(ports.AuditStore) ports.AuditStore

// Chain wraps store with the given middlewares. The first middleware is the
// outermost one: Chain(s, a, b) routes Append through a, then b, then s.
func Chain(store ports.AuditStore, mws ...Middleware) ports.AuditStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
