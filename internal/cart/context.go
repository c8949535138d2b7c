package cart

import "context"

type ctxKey struct{}

// NewContext attaches the shared cart store to the context. The application
// wires exactly one store per process lifetime, the way a UI tree carries
// one provider instance.
func NewContext(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, store)
}

// FromContext returns the attached cart store. Calling it outside a context
// produced by NewContext is a programmer error and panics immediately
// rather than handing back a silent empty cart.
func FromContext(ctx context.Context) *Store {
	store, ok := ctx.Value(ctxKey{}).(*Store)
	if !ok || store == nil {
		panic("cart.FromContext called without cart.NewContext; wire the cart store at startup")
	}
	return store
}
