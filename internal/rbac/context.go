package rbac

import (
	"context"
	"net/http"

	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

type callerContextKey struct{}

// ContextWithCaller stores the resolved caller in ctx.
func ContextWithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext extracts the caller placed by Middleware.Authenticate.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerContextKey{}).(Caller)
	return caller, ok
}

// RequestCaller returns the request's caller or shared.ErrUnauthenticated.
func RequestCaller(r *http.Request) (Caller, error) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		return Caller{}, shared.ErrUnauthenticated
	}
	return caller, nil
}
