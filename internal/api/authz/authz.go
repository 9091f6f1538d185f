package authz

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Principal is the authenticated identity and role performing a request.
// Middleware resolves it from the session cookie and stores it on the
// request context; services never consult ambient auth state.
type Principal struct {
	UserID int64
	Name   string
	Role   string
}

type principalContextKey struct{}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext retrieves the Principal stored in ctx. It returns nil
// if ctx is nil, if no principal is stored, or if the stored value has a
// different type.
func PrincipalFromContext(ctx context.Context) *Principal {
	if ctx == nil {
		return nil
	}

	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok {
		return nil
	}

	return p
}

// RequireRole is the single capability check used by every gated operation.
// It returns ErrUnauthenticated when no principal is present and
// ErrForbidden when the principal's role is not in the allowed set.
func RequireRole(ctx context.Context, roles ...string) error {
	p := PrincipalFromContext(ctx)
	if p == nil {
		return ErrUnauthenticated
	}
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// IsStaff reports whether the principal holds a staff or admin role.
func IsStaff(p *Principal) bool {
	return p != nil && (p.Role == "staff" || p.Role == "admin")
}

// CanActOnBooking reports whether the principal may mutate a booking owned
// by ownerID: the owner themselves, or any staff/admin.
func CanActOnBooking(p *Principal, ownerID int64) bool {
	if p == nil {
		return false
	}
	return p.UserID == ownerID || IsStaff(p)
}
