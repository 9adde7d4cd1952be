package usercontext

import (
	"context"
	"strings"
)

const (
	RoleBusiness  = "business"
	RoleJobSeeker = "job_seeker"
	RoleAdmin     = "admin"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
	Role   string
}

func (i Identity) IsBusiness() bool {
	return i.Role == RoleBusiness || i.Role == RoleAdmin
}

type identityKey struct{}

// WithIdentity stores the caller identity in the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	identity.UserID = strings.TrimSpace(identity.UserID)
	identity.Role = strings.ToLower(strings.TrimSpace(identity.Role))
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the caller identity, if set.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || identity.UserID == "" {
		return Identity{}, false
	}
	return identity, true
}

// UserIDFromContext returns the caller user ID, if set.
func UserIDFromContext(ctx context.Context) (string, bool) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return "", false
	}
	return identity.UserID, true
}
