package domain

import "context"

// contextKey is a type for context keys to avoid collisions
type contextKey string

const orgIDKey contextKey = "org_id"

// DefaultOrgID is used when no org is specified (single-tenant installs).
const DefaultOrgID uint = 1

// WithOrgID stores the org ID in the context (type-safe)
func WithOrgID(ctx context.Context, orgID uint) context.Context {
	return context.WithValue(ctx, orgIDKey, orgID)
}

// GetOrgIDFromContext retrieves the org ID from the context, or 0 if absent
func GetOrgIDFromContext(ctx context.Context) uint {
	if v, ok := ctx.Value(orgIDKey).(uint); ok {
		return v
	}
	return 0
}
