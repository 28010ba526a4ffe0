package rampart

import (
	"context"

	"github.com/xraph/forge"
)

type contextKey int

const (
	ctxKeyOrganizationID contextKey = iota
	ctxKeyUserID
)

// WithCaller returns a context carrying the calling user and organization.
// Use this in standalone mode (without Forge).
func WithCaller(ctx context.Context, userID, organizationID string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID, userID)
	return context.WithValue(ctx, ctxKeyOrganizationID, organizationID)
}

// OrganizationFromContext returns the organization of the caller, taken
// from forge.Scope when present and from WithCaller otherwise.
func OrganizationFromContext(ctx context.Context) string {
	if s, ok := forge.ScopeFrom(ctx); ok && s.OrgID() != "" {
		return s.OrgID()
	}
	v, _ := ctx.Value(ctxKeyOrganizationID).(string)
	return v
}

// UserFromContext returns the calling user, taken from forge's identity
// when present and from WithCaller otherwise.
func UserFromContext(ctx context.Context) string {
	if uid := forge.UserIDFromContext(ctx); uid != "" {
		return uid
	}
	v, _ := ctx.Value(ctxKeyUserID).(string)
	return v
}
