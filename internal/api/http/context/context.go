package context

import (
	"context"
)

type adminKey struct{}

// Manager stores and retrieves the authenticated admin in request contexts.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetAdminToContext returns a copy of ctx carrying the admin user name.
func (m *Manager) SetAdminToContext(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, adminKey{}, user)
}

// GetAdminFromContext returns the admin user name stored by
// SetAdminToContext. The boolean is false for unauthenticated requests.
func (m *Manager) GetAdminFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(adminKey{}).(string)
	if !ok || user == "" {
		return "", false
	}
	return user, true
}
