package model

import (
	"context"
	"net"
)

// SecurityLayer opens listeners for a server.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a startable network server.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}

// ContextManager carries the authenticated admin through request contexts.
type ContextManager interface {
	SetAdminToContext(ctx context.Context, user string) context.Context
	GetAdminFromContext(ctx context.Context) (string, bool)
}
