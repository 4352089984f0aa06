package core

import "context"

type contextKey string

const (
	ctxKeyPrincipal contextKey = "principal"
	ctxKeyIPAddress contextKey = "client_ip"
	ctxKeyUserAgent contextKey = "client_ua"
)

// Role is a portal user's role.
type Role string

const (
	RoleAdmin    Role = "super_admin"
	RoleRetailer Role = "retailer"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID     string
	Role       Role
	RetailerID string // set for retailers only
}

// IsAdmin reports whether the principal may run imports.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ContextWithPrincipal attaches the authenticated caller to ctx.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFromContext returns the caller, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(Principal)
	return p, ok
}

// ContextWithIPAddress adds the client IP to context for logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent adds the User-Agent to context for logging.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// GetIPAddressFromContext extracts the client IP from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// GetUserAgentFromContext extracts the User-Agent from context.
func GetUserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}
