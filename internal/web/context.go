package web

import (
	"context"
	"net/http"

	"github.com/telepoint/emi-portal/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for the
// service's import log lines. RemoteAddr is already rewritten by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr)
	return core.ContextWithUserAgent(ctx, r.UserAgent())
}
