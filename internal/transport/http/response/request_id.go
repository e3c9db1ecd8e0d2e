package response

import (
	"net/http"

	appCtx "github.com/baechuer/real-time-ressys/services/discovery-service/internal/pkg/context"
)

// RequestIDFromRequest prefers the id set by the RequestID middleware and falls
// back to the inbound header.
func RequestIDFromRequest(r *http.Request) string {
	if v := appCtx.GetRequestID(r.Context()); v != "" {
		return v
	}
	if v := r.Header.Get("X-Request-Id"); v != "" {
		return v
	}
	return r.Header.Get("X-Request-ID")
}
