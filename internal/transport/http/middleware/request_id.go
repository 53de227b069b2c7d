package middleware

import (
	"net/http"

	"github.com/google/uuid"

	appCtx "github.com/baechuer/admin-portal/internal/pkg/context"
)

const HeaderXRequestID = "X-Request-Id"

// RequestID reuses an inbound X-Request-Id or mints one, and records the
// caller IP alongside it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderXRequestID)
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}

		w.Header().Set(HeaderXRequestID, reqID)

		ctx := appCtx.WithRequestID(r.Context(), reqID)
		ctx = appCtx.WithClientIP(ctx, clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
