package middleware

import (
	"net/http"

	"github.com/hackvision/vision/pkg/requestid"
)

const RequestIDHeader = "X-Request-Id"

// RequestID attaches a request ID to the request context. An incoming
// X-Request-Id header is honored so ids propagate across services.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = requestid.Generate()
		}

		ctx := requestid.ToContext(r.Context(), reqID)
		w.Header().Set(RequestIDHeader, reqID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
