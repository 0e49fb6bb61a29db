package logging

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/calebhs/linkhive/internal/auth/context/loggercontext"
)

// Middleware puts a request-scoped logger on the context so handlers
// and the pipeline log with the request id attached.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		reqLogger := Logger
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			reqLogger = reqLogger.With("requestId", reqID)
		}
		ctx = loggercontext.WithLogger(ctx, reqLogger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
