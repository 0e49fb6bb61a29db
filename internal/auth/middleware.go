package auth

import (
	"net/http"
	"strings"

	"github.com/calebhs/linkhive/internal/auth/context/loggercontext"
	"github.com/calebhs/linkhive/internal/auth/context/usercontext"
	"github.com/calebhs/linkhive/internal/models"
)

// ApiMiddleware resolves a bearer token to its owner and puts the user
// on the request context. Everything behind it can assume a user.
type ApiMiddleware struct {
	TokenModel *models.TokenModel
}

func (amw ApiMiddleware) RequireApiToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "Missing API token", http.StatusUnauthorized)
			return
		}

		user, err := amw.TokenModel.User(r.Context(), token)
		if err != nil {
			loggercontext.Logger(r.Context()).Infow("rejected api token", "error", err)
			http.Error(w, "Invalid API token", http.StatusUnauthorized)
			return
		}

		ctx := usercontext.WithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
