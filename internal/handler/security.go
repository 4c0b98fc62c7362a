package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/market-orders/internal/domain/auth"
)

// Authenticate resolves the bearer token to a user and stores it in the
// request context. A missing token is 403, any other failure 401.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		u, err := h.verifier.Verify(ctx, r.Header.Get("Authorization"))
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrUnauthenticated):
			writeAuthError(w, http.StatusForbidden, "No Token Provided!")
			return
		default:
			if !errors.Is(err, auth.ErrInvalidToken) {
				zctx.From(ctx).Error("Verify token", zap.Error(err))
			}
			writeAuthError(w, http.StatusUnauthorized, "Unauthorized!")
			return
		}

		ctx = zctx.With(ctx, zap.Stringer("user_id", u.ID))
		next.ServeHTTP(w, r.WithContext(auth.WithUser(ctx, u)))
	})
}
