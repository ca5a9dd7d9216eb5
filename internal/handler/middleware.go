package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/boddenberg/driver-finance-go/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "userID"

// devUserHeader carries the user id when development auth is enabled.
const devUserHeader = "X-User-ID"

// AuthMiddleware validates Bearer tokens and injects the user id into the
// context. With devAuth set, an X-User-ID header is accepted instead.
func AuthMiddleware(authSvc *service.AuthService, devAuth bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if devAuth {
				if userID := strings.TrimSpace(r.Header.Get(devUserHeader)); userID != "" {
					next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
					return
				}
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "Token de autenticação não fornecido")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "Formato de token inválido")
				return
			}
			if authSvc == nil {
				writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "Autenticação por token indisponível")
				return
			}

			claims, err := authSvc.ValidateAccessToken(parts[1])
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeErrorCode(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.Subject)))
		})
	}
}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the authenticated user id from context.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}
