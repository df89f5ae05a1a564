package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/CrowderSoup/lists-app/services"
)

type contextKey string

const claimsContextKey contextKey = "claims"

type AuthMiddleware struct {
	authService *services.AuthService
}

func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// bearerToken reads the token from the Authorization header, or from the
// token query parameter for websocket clients that cannot set headers
func bearerToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		authParts := strings.Split(authHeader, " ")
		if len(authParts) != 2 || authParts[0] != "Bearer" {
			return "", false
		}
		return authParts[1], true
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, true
	}
	return "", false
}

func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			http.Error(w, "missing or invalid authorization", http.StatusUnauthorized)
			return
		}

		claims, err := m.authService.VerifyJWT(tokenString)
		if err != nil {
			http.Error(w, "invalid token: "+err.Error(), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFrom(r *http.Request) (services.Claims, bool) {
	claims, ok := r.Context().Value(claimsContextKey).(services.Claims)
	return claims, ok && claims.UID != ""
}
