package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/onnwee/irisrank/internal/middleware"
)

// authError mirrors the API error envelope. Defined locally to keep the
// dependency direction auth -> middleware only.
type authError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeAuthError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	middleware.SetErrorCode(r.Context(), code)

	var resp authError
	resp.Error.Code = code
	resp.Error.Message = message

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// RequireAuth returns middleware that validates the Bearer token and stores
// the caller ID in the request context. Requests without a valid token with
// the required scope are rejected.
func RequireAuth(svc *JWTService, requiredScope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeAuthError(w, r, http.StatusUnauthorized, "auth_failed", "missing Authorization header")
				return
			}

			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found || tokenString == "" {
				writeAuthError(w, r, http.StatusUnauthorized, "auth_failed", "Authorization header must be a Bearer token")
				return
			}

			claims, err := svc.ValidateToken(tokenString)
			if err != nil {
				writeAuthError(w, r, http.StatusUnauthorized, "auth_failed", "invalid or expired token")
				return
			}

			if !claims.HasScope(requiredScope) {
				writeAuthError(w, r, http.StatusForbidden, "forbidden", "insufficient scope")
				return
			}

			ctx := middleware.SetCallerID(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
