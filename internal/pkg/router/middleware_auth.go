package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/supavault/internal/pkg/jwt"
)

// sessionToken reads the session cookie first and falls back to a bearer
// Authorization header for non-browser clients.
func sessionToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	p := strings.Fields(r.Header.Get("Authorization"))
	if len(p) == 2 && strings.EqualFold(p[0], "Bearer") {
		return p[1]
	}
	return ""
}

func middlewareAuthentication(verifier jwt.JWT, cookieName string, publicEndpoints map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r, cookieName)

			// public endpoints still see the caller when a valid session is sent
			if s, ok := publicEndpoints[r.Method]; ok {
				if _, public := s[matchedRoutePath(r)]; public {
					if token != "" {
						if claims, err := verifier.Verify(token); err == nil {
							r = r.WithContext(jwt.SetAuth(r.Context(), claims))
						}
					}
					next.ServeHTTP(w, r)
					return
				}
			}

			if token == "" {
				writeJSON(w, errorResponse{Message: "Unauthorized"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				writeJSON(w, errorResponse{Message: "Invalid token"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
