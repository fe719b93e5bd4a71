package middleware

import (
	"net/http"
	"strings"
)

// AuthCookie is the cookie set by a successful login.
const AuthCookie = "authenticated"

// TokenValidator accepts only login tokens the server issued.
type TokenValidator interface {
	Valid(token string) bool
}

// AuthMiddleware checks that the user is logged in: the auth cookie must
// carry a token accepted by tokens. With an empty password every request
// is let through.
func AuthMiddleware(password string, tokens TokenValidator, next http.Handler) http.Handler {
	if password == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Login page, login endpoint and static assets are public
		if r.URL.Path == "/login" ||
			r.URL.Path == "/auth/login" ||
			strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(AuthCookie)
		if err != nil || tokens == nil || !tokens.Valid(cookie.Value) {
			// API calls get 401, pages are redirected to the login form
			if strings.HasPrefix(r.URL.Path, "/api/") ||
				r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
