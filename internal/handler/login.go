package handler

import (
	"crypto/subtle"
	"net/http"

	"exposureserver/internal/config"
	"exposureserver/internal/logger"
	"exposureserver/internal/middleware"
	"exposureserver/internal/service"
)

// LoginHandler handles POST /auth/login by validating password and issuing
// a server-side token in the auth cookie.
func LoginHandler(config *config.Config, tokens *service.AuthTokens, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		password := r.FormValue("password")
		if subtle.ConstantTimeCompare([]byte(password), []byte(config.Password)) != 1 {
			logger.Warning("Failed login attempt from %s", r.RemoteAddr)
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.AuthCookie,
			Value:    tokens.Issue(),
			Path:     "/",
			MaxAge:   int(tokens.TTL().Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// LogoutHandler revokes the login token, clears the cookie and redirects to the login page.
func LogoutHandler(tokens *service.AuthTokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(middleware.AuthCookie); err == nil {
			tokens.Revoke(cookie.Value)
		}

		http.SetCookie(w, &http.Cookie{
			Name:   middleware.AuthCookie,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
