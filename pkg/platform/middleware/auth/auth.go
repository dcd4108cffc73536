// Package auth extracts the caller's provider access token from the request.
// Deciding what the token is worth is left to the session layer.
package auth

import (
	"net/http"
	"strings"

	"gatekeeper/pkg/requestcontext"
)

// DefaultCookieName is the cookie the web client stores the access token in.
const DefaultCookieName = "sb-access-token"

// TokenFromRequest returns the bearer token, falling back to the named
// cookie. An Authorization header that is not a bearer credential is ignored.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// AccessToken stores the request's access token, if any, in the context.
// Requests without a token continue anonymously.
func AccessToken(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := requestcontext.WithAccessToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetTokenCookie writes the access token cookie. A negative maxAge deletes
// it and zero makes it a browser-session cookie.
func SetTokenCookie(w http.ResponseWriter, cookieName, token string, maxAge int, secure bool) {
	cookie := &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
	if maxAge < 0 {
		cookie.Value = ""
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}
