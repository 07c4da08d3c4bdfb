package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vaultcast/storefront-backend/pkg/logger"
)

const (
	sessionHeader = "X-Session-Id"
	SessionCookie = "sf_session"
	sessionMaxAge = 30 * 24 * time.Hour
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,64}$`)

// BuyerSession binds every storefront request to an anonymous buyer
// session. The id comes from the X-Session-Id header, then the sf_session
// cookie; when neither carries a well-formed id a new one is issued as a
// cookie and echoed in the response header.
func BuyerSession(secureCookie bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(sessionHeader))
			if !sessionIDPattern.MatchString(sessionID) {
				sessionID = ""
				if cookie, err := r.Cookie(SessionCookie); err == nil && sessionIDPattern.MatchString(cookie.Value) {
					sessionID = cookie.Value
				}
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(sessionMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(sessionHeader, sessionID)

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
