package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Navideft74/Arses-club/internal/services"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "session"

// RequireAuth returns a middleware that resolves the session cookie against
// the session store and loads the authenticated user into the context.
// Requests without a valid authenticated session are redirected to /login.
func RequireAuth(sessions services.SessionStore, auth *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return c.Redirect(http.StatusTemporaryRedirect, "/login")
			}

			session, err := sessions.Get(c.Request().Context(), cookie.Value)
			if err != nil || session.UserID == 0 {
				// Stale or anonymous session, clear cookie and redirect
				clearCookie := &http.Cookie{
					Name:     SessionCookieName,
					Value:    "",
					MaxAge:   -1,
					HttpOnly: true,
					Path:     "/",
				}
				c.SetCookie(clearCookie)
				return c.Redirect(http.StatusTemporaryRedirect, "/login")
			}

			user, err := auth.UserByID(c.Request().Context(), session.UserID)
			if err != nil {
				return c.Redirect(http.StatusTemporaryRedirect, "/login")
			}

			// Set user info in context for downstream handlers
			c.Set("userID", user.ID)
			c.Set("userName", user.DisplayName())
			c.Set("userIsStaff", user.IsStaff)
			c.Set("sessionToken", cookie.Value)

			return next(c)
		}
	}
}

// RequireStaff gates the admin routes. It assumes RequireAuth already ran.
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			isStaff, _ := c.Get("userIsStaff").(bool)
			if !isStaff {
				return echo.NewHTTPError(http.StatusForbidden, "staff access required")
			}
			return next(c)
		}
	}
}
