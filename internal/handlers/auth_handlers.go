package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Navideft74/Arses-club/internal/middleware"
	"github.com/Navideft74/Arses-club/internal/services"
)

const (
	// authenticatedSessionTTL keeps members signed in for five days.
	authenticatedSessionTTL = 5 * 24 * time.Hour
	// pendingSessionTTL covers the gap between requesting a code and
	// verifying it.
	pendingSessionTTL = 15 * time.Minute
)

// AuthHandler handles the OTP login flow and profile pages
type AuthHandler struct {
	auth     *services.AuthService
	sessions services.SessionStore
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *services.AuthService, sessions services.SessionStore) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

// LoginPage renders the combined signup/login form
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", map[string]interface{}{
		"Title": "Sign in",
		"Error": c.QueryParam("error"),
		"Info":  c.QueryParam("info"),
	})
}

// HandleLogin issues a one-time code for the submitted mobile number and
// binds the number to the browser session for the verify step. An unknown
// number is a first-time signup.
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	mobile := strings.TrimSpace(c.FormValue("mobile"))

	_, err := h.auth.RequestOTP(c.Request().Context(), mobile)
	switch {
	case errors.Is(err, services.ErrMobileRequired):
		return redirectWithMessage(c, "/login", "error", "Please enter a valid mobile number.")
	case errors.Is(err, services.ErrOTPAlreadySent):
		if err := h.bindPendingMobile(c, mobile); err != nil {
			return err
		}
		return redirectWithMessage(c, "/verify", "info", "A code was recently sent. Please check your messages.")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to send code. Please try again.")
	}

	if err := h.bindPendingMobile(c, mobile); err != nil {
		return err
	}
	return redirectWithMessage(c, "/verify", "info", "Code sent! It is valid for three minutes.")
}

// VerifyPage renders the code entry form
func (h *AuthHandler) VerifyPage(c echo.Context) error {
	return c.Render(http.StatusOK, "verify.html", map[string]interface{}{
		"Title": "Enter your code",
		"Error": c.QueryParam("error"),
		"Info":  c.QueryParam("info"),
	})
}

// HandleVerify checks the submitted code against the mobile number bound to
// the session. On success the pending binding is replaced by an
// authenticated session and incomplete profiles are routed to completion.
func (h *AuthHandler) HandleVerify(c echo.Context) error {
	ctx := c.Request().Context()

	var mobile string
	token := h.sessionToken(c)
	if token != "" {
		if session, err := h.sessions.Get(ctx, token); err == nil {
			mobile = session.PendingMobile
		}
	}

	user, incomplete, err := h.auth.VerifyOTP(ctx, mobile, c.FormValue("otp"))
	switch {
	case errors.Is(err, services.ErrSessionExpired):
		return redirectWithMessage(c, "/login", "error", "Session expired. Please start again.")
	case errors.Is(err, services.ErrInvalidOTPFormat):
		return redirectWithMessage(c, "/verify", "error", "Invalid code format. Please enter numbers only.")
	case errors.Is(err, services.ErrOTPMismatch), errors.Is(err, services.ErrUserNotFound):
		return redirectWithMessage(c, "/verify", "error", "Invalid code or the code has expired.")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Verification failed. Please try again.")
	}

	// Drop the pending binding and start a fresh authenticated session.
	if token != "" {
		_ = h.sessions.Delete(ctx, token)
	}
	token = h.issueToken(c)
	if err := h.sessions.Put(ctx, token, services.Session{UserID: user.ID}, authenticatedSessionTTL); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session.")
	}

	if incomplete {
		return redirectWithMessage(c, "/profile/complete", "info", "Please complete your profile information.")
	}
	return redirectWithMessage(c, "/dashboard", "info", "Login successful!")
}

// CompleteProfilePage renders the profile completion form
func (h *AuthHandler) CompleteProfilePage(c echo.Context) error {
	return c.Render(http.StatusOK, "complete_profile.html", pageData(c, "Complete your profile", "", nil))
}

// HandleCompleteProfile stores the member's first and last name
func (h *AuthHandler) HandleCompleteProfile(c echo.Context) error {
	userID := getUintFromContext(c, "userID")
	err := h.auth.CompleteProfile(c.Request().Context(), userID, c.FormValue("first_name"), c.FormValue("last_name"))
	switch {
	case errors.Is(err, services.ErrNameRequired):
		return redirectWithMessage(c, "/profile/complete", "error", "First and last name are required.")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update profile.")
	}
	return redirectWithMessage(c, "/dashboard", "info", "Profile updated successfully.")
}

// ProfilePage renders the profile update form with current values
func (h *AuthHandler) ProfilePage(c echo.Context) error {
	user, err := h.auth.UserByID(c.Request().Context(), getUintFromContext(c, "userID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load profile.")
	}

	data := pageData(c, "Your profile", "profile", []Breadcrumb{
		{Title: "Home", URL: "/"},
		{Title: "Profile", URL: ""},
	})
	data["Mobile"] = user.Mobile
	if user.Profile != nil {
		data["FirstName"] = user.Profile.FirstName
		data["LastName"] = user.Profile.LastName
	}
	return c.Render(http.StatusOK, "profile.html", data)
}

// HandleUpdateProfile saves edits to the member's name
func (h *AuthHandler) HandleUpdateProfile(c echo.Context) error {
	userID := getUintFromContext(c, "userID")
	err := h.auth.CompleteProfile(c.Request().Context(), userID, c.FormValue("first_name"), c.FormValue("last_name"))
	switch {
	case errors.Is(err, services.ErrNameRequired):
		return redirectWithMessage(c, "/profile", "error", "First and last name are required.")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update profile.")
	}
	return redirectWithMessage(c, "/profile", "info", "Profile updated successfully!")
}

// HandleLogout drops the session and clears the cookie
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	if token := h.sessionToken(c); token != "" {
		_ = h.sessions.Delete(c.Request().Context(), token)
	}
	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	}
	c.SetCookie(cookie)

	return redirectWithMessage(c, "/login", "info", "You have been logged out successfully.")
}

func (h *AuthHandler) sessionToken(c echo.Context) string {
	cookie, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// issueToken sets a fresh HTTP-only session cookie and returns its token.
func (h *AuthHandler) issueToken(c echo.Context) string {
	token := uuid.NewString()
	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		MaxAge:   int(authenticatedSessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   os.Getenv("ENV") == "production",
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)
	return token
}

// bindPendingMobile stores the mobile number awaiting verification on the
// browser session, issuing a session cookie if there is none yet.
func (h *AuthHandler) bindPendingMobile(c echo.Context, mobile string) error {
	token := h.sessionToken(c)
	if token == "" {
		token = h.issueToken(c)
	}
	return h.sessions.Put(c.Request().Context(), token, services.Session{PendingMobile: mobile}, pendingSessionTTL)
}

func redirectWithMessage(c echo.Context, path, kind, message string) error {
	return c.Redirect(http.StatusSeeOther, path+"?"+kind+"="+url.QueryEscape(message))
}
