package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Navideft74/Arses-club/internal/models"
)

// UserHandler serves the staff-only member list, used to pick members when
// booking slots.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// ListUsers renders the list of members
func (h *UserHandler) ListUsers(c echo.Context) error {
	var users []models.User
	if err := h.db.Preload("Profile").Order("id").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch members")
	}

	data := pageData(c, "Members", "users", []Breadcrumb{
		{Title: "Home", URL: "/"},
		{Title: "Members", URL: ""},
	})
	data["Users"] = users
	return c.Render(http.StatusOK, "users.html", data)
}
