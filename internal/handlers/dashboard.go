package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Navideft74/Arses-club/internal/models"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	db *gorm.DB
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// Dashboard renders the member's home page with their booked slots
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	userID := getUintFromContext(c, "userID")

	var slots []models.TimeSlot
	if err := h.db.Preload("Reservation").
		Where("user_id = ?", userID).
		Order("id").
		Find(&slots).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load bookings.")
	}

	data := pageData(c, "Dashboard", "dashboard", []Breadcrumb{
		{Title: "Home", URL: "/"},
		{Title: "Dashboard", URL: ""},
	})
	data["BookedSlots"] = slots
	return c.Render(http.StatusOK, "dashboard.html", data)
}
