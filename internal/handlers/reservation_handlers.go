package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Navideft74/Arses-club/internal/models"
	"github.com/Navideft74/Arses-club/internal/services"
)

const dateLayout = "2006-01-02"

// ReservationHandler serves the court calendar and the staff-only slot
// mutations.
type ReservationHandler struct {
	db  *gorm.DB
	svc *services.ReservationService
}

// NewReservationHandler creates a new ReservationHandler
func NewReservationHandler(db *gorm.DB, svc *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{db: db, svc: svc}
}

// ListCourts renders the court overview
func (h *ReservationHandler) ListCourts(c echo.Context) error {
	data := pageData(c, "Courts", "courts", []Breadcrumb{
		{Title: "Home", URL: "/"},
		{Title: "Courts", URL: ""},
	})
	data["Courts"] = models.Courts
	data["Today"] = time.Now().Format(dateLayout)
	return c.Render(http.StatusOK, "courts.html", data)
}

// CourtCalendar renders one court's slots for a date (today by default)
func (h *ReservationHandler) CourtCalendar(c echo.Context) error {
	courtID := c.Param("court")
	court, ok := models.CourtByID(courtID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Unknown court.")
	}

	date := time.Now()
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid date; use YYYY-MM-DD.")
		}
		date = parsed
	}

	data := pageData(c, court.Name, "courts", []Breadcrumb{
		{Title: "Home", URL: "/"},
		{Title: "Courts", URL: "/courts"},
		{Title: court.Name, URL: ""},
	})
	data["Court"] = court
	data["Date"] = models.DateOnly(date).Format(dateLayout)

	reservation, err := h.svc.Calendar(c.Request().Context(), courtID, date)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// The court has not been opened for this date yet.
		data["Reservation"] = nil
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load calendar.")
	default:
		data["Reservation"] = reservation
	}

	upcoming, err := h.svc.ListReservations(c.Request().Context(), courtID, time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load calendar.")
	}
	data["Upcoming"] = upcoming

	return c.Render(http.StatusOK, "calendar.html", data)
}

// CreateReservation opens a court for a date and generates its slots
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	courtID := c.FormValue("court")
	date, err := time.Parse(dateLayout, c.FormValue("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid date; use YYYY-MM-DD.")
	}

	_, err = h.svc.CreateReservation(c.Request().Context(), courtID, date)
	switch {
	case errors.Is(err, services.ErrUnknownCourt):
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown court.")
	case errors.Is(err, services.ErrDuplicateDate):
		return h.redirectToCalendar(c, courtID, date, "error", "A reservation already exists for this date.")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create reservation.")
	}
	return h.redirectToCalendar(c, courtID, date, "info", "Reservation created.")
}

// DeleteReservation removes a reservation and all of its slots
func (h *ReservationHandler) DeleteReservation(c echo.Context) error {
	courtID := c.FormValue("court")
	date, err := time.Parse(dateLayout, c.FormValue("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid date; use YYYY-MM-DD.")
	}

	if err := h.svc.DeleteReservation(c.Request().Context(), courtID, date); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "No reservation for this date.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete reservation.")
	}
	return h.redirectToCalendar(c, courtID, date, "info", "Reservation deleted.")
}

// BookSlot assigns a slot to a member
func (h *ReservationHandler) BookSlot(c echo.Context) error {
	slotID, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid slot id.")
	}
	userID, err := parseID(c.FormValue("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "A member is required to book a slot.")
	}

	slot, err := h.svc.BookSlot(c.Request().Context(), slotID, userID)
	switch {
	case errors.Is(err, services.ErrSlotNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Time slot not found.")
	case errors.Is(err, services.ErrSlotTaken):
		return h.redirectToSlot(c, slotID, "error", "That slot was just taken.")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to book slot.")
	}
	return h.redirectToSlotReservation(c, slot, "info", "Slot booked.")
}

// ReleaseSlot makes a slot available again
func (h *ReservationHandler) ReleaseSlot(c echo.Context) error {
	return h.mutateSlot(c, h.svc.ReleaseSlot, "Slot released.")
}

// MarkPaid records payment for a slot
func (h *ReservationHandler) MarkPaid(c echo.Context) error {
	return h.mutateSlot(c, h.svc.MarkPaid, "Slot marked as paid.")
}

// MarkUnpaid clears the payment flag on a slot
func (h *ReservationHandler) MarkUnpaid(c echo.Context) error {
	return h.mutateSlot(c, h.svc.MarkUnpaid, "Slot marked as unpaid.")
}

func (h *ReservationHandler) mutateSlot(c echo.Context, op func(ctx context.Context, slotID uint) (*models.TimeSlot, error), message string) error {
	slotID, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid slot id.")
	}

	slot, err := op(c.Request().Context(), slotID)
	switch {
	case errors.Is(err, services.ErrSlotNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Time slot not found.")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update slot.")
	}
	return h.redirectToSlotReservation(c, slot, "info", message)
}

// redirectToSlotReservation sends the admin back to the calendar page the
// slot belongs to.
func (h *ReservationHandler) redirectToSlotReservation(c echo.Context, slot *models.TimeSlot, kind, message string) error {
	var reservation models.Reservation
	if err := h.db.First(&reservation, slot.ReservationID).Error; err != nil {
		return redirectWithMessage(c, "/courts", kind, message)
	}
	return h.redirectToCalendar(c, reservation.CourtID, reservation.Date, kind, message)
}

func (h *ReservationHandler) redirectToSlot(c echo.Context, slotID uint, kind, message string) error {
	var slot models.TimeSlot
	if err := h.db.First(&slot, slotID).Error; err != nil {
		return redirectWithMessage(c, "/courts", kind, message)
	}
	return h.redirectToSlotReservation(c, &slot, kind, message)
}

func (h *ReservationHandler) redirectToCalendar(c echo.Context, courtID string, date time.Time, kind, message string) error {
	query := url.Values{}
	query.Set("date", models.DateOnly(date).Format(dateLayout))
	query.Set(kind, message)
	return c.Redirect(http.StatusSeeOther, "/courts/"+courtID+"?"+query.Encode())
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
