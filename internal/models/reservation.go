package models

import "time"

// Reservation is the per-court-per-day container that owns that day's time
// slots. It is not itself a booking: individual slots carry the booking
// state. At most one reservation exists per court and date.
type Reservation struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CourtID string    `gorm:"type:varchar(20);uniqueIndex:idx_reservations_court_date,priority:1" json:"court_id"`
	Date    time.Time `gorm:"uniqueIndex:idx_reservations_court_date,priority:2" json:"date"`

	// Relationships
	TimeSlots []TimeSlot `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE" json:"time_slots,omitempty"`
}

// DateOnly normalizes a timestamp to midnight UTC. Reservations are keyed by
// calendar date; storing anything finer would break the per-day uniqueness.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
