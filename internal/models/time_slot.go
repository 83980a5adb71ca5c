package models

import "time"

// SlotTimeLayout is the wall-clock format slot times are stored in.
const SlotTimeLayout = "15:04"

// TimeSlot is one fixed one-hour window on a court for a given day. Slots
// are generated in bulk when their reservation is created and are never
// created or destroyed individually afterwards; booking, release and payment
// only mutate them.
type TimeSlot struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ReservationID uint   `gorm:"uniqueIndex:idx_time_slots_reservation_start,priority:1" json:"reservation_id"`
	StartTime     string `gorm:"type:varchar(5);uniqueIndex:idx_time_slots_reservation_start,priority:2" json:"start_time"`

	// EndTime is derived from StartTime on every save and never accepted
	// from outside.
	EndTime string `gorm:"type:varchar(5)" json:"end_time"`

	IsAvailable bool `gorm:"default:true" json:"is_available"`
	IsPaid      bool `gorm:"default:false" json:"is_paid"`

	UserID *uint `json:"user_id,omitempty"`

	// Relationships
	Reservation *Reservation `gorm:"foreignKey:ReservationID" json:"reservation,omitempty"`
	User        *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsReserved reports whether the slot is held by a user: not available and
// owned. An available slot never has an owner.
func (s TimeSlot) IsReserved() bool {
	return !s.IsAvailable && s.UserID != nil
}

// EndTimeFor derives a slot's end from its start; every slot lasts one hour.
func EndTimeFor(start string) (string, error) {
	t, err := time.Parse(SlotTimeLayout, start)
	if err != nil {
		return "", err
	}
	return t.Add(time.Hour).Format(SlotTimeLayout), nil
}
