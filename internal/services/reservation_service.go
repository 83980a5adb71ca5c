package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Navideft74/Arses-club/internal/models"
)

// ReservationService maintains the court calendar: one reservation per court
// per date, each owning the day's fixed set of time slots.
type ReservationService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewReservationService creates a ReservationService.
func NewReservationService(db *gorm.DB, logger *zap.Logger) *ReservationService {
	return &ReservationService{db: db, logger: logger}
}

// CreateReservation opens a court for bookings on a date and generates its
// time slots, one per allowed start time. Slot generation is get-or-create,
// so a retried invocation never duplicates slots.
func (s *ReservationService) CreateReservation(ctx context.Context, courtID string, date time.Time) (*models.Reservation, error) {
	court, ok := models.CourtByID(courtID)
	if !ok {
		return nil, ErrUnknownCourt
	}
	date = models.DateOnly(date)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("court_id = ? AND date = ?", courtID, date).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateDate
	}

	reservation := &models.Reservation{CourtID: courtID, Date: date}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reservation).Error; err != nil {
			return err
		}
		return s.generateSlots(tx, reservation, court)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation created",
		zap.String("court", courtID),
		zap.Time("date", date),
		zap.Int("slots", len(reservation.TimeSlots)),
	)
	return reservation, nil
}

// generateSlots creates one slot per allowed start time. Existing slots for
// a start time are left as they are, so the step is safe to repeat.
func (s *ReservationService) generateSlots(tx *gorm.DB, reservation *models.Reservation, court models.Court) error {
	reservation.TimeSlots = reservation.TimeSlots[:0]
	for _, start := range court.AllowedStartTimes() {
		var slot models.TimeSlot
		err := tx.Where(&models.TimeSlot{ReservationID: reservation.ID, StartTime: start}).
			Attrs(&models.TimeSlot{IsAvailable: true}).
			FirstOrCreate(&slot).Error
		if err != nil {
			return err
		}
		// Every write goes through the save contract, including generation.
		if err := s.saveSlot(tx, &slot); err != nil {
			return err
		}
		reservation.TimeSlots = append(reservation.TimeSlots, slot)
	}
	return nil
}

// SaveSlot persists a slot mutation. The end time is always recomputed from
// the start time, never taken from the caller; after persisting, an
// available slot has its owner cleared even if the caller submitted one.
func (s *ReservationService) SaveSlot(ctx context.Context, slot *models.TimeSlot) error {
	return s.saveSlot(s.db.WithContext(ctx), slot)
}

func (s *ReservationService) saveSlot(tx *gorm.DB, slot *models.TimeSlot) error {
	end, err := models.EndTimeFor(slot.StartTime)
	if err != nil {
		return ErrInvalidStartTime
	}
	slot.EndTime = end

	if err := tx.Omit(clause.Associations).Save(slot).Error; err != nil {
		return err
	}

	// Availability/owner coupling: an available slot never retains an owner.
	if slot.IsAvailable && slot.UserID != nil {
		slot.UserID = nil
		slot.User = nil
		if err := tx.Model(slot).Update("user_id", nil).Error; err != nil {
			return err
		}
	}
	return nil
}

// BookSlot assigns the slot to a user. It runs in a transaction that
// re-reads availability, so two members racing for the same slot get one
// booking and one ErrSlotTaken.
func (s *ReservationService) BookSlot(ctx context.Context, slotID, userID uint) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&slot, slotID).Error; err != nil {
			return slotLookupError(err)
		}
		if !slot.IsAvailable {
			return ErrSlotTaken
		}
		slot.IsAvailable = false
		slot.UserID = &userID
		return s.saveSlot(tx, &slot)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("slot booked", zap.Uint("slot_id", slot.ID), zap.Uint("user_id", userID))
	return &slot, nil
}

// ReleaseSlot makes the slot available again; the save contract clears the
// owner.
func (s *ReservationService) ReleaseSlot(ctx context.Context, slotID uint) (*models.TimeSlot, error) {
	slot, err := s.SetAvailability(ctx, slotID, true, nil)
	if err != nil {
		return nil, err
	}
	s.logger.Info("slot released", zap.Uint("slot_id", slot.ID))
	return slot, nil
}

// SetAvailability is the one place the availability/owner coupling is
// decided explicitly: making a slot available clears its owner, making it
// unavailable records the given owner (nil blocks the slot without a
// booking).
func (s *ReservationService) SetAvailability(ctx context.Context, slotID uint, available bool, userID *uint) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&slot, slotID).Error; err != nil {
			return slotLookupError(err)
		}
		slot.IsAvailable = available
		if available {
			slot.UserID = nil
			slot.User = nil
		} else {
			slot.UserID = userID
		}
		return s.saveSlot(tx, &slot)
	})
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// MarkPaid records payment for a slot. Payment state is independent of
// availability.
func (s *ReservationService) MarkPaid(ctx context.Context, slotID uint) (*models.TimeSlot, error) {
	return s.setPaid(ctx, slotID, true)
}

// MarkUnpaid clears the payment flag.
func (s *ReservationService) MarkUnpaid(ctx context.Context, slotID uint) (*models.TimeSlot, error) {
	return s.setPaid(ctx, slotID, false)
}

func (s *ReservationService) setPaid(ctx context.Context, slotID uint, paid bool) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&slot, slotID).Error; err != nil {
			return slotLookupError(err)
		}
		slot.IsPaid = paid
		return s.saveSlot(tx, &slot)
	})
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Calendar loads the reservation for a court and date with its slots in
// start-time order.
func (s *ReservationService) Calendar(ctx context.Context, courtID string, date time.Time) (*models.Reservation, error) {
	var reservation models.Reservation
	err := s.db.WithContext(ctx).
		Preload("TimeSlots", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time")
		}).
		Preload("TimeSlots.User").
		Where("court_id = ? AND date = ?", courtID, models.DateOnly(date)).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ListReservations returns a court's reservations from the given date on.
func (s *ReservationService) ListReservations(ctx context.Context, courtID string, from time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.WithContext(ctx).
		Where("court_id = ? AND date >= ?", courtID, models.DateOnly(from)).
		Order("date").
		Find(&reservations).Error
	return reservations, err
}

// DeleteReservation removes a reservation and, with it, all of its slots.
// This is the only way slots are ever destroyed.
func (s *ReservationService) DeleteReservation(ctx context.Context, courtID string, date time.Time) error {
	date = models.DateOnly(date)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.Where("court_id = ? AND date = ?", courtID, date).First(&reservation).Error; err != nil {
			return err
		}
		if err := tx.Where("reservation_id = ?", reservation.ID).Delete(&models.TimeSlot{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&reservation).Error; err != nil {
			return err
		}
		s.logger.Info("reservation deleted", zap.String("court", courtID), zap.Time("date", date))
		return nil
	})
}

// lockForUpdate takes a row lock where the dialect supports it. The sqlite
// driver used in tests serializes writes anyway and rejects FOR UPDATE.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func slotLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSlotNotFound
	}
	return err
}
