package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Navideft74/Arses-club/internal/models"
)

// AuthService issues and verifies one-time login codes and handles profile
// completion. Each user carries at most one pending code; issuing, matching
// and expiring all use the single models.OTPTTL window.
type AuthService struct {
	db     *gorm.DB
	sender SMSSender
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService creates an AuthService.
func NewAuthService(db *gorm.DB, sender SMSSender, logger *zap.Logger) *AuthService {
	return &AuthService{
		db:     db,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// RequestOTP looks up or creates the user for the mobile number and issues a
// fresh four-digit code. A first-time mobile number is a signup. While a
// previously issued code is still inside its window no new code is issued
// and ErrOTPAlreadySent tells the caller to check their messages instead.
func (s *AuthService) RequestOTP(ctx context.Context, mobile string) (*models.User, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return nil, ErrMobileRequired
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where(models.User{Mobile: mobile}).FirstOrCreate(&user).Error; err != nil {
		return nil, err
	}

	now := s.now()
	if user.OTPValid(now) {
		return nil, ErrOTPAlreadySent
	}

	code := rand.IntN(9000) + 1000
	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"otp":         code,
		"otp_created": now,
	}).Error; err != nil {
		return nil, err
	}
	user.OTP = &code
	user.OTPCreated = &now

	// Delivery failure does not invalidate the issued code: the user can
	// still verify if the message arrives late, or request again after the
	// window passes.
	if err := s.sender.SendOTP(ctx, mobile, code); err != nil {
		s.logger.Warn("otp delivery failed", zap.String("mobile", mobile), zap.Error(err))
	} else {
		s.logger.Info("otp issued", zap.String("mobile", mobile))
	}

	return &user, nil
}

// VerifyOTP checks a submitted code against the pending one for the mobile
// number bound to the browser session. An empty mobile means the binding is
// gone and the session has expired. On success the stored code is cleared so
// it cannot be replayed, and the second return value reports whether the
// user still has to complete their profile.
func (s *AuthService) VerifyOTP(ctx context.Context, mobile, submitted string) (*models.User, bool, error) {
	if strings.TrimSpace(mobile) == "" {
		return nil, false, ErrSessionExpired
	}

	code, err := strconv.Atoi(strings.TrimSpace(submitted))
	if err != nil {
		return nil, false, ErrInvalidOTPFormat
	}

	var user models.User
	err = s.db.WithContext(ctx).Preload("Profile").Where("mobile = ?", mobile).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, ErrUserNotFound
	}
	if err != nil {
		return nil, false, err
	}

	// A matching but expired code fails the same way as a mismatch; the
	// stored code is left untouched either way.
	if user.OTP == nil || *user.OTP != code || !user.OTPValid(s.now()) {
		s.logger.Info("otp rejected", zap.String("mobile", mobile))
		return nil, false, ErrOTPMismatch
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"otp":         nil,
		"otp_created": nil,
	}).Error; err != nil {
		return nil, false, err
	}
	user.OTP = nil
	user.OTPCreated = nil

	incomplete := user.Profile == nil || !user.Profile.Complete()
	s.logger.Info("user authenticated", zap.Uint("user_id", user.ID), zap.Bool("profile_incomplete", incomplete))
	return &user, incomplete, nil
}

// CompleteProfile stores the user's first and last name. Both are required;
// whitespace-only values are rejected.
func (s *AuthService) CompleteProfile(ctx context.Context, userID uint, firstName, lastName string) error {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return ErrNameRequired
	}

	var profile models.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	profile.FirstName = firstName
	profile.LastName = lastName
	return s.db.WithContext(ctx).Save(&profile).Error
}

// UserByID loads a user with their profile.
func (s *AuthService) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Profile").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
