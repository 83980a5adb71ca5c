package models

import (
	"time"

	"gorm.io/gorm"
)

// OTPTTL is the window in which a one-time code can be verified. The same
// constant suppresses re-issuing a code while one is still pending, so the
// two checks cannot drift apart.
const OTPTTL = 3 * time.Minute

// User is an account identified by its mobile number. There is no password;
// login happens through a one-time code sent by SMS.
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Mobile  string `gorm:"type:varchar(11);uniqueIndex" json:"mobile"`
	IsStaff bool   `gorm:"default:false" json:"is_staff"`

	// OTP and OTPCreated are set together when a code is issued and cleared
	// together when it is consumed. At most one code is pending at a time.
	OTP        *int       `json:"-"`
	OTPCreated *time.Time `json:"-"`

	// Relationships
	Profile *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// AfterCreate gives every new user an empty profile, filled in later by the
// profile completion flow.
func (u *User) AfterCreate(tx *gorm.DB) error {
	return tx.Create(&Profile{UserID: u.ID}).Error
}

// OTPValid reports whether the pending code is still inside the expiry window.
func (u *User) OTPValid(now time.Time) bool {
	if u.OTP == nil || u.OTPCreated == nil {
		return false
	}
	return now.Sub(*u.OTPCreated) < OTPTTL
}

// DisplayName returns the profile's full name when available, otherwise the
// mobile number.
func (u *User) DisplayName() string {
	if u.Profile != nil && u.Profile.Complete() {
		return u.Profile.FullName()
	}
	return u.Mobile
}
