package models

import (
	"strings"
	"time"
)

// Profile holds the personal details of a user. Every user has exactly one,
// created at signup; both name fields stay empty until the user completes
// their profile after first login.
type Profile struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID    uint   `gorm:"uniqueIndex" json:"user_id"`
	FirstName string `gorm:"type:varchar(30)" json:"first_name"`
	LastName  string `gorm:"type:varchar(30)" json:"last_name"`
}

// Complete reports whether both name fields have been filled in.
func (p Profile) Complete() bool {
	return strings.TrimSpace(p.FirstName) != "" && strings.TrimSpace(p.LastName) != ""
}

// FullName joins the first and last name.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
