package services

import "errors"

// Domain errors surfaced to the handlers. All of them are recoverable: the
// handler re-renders the form with a message and prior persisted state is
// left unchanged.
var (
	ErrMobileRequired   = errors.New("mobile number is required")
	ErrOTPAlreadySent   = errors.New("a code was recently sent and is still valid")
	ErrSessionExpired   = errors.New("session expired")
	ErrInvalidOTPFormat = errors.New("code must be numeric")
	ErrOTPMismatch      = errors.New("code is invalid or has expired")
	ErrUserNotFound     = errors.New("user not found")
	ErrNameRequired     = errors.New("first and last name are required")
	ErrUnknownCourt     = errors.New("unknown court")
	ErrDuplicateDate    = errors.New("a reservation already exists for this court and date")
	ErrInvalidStartTime = errors.New("start time is not a valid HH:MM value")
	ErrSlotNotFound     = errors.New("time slot not found")
	ErrSlotTaken        = errors.New("time slot is no longer available")
)
