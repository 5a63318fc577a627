package model

import "errors"

// Domain errors shared by repositories and services. Handlers map them to
// HTTP statuses with errors.Is.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("too many failed attempts, account temporarily locked")
	ErrInvalidResetToken  = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")

	ErrHospitalNotFound = errors.New("hospital not found")
	ErrInvalidState     = errors.New("state must be RJ or SP")

	ErrVisitNotFound    = errors.New("visit not found")
	ErrVisitCancelled   = errors.New("visit cancelled")
	ErrAlreadyEnrolled  = errors.New("already enrolled")
	ErrNoSeats          = errors.New("no seats available")
	ErrSlotTaken        = errors.New("visit already has a photographer")
	ErrNotRosterMember  = errors.New("not an authorized photographer for this hospital")
	ErrNotSlotHolder    = errors.New("not the photographer of this visit")

	ErrPasswordTooShort = errors.New("password must have at least 6 characters")
	ErrInvalidPhone     = errors.New("phone must have 1 to 11 digits")
)
