package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	VisitStatusActive    = "active"
	VisitStatusCancelled = "cancelled"
)

// DateLayout is the wire format for visit dates
const DateLayout = "2006-01-02"

// Recurrence records the generation rule a visit was created from.
// It is kept for display and audit only; it never re-triggers generation.
type Recurrence struct {
	Occurrences  int  `json:"occurrences"`
	IntervalDays int  `json:"interval_days"`
	Weekday      *int `json:"weekday,omitempty"` // 0=Sunday .. 6=Saturday
}

// EnrollmentCancellation is one entry of the append-only cancellation audit log
type EnrollmentCancellation struct {
	UserID    uuid.UUID `json:"user_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Visit is a scheduled hospital-visit slot with a capacity and enrollment list.
// HospitalID is a weak reference: the hospital may have been deleted, in which
// case HospitalName still identifies it for display.
type Visit struct {
	ID             uuid.UUID                `json:"id"`
	Title          string                   `json:"title"`
	HospitalID     uuid.UUID                `json:"hospital_id"`
	HospitalName   string                   `json:"hospital_name"`
	Description    *string                  `json:"description,omitempty"`
	Date           string                   `json:"date"` // YYYY-MM-DD
	Time           string                   `json:"time"` // HH:MM
	Capacity       int                      `json:"capacity"`
	EnrolledIDs    []uuid.UUID              `json:"enrolled_ids"` // insertion order
	PhotographerID *uuid.UUID               `json:"photographer_id,omitempty"`
	Status         string                   `json:"status"`
	Cancellations  []EnrollmentCancellation `json:"cancellations"`
	Recurrence     *Recurrence              `json:"recurrence,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
}

// CreateVisitRequest creates one visit, or a recurring series when Recurrence
// is present.
type CreateVisitRequest struct {
	Title       string      `json:"title" binding:"required"`
	HospitalID  uuid.UUID   `json:"hospital_id" binding:"required"`
	Description *string     `json:"description"`
	Date        string      `json:"date" binding:"required"`
	Time        string      `json:"time" binding:"required"`
	Capacity    int         `json:"capacity" binding:"required,gt=0"`
	Recurrence  *Recurrence `json:"recurrence"`
}

// UpdateVisitRequest allows partial updates of the mutable fields
type UpdateVisitRequest struct {
	Title       *string    `json:"title,omitempty"`
	HospitalID  *uuid.UUID `json:"hospital_id,omitempty"`
	Description *string    `json:"description,omitempty"`
	Date        *string    `json:"date,omitempty"`
	Time        *string    `json:"time,omitempty"`
	Capacity    *int       `json:"capacity,omitempty" binding:"omitempty,gt=0"`
}

type CancelEnrollmentRequest struct {
	Reason string `json:"reason"`
}
