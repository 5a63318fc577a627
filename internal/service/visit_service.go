package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"visit_portal/internal/model"
	"visit_portal/internal/repository"

	"github.com/google/uuid"
)

// VisitService defines the visit engine: CRUD plus the enrollment, capacity,
// cancellation and photographer rules
type VisitService interface {
	CreateVisits(ctx context.Context, req model.CreateVisitRequest) ([]model.Visit, error)
	GetVisit(ctx context.Context, id uuid.UUID) (*model.Visit, error)
	GetAllVisits(ctx context.Context) ([]model.Visit, error)
	UpdateVisit(ctx context.Context, id uuid.UUID, req model.UpdateVisitRequest) (*model.Visit, error)
	CancelVisit(ctx context.Context, id uuid.UUID) error
	DeleteVisit(ctx context.Context, id uuid.UUID) error
	Enroll(ctx context.Context, visitID, userID uuid.UUID) error
	CancelEnrollment(ctx context.Context, visitID, userID uuid.UUID, reason string) error
	ClaimPhotographer(ctx context.Context, visitID, userID uuid.UUID) error
	ReleasePhotographer(ctx context.Context, visitID, userID uuid.UUID, isAdmin bool) error
}

type visitService struct {
	visitRepo    repository.VisitRepository
	hospitalRepo repository.HospitalRepository
}

// NewVisitService creates a new VisitService
func NewVisitService(visitRepo repository.VisitRepository, hospitalRepo repository.HospitalRepository) VisitService {
	return &visitService{visitRepo: visitRepo, hospitalRepo: hospitalRepo}
}

// CreateVisits creates a single visit, or a dated series when the request
// carries a recurrence rule. Each instance is an independent visit with its
// own id and date; the rule is stored on each for display only.
func (s *visitService) CreateVisits(ctx context.Context, req model.CreateVisitRequest) ([]model.Visit, error) {
	baseDate, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, use YYYY-MM-DD: %w", req.Date, err)
	}

	hospital, err := s.hospitalRepo.FindByID(ctx, req.HospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up hospital: %w", err)
	}
	if hospital == nil {
		return nil, model.ErrHospitalNotFound
	}

	dates := []time.Time{baseDate}
	if req.Recurrence != nil {
		if req.Recurrence.Occurrences < 1 || req.Recurrence.IntervalDays < 1 {
			return nil, fmt.Errorf("recurrence needs at least 1 occurrence and a positive interval")
		}
		if wd := req.Recurrence.Weekday; wd != nil && (*wd < 0 || *wd > 6) {
			return nil, fmt.Errorf("recurrence weekday must be between 0 (Sunday) and 6 (Saturday)")
		}
		dates = ExpandRecurrence(baseDate, req.Recurrence.Occurrences, req.Recurrence.IntervalDays, req.Recurrence.Weekday)
	}

	visits := make([]model.Visit, 0, len(dates))
	for _, date := range dates {
		visit := model.Visit{
			ID:            uuid.New(),
			Title:         req.Title,
			HospitalID:    hospital.ID,
			HospitalName:  hospital.Name,
			Description:   req.Description,
			Date:          date.Format(model.DateLayout),
			Time:          req.Time,
			Capacity:      req.Capacity,
			EnrolledIDs:   []uuid.UUID{},
			Status:        model.VisitStatusActive,
			Cancellations: []model.EnrollmentCancellation{},
			Recurrence:    req.Recurrence,
			CreatedAt:     time.Now(),
		}
		if err := s.visitRepo.Create(ctx, &visit); err != nil {
			return nil, fmt.Errorf("failed to create visit in repo: %w", err)
		}
		visits = append(visits, visit)
	}
	return visits, nil
}

// ExpandRecurrence generates the dates of a recurring series. When a target
// weekday is given the base date advances forward to the next matching day
// (kept as-is if it already matches), then each instance is intervalDays
// after the previous.
func ExpandRecurrence(base time.Time, occurrences, intervalDays int, weekday *int) []time.Time {
	start := base
	if weekday != nil {
		diff := (*weekday - int(base.Weekday()) + 7) % 7
		start = base.AddDate(0, 0, diff)
	}
	dates := make([]time.Time, 0, occurrences)
	for i := 0; i < occurrences; i++ {
		dates = append(dates, start.AddDate(0, 0, i*intervalDays))
	}
	return dates
}

// GetVisit retrieves a visit by id
func (s *visitService) GetVisit(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	visit, err := s.visitRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find visit: %w", err)
	}
	if visit == nil {
		return nil, model.ErrVisitNotFound
	}
	return visit, nil
}

// GetAllVisits lists all visits
func (s *visitService) GetAllVisits(ctx context.Context) ([]model.Visit, error) {
	visits, err := s.visitRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}

// UpdateVisit applies a partial update of the mutable fields
func (s *visitService) UpdateVisit(ctx context.Context, id uuid.UUID, req model.UpdateVisitRequest) (*model.Visit, error) {
	existing, err := s.visitRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find visit for update: %w", err)
	}
	if existing == nil {
		return nil, model.ErrVisitNotFound
	}

	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.HospitalID != nil {
		hospital, err := s.hospitalRepo.FindByID(ctx, *req.HospitalID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up hospital: %w", err)
		}
		if hospital == nil {
			return nil, model.ErrHospitalNotFound
		}
		existing.HospitalID = hospital.ID
		existing.HospitalName = hospital.Name
	}
	if req.Description != nil { // handles setting to ""
		existing.Description = req.Description
	}
	if req.Date != nil {
		if _, err := time.Parse(model.DateLayout, *req.Date); err != nil {
			return nil, fmt.Errorf("invalid date %q, use YYYY-MM-DD: %w", *req.Date, err)
		}
		existing.Date = *req.Date
	}
	if req.Time != nil {
		existing.Time = *req.Time
	}
	if req.Capacity != nil {
		existing.Capacity = *req.Capacity
	}

	if err := s.visitRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// CancelVisit marks the visit cancelled; enrollments are preserved for history
func (s *visitService) CancelVisit(ctx context.Context, id uuid.UUID) error {
	return s.visitRepo.Cancel(ctx, id)
}

// DeleteVisit removes the visit entirely
func (s *visitService) DeleteVisit(ctx context.Context, id uuid.UUID) error {
	return s.visitRepo.Delete(ctx, id)
}

// Enroll reserves a seat, first come first served
func (s *visitService) Enroll(ctx context.Context, visitID, userID uuid.UUID) error {
	return s.visitRepo.Enroll(ctx, visitID, userID)
}

// CancelEnrollment frees the user's seat if held. A non-empty reason is
// recorded in the append-only audit log; an empty one is accepted silently.
func (s *visitService) CancelEnrollment(ctx context.Context, visitID, userID uuid.UUID, reason string) error {
	return s.visitRepo.CancelEnrollment(ctx, visitID, userID, strings.TrimSpace(reason))
}

// ClaimPhotographer takes the single photographer slot for an authorized user
func (s *visitService) ClaimPhotographer(ctx context.Context, visitID, userID uuid.UUID) error {
	return s.visitRepo.ClaimPhotographer(ctx, visitID, userID)
}

// ReleasePhotographer clears the slot, allowed for its holder or an admin
func (s *visitService) ReleasePhotographer(ctx context.Context, visitID, userID uuid.UUID, isAdmin bool) error {
	return s.visitRepo.ReleasePhotographer(ctx, visitID, userID, isAdmin)
}
