package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"visit_portal/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// VisitRepository defines operations for visit data, including the
// enrollment and photographer-slot state machine. The mutating domain
// operations run inside a transaction holding a row lock on the visit, so
// the capacity and single-photographer invariants hold under concurrent
// requests.
type VisitRepository interface {
	Create(ctx context.Context, visit *model.Visit) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Visit, error)
	FindAll(ctx context.Context) ([]model.Visit, error)
	Update(ctx context.Context, visit *model.Visit) error
	Cancel(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	Enroll(ctx context.Context, visitID, userID uuid.UUID) error
	CancelEnrollment(ctx context.Context, visitID, userID uuid.UUID, reason string) error
	ClaimPhotographer(ctx context.Context, visitID, userID uuid.UUID) error
	ReleasePhotographer(ctx context.Context, visitID, userID uuid.UUID, isAdmin bool) error
}

type visitRepository struct {
	db DB
}

// NewVisitRepository creates a new VisitRepository
func NewVisitRepository(db DB) VisitRepository {
	return &visitRepository{db: db}
}

// Create inserts a new visit
func (r *visitRepository) Create(ctx context.Context, v *model.Visit) error {
	var occurrences, intervalDays, weekday *int
	if v.Recurrence != nil {
		occurrences = &v.Recurrence.Occurrences
		intervalDays = &v.Recurrence.IntervalDays
		weekday = v.Recurrence.Weekday
	}

	date, err := time.Parse(model.DateLayout, v.Date)
	if err != nil {
		return fmt.Errorf("invalid visit date %q: %w", v.Date, err)
	}

	sql := `INSERT INTO visits (id, title, hospital_id, hospital_name, description, visit_date, visit_time, capacity, photographer_id, status, recur_occurrences, recur_interval_days, recur_weekday, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = r.db.Exec(ctx, sql, v.ID, v.Title, v.HospitalID, v.HospitalName, v.Description, date, v.Time, v.Capacity,
		v.PhotographerID, v.Status, occurrences, intervalDays, weekday, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}
	return nil
}

// FindByID retrieves a visit with its enrollments and cancellation log
func (r *visitRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	v, err := r.scanVisit(r.db.QueryRow(ctx, selectVisitSQL+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find visit by ID: %w", err)
	}

	if err := r.loadEnrollments(ctx, []*model.Visit{v}); err != nil {
		return nil, err
	}
	if err := r.loadCancellations(ctx, []*model.Visit{v}); err != nil {
		return nil, err
	}
	return v, nil
}

// FindAll retrieves all visits ordered by date, with enrollments and
// cancellation logs attached
func (r *visitRepository) FindAll(ctx context.Context) ([]model.Visit, error) {
	rows, err := r.db.Query(ctx, selectVisitSQL+` ORDER BY visit_date, visit_time, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	var visits []model.Visit
	for rows.Next() {
		v, err := r.scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit row: %w", err)
		}
		visits = append(visits, *v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visit rows: %w", err)
	}

	refs := make([]*model.Visit, len(visits))
	for i := range visits {
		refs[i] = &visits[i]
	}
	if err := r.loadEnrollments(ctx, refs); err != nil {
		return nil, err
	}
	if err := r.loadCancellations(ctx, refs); err != nil {
		return nil, err
	}
	return visits, nil
}

// Update replaces the mutable visit fields (title, hospital reference,
// description, date, time, capacity)
func (r *visitRepository) Update(ctx context.Context, v *model.Visit) error {
	date, err := time.Parse(model.DateLayout, v.Date)
	if err != nil {
		return fmt.Errorf("invalid visit date %q: %w", v.Date, err)
	}

	sql := `UPDATE visits SET title = $1, hospital_id = $2, hospital_name = $3, description = $4, visit_date = $5, visit_time = $6, capacity = $7
            WHERE id = $8`
	cmdTag, err := r.db.Exec(ctx, sql, v.Title, v.HospitalID, v.HospitalName, v.Description, date, v.Time, v.Capacity, v.ID)
	if err != nil {
		return fmt.Errorf("failed to update visit: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return model.ErrVisitNotFound
	}
	return nil
}

// Cancel marks a visit cancelled. Idempotent: cancelling a cancelled visit
// leaves it cancelled. Enrollments and the cancellation log are untouched.
func (r *visitRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	sql := `UPDATE visits SET status = $1 WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, sql, model.VisitStatusCancelled, id)
	if err != nil {
		return fmt.Errorf("failed to cancel visit: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return model.ErrVisitNotFound
	}
	return nil
}

// Delete removes a visit entirely, enrollment and cancellation history included
func (r *visitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql := `DELETE FROM visits WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return model.ErrVisitNotFound
	}
	return nil
}

// Enroll appends the user to the visit's enrollment list, first come first
// served. The row lock serializes concurrent enrolls so the count never
// exceeds capacity.
func (r *visitRepository) Enroll(ctx context.Context, visitID, userID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin enroll transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var capacity int
	var status string
	err = tx.QueryRow(ctx, `SELECT capacity, status FROM visits WHERE id = $1 FOR UPDATE`, visitID).Scan(&capacity, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrVisitNotFound
		}
		return fmt.Errorf("failed to lock visit for enroll: %w", err)
	}
	if status == model.VisitStatusCancelled {
		return model.ErrVisitCancelled
	}

	var mine, total int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE user_id = $2), COUNT(*) FROM visit_enrollments WHERE visit_id = $1`,
		visitID, userID).Scan(&mine, &total)
	if err != nil {
		return fmt.Errorf("failed to count enrollments: %w", err)
	}
	if mine > 0 {
		return model.ErrAlreadyEnrolled
	}
	if total >= capacity {
		return model.ErrNoSeats
	}

	if _, err := tx.Exec(ctx, `INSERT INTO visit_enrollments (visit_id, user_id) VALUES ($1, $2)`, visitID, userID); err != nil {
		return fmt.Errorf("failed to insert enrollment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit enrollment: %w", err)
	}
	return nil
}

// CancelEnrollment removes the user's enrollment if present (idempotent) and,
// when a non-empty reason is given, appends an audit entry. Works on
// cancelled visits as well: leaving a visit is always allowed.
func (r *visitRepository) CancelEnrollment(ctx context.Context, visitID, userID uuid.UUID, reason string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin cancel-enrollment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM visits WHERE id = $1)`, visitID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check visit: %w", err)
	}
	if !exists {
		return model.ErrVisitNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM visit_enrollments WHERE visit_id = $1 AND user_id = $2`, visitID, userID); err != nil {
		return fmt.Errorf("failed to remove enrollment: %w", err)
	}

	if reason != "" {
		insSQL := `INSERT INTO visit_cancellations (visit_id, user_id, reason, created_at) VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, insSQL, visitID, userID, reason, time.Now()); err != nil {
			return fmt.Errorf("failed to record cancellation reason: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit enrollment cancellation: %w", err)
	}
	return nil
}

// ClaimPhotographer assigns the photographer slot to the user, first come
// first served, provided the user is on the hospital's roster and the slot
// is free.
func (r *visitRepository) ClaimPhotographer(ctx context.Context, visitID, userID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var hospitalID uuid.UUID
	var photographerID *uuid.UUID
	var status string
	err = tx.QueryRow(ctx, `SELECT hospital_id, photographer_id, status FROM visits WHERE id = $1 FOR UPDATE`, visitID).
		Scan(&hospitalID, &photographerID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrVisitNotFound
		}
		return fmt.Errorf("failed to lock visit for claim: %w", err)
	}
	if status == model.VisitStatusCancelled {
		return model.ErrVisitCancelled
	}

	var hospitalExists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM hospitals WHERE id = $1)`, hospitalID).Scan(&hospitalExists); err != nil {
		return fmt.Errorf("failed to check hospital: %w", err)
	}
	if !hospitalExists {
		return model.ErrHospitalNotFound
	}

	var onRoster bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM hospital_photographers WHERE hospital_id = $1 AND user_id = $2)`,
		hospitalID, userID).Scan(&onRoster)
	if err != nil {
		return fmt.Errorf("failed to check photographer roster: %w", err)
	}
	if !onRoster {
		return model.ErrNotRosterMember
	}

	if photographerID != nil {
		return model.ErrSlotTaken
	}

	if _, err := tx.Exec(ctx, `UPDATE visits SET photographer_id = $1 WHERE id = $2`, userID, visitID); err != nil {
		return fmt.Errorf("failed to set photographer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit photographer claim: %w", err)
	}
	return nil
}

// ReleasePhotographer clears the slot. Allowed for the current photographer
// or for admins.
func (r *visitRepository) ReleasePhotographer(ctx context.Context, visitID, userID uuid.UUID, isAdmin bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin release transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var photographerID *uuid.UUID
	err = tx.QueryRow(ctx, `SELECT photographer_id FROM visits WHERE id = $1 FOR UPDATE`, visitID).Scan(&photographerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrVisitNotFound
		}
		return fmt.Errorf("failed to lock visit for release: %w", err)
	}

	if !isAdmin && (photographerID == nil || *photographerID != userID) {
		return model.ErrNotSlotHolder
	}

	if _, err := tx.Exec(ctx, `UPDATE visits SET photographer_id = NULL WHERE id = $1`, visitID); err != nil {
		return fmt.Errorf("failed to clear photographer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit photographer release: %w", err)
	}
	return nil
}

const selectVisitSQL = `SELECT id, title, hospital_id, hospital_name, description, visit_date, visit_time, capacity, photographer_id, status, recur_occurrences, recur_interval_days, recur_weekday, created_at FROM visits`

func (r *visitRepository) scanVisit(row pgx.Row) (*model.Visit, error) {
	v := &model.Visit{}
	var date time.Time
	var occurrences, intervalDays, weekday *int
	err := row.Scan(&v.ID, &v.Title, &v.HospitalID, &v.HospitalName, &v.Description, &date, &v.Time, &v.Capacity,
		&v.PhotographerID, &v.Status, &occurrences, &intervalDays, &weekday, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	v.Date = date.Format(model.DateLayout)
	v.EnrolledIDs = []uuid.UUID{}
	v.Cancellations = []model.EnrollmentCancellation{}
	if occurrences != nil && intervalDays != nil {
		v.Recurrence = &model.Recurrence{Occurrences: *occurrences, IntervalDays: *intervalDays, Weekday: weekday}
	}
	return v, nil
}

// loadEnrollments attaches enrolled user ids in insertion order
func (r *visitRepository) loadEnrollments(ctx context.Context, visits []*model.Visit) error {
	if len(visits) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*model.Visit, len(visits))
	ids := make([]uuid.UUID, 0, len(visits))
	for _, v := range visits {
		byID[v.ID] = v
		ids = append(ids, v.ID)
	}

	sql := `SELECT visit_id, user_id FROM visit_enrollments WHERE visit_id = ANY($1) ORDER BY id`
	rows, err := r.db.Query(ctx, sql, ids)
	if err != nil {
		return fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var visitID, userID uuid.UUID
		if err := rows.Scan(&visitID, &userID); err != nil {
			return fmt.Errorf("failed to scan enrollment row: %w", err)
		}
		if v, ok := byID[visitID]; ok {
			v.EnrolledIDs = append(v.EnrolledIDs, userID)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating enrollment rows: %w", err)
	}
	return nil
}

// loadCancellations attaches the append-only cancellation log
func (r *visitRepository) loadCancellations(ctx context.Context, visits []*model.Visit) error {
	if len(visits) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*model.Visit, len(visits))
	ids := make([]uuid.UUID, 0, len(visits))
	for _, v := range visits {
		byID[v.ID] = v
		ids = append(ids, v.ID)
	}

	sql := `SELECT visit_id, user_id, reason, created_at FROM visit_cancellations WHERE visit_id = ANY($1) ORDER BY id`
	rows, err := r.db.Query(ctx, sql, ids)
	if err != nil {
		return fmt.Errorf("failed to query cancellations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var visitID uuid.UUID
		var c model.EnrollmentCancellation
		if err := rows.Scan(&visitID, &c.UserID, &c.Reason, &c.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan cancellation row: %w", err)
		}
		if v, ok := byID[visitID]; ok {
			v.Cancellations = append(v.Cancellations, c)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating cancellation rows: %w", err)
	}
	return nil
}
