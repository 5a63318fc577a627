package repository

import (
	"context"
	"errors"
	"fmt"

	"visit_portal/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// HospitalRepository defines operations for hospital data and the
// per-hospital photographer roster
type HospitalRepository interface {
	Create(ctx context.Context, hospital *model.Hospital) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Hospital, error)
	FindAll(ctx context.Context) ([]model.Hospital, error)
	Update(ctx context.Context, hospital *model.Hospital) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddPhotographer(ctx context.Context, hospitalID, userID uuid.UUID) error
	RemovePhotographer(ctx context.Context, hospitalID, userID uuid.UUID) error
}

type hospitalRepository struct {
	db DB
}

// NewHospitalRepository creates a new HospitalRepository
func NewHospitalRepository(db DB) HospitalRepository {
	return &hospitalRepository{db: db}
}

// Create inserts a new hospital
func (r *hospitalRepository) Create(ctx context.Context, h *model.Hospital) error {
	sql := `INSERT INTO hospitals (id, name, state, address, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, sql, h.ID, h.Name, h.State, h.Address, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create hospital: %w", err)
	}
	return nil
}

// FindByID retrieves a hospital with its photographer roster
func (r *hospitalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Hospital, error) {
	h := &model.Hospital{}
	sql := `SELECT id, name, state, address, created_at FROM hospitals WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(&h.ID, &h.Name, &h.State, &h.Address, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find hospital by ID: %w", err)
	}

	h.PhotographerIDs, err = r.photographerIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// FindAll retrieves all hospitals with their rosters
func (r *hospitalRepository) FindAll(ctx context.Context) ([]model.Hospital, error) {
	sql := `SELECT id, name, state, address, created_at FROM hospitals ORDER BY name`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query hospitals: %w", err)
	}
	defer rows.Close()

	var hospitals []model.Hospital
	for rows.Next() {
		var h model.Hospital
		if err := rows.Scan(&h.ID, &h.Name, &h.State, &h.Address, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan hospital row: %w", err)
		}
		h.PhotographerIDs = []uuid.UUID{}
		hospitals = append(hospitals, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hospital rows: %w", err)
	}

	rosterSQL := `SELECT hospital_id, user_id FROM hospital_photographers`
	rosterRows, err := r.db.Query(ctx, rosterSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query photographer rosters: %w", err)
	}
	defer rosterRows.Close()

	byHospital := make(map[uuid.UUID][]uuid.UUID)
	for rosterRows.Next() {
		var hospitalID, userID uuid.UUID
		if err := rosterRows.Scan(&hospitalID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}
		byHospital[hospitalID] = append(byHospital[hospitalID], userID)
	}
	if err = rosterRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster rows: %w", err)
	}

	for i := range hospitals {
		if ids, ok := byHospital[hospitals[i].ID]; ok {
			hospitals[i].PhotographerIDs = ids
		}
	}
	return hospitals, nil
}

// Update replaces the mutable hospital fields
func (r *hospitalRepository) Update(ctx context.Context, h *model.Hospital) error {
	sql := `UPDATE hospitals SET name = $1, state = $2, address = $3 WHERE id = $4`
	cmdTag, err := r.db.Exec(ctx, sql, h.Name, h.State, h.Address, h.ID)
	if err != nil {
		return fmt.Errorf("failed to update hospital: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return model.ErrHospitalNotFound
	}
	return nil
}

// Delete removes a hospital and its roster. Visits keep their weak reference
// to the hospital id; only the denormalized name remains meaningful.
func (r *hospitalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql := `DELETE FROM hospitals WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("failed to delete hospital: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return model.ErrHospitalNotFound
	}
	return nil
}

// AddPhotographer adds a user to the hospital roster; adding an already
// present user is a no-op
func (r *hospitalRepository) AddPhotographer(ctx context.Context, hospitalID, userID uuid.UUID) error {
	sql := `INSERT INTO hospital_photographers (hospital_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.Exec(ctx, sql, hospitalID, userID); err != nil {
		return fmt.Errorf("failed to add photographer: %w", err)
	}
	return nil
}

// RemovePhotographer removes a user from the roster; removing an absent user
// is a no-op
func (r *hospitalRepository) RemovePhotographer(ctx context.Context, hospitalID, userID uuid.UUID) error {
	sql := `DELETE FROM hospital_photographers WHERE hospital_id = $1 AND user_id = $2`
	if _, err := r.db.Exec(ctx, sql, hospitalID, userID); err != nil {
		return fmt.Errorf("failed to remove photographer: %w", err)
	}
	return nil
}

func (r *hospitalRepository) photographerIDs(ctx context.Context, hospitalID uuid.UUID) ([]uuid.UUID, error) {
	sql := `SELECT user_id FROM hospital_photographers WHERE hospital_id = $1`
	rows, err := r.db.Query(ctx, sql, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query photographer roster: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}
		ids = append(ids, userID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster rows: %w", err)
	}
	return ids, nil
}
