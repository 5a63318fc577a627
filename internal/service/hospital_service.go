package service

import (
	"context"
	"fmt"
	"time"

	"visit_portal/internal/model"
	"visit_portal/internal/repository"

	"github.com/google/uuid"
)

// HospitalService provides hospital CRUD and photographer roster management
type HospitalService interface {
	CreateHospital(ctx context.Context, req model.CreateHospitalRequest) (*model.Hospital, error)
	GetHospital(ctx context.Context, id uuid.UUID) (*model.Hospital, error)
	GetAllHospitals(ctx context.Context) ([]model.Hospital, error)
	UpdateHospital(ctx context.Context, id uuid.UUID, req model.UpdateHospitalRequest) (*model.Hospital, error)
	DeleteHospital(ctx context.Context, id uuid.UUID) error
	AddPhotographer(ctx context.Context, hospitalID, userID uuid.UUID) (*model.Hospital, error)
	RemovePhotographer(ctx context.Context, hospitalID, userID uuid.UUID) (*model.Hospital, error)
}

type hospitalService struct {
	hospitalRepo repository.HospitalRepository
	userRepo     repository.UserRepository
}

// NewHospitalService creates a new HospitalService
func NewHospitalService(hospitalRepo repository.HospitalRepository, userRepo repository.UserRepository) HospitalService {
	return &hospitalService{hospitalRepo: hospitalRepo, userRepo: userRepo}
}

// CreateHospital creates a hospital with an empty photographer roster
func (s *hospitalService) CreateHospital(ctx context.Context, req model.CreateHospitalRequest) (*model.Hospital, error) {
	if req.State != model.StateRJ && req.State != model.StateSP {
		return nil, model.ErrInvalidState
	}

	hospital := &model.Hospital{
		ID:              uuid.New(),
		Name:            req.Name,
		State:           req.State,
		Address:         req.Address,
		PhotographerIDs: []uuid.UUID{},
		CreatedAt:       time.Now(),
	}
	if err := s.hospitalRepo.Create(ctx, hospital); err != nil {
		return nil, fmt.Errorf("failed to create hospital in repo: %w", err)
	}
	return hospital, nil
}

// GetHospital retrieves a hospital by id
func (s *hospitalService) GetHospital(ctx context.Context, id uuid.UUID) (*model.Hospital, error) {
	hospital, err := s.hospitalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital: %w", err)
	}
	if hospital == nil {
		return nil, model.ErrHospitalNotFound
	}
	return hospital, nil
}

// GetAllHospitals lists all hospitals with their rosters
func (s *hospitalService) GetAllHospitals(ctx context.Context) ([]model.Hospital, error) {
	hospitals, err := s.hospitalRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list hospitals: %w", err)
	}
	return hospitals, nil
}

// UpdateHospital applies a partial update
func (s *hospitalService) UpdateHospital(ctx context.Context, id uuid.UUID, req model.UpdateHospitalRequest) (*model.Hospital, error) {
	existing, err := s.hospitalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital for update: %w", err)
	}
	if existing == nil {
		return nil, model.ErrHospitalNotFound
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.State != nil {
		if *req.State != model.StateRJ && *req.State != model.StateSP {
			return nil, model.ErrInvalidState
		}
		existing.State = *req.State
	}
	if req.Address != nil {
		existing.Address = req.Address
	}

	if err := s.hospitalRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteHospital removes a hospital and its roster. Visits referencing it are
// left in place with their denormalized hospital name.
func (s *hospitalService) DeleteHospital(ctx context.Context, id uuid.UUID) error {
	return s.hospitalRepo.Delete(ctx, id)
}

// AddPhotographer authorizes a user as photographer for the hospital.
// Idempotent: adding an already present user succeeds.
func (s *hospitalService) AddPhotographer(ctx context.Context, hospitalID, userID uuid.UUID) (*model.Hospital, error) {
	hospital, err := s.hospitalRepo.FindByID(ctx, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital: %w", err)
	}
	if hospital == nil {
		return nil, model.ErrHospitalNotFound
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}

	if err := s.hospitalRepo.AddPhotographer(ctx, hospitalID, userID); err != nil {
		return nil, err
	}
	return s.GetHospital(ctx, hospitalID)
}

// RemovePhotographer revokes the authorization. Idempotent: removing an
// absent user succeeds.
func (s *hospitalService) RemovePhotographer(ctx context.Context, hospitalID, userID uuid.UUID) (*model.Hospital, error) {
	hospital, err := s.hospitalRepo.FindByID(ctx, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital: %w", err)
	}
	if hospital == nil {
		return nil, model.ErrHospitalNotFound
	}

	if err := s.hospitalRepo.RemovePhotographer(ctx, hospitalID, userID); err != nil {
		return nil, err
	}
	return s.GetHospital(ctx, hospitalID)
}
