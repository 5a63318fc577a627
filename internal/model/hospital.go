package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	StateRJ = "RJ"
	StateSP = "SP"
)

// Hospital groups visits and carries the roster of users allowed to claim
// the photographer slot on its visits.
type Hospital struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	State           string      `json:"state"` // RJ or SP
	Address         *string     `json:"address,omitempty"`
	PhotographerIDs []uuid.UUID `json:"photographer_ids"`
	CreatedAt       time.Time   `json:"created_at"`
}

type CreateHospitalRequest struct {
	Name    string  `json:"name" binding:"required"`
	State   string  `json:"state" binding:"required,oneof=RJ SP"`
	Address *string `json:"address"`
}

// UpdateHospitalRequest allows partial updates
type UpdateHospitalRequest struct {
	Name    *string `json:"name,omitempty"`
	State   *string `json:"state,omitempty" binding:"omitempty,oneof=RJ SP"`
	Address *string `json:"address,omitempty"`
}

type AddPhotographerRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}
