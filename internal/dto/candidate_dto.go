package dto

import (
	"time"

	"github.com/jobsetu/jobsetu-api/internal/models"
)

// SignupRequest registers a new candidate account.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest authenticates an existing account of any role.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=candidate employer placement"`
}

// AuthResponse carries the signed token and profile after login/signup.
type AuthResponse struct {
	Token     string            `json:"token"`
	Candidate CandidateResponse `json:"candidate"`
}

// CandidateResponse is the externally visible candidate profile.
type CandidateResponse struct {
	ID                 uint      `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	RegistrationMethod string    `json:"registration_method"`
	Credits            int       `json:"credits"`
	PlacementID        *uint     `json:"placement_id"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewCandidateResponse converts a Candidate model into a DTO.
func NewCandidateResponse(model models.Candidate) CandidateResponse {
	return CandidateResponse{
		ID:                 model.ID,
		Name:               model.Name,
		Email:              model.Email,
		RegistrationMethod: model.RegistrationMethod,
		Credits:            model.Credits,
		PlacementID:        model.PlacementID,
		CreatedAt:          model.CreatedAt,
	}
}
