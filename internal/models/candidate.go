package models

import (
	"time"

	"gorm.io/datatypes"
)

// Registration methods govern password-hashing policy and credit eligibility.
const (
	RegistrationSignup      = "signup"
	RegistrationAdmin       = "admin"
	RegistrationPlacement   = "placement"
	RegistrationEmailSignup = "email_signup"
)

// Candidate represents a job seeker that can take assessments and apply to jobs.
type Candidate struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"size:255;not null" json:"name"`
	Email              string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash       string         `gorm:"size:255" json:"-"`
	RegistrationMethod string         `gorm:"size:32;not null;default:signup" json:"registration_method"`
	Credits            int            `gorm:"not null;default:0" json:"credits"`
	PlacementID        *uint          `gorm:"index" json:"placement_id"`
	Resume             datatypes.JSON `gorm:"type:json" json:"resume,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// CreditEligible reports whether the candidate may pay for applications with credits.
func (c Candidate) CreditEligible() bool {
	return c.RegistrationMethod == RegistrationPlacement || c.PlacementID != nil
}
