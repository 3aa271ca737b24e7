package models

import "time"

// Employer represents a company account that posts jobs and owns assessments.
type Employer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CompanyName  string    `gorm:"size:255;not null" json:"company_name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Website      string    `gorm:"size:512" json:"website"`
	Location     string    `gorm:"size:255" json:"location"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
