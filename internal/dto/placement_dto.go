package dto

// TopUpCreditsRequest grants credits to a placement-owned candidate.
type TopUpCreditsRequest struct {
	Credits int `json:"credits" validate:"required,gt=0,lte=1000"`
}

// CandidateImportItem describes one candidate in a bulk import. When the
// password is omitted a temporary credential is generated and returned so the
// officer can hand it out.
type CandidateImportItem struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
	Credits  int    `json:"credits" validate:"gte=0,lte=1000"`
}

// CandidateImportRequest bulk-registers sponsored candidates.
type CandidateImportRequest struct {
	Candidates []CandidateImportItem `json:"candidates" validate:"required,min=1,max=500,dive"`
}

// ImportedCandidate pairs the created profile with its temporary credential,
// present only when one was generated.
type ImportedCandidate struct {
	Candidate         CandidateResponse `json:"candidate"`
	TemporaryPassword string            `json:"temporary_password,omitempty"`
}

// SkippedCandidate reports one row that could not be imported.
type SkippedCandidate struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// CandidateImportResult summarizes a bulk import.
type CandidateImportResult struct {
	Imported []ImportedCandidate `json:"imported"`
	Skipped  []SkippedCandidate  `json:"skipped"`
}
