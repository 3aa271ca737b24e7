package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/models"
	"github.com/jobsetu/jobsetu-api/internal/repository"
)

// ErrPlacementForbidden indicates the candidate does not belong to the
// placement officer making the request.
var ErrPlacementForbidden = errors.New("candidate is not sponsored by this placement account")

// PlacementService manages a placement officer's sponsored candidates and
// their credit allocations.
type PlacementService interface {
	TopUpCredits(ctx context.Context, placementID, candidateID uint, payload dto.TopUpCreditsRequest) (dto.CreditBalanceResponse, error)
	ListCandidates(ctx context.Context, placementID uint) ([]dto.CandidateResponse, error)
	// ImportCandidates bulk-registers sponsored candidates. Rows whose email
	// is already taken are skipped, not fatal.
	ImportCandidates(ctx context.Context, placementID uint, payload dto.CandidateImportRequest) (dto.CandidateImportResult, error)
}

type placementService struct {
	placements repository.PlacementRepository
	candidates repository.CandidateRepository
	outbox     repository.OutboxRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewPlacementService constructs a PlacementService instance.
func NewPlacementService(placements repository.PlacementRepository, candidates repository.CandidateRepository, outbox repository.OutboxRepository, validate *validator.Validate, logger zerolog.Logger) PlacementService {
	return &placementService{
		placements: placements,
		candidates: candidates,
		outbox:     outbox,
		validator:  validate,
		logger:     logger.With().Str("component", "placement_service").Logger(),
	}
}

// TopUpCredits grants credits to a sponsored candidate. The balance update is
// an atomic increment, so concurrent top-ups never lose grants.
func (s *placementService) TopUpCredits(ctx context.Context, placementID, candidateID uint, payload dto.TopUpCreditsRequest) (dto.CreditBalanceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CreditBalanceResponse{}, err
	}

	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CreditBalanceResponse{}, ErrCandidateNotFound
		}
		return dto.CreditBalanceResponse{}, err
	}

	if candidate.PlacementID == nil || *candidate.PlacementID != placementID {
		return dto.CreditBalanceResponse{}, ErrPlacementForbidden
	}

	if err := s.candidates.AddCredits(ctx, candidateID, payload.Credits); err != nil {
		return dto.CreditBalanceResponse{}, err
	}

	if err := s.recordCreditsEvent(ctx, candidate, payload.Credits); err != nil {
		s.logger.Warn().Err(err).Uint("candidate_id", candidateID).Msg("failed to record credits event")
	}

	fresh, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return dto.CreditBalanceResponse{}, err
	}

	s.logger.Info().
		Uint("placement_id", placementID).
		Uint("candidate_id", candidateID).
		Int("credits_added", payload.Credits).
		Int("balance", fresh.Credits).
		Msg("credits granted")

	return dto.CreditBalanceResponse{Credits: fresh.Credits}, nil
}

func (s *placementService) ListCandidates(ctx context.Context, placementID uint) ([]dto.CandidateResponse, error) {
	candidates, err := s.candidates.ListByPlacement(ctx, placementID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.CandidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		out = append(out, dto.NewCandidateResponse(candidate))
	}

	return out, nil
}

func (s *placementService) ImportCandidates(ctx context.Context, placementID uint, payload dto.CandidateImportRequest) (dto.CandidateImportResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CandidateImportResult{}, err
	}

	result := dto.CandidateImportResult{
		Imported: make([]dto.ImportedCandidate, 0, len(payload.Candidates)),
		Skipped:  make([]dto.SkippedCandidate, 0),
	}

	for _, item := range payload.Candidates {
		password := item.Password
		generated := ""
		if password == "" {
			generated = temporaryPassword()
			password = generated
		}

		// The temporary credential is stored as-is and accepted at login
		// until the candidate's first reset replaces it with a bcrypt hash.
		candidate := models.Candidate{
			Name:               strings.TrimSpace(item.Name),
			Email:              item.Email,
			PasswordHash:       password,
			RegistrationMethod: models.RegistrationPlacement,
			PlacementID:        &placementID,
			Credits:            item.Credits,
		}

		if err := s.candidates.Create(ctx, &candidate); err != nil {
			if repository.IsDuplicateKey(err) {
				result.Skipped = append(result.Skipped, dto.SkippedCandidate{
					Email:  candidate.Email,
					Reason: "email already registered",
				})
				continue
			}
			return dto.CandidateImportResult{}, err
		}

		result.Imported = append(result.Imported, dto.ImportedCandidate{
			Candidate:         dto.NewCandidateResponse(candidate),
			TemporaryPassword: generated,
		})
	}

	s.logger.Info().
		Uint("placement_id", placementID).
		Int("imported", len(result.Imported)).
		Int("skipped", len(result.Skipped)).
		Msg("candidates imported")

	return result, nil
}

func temporaryPassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (s *placementService) recordCreditsEvent(ctx context.Context, candidate models.Candidate, credits int) error {
	payload, err := json.Marshal(map[string]interface{}{
		"candidate_id":    candidate.ID,
		"candidate_name":  candidate.Name,
		"candidate_email": candidate.Email,
		"credits":         credits,
	})
	if err != nil {
		return fmt.Errorf("failed to encode credits event: %w", err)
	}

	return s.outbox.Create(ctx, &models.OutboxEvent{
		EventID: uuid.NewString(),
		Type:    models.EventCreditsPurchased,
		Payload: datatypes.JSON(payload),
		Status:  models.OutboxPending,
	})
}
