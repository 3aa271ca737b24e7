package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/models"
	"github.com/jobsetu/jobsetu-api/internal/repository"
)

// ErrEmailTaken indicates the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// ErrInvalidCredentials indicates a failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Principal roles embedded into issued tokens.
const (
	RoleCandidate = "candidate"
	RoleEmployer  = "employer"
	RolePlacement = "placement"
)

// AuthService registers candidates and issues JWTs for all account roles.
type AuthService interface {
	Signup(ctx context.Context, payload dto.SignupRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
}

type authService struct {
	candidates repository.CandidateRepository
	employers  repository.EmployerRepository
	placements repository.PlacementRepository
	validator  *validator.Validate
	jwtSecret  string
	tokenTTL   time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(candidates repository.CandidateRepository, employers repository.EmployerRepository, placements repository.PlacementRepository, validate *validator.Validate, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}

	return &authService{
		candidates: candidates,
		employers:  employers,
		placements: placements,
		validator:  validate,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		logger:     logger.With().Str("component", "auth_service").Logger(),
		now:        time.Now,
	}
}

func (s *authService) Signup(ctx context.Context, payload dto.SignupRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	candidate := models.Candidate{
		Name:               strings.TrimSpace(payload.Name),
		Email:              payload.Email,
		PasswordHash:       string(hash),
		RegistrationMethod: models.RegistrationSignup,
	}

	if err := s.candidates.Create(ctx, &candidate); err != nil {
		if repository.IsDuplicateKey(err) {
			return dto.AuthResponse{}, ErrEmailTaken
		}
		return dto.AuthResponse{}, err
	}

	token, err := s.signToken(candidate.ID, RoleCandidate)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("candidate_id", candidate.ID).Msg("candidate registered")

	return dto.AuthResponse{Token: token, Candidate: dto.NewCandidateResponse(candidate)}, nil
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	role := payload.Role
	if role == "" {
		role = RoleCandidate
	}

	switch role {
	case RoleEmployer:
		employer, err := s.employers.GetByEmail(ctx, payload.Email)
		if err != nil {
			return dto.AuthResponse{}, loginError(err)
		}
		if bcrypt.CompareHashAndPassword([]byte(employer.PasswordHash), []byte(payload.Password)) != nil {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		token, err := s.signToken(employer.ID, RoleEmployer)
		if err != nil {
			return dto.AuthResponse{}, err
		}
		return dto.AuthResponse{Token: token}, nil
	case RolePlacement:
		officer, err := s.placements.GetByEmail(ctx, payload.Email)
		if err != nil {
			return dto.AuthResponse{}, loginError(err)
		}
		if bcrypt.CompareHashAndPassword([]byte(officer.PasswordHash), []byte(payload.Password)) != nil {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		token, err := s.signToken(officer.ID, RolePlacement)
		if err != nil {
			return dto.AuthResponse{}, err
		}
		return dto.AuthResponse{Token: token}, nil
	default:
		candidate, err := s.candidates.GetByEmail(ctx, payload.Email)
		if err != nil {
			return dto.AuthResponse{}, loginError(err)
		}
		if !candidatePasswordMatches(candidate, payload.Password) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		token, err := s.signToken(candidate.ID, RoleCandidate)
		if err != nil {
			return dto.AuthResponse{}, err
		}
		return dto.AuthResponse{Token: token, Candidate: dto.NewCandidateResponse(candidate)}, nil
	}
}

func (s *authService) signToken(id uint, role string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  id,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// candidatePasswordMatches checks the supplied password against the stored
// credential. Placement- and admin-created accounts may still hold the
// temporary plaintext credential until the first reset; those compare
// directly instead of through bcrypt.
func candidatePasswordMatches(candidate models.Candidate, password string) bool {
	if candidate.PasswordHash == "" {
		return false
	}

	switch candidate.RegistrationMethod {
	case models.RegistrationPlacement, models.RegistrationAdmin:
		if !strings.HasPrefix(candidate.PasswordHash, "$2") {
			return candidate.PasswordHash == password
		}
	}

	return bcrypt.CompareHashAndPassword([]byte(candidate.PasswordHash), []byte(password)) == nil
}

func loginError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidCredentials
	}
	return err
}
