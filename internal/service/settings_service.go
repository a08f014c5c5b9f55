package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/scholar-ledger-api/internal/dto"
	"github.com/noah-isme/scholar-ledger-api/internal/models"
	"github.com/noah-isme/scholar-ledger-api/internal/repository"
)

// ErrSettingsNotConfigured indicates no settings row exists and no defaults were supplied.
var ErrSettingsNotConfigured = errors.New("school settings not configured")

// Scope is the session and term every score, fee and payment lookup is bound to.
type Scope struct {
	Session string
	Term    string
}

// SettingsDefaults seed the settings row the first time it is read.
type SettingsDefaults struct {
	SchoolName string
	Session    string
	Term       string
}

// SettingsService reads and updates the school-wide settings and resolves the
// active scope for requests.
type SettingsService interface {
	Get(ctx context.Context) (dto.SettingsResponse, error)
	Update(ctx context.Context, payload dto.SettingsUpdateRequest, actor ActivityActor) (dto.SettingsResponse, error)
	ResolveScope(ctx context.Context, query dto.ScopeQuery) (Scope, error)
}

type settingsService struct {
	repo      repository.SettingsRepository
	defaults  SettingsDefaults
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(repo repository.SettingsRepository, defaults SettingsDefaults, validator *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) SettingsService {
	return &settingsService{
		repo:      repo,
		defaults:  defaults,
		validator: validator,
		activity:  activity,
		logger:    logger.With().Str("component", "settings_service").Logger(),
	}
}

func (s *settingsService) Get(ctx context.Context) (dto.SettingsResponse, error) {
	settings, err := s.load(ctx)
	if err != nil {
		return dto.SettingsResponse{}, err
	}
	return dto.NewSettingsResponse(settings), nil
}

func (s *settingsService) Update(ctx context.Context, payload dto.SettingsUpdateRequest, actor ActivityActor) (dto.SettingsResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SettingsResponse{}, err
	}

	settings := models.Settings{
		SchoolName:     strings.TrimSpace(payload.SchoolName),
		CurrentSession: strings.TrimSpace(payload.CurrentSession),
		CurrentTerm:    strings.TrimSpace(payload.CurrentTerm),
	}
	if err := s.repo.Save(ctx, &settings); err != nil {
		return dto.SettingsResponse{}, err
	}

	s.logger.Info().
		Str("session", settings.CurrentSession).
		Str("term", settings.CurrentTerm).
		Msg("school settings updated")

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "settings.updated",
		EntityType: "settings",
		Scope:      Scope{Session: settings.CurrentSession, Term: settings.CurrentTerm},
		Metadata: map[string]interface{}{
			"school_name": settings.SchoolName,
		},
	})

	return dto.NewSettingsResponse(settings), nil
}

// ResolveScope applies any session or term override from the query on top of
// the current settings.
func (s *settingsService) ResolveScope(ctx context.Context, query dto.ScopeQuery) (Scope, error) {
	session := strings.TrimSpace(query.Session)
	term := strings.TrimSpace(query.Term)
	if session != "" && term != "" {
		return Scope{Session: session, Term: term}, nil
	}

	settings, err := s.load(ctx)
	if err != nil {
		return Scope{}, err
	}

	scope := Scope{Session: settings.CurrentSession, Term: settings.CurrentTerm}
	if session != "" {
		scope.Session = session
	}
	if term != "" {
		scope.Term = term
	}
	return scope, nil
}

func (s *settingsService) load(ctx context.Context) (models.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Settings{}, err
	}

	if s.defaults.Session == "" || s.defaults.Term == "" {
		return models.Settings{}, ErrSettingsNotConfigured
	}

	settings = models.Settings{
		SchoolName:     s.defaults.SchoolName,
		CurrentSession: s.defaults.Session,
		CurrentTerm:    s.defaults.Term,
	}
	if err := s.repo.Save(ctx, &settings); err != nil {
		return models.Settings{}, err
	}

	s.logger.Info().Str("session", settings.CurrentSession).Str("term", settings.CurrentTerm).Msg("seeded school settings")
	return settings, nil
}
