package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/scholar-ledger-api/internal/dto"
	"github.com/noah-isme/scholar-ledger-api/internal/engine"
	"github.com/noah-isme/scholar-ledger-api/internal/events"
	"github.com/noah-isme/scholar-ledger-api/internal/models"
	"github.com/noah-isme/scholar-ledger-api/internal/repository"
)

var (
	// ErrClassNotFound indicates the class does not exist.
	ErrClassNotFound = errors.New("class not found")
	// ErrStudentNotFound indicates the student is not on the roster.
	ErrStudentNotFound = errors.New("student not found")
)

// RosterService manages classes and the students enrolled in them.
type RosterService interface {
	CreateClass(ctx context.Context, payload dto.ClassCreateRequest, actor ActivityActor) (dto.ClassResponse, error)
	ListClasses(ctx context.Context) ([]dto.ClassResponse, error)
	GetClass(ctx context.Context, id uint) (dto.ClassResponse, error)
	ClassSubjects(ctx context.Context, id uint) (dto.ClassSubjectsResponse, error)
	CreateStudent(ctx context.Context, payload dto.StudentCreateRequest, actor ActivityActor) (dto.StudentResponse, error)
	ListStudents(ctx context.Context, req dto.StudentListRequest) ([]dto.StudentResponse, error)
	GetStudent(ctx context.Context, id uint) (dto.StudentResponse, error)
	ChangeClass(ctx context.Context, id uint, payload dto.StudentClassUpdateRequest, actor ActivityActor) (dto.StudentResponse, error)
}

type rosterService struct {
	classes   repository.ClassRepository
	students  repository.StudentRepository
	settings  SettingsService
	rankings  *RankingCache
	publisher events.Publisher
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(classes repository.ClassRepository, students repository.StudentRepository, settings SettingsService, rankings *RankingCache, publisher events.Publisher, validator *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) RosterService {
	return &rosterService{
		classes:   classes,
		students:  students,
		settings:  settings,
		rankings:  rankings,
		publisher: publisher,
		validator: validator,
		activity:  activity,
		logger:    logger.With().Str("component", "roster_service").Logger(),
	}
}

func (s *rosterService) CreateClass(ctx context.Context, payload dto.ClassCreateRequest, actor ActivityActor) (dto.ClassResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	name := strings.TrimSpace(payload.Name)
	stage := models.ClassStage(payload.Stage)
	if stage == "" {
		stage = engine.StageFromName(name)
	}

	class := models.Class{
		Name:     name,
		Stage:    stage,
		Subjects: datatypes.JSONSlice[string](normalizeSubjects(payload.Subjects)),
	}
	if err := s.classes.Create(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "roster.class_created",
		EntityType: "class",
		EntityID:   &class.ID,
		Metadata:   map[string]interface{}{"name": class.Name, "stage": string(class.Stage)},
	})

	return dto.NewClassResponse(class, engine.ResolveSubjects(class)), nil
}

func (s *rosterService) ListClasses(ctx context.Context) ([]dto.ClassResponse, error) {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ClassResponse, 0, len(classes))
	for _, class := range classes {
		items = append(items, dto.NewClassResponse(class, engine.ResolveSubjects(class)))
	}
	return items, nil
}

func (s *rosterService) GetClass(ctx context.Context, id uint) (dto.ClassResponse, error) {
	class, err := s.loadClass(ctx, id)
	if err != nil {
		return dto.ClassResponse{}, err
	}
	return dto.NewClassResponse(class, engine.ResolveSubjects(class)), nil
}

func (s *rosterService) ClassSubjects(ctx context.Context, id uint) (dto.ClassSubjectsResponse, error) {
	class, err := s.loadClass(ctx, id)
	if err != nil {
		return dto.ClassSubjectsResponse{}, err
	}

	return dto.ClassSubjectsResponse{
		ClassID:  class.ID,
		Stage:    string(class.Stage),
		Preset:   !class.HasExplicitSubjects(),
		Subjects: engine.ResolveSubjects(class),
	}, nil
}

func (s *rosterService) CreateStudent(ctx context.Context, payload dto.StudentCreateRequest, actor ActivityActor) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}
	if _, err := s.loadClass(ctx, payload.ClassID); err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		Name:          strings.TrimSpace(payload.Name),
		AdmissionNo:   strings.TrimSpace(payload.AdmissionNo),
		ClassID:       payload.ClassID,
		Gender:        payload.Gender,
		DateOfBirth:   payload.DateOfBirth,
		GuardianName:  strings.TrimSpace(payload.GuardianName),
		GuardianPhone: strings.TrimSpace(payload.GuardianPhone),
	}
	if err := s.students.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.rankings.InvalidateClass(ctx, student.ClassID)

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "roster.student_created",
		EntityType: "student",
		EntityID:   &student.ID,
		Metadata:   map[string]interface{}{"class_id": student.ClassID},
	})

	return dto.NewStudentResponse(student), nil
}

func (s *rosterService) ListStudents(ctx context.Context, req dto.StudentListRequest) ([]dto.StudentResponse, error) {
	students, err := s.students.List(ctx, repository.StudentFilter{ClassID: req.ClassID, Search: req.Search})
	if err != nil {
		return nil, err
	}
	return dto.NewStudentResponses(students), nil
}

func (s *rosterService) GetStudent(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := loadStudent(ctx, s.students, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

// ChangeClass moves a student to another class. Existing score records keep
// the class they were entered under until their next edit; rankings follow
// the roster.
func (s *rosterService) ChangeClass(ctx context.Context, id uint, payload dto.StudentClassUpdateRequest, actor ActivityActor) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	current, err := loadStudent(ctx, s.students, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	if _, err := s.loadClass(ctx, payload.ClassID); err != nil {
		return dto.StudentResponse{}, err
	}
	if current.ClassID == payload.ClassID {
		return dto.NewStudentResponse(current), nil
	}

	updated, err := s.students.UpdateClass(ctx, id, payload.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	s.rankings.InvalidateClass(ctx, current.ClassID)
	s.rankings.InvalidateClass(ctx, updated.ClassID)

	var scope Scope
	if s.settings != nil {
		if resolved, err := s.settings.ResolveScope(ctx, dto.ScopeQuery{}); err == nil {
			scope = resolved
		}
	}

	change := map[string]interface{}{
		"student_id":    updated.ID,
		"from_class_id": current.ClassID,
		"to_class_id":   updated.ClassID,
	}
	publish(ctx, s.publisher, s.logger, events.TypeEnrollmentChange, scope, change)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     events.TypeEnrollmentChange,
		EntityType: "student",
		EntityID:   &updated.ID,
		Scope:      scope,
		Metadata:   change,
	})

	s.logger.Info().
		Uint("student_id", updated.ID).
		Uint("from_class_id", current.ClassID).
		Uint("to_class_id", updated.ClassID).
		Msg("student moved to another class")

	return dto.NewStudentResponse(updated), nil
}

func (s *rosterService) loadClass(ctx context.Context, id uint) (models.Class, error) {
	return loadClass(ctx, s.classes, id)
}

func loadClass(ctx context.Context, repo repository.ClassRepository, id uint) (models.Class, error) {
	class, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Class{}, ErrClassNotFound
		}
		return models.Class{}, err
	}
	return class, nil
}

func loadStudent(ctx context.Context, repo repository.StudentRepository, id uint) (models.Student, error) {
	student, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}
	return student, nil
}

// publish sends a domain event and logs, rather than returns, delivery failures.
func publish(ctx context.Context, publisher events.Publisher, logger zerolog.Logger, eventType string, scope Scope, data interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, eventType, scope.Session, scope.Term, data); err != nil {
		logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

func normalizeSubjects(subjects []string) []string {
	seen := make(map[string]struct{}, len(subjects))
	result := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		trimmed := strings.TrimSpace(subject)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
