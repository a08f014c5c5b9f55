package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/scholar-ledger-api/internal/config"
	"github.com/noah-isme/scholar-ledger-api/internal/dto"
	"github.com/noah-isme/scholar-ledger-api/internal/engine"
	"github.com/noah-isme/scholar-ledger-api/internal/events"
	"github.com/noah-isme/scholar-ledger-api/internal/models"
	"github.com/noah-isme/scholar-ledger-api/internal/observability"
	"github.com/noah-isme/scholar-ledger-api/internal/repository"
)

var (
	// ErrScoreExceedsMax indicates a component is above its configured maximum.
	ErrScoreExceedsMax = errors.New("score exceeds the configured maximum")
	// ErrSubjectNotOffered indicates the subject is not on the class subject list.
	ErrSubjectNotOffered = errors.New("subject not offered by the student's class")
	// ErrUnknownTrait indicates a rating was supplied for a trait the report card does not carry.
	ErrUnknownTrait = errors.New("unknown trait")
)

// Score record mutation kinds, used for metrics and audit actions.
const (
	scoreKindRow        = "row"
	scoreKindTraits     = "traits"
	scoreKindAttendance = "attendance"
	scoreKindRemarks    = "remarks"
)

// ScoreService enters and reads a student's term record. Every mutation
// creates the record on first use, recomputes derived fields and saves the
// whole record.
type ScoreService interface {
	UpdateRow(ctx context.Context, studentID uint, query dto.ScopeQuery, payload dto.ScoreRowRequest, actor ActivityActor) (dto.ScoreRecordResponse, error)
	UpdateTraits(ctx context.Context, studentID uint, query dto.ScopeQuery, payload dto.TraitsRequest, actor ActivityActor) (dto.ScoreRecordResponse, error)
	UpdateAttendance(ctx context.Context, studentID uint, query dto.ScopeQuery, payload dto.AttendanceRequest, actor ActivityActor) (dto.ScoreRecordResponse, error)
	UpdateRemarks(ctx context.Context, studentID uint, query dto.ScopeQuery, payload dto.RemarksRequest, actor ActivityActor) (dto.ScoreRecordResponse, error)
	GetRecord(ctx context.Context, studentID uint, query dto.ScopeQuery) (dto.ScoreRecordResponse, error)
}

type scoreService struct {
	scores    repository.ScoreRepository
	students  repository.StudentRepository
	classes   repository.ClassRepository
	settings  SettingsService
	rankings  *RankingCache
	publisher events.Publisher
	limits    config.ScoreLimits
	validator *validator.Validate
	activity  ActivityRecorder
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewScoreService constructs the score entry service.
func NewScoreService(scores repository.ScoreRepository, students repository.StudentRepository, classes repository.ClassRepository, settings SettingsService, rankings *RankingCache, publisher events.Publisher, limits config.ScoreLimits, validator *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) ScoreService {
	return &scoreService{
		scores:    scores,
		students:  students,
		classes:   classes,
		settings:  settings,
		rankings:  rankings,
		publisher: publisher,
		limits:    limits,
		validator: validator,
		activity:  activity,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/scholar-ledger-api/internal/service/score"),
		logger:    logger.With().Str("component", "score_service").Logger(),
	}
}

func (s *scoreService) UpdateRow(ctx context.Context, studentID uint, query dto.ScopeQuery, payload dto.ScoreRowRequest, actor ActivityActor) (dto.ScoreRecordResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ScoreRecordResponse{}, err
	}
	if err := s.checkLimits(payload); err != nil {
		return dto.ScoreRecordResponse{}, err
	}

	subject := strings.TrimSpace(payload.Subject)
	var row models.ScoreRow
	response, err := s.mutate(ctx, studentID, query, scoreKindRow, actor, func(record *models.ScoreRecord, class models.Class) error {
		if !engine.OffersSubject(class, subject) {
			return fmt.Errorf("%w: %s", ErrSubjectNotOffered, subject)
		}
		row = engine.ApplyRow(record, subject, engine.RowUpdate{CA1: payload.CA1, CA2: payload.CA2, Exam: payload.Exam})
		return nil
	}, func() map[string]interface{} {
		return map[string]interface{}{"subject": row.Subject, "total": row.Total, "grade": row.Grade}
	})
	return response, err
}

func (s *scoreService) UpdateTraits(ctx context.Context, studentID uint, query dto.ScopeQuery, payload dto.TraitsRequest, actor ActivityActor) (dto.ScoreRecordResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ScoreRecordResponse{}, err
	}
	unknown := append(engine.UnknownTraits(payload.Affective, engine.AffectiveTraits), engine.UnknownTraits(payload.Psychomotor, engine.PsychomotorTraits)...)
	if len(unknown) > 0 {
		return dto.ScoreRecordResponse{}, fmt.Errorf("%w: %s", ErrUnknownTrait, strings.Join(unknown, ", "))
	}

	return s.mutate(ctx, studentID, query, scoreKindTraits, actor, func(record *models.ScoreRecord, _ models.Class) error {
		record.Affective = datatypes.NewJSONType(mergeRatings(record.Affective.Data(), payload.Affective))
		record.Psychomotor = datatypes.NewJSONType(mergeRatings(record.Psychomotor.Data(), payload.Psychomotor))
		return nil
	}, func() map[string]interface{} {
		return map[string]interface{}{"affective": len(payload.Affective), "psychomotor": len(payload.Psychomotor)}
	})
}

func (s *scoreService) UpdateAttendance(ctx context.Context, studentID uint, query dto.ScopeQuery, payload dto.AttendanceRequest, actor ActivityActor) (dto.ScoreRecordResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ScoreRecordResponse{}, err
	}

	return s.mutate(ctx, studentID, query, scoreKindAttendance, actor, func(record *models.ScoreRecord, _ models.Class) error {
		record.AttendancePresent = payload.Present
		record.AttendanceTotal = payload.Total
		return nil
	}, func() map[string]interface{} {
		return map[string]interface{}{"present": payload.Present, "total": payload.Total}
	})
}

func (s *scoreService) UpdateRemarks(ctx context.Context, studentID uint, query dto.ScopeQuery, payload dto.RemarksRequest, actor ActivityActor) (dto.ScoreRecordResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ScoreRecordResponse{}, err
	}

	return s.mutate(ctx, studentID, query, scoreKindRemarks, actor, func(record *models.ScoreRecord, _ models.Class) error {
		if payload.TeacherRemark != nil {
			record.TeacherRemark = s.sanitize(*payload.TeacherRemark)
		}
		if payload.HeadTeacherRemark != nil {
			record.HeadTeacherRemark = s.sanitize(*payload.HeadTeacherRemark)
		}
		return nil
	}, nil)
}

// GetRecord returns the student's record for the scope, or an empty record
// view when nothing has been entered yet.
func (s *scoreService) GetRecord(ctx context.Context, studentID uint, query dto.ScopeQuery) (dto.ScoreRecordResponse, error) {
	student, err := loadStudent(ctx, s.students, studentID)
	if err != nil {
		return dto.ScoreRecordResponse{}, err
	}
	scope, err := s.settings.ResolveScope(ctx, query)
	if err != nil {
		return dto.ScoreRecordResponse{}, err
	}

	record, err := loadRecord(ctx, s.scores, student, scope)
	if err != nil {
		return dto.ScoreRecordResponse{}, err
	}
	return dto.NewScoreRecordResponse(record), nil
}

func (s *scoreService) mutate(ctx context.Context, studentID uint, query dto.ScopeQuery, kind string, actor ActivityActor, apply func(record *models.ScoreRecord, class models.Class) error, metadata func() map[string]interface{}) (dto.ScoreRecordResponse, error) {
	ctx, span := s.tracer.Start(ctx, "scores.update", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.Int64("scores.student_id", int64(studentID)),
		attribute.String("scores.kind", kind),
		attribute.Int64("scores.actor_id", int64(actor.ID)),
	)
	defer span.End()

	fail := func(err error, status string) (dto.ScoreRecordResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.ScoreRecordResponse{}, err
	}

	student, err := loadStudent(ctx, s.students, studentID)
	if err != nil {
		return fail(err, "student_lookup_failed")
	}
	class, err := loadClass(ctx, s.classes, student.ClassID)
	if err != nil {
		return fail(err, "class_lookup_failed")
	}
	scope, err := s.settings.ResolveScope(ctx, query)
	if err != nil {
		return fail(err, "scope_resolution_failed")
	}
	span.SetAttributes(attribute.String("scores.session", scope.Session), attribute.String("scores.term", scope.Term))

	record, err := loadRecord(ctx, s.scores, student, scope)
	if err != nil {
		return fail(err, "record_lookup_failed")
	}
	created := record.IsNew()
	previousClassID := record.ClassID
	record.ClassID = student.ClassID

	if err := apply(&record, class); err != nil {
		return fail(err, "record_update_rejected")
	}

	if err := s.scores.Save(ctx, &record); err != nil {
		return fail(err, "record_save_failed")
	}

	observability.ScoreUpdates().WithLabelValues(kind).Inc()
	s.rankings.InvalidateClass(ctx, student.ClassID)
	if !created && previousClassID != student.ClassID {
		s.rankings.InvalidateClass(ctx, previousClassID)
	}

	details := map[string]interface{}{}
	if metadata != nil {
		details = metadata()
	}
	details["kind"] = kind
	details["created"] = created

	publish(ctx, s.publisher, s.logger, events.TypeScoresUpdated, scope, map[string]interface{}{
		"record_id":   record.ID,
		"student_id":  student.ID,
		"class_id":    student.ClassID,
		"kind":        kind,
		"total_score": record.TotalScore,
		"average":     record.Average,
	})
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "scores." + kind + "_updated",
		EntityType: "score_record",
		EntityID:   &record.ID,
		Scope:      scope,
		Metadata:   details,
	})

	s.logger.Debug().
		Uint("student_id", student.ID).
		Str("kind", kind).
		Bool("created", created).
		Float64("average", record.Average).
		Msg("score record saved")

	return dto.NewScoreRecordResponse(record), nil
}

func (s *scoreService) checkLimits(payload dto.ScoreRowRequest) error {
	checks := []struct {
		name  string
		value *float64
		max   float64
	}{
		{name: "ca1", value: payload.CA1, max: s.limits.CA1},
		{name: "ca2", value: payload.CA2, max: s.limits.CA2},
		{name: "exam", value: payload.Exam, max: s.limits.Exam},
	}
	for _, check := range checks {
		if check.value != nil && check.max > 0 && *check.value > check.max {
			return fmt.Errorf("%w: %s must not exceed %g", ErrScoreExceedsMax, check.name, check.max)
		}
	}
	return nil
}

func (s *scoreService) sanitize(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

// loadRecord returns the stored record for the scope or a new, unsaved one.
func loadRecord(ctx context.Context, repo repository.ScoreRepository, student models.Student, scope Scope) (models.ScoreRecord, error) {
	record, err := repo.GetByScope(ctx, student.ID, scope.Session, scope.Term)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ScoreRecord{}, err
	}

	return models.ScoreRecord{
		StudentID: student.ID,
		ClassID:   student.ClassID,
		Session:   scope.Session,
		Term:      scope.Term,
		Rows:      []models.ScoreRow{},
	}, nil
}

func mergeRatings(current models.TraitRatings, updates map[string]int) models.TraitRatings {
	merged := make(models.TraitRatings, len(current)+len(updates))
	for trait, rating := range current {
		merged[trait] = rating
	}
	for trait, rating := range updates {
		merged[trait] = rating
	}
	return merged
}
