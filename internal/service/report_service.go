package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/scholar-ledger-api/internal/dto"
	"github.com/noah-isme/scholar-ledger-api/internal/engine"
	"github.com/noah-isme/scholar-ledger-api/internal/models"
	"github.com/noah-isme/scholar-ledger-api/internal/observability"
	"github.com/noah-isme/scholar-ledger-api/internal/repository"
)

// ReportService assembles report cards and class rankings.
type ReportService interface {
	ReportCard(ctx context.Context, studentID uint, query dto.ScopeQuery) (dto.ReportCardResponse, error)
	ClassRanking(ctx context.Context, classID uint, query dto.ScopeQuery) (dto.ClassRankingResponse, error)
}

type reportService struct {
	scores   repository.ScoreRepository
	students repository.StudentRepository
	classes  repository.ClassRepository
	settings SettingsService
	rankings *RankingCache
	ranker   engine.Ranker
	logger   zerolog.Logger
}

// NewReportService constructs the report service. policy decides how tied
// totals are positioned.
func NewReportService(scores repository.ScoreRepository, students repository.StudentRepository, classes repository.ClassRepository, settings SettingsService, rankings *RankingCache, policy engine.TiePolicy, logger zerolog.Logger) ReportService {
	return &reportService{
		scores:   scores,
		students: students,
		classes:  classes,
		settings: settings,
		rankings: rankings,
		ranker:   engine.Ranker{Policy: policy},
		logger:   logger.With().Str("component", "report_service").Logger(),
	}
}

func (s *reportService) ReportCard(ctx context.Context, studentID uint, query dto.ScopeQuery) (dto.ReportCardResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/scholar-ledger-api/internal/service/report")
	ctx, span := tracer.Start(ctx, "reports.card")
	span.SetAttributes(attribute.Int64("reports.student_id", int64(studentID)))
	defer span.End()

	student, err := loadStudent(ctx, s.students, studentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		return dto.ReportCardResponse{}, err
	}
	class, err := loadClass(ctx, s.classes, student.ClassID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "class_lookup_failed")
		return dto.ReportCardResponse{}, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "settings_lookup_failed")
		return dto.ReportCardResponse{}, err
	}
	scope, err := s.settings.ResolveScope(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scope_resolution_failed")
		return dto.ReportCardResponse{}, err
	}

	roster, records, err := s.classRecords(ctx, class.ID, scope)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "class_records_failed")
		return dto.ReportCardResponse{}, err
	}

	record := findRecord(records, student.ID)
	if record == nil {
		empty, err := loadRecord(ctx, s.scores, student, scope)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "record_lookup_failed")
			return dto.ReportCardResponse{}, err
		}
		record = &empty
	}

	if position, ok := s.ranker.Position(student.ID, roster, records, scope.Session, scope.Term); ok {
		record.Position = &position
	}

	view := dto.NewScoreRecordResponse(*record)
	return dto.ReportCardResponse{
		SchoolName:        settings.SchoolName,
		Session:           scope.Session,
		Term:              scope.Term,
		Student:           dto.NewStudentSummary(student),
		Class:             dto.NewClassSummary(class),
		Subjects:          view.Rows,
		TotalScore:        record.TotalScore,
		Average:           record.Average,
		Position:          record.Position,
		ClassSize:         len(roster),
		Affective:         view.Affective,
		Psychomotor:       view.Psychomotor,
		Attendance:        view.Attendance,
		TeacherRemark:     record.TeacherRemark,
		HeadTeacherRemark: record.HeadTeacherRemark,
		GradingKey:        engine.GradingKey(),
	}, nil
}

func (s *reportService) ClassRanking(ctx context.Context, classID uint, query dto.ScopeQuery) (dto.ClassRankingResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/scholar-ledger-api/internal/service/report")
	ctx, span := tracer.Start(ctx, "reports.ranking")
	span.SetAttributes(attribute.Int64("reports.class_id", int64(classID)))
	defer span.End()

	class, err := loadClass(ctx, s.classes, classID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "class_lookup_failed")
		return dto.ClassRankingResponse{}, err
	}
	scope, err := s.settings.ResolveScope(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scope_resolution_failed")
		return dto.ClassRankingResponse{}, err
	}

	if cached, ok := s.rankings.Get(ctx, class.ID, scope); ok {
		observability.RankingLookups().WithLabelValues("hit").Inc()
		span.SetAttributes(attribute.Bool("reports.cache_hit", true))
		return cached, nil
	}
	if s.rankings.enabled() {
		observability.RankingLookups().WithLabelValues("miss").Inc()
	} else {
		observability.RankingLookups().WithLabelValues("disabled").Inc()
	}

	roster, records, err := s.classRecords(ctx, class.ID, scope)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "class_records_failed")
		return dto.ClassRankingResponse{}, err
	}

	response := dto.ClassRankingResponse{
		Class:     dto.NewClassSummary(class),
		Session:   scope.Session,
		Term:      scope.Term,
		TiePolicy: string(s.ranker.Policy),
		Standings: s.ranker.ClassRanking(class.ID, roster, records, scope.Session, scope.Term),
	}
	s.rankings.Set(ctx, class.ID, scope, response)

	s.logger.Debug().
		Uint("class_id", class.ID).
		Str("session", scope.Session).
		Str("term", scope.Term).
		Int("students", len(response.Standings)).
		Msg("class ranking computed")

	return response, nil
}

// classRecords loads the class roster and every record its students hold for the scope.
func (s *reportService) classRecords(ctx context.Context, classID uint, scope Scope) ([]models.Student, []models.ScoreRecord, error) {
	roster, err := s.students.List(ctx, repository.StudentFilter{ClassID: &classID})
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uint, 0, len(roster))
	for _, student := range roster {
		ids = append(ids, student.ID)
	}

	records, err := s.scores.ListByScope(ctx, scope.Session, scope.Term, ids)
	if err != nil {
		return nil, nil, err
	}
	return roster, records, nil
}

func findRecord(records []models.ScoreRecord, studentID uint) *models.ScoreRecord {
	for i := range records {
		if records[i].StudentID == studentID {
			return &records[i]
		}
	}
	return nil
}
