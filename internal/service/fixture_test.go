package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/scholar-ledger-api/internal/config"
	"github.com/noah-isme/scholar-ledger-api/internal/events"
	"github.com/noah-isme/scholar-ledger-api/internal/models"
	"github.com/noah-isme/scholar-ledger-api/internal/repository"
)

const (
	testSession = "2025/2026"
	testTerm    = "First Term"
)

var testLimits = config.ScoreLimits{CA1: 20, CA2: 20, Exam: 60}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func ptrFloat(v float64) *float64 {
	return &v
}

func ptrUint(v uint) *uint {
	return &v
}

func ptrString(v string) *string {
	return &v
}

type serviceFixture struct {
	db        *gorm.DB
	classes   repository.ClassRepository
	students  repository.StudentRepository
	scores    repository.ScoreRepository
	fees      repository.FeeHeadRepository
	payments  repository.PaymentRepository
	logs      repository.ActivityLogRepository
	settings  SettingsService
	activity  ActivityService
	publisher *events.MemoryPublisher
	validate  *validator.Validate
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Settings{},
		&models.Class{},
		&models.Student{},
		&models.ScoreRecord{},
		&models.ScoreRow{},
		&models.FeeHead{},
		&models.Payment{},
		&models.ActivityLog{},
	))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	validate := validator.New(validator.WithRequiredStructEnabled())
	logs := repository.NewActivityLogRepository(db)
	activity := NewActivityService(logs, testLogger())
	settings := NewSettingsService(
		repository.NewSettingsRepository(db),
		SettingsDefaults{SchoolName: "Hill Crest Academy", Session: testSession, Term: testTerm},
		validate,
		activity,
		testLogger(),
	)

	return &serviceFixture{
		db:        db,
		classes:   repository.NewClassRepository(db),
		students:  repository.NewStudentRepository(db),
		scores:    repository.NewScoreRepository(db),
		fees:      repository.NewFeeHeadRepository(db),
		payments:  repository.NewPaymentRepository(db),
		logs:      logs,
		settings:  settings,
		activity:  activity,
		publisher: &events.MemoryPublisher{},
		validate:  validate,
	}
}

func (f *serviceFixture) scoreService(cache *RankingCache) ScoreService {
	return NewScoreService(f.scores, f.students, f.classes, f.settings, cache, f.publisher, testLimits, f.validate, f.activity, testLogger())
}

func (f *serviceFixture) createClass(t *testing.T, name string, stage models.ClassStage, subjects ...string) models.Class {
	t.Helper()
	class := models.Class{Name: name, Stage: stage}
	if len(subjects) > 0 {
		class.Subjects = datatypes.JSONSlice[string](subjects)
	}
	require.NoError(t, f.classes.Create(context.Background(), &class))
	return class
}

func (f *serviceFixture) createStudent(t *testing.T, name string, classID uint) models.Student {
	t.Helper()
	student := models.Student{Name: name, ClassID: classID}
	require.NoError(t, f.students.Create(context.Background(), &student))
	return student
}

var teacher = ActivityActor{ID: 3, Role: "teacher"}
