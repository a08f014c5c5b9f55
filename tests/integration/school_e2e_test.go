package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholar-ledger-api/internal/config"
	"github.com/noah-isme/scholar-ledger-api/internal/database"
	"github.com/noah-isme/scholar-ledger-api/internal/dto"
	"github.com/noah-isme/scholar-ledger-api/internal/engine"
	"github.com/noah-isme/scholar-ledger-api/internal/events"
	"github.com/noah-isme/scholar-ledger-api/internal/handler"
	"github.com/noah-isme/scholar-ledger-api/internal/middleware"
	"github.com/noah-isme/scholar-ledger-api/internal/repository"
	"github.com/noah-isme/scholar-ledger-api/internal/router"
	"github.com/noah-isme/scholar-ledger-api/internal/service"
)

const jwtSecret = "integration-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupSchoolApp(t *testing.T) (*fiber.App, *events.MemoryPublisher) {
	t.Helper()

	cfg := config.Config{
		AppName:         "Scholar Ledger API",
		DatabaseDriver:  config.DriverSQLite,
		DatabaseURL:     "file:" + t.Name() + "?mode=memory&cache=shared",
		JWTSecret:       jwtSecret,
		TiePolicy:       engine.TieSequential,
		ScoreLimits:     config.ScoreLimits{CA1: 20, CA2: 20, Exam: 60},
		DefaultSession:  "2025/2026",
		DefaultTerm:     "First Term",
		RateLimitMax:    100,
		RateLimitWindow: time.Minute,
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	publisher := &events.MemoryPublisher{}
	rankings := service.NewRankingCache(nil, 0, logger)

	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	scoreRepo := repository.NewScoreRepository(db)

	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	settingsService := service.NewSettingsService(repository.NewSettingsRepository(db), service.SettingsDefaults{
		SchoolName: "Hill Crest Academy",
		Session:    cfg.DefaultSession,
		Term:       cfg.DefaultTerm,
	}, validate, activityService, logger)
	rosterService := service.NewRosterService(classRepo, studentRepo, settingsService, rankings, publisher, validate, activityService, logger)
	scoreService := service.NewScoreService(scoreRepo, studentRepo, classRepo, settingsService, rankings, publisher, cfg.ScoreLimits, validate, activityService, logger)
	reportService := service.NewReportService(scoreRepo, studentRepo, classRepo, settingsService, rankings, cfg.TiePolicy, logger)
	bursaryService := service.NewBursaryService(repository.NewFeeHeadRepository(db), repository.NewPaymentRepository(db), studentRepo, classRepo, settingsService, publisher, validate, activityService, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SettingsHandler: handler.NewSettingsHandler(settingsService, logger),
		ClassHandler:    handler.NewClassHandler(rosterService, logger),
		StudentHandler:  handler.NewStudentHandler(rosterService, logger),
		ScoreHandler:    handler.NewScoreHandler(scoreService, logger),
		ReportHandler:   handler.NewReportHandler(reportService, logger),
		BursaryHandler:  handler.NewBursaryHandler(bursaryService, logger),
		ActivityHandler: handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	return app, publisher
}

func token(t *testing.T, userID uint, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

func call(t *testing.T, app *fiber.App, method, target, bearer string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	if out != nil && decoded.Success {
		require.NoError(t, json.Unmarshal(decoded.Data, out))
	}
	return resp.StatusCode
}

func TestSchoolTermEndToEnd(t *testing.T) {
	app, publisher := setupSchoolApp(t)
	admin := token(t, 1, "admin")
	teacher := token(t, 2, "teacher")
	bursar := token(t, 3, "bursar")

	var class dto.ClassResponse
	status := call(t, app, http.MethodPost, "/api/v2/classes", admin, dto.ClassCreateRequest{
		Name:     "Primary 4",
		Subjects: []string{"Mathematics", "English Language"},
	}, &class)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "primary", class.Stage)

	var ada, bola dto.StudentResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/v2/students", admin, dto.StudentCreateRequest{Name: "Ada Obi", ClassID: class.ID}, &ada))
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/v2/students", admin, dto.StudentCreateRequest{Name: "Bola Ade", ClassID: class.ID}, &bola))

	ca1, ca2, exam := 15.0, 18.0, 50.0
	var record dto.ScoreRecordResponse
	status = call(t, app, http.MethodPut, "/api/v2/scores/"+strconv.Itoa(int(ada.ID))+"/rows", teacher, dto.ScoreRowRequest{Subject: "Mathematics", CA1: &ca1, CA2: &ca2, Exam: &exam}, &record)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, record.Rows, 1)
	require.Equal(t, 83.0, record.Rows[0].Total)
	require.Equal(t, "A", record.Rows[0].Grade)

	low := 30.0
	status = call(t, app, http.MethodPut, "/api/v2/scores/"+strconv.Itoa(int(bola.ID))+"/rows", teacher, dto.ScoreRowRequest{Subject: "Mathematics", Exam: &low}, nil)
	require.Equal(t, http.StatusOK, status)

	over := 75.0
	status = call(t, app, http.MethodPut, "/api/v2/scores/"+strconv.Itoa(int(bola.ID))+"/rows", teacher, dto.ScoreRowRequest{Subject: "Mathematics", Exam: &over}, nil)
	require.Equal(t, http.StatusBadRequest, status)

	status = call(t, app, http.MethodPut, "/api/v2/scores/"+strconv.Itoa(int(bola.ID))+"/rows", teacher, dto.ScoreRowRequest{Subject: "Basic Science", Exam: &low}, nil)
	require.Equal(t, http.StatusBadRequest, status)

	var card dto.ReportCardResponse
	status = call(t, app, http.MethodGet, "/api/v2/reports/students/"+strconv.Itoa(int(bola.ID)), teacher, nil, &card)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Hill Crest Academy", card.SchoolName)
	require.Equal(t, 30.0, card.TotalScore)
	require.NotNil(t, card.Position)
	require.Equal(t, 2, *card.Position)
	require.Equal(t, 2, card.ClassSize)
	require.Equal(t, "F", card.Subjects[0].Grade)

	var ranking dto.ClassRankingResponse
	status = call(t, app, http.MethodGet, "/api/v2/reports/classes/"+strconv.Itoa(int(class.ID))+"/ranking", admin, nil, &ranking)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, ranking.Standings, 2)
	require.Equal(t, ada.ID, ranking.Standings[0].StudentID)
	require.Equal(t, 1, ranking.Standings[0].Position)

	var fee dto.FeeHeadResponse
	status = call(t, app, http.MethodPost, "/api/v2/bursary/fees", bursar, dto.FeeHeadCreateRequest{Name: "Tuition", Amount: 8000, ClassID: &class.ID}, &fee)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "First Term", fee.Term)

	var payment dto.PaymentResponse
	status = call(t, app, http.MethodPost, "/api/v2/bursary/payments", bursar, dto.PaymentCreateRequest{
		StudentID: ada.ID,
		Amount:    4000,
		Method:    "transfer",
		Date:      "2025-09-15",
	}, &payment)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, payment.Reference)
	require.Equal(t, uint(3), payment.RecordedBy)

	var balance dto.StudentBalanceResponse
	status = call(t, app, http.MethodGet, "/api/v2/bursary/students/"+strconv.Itoa(int(ada.ID))+"/balance", bursar, nil, &balance)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 8000.0, balance.TotalBill)
	require.Equal(t, 4000.0, balance.TotalPaid)
	require.Equal(t, 4000.0, balance.Balance)

	require.NotEmpty(t, publisher.Events())

	var activity []dto.ActivityResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/v2/activity?page_size=50", admin, nil, &activity))
	require.NotEmpty(t, activity)
}

func TestSchoolAccessControl(t *testing.T) {
	app, _ := setupSchoolApp(t)

	require.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/v2/classes", "", nil, nil))
	require.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/v2/classes", "not-a-token", nil, nil))
	require.Equal(t, http.StatusForbidden, call(t, app, http.MethodGet, "/api/v2/bursary/fees", token(t, 2, "teacher"), nil, nil))
	require.Equal(t, http.StatusForbidden, call(t, app, http.MethodPut, "/api/v2/scores/1/rows", token(t, 3, "bursar"), dto.ScoreRowRequest{Subject: "Mathematics"}, nil))
	require.Equal(t, http.StatusForbidden, call(t, app, http.MethodGet, "/api/v2/activity", token(t, 2, "teacher"), nil, nil))
	require.Equal(t, http.StatusForbidden, call(t, app, http.MethodGet, "/api/v2/classes", token(t, 9, "parent"), nil, nil))

	var settings dto.SettingsResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/v2/settings", token(t, 2, "teacher"), nil, &settings))
	require.Equal(t, "2025/2026", settings.CurrentSession)
}
