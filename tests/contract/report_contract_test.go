package contract_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholar-ledger-api/internal/dto"
	"github.com/noah-isme/scholar-ledger-api/internal/engine"
	"github.com/noah-isme/scholar-ledger-api/internal/handler"
)

type stubReportService struct {
	card dto.ReportCardResponse
}

func (s stubReportService) ReportCard(context.Context, uint, dto.ScopeQuery) (dto.ReportCardResponse, error) {
	return s.card, nil
}

func (s stubReportService) ClassRanking(context.Context, uint, dto.ScopeQuery) (dto.ClassRankingResponse, error) {
	return dto.ClassRankingResponse{}, nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func fetchJSON(t *testing.T, app *fiber.App, target string) interface{} {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestReportCardContract(t *testing.T) {
	schema := compileSchema(t, "report_card.schema.json")

	math := engine.Grade(83)
	english := engine.Grade(38)
	position := 1
	card := dto.ReportCardResponse{
		SchoolName: "Hill Crest Academy",
		Session:    "2025/2026",
		Term:       "First Term",
		Student:    dto.StudentSummary{ID: 4, Name: "Ada Obi", AdmissionNo: "HC/001"},
		Class:      dto.ClassSummary{ID: 2, Name: "Primary 4", Stage: "primary"},
		Subjects: []dto.ScoreRowResponse{
			{Subject: "Mathematics", CA1: 15, CA2: 18, Exam: 50, Total: 83, Grade: string(math.Grade), Comment: math.Comment},
			{Subject: "English Language", CA1: 8, CA2: 10, Exam: 20, Total: 38, Grade: string(english.Grade), Comment: english.Comment},
		},
		TotalScore:  121,
		Average:     60.5,
		Position:    &position,
		ClassSize:   12,
		Affective:   map[string]int{"Punctuality": 5},
		Psychomotor: map[string]int{"Handwriting": 4},
		Attendance:  dto.AttendanceView{Present: 58, Total: 60},
		GradingKey:  engine.GradingKey(),
	}

	app := fiber.New()
	handler.NewReportHandler(stubReportService{card: card}, zerolog.Nop()).Register(app.Group("/api/v2/reports"))

	payload := fetchJSON(t, app, "/api/v2/reports/students/4")
	require.NoError(t, schema.Validate(payload))
}

func TestReportCardContractWithoutScores(t *testing.T) {
	schema := compileSchema(t, "report_card.schema.json")

	card := dto.ReportCardResponse{
		Session:    "2025/2026",
		Term:       "First Term",
		Student:    dto.StudentSummary{ID: 4, Name: "Ada Obi"},
		Class:      dto.ClassSummary{ID: 2, Name: "Nursery 1", Stage: "preschool"},
		Subjects:   []dto.ScoreRowResponse{},
		ClassSize:  3,
		GradingKey: engine.GradingKey(),
	}

	app := fiber.New()
	handler.NewReportHandler(stubReportService{card: card}, zerolog.Nop()).Register(app.Group("/api/v2/reports"))

	payload := fetchJSON(t, app, "/api/v2/reports/students/4")
	require.NoError(t, schema.Validate(payload))
}
