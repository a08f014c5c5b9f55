package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholar-ledger-api/internal/dto"
	"github.com/noah-isme/scholar-ledger-api/internal/handler"
	"github.com/noah-isme/scholar-ledger-api/internal/service"
)

type stubScoreService struct {
	studentID uint
	scope     dto.ScopeQuery
	actor     service.ActivityActor
	row       dto.ScoreRowRequest
	traits    dto.TraitsRequest
	record    dto.ScoreRecordResponse
	err       error
}

func (s *stubScoreService) capture(studentID uint, scope dto.ScopeQuery, actor service.ActivityActor) (dto.ScoreRecordResponse, error) {
	s.studentID = studentID
	s.scope = scope
	s.actor = actor
	return s.record, s.err
}

func (s *stubScoreService) UpdateRow(_ context.Context, studentID uint, scope dto.ScopeQuery, payload dto.ScoreRowRequest, actor service.ActivityActor) (dto.ScoreRecordResponse, error) {
	s.row = payload
	return s.capture(studentID, scope, actor)
}

func (s *stubScoreService) UpdateTraits(_ context.Context, studentID uint, scope dto.ScopeQuery, payload dto.TraitsRequest, actor service.ActivityActor) (dto.ScoreRecordResponse, error) {
	s.traits = payload
	return s.capture(studentID, scope, actor)
}

func (s *stubScoreService) UpdateAttendance(_ context.Context, studentID uint, scope dto.ScopeQuery, _ dto.AttendanceRequest, actor service.ActivityActor) (dto.ScoreRecordResponse, error) {
	return s.capture(studentID, scope, actor)
}

func (s *stubScoreService) UpdateRemarks(_ context.Context, studentID uint, scope dto.ScopeQuery, _ dto.RemarksRequest, actor service.ActivityActor) (dto.ScoreRecordResponse, error) {
	return s.capture(studentID, scope, actor)
}

func (s *stubScoreService) GetRecord(_ context.Context, studentID uint, scope dto.ScopeQuery) (dto.ScoreRecordResponse, error) {
	return s.capture(studentID, scope, service.ActivityActor{})
}

func TestScoreHandler_UpdateRow(t *testing.T) {
	svc := &stubScoreService{record: dto.ScoreRecordResponse{
		StudentID:  7,
		Exists:     true,
		Rows:       []dto.ScoreRowResponse{{Subject: "Mathematics", CA1: 15, CA2: 18, Exam: 50, Total: 83, Grade: "A", Comment: "Excellent"}},
		TotalScore: 83,
		Average:    83,
	}}
	app := newApp(3, "teacher")
	handler.NewScoreHandler(svc, nopLogger).Register(app.Group("/scores"))

	exam := 50.0
	resp, body := doRequest(t, app, http.MethodPut, "/scores/7/rows?session=2024/2025&term=Second%20Term", dto.ScoreRowRequest{Subject: "Mathematics", Exam: &exam})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, body.Success)

	require.Equal(t, uint(7), svc.studentID)
	require.Equal(t, dto.ScopeQuery{Session: "2024/2025", Term: "Second Term"}, svc.scope)
	require.Equal(t, service.ActivityActor{ID: 3, Role: "teacher"}, svc.actor)
	require.Equal(t, "Mathematics", svc.row.Subject)
	require.Nil(t, svc.row.CA1)
	require.NotNil(t, svc.row.Exam)
	require.Equal(t, 50.0, *svc.row.Exam)

	var record dto.ScoreRecordResponse
	decodeData(t, body, &record)
	require.Equal(t, "A", record.Rows[0].Grade)
	require.Equal(t, 83.0, record.TotalScore)
}

func TestScoreHandler_RejectsBadInput(t *testing.T) {
	svc := &stubScoreService{}
	app := newApp(3, "teacher")
	handler.NewScoreHandler(svc, nopLogger).Register(app.Group("/scores"))

	resp, _ := doRequest(t, app, http.MethodPut, "/scores/abc/rows", dto.ScoreRowRequest{Subject: "Mathematics"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPut, "/scores/0/traits", dto.TraitsRequest{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Zero(t, svc.studentID)
}

func TestScoreHandler_MapsServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"over max", service.ErrScoreExceedsMax, http.StatusBadRequest},
		{"not offered", service.ErrSubjectNotOffered, http.StatusBadRequest},
		{"unknown trait", service.ErrUnknownTrait, http.StatusBadRequest},
		{"missing student", service.ErrStudentNotFound, http.StatusNotFound},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubScoreService{err: tc.err}
			app := newApp(1, "admin")
			handler.NewScoreHandler(svc, nopLogger).Register(app.Group("/scores"))

			resp, body := doRequest(t, app, http.MethodPut, "/scores/5/traits", dto.TraitsRequest{Affective: map[string]int{"Punctuality": 4}})
			require.Equal(t, tc.status, resp.StatusCode)
			require.False(t, body.Success)
			require.Equal(t, 4, svc.traits.Affective["Punctuality"])
		})
	}
}

func TestScoreHandler_GetRecord(t *testing.T) {
	svc := &stubScoreService{record: dto.ScoreRecordResponse{StudentID: 9, Session: "2025/2026", Term: "First Term"}}
	app := newApp(1, "admin")
	handler.NewScoreHandler(svc, nopLogger).Register(app.Group("/scores"))

	resp, body := doRequest(t, app, http.MethodGet, "/scores/9", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, dto.ScopeQuery{}, svc.scope)

	var record dto.ScoreRecordResponse
	decodeData(t, body, &record)
	require.False(t, record.Exists)
	require.Equal(t, "First Term", record.Term)
}
