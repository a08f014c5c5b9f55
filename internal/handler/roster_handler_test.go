package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholar-ledger-api/internal/dto"
	"github.com/noah-isme/scholar-ledger-api/internal/handler"
	"github.com/noah-isme/scholar-ledger-api/internal/service"
)

type stubRosterService struct {
	listRequest dto.StudentListRequest
	created     dto.ClassCreateRequest
	moved       uint
	err         error
}

func (s *stubRosterService) CreateClass(_ context.Context, payload dto.ClassCreateRequest, _ service.ActivityActor) (dto.ClassResponse, error) {
	s.created = payload
	return dto.ClassResponse{ID: 1, Name: payload.Name, Stage: "primary"}, s.err
}

func (s *stubRosterService) ListClasses(context.Context) ([]dto.ClassResponse, error) {
	return []dto.ClassResponse{{ID: 1, Name: "Primary 1"}}, s.err
}

func (s *stubRosterService) GetClass(_ context.Context, id uint) (dto.ClassResponse, error) {
	return dto.ClassResponse{ID: id}, s.err
}

func (s *stubRosterService) ClassSubjects(_ context.Context, id uint) (dto.ClassSubjectsResponse, error) {
	return dto.ClassSubjectsResponse{ClassID: id, Stage: "preschool", Preset: true, Subjects: []string{"Number Work"}}, s.err
}

func (s *stubRosterService) CreateStudent(_ context.Context, payload dto.StudentCreateRequest, _ service.ActivityActor) (dto.StudentResponse, error) {
	return dto.StudentResponse{ID: 1, Name: payload.Name, ClassID: payload.ClassID}, s.err
}

func (s *stubRosterService) ListStudents(_ context.Context, req dto.StudentListRequest) ([]dto.StudentResponse, error) {
	s.listRequest = req
	return []dto.StudentResponse{}, s.err
}

func (s *stubRosterService) GetStudent(_ context.Context, id uint) (dto.StudentResponse, error) {
	return dto.StudentResponse{ID: id}, s.err
}

func (s *stubRosterService) ChangeClass(_ context.Context, id uint, payload dto.StudentClassUpdateRequest, _ service.ActivityActor) (dto.StudentResponse, error) {
	s.moved = id
	return dto.StudentResponse{ID: id, ClassID: payload.ClassID}, s.err
}

func TestClassHandler_CreateRequiresAdmin(t *testing.T) {
	svc := &stubRosterService{}

	teacherApp := newApp(5, "teacher")
	handler.NewClassHandler(svc, nopLogger).Register(teacherApp.Group("/classes"))
	resp, _ := doRequest(t, teacherApp, http.MethodPost, "/classes", dto.ClassCreateRequest{Name: "Primary 1"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Empty(t, svc.created.Name)

	adminApp := newApp(1, "admin")
	handler.NewClassHandler(svc, nopLogger).Register(adminApp.Group("/classes"))
	resp, body := doRequest(t, adminApp, http.MethodPost, "/classes", dto.ClassCreateRequest{Name: "Primary 1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "class created", body.Message)
	require.Equal(t, "Primary 1", svc.created.Name)
}

func TestClassHandler_Subjects(t *testing.T) {
	svc := &stubRosterService{}
	app := newApp(5, "teacher")
	handler.NewClassHandler(svc, nopLogger).Register(app.Group("/classes"))

	resp, body := doRequest(t, app, http.MethodGet, "/classes/3/subjects", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var subjects dto.ClassSubjectsResponse
	decodeData(t, body, &subjects)
	require.Equal(t, uint(3), subjects.ClassID)
	require.True(t, subjects.Preset)

	svc.err = service.ErrClassNotFound
	resp, _ = doRequest(t, app, http.MethodGet, "/classes/4/subjects", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStudentHandler_ListFilters(t *testing.T) {
	svc := &stubRosterService{}
	app := newApp(5, "teacher")
	handler.NewStudentHandler(svc, nopLogger).Register(app.Group("/students"))

	resp, _ := doRequest(t, app, http.MethodGet, "/students?class_id=2&search=%20ada%20", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, svc.listRequest.ClassID)
	require.Equal(t, uint(2), *svc.listRequest.ClassID)
	require.Equal(t, "ada", svc.listRequest.Search)

	resp, _ = doRequest(t, app, http.MethodGet, "/students?class_id=-1", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStudentHandler_ChangeClass(t *testing.T) {
	svc := &stubRosterService{}
	app := newApp(1, "admin")
	handler.NewStudentHandler(svc, nopLogger).Register(app.Group("/students"))

	resp, body := doRequest(t, app, http.MethodPatch, "/students/8/class", dto.StudentClassUpdateRequest{ClassID: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, uint(8), svc.moved)

	var student dto.StudentResponse
	decodeData(t, body, &student)
	require.Equal(t, uint(2), student.ClassID)
}
