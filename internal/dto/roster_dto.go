package dto

import (
	"time"

	"github.com/noah-isme/scholar-ledger-api/internal/models"
)

// ClassCreateRequest captures a new class. Stage is derived from the name when omitted.
type ClassCreateRequest struct {
	Name     string   `json:"name" validate:"required,min=1,max=128"`
	Stage    string   `json:"stage" validate:"omitempty,oneof=preschool primary"`
	Subjects []string `json:"subjects" validate:"omitempty,dive,required,max=128"`
}

// ClassResponse serializes a class with its resolved subject list.
type ClassResponse struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Stage            string    `json:"stage"`
	Subjects         []string  `json:"subjects"`
	ExplicitSubjects bool      `json:"explicit_subjects"`
	CreatedAt        time.Time `json:"created_at"`
}

// ClassSubjectsResponse lists the subjects a class offers.
type ClassSubjectsResponse struct {
	ClassID  uint     `json:"class_id"`
	Stage    string   `json:"stage"`
	Preset   bool     `json:"preset"`
	Subjects []string `json:"subjects"`
}

// StudentCreateRequest captures a new roster entry.
type StudentCreateRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=255"`
	AdmissionNo   string `json:"admission_no" validate:"omitempty,max=64"`
	ClassID       uint   `json:"class_id" validate:"required"`
	Gender        string `json:"gender" validate:"omitempty,oneof=male female"`
	DateOfBirth   string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	GuardianName  string `json:"guardian_name" validate:"omitempty,max=255"`
	GuardianPhone string `json:"guardian_phone" validate:"omitempty,max=32"`
}

// StudentClassUpdateRequest moves a student to another class.
type StudentClassUpdateRequest struct {
	ClassID uint `json:"class_id" validate:"required"`
}

// StudentListRequest defines roster filters.
type StudentListRequest struct {
	ClassID *uint
	Search  string
}

// StudentResponse serializes a roster entry.
type StudentResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	AdmissionNo   string    `json:"admission_no"`
	ClassID       uint      `json:"class_id"`
	Gender        string    `json:"gender,omitempty"`
	DateOfBirth   string    `json:"date_of_birth,omitempty"`
	GuardianName  string    `json:"guardian_name,omitempty"`
	GuardianPhone string    `json:"guardian_phone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewClassResponse converts a class into a DTO using the given resolved subjects.
func NewClassResponse(class models.Class, subjects []string) ClassResponse {
	return ClassResponse{
		ID:               class.ID,
		Name:             class.Name,
		Stage:            string(class.Stage),
		Subjects:         subjects,
		ExplicitSubjects: class.HasExplicitSubjects(),
		CreatedAt:        class.CreatedAt,
	}
}

// NewStudentResponse converts a student into a DTO.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:            student.ID,
		Name:          student.Name,
		AdmissionNo:   student.AdmissionNo,
		ClassID:       student.ClassID,
		Gender:        student.Gender,
		DateOfBirth:   student.DateOfBirth,
		GuardianName:  student.GuardianName,
		GuardianPhone: student.GuardianPhone,
		CreatedAt:     student.CreatedAt,
	}
}

// NewStudentResponses converts a roster slice.
func NewStudentResponses(students []models.Student) []StudentResponse {
	items := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		items = append(items, NewStudentResponse(student))
	}
	return items
}
