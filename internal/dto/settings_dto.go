package dto

import (
	"time"

	"github.com/noah-isme/scholar-ledger-api/internal/models"
)

// SettingsUpdateRequest replaces the school-wide settings.
type SettingsUpdateRequest struct {
	SchoolName     string `json:"school_name" validate:"omitempty,max=255"`
	CurrentSession string `json:"current_session" validate:"required,max=32"`
	CurrentTerm    string `json:"current_term" validate:"required,max=32"`
}

// SettingsResponse serializes the settings row.
type SettingsResponse struct {
	SchoolName     string    `json:"school_name"`
	CurrentSession string    `json:"current_session"`
	CurrentTerm    string    `json:"current_term"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ScopeQuery carries the optional ?session=&term= override accepted by scoped endpoints.
type ScopeQuery struct {
	Session string
	Term    string
}

// NewSettingsResponse converts the settings model into a DTO.
func NewSettingsResponse(settings models.Settings) SettingsResponse {
	return SettingsResponse{
		SchoolName:     settings.SchoolName,
		CurrentSession: settings.CurrentSession,
		CurrentTerm:    settings.CurrentTerm,
		UpdatedAt:      settings.UpdatedAt,
	}
}
