package engine

import (
	"strings"

	"github.com/noah-isme/scholar-ledger-api/internal/models"
)

var preschoolSubjects = []string{
	"Number Work",
	"Letter Work",
	"Phonics",
	"Rhymes",
	"Basic Science",
	"Health Habits",
	"Social Habits",
	"Creative Arts",
}

var primarySubjects = []string{
	"English Language",
	"Mathematics",
	"Basic Science",
	"Social Studies",
	"Civic Education",
	"Computer Studies",
	"Agricultural Science",
	"Christian Religious Studies",
	"Cultural and Creative Arts",
	"Physical and Health Education",
	"Verbal Reasoning",
	"Quantitative Reasoning",
}

var preschoolMarkers = []string{"play", "reception", "nursery", "kinder"}

// StageFromName guesses a class stage from its name. It exists to classify
// classes created without an explicit stage and is not consulted afterwards.
func StageFromName(name string) models.ClassStage {
	lower := strings.ToLower(name)
	for _, marker := range preschoolMarkers {
		if strings.Contains(lower, marker) {
			return models.ClassStagePreschool
		}
	}
	return models.ClassStagePrimary
}

// PresetSubjects returns a copy of the default subject list for a stage.
func PresetSubjects(stage models.ClassStage) []string {
	source := primarySubjects
	if stage == models.ClassStagePreschool {
		source = preschoolSubjects
	}
	return append([]string(nil), source...)
}

// ResolveSubjects returns the class's explicit subject list, or the preset for
// its stage when none is set.
func ResolveSubjects(class models.Class) []string {
	if class.HasExplicitSubjects() {
		return append([]string(nil), class.Subjects...)
	}
	return PresetSubjects(class.Stage)
}

// OffersSubject reports whether subject is on the class's resolved list.
func OffersSubject(class models.Class, subject string) bool {
	for _, candidate := range ResolveSubjects(class) {
		if candidate == subject {
			return true
		}
	}
	return false
}
