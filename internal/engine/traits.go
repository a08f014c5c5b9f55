package engine

import "sort"

// Rating bounds for affective and psychomotor traits.
const (
	MinTraitRating = 1
	MaxTraitRating = 5
)

// AffectiveTraits lists the behavioural traits rated on every report card.
var AffectiveTraits = []string{
	"Punctuality",
	"Neatness",
	"Politeness",
	"Honesty",
	"Relationship with Others",
	"Self Control",
	"Attentiveness",
	"Perseverance",
}

// PsychomotorTraits lists the skill traits rated on every report card.
var PsychomotorTraits = []string{
	"Handwriting",
	"Games and Sports",
	"Drawing and Painting",
	"Crafts",
	"Musical Skills",
	"Verbal Fluency",
}

// UnknownTraits returns the sorted keys of ratings that are not in allowed.
func UnknownTraits(ratings map[string]int, allowed []string) []string {
	known := make(map[string]struct{}, len(allowed))
	for _, trait := range allowed {
		known[trait] = struct{}{}
	}

	unknown := make([]string, 0)
	for trait := range ratings {
		if _, ok := known[trait]; !ok {
			unknown = append(unknown, trait)
		}
	}
	sort.Strings(unknown)
	return unknown
}
