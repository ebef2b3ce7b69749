// Package nlu covers every language-model call the assistant makes:
// intent classification, criteria extraction, feedback parsing, date
// resolution and reply phrasing.
package nlu

import (
	"context"
	"time"

	"planmate/models"
)

// Classifier decides what kind of message arrived.
type Classifier interface {
	Classify(ctx context.Context, message string, hasPlan bool) (models.ClassifiedIntent, error)
}

// Extractor pulls structured search criteria out of a plan request.
type Extractor interface {
	ExtractCriteria(ctx context.Context, message string) (*models.SearchCriteria, error)
}

// FeedbackParser turns a feedback utterance about the presented plan into
// semantic intents, one per requested change.
type FeedbackParser interface {
	ParseFeedback(ctx context.Context, message string, plan *models.Itinerary) ([]models.SemanticIntent, error)
}

// DateParser resolves a free-form date description ("завтра", "в субботу")
// into a calendar date relative to now.
type DateParser interface {
	ResolveDate(ctx context.Context, description string, now time.Time) (time.Time, error)
}

// Phraser writes the user-facing replies.
type Phraser interface {
	PhrasePlan(ctx context.Context, plan *models.Itinerary, criteria *models.SearchCriteria) (string, error)
	PhraseFailure(ctx context.Context, reason string) (string, error)
	Chat(ctx context.Context, message string) (string, error)
}

// NLU bundles every language capability the engine needs.
type NLU interface {
	Classifier
	Extractor
	FeedbackParser
	DateParser
	Phraser
}
