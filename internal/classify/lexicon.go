// Package classify labels individual reviewer comments: content category,
// sentiment, reaction normalization and resolution status. Every function is
// a pure function of its input and never fails; a miss yields the neutral
// value (unknown category, zero sentiment, unresolved).
package classify

import "github.com/joescharf/revstat/internal/models"

// Lexicon holds the keyword tables that drive classification. Matching is
// literal substring search over the lower-cased comment body, except that
// Question keywords must match whole words.
type Lexicon struct {
	// Category keywords, checked in priority order: suggestion, issue,
	// question, praise.
	Suggestion []string
	Issue      []string
	Question   []string
	Praise     []string

	Positive []string
	Negative []string

	// ResolvedMarkers are explicit resolution markers; any one resolves.
	ResolvedMarkers []string
	// ResolutionKeywords resolve a comment only when it was edited after
	// creation.
	ResolutionKeywords []string

	// ReactionAliases maps raw reaction spellings to the enumeration.
	ReactionAliases map[string]models.ReactionKind
}

// DefaultLexicon returns a fresh copy of the built-in tables.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Suggestion: []string{
			"suggest", "recommend", "consider", "you could", "you might want",
			"it would be better", "prefer", "instead of",
		},
		Issue: []string{
			"bug", "error", "broken", "issue", "problem", "incorrect",
			"crash", "fail", "vulnerab", "leak",
		},
		Question: []string{
			"why", "what", "how", "could you explain", "is there a reason",
		},
		Praise: []string{
			"great", "nice", "looks good", "lgtm", "well done", "excellent", "good job",
		},
		Positive: []string{
			"great", "excellent", "good job", "well done", "nice", "awesome",
			"perfect", "thanks", "thank you", "love",
		},
		Negative: []string{
			"broken", "wrong", "bad", "terrible", "incorrect", "confusing",
			"poor", "fail",
		},
		ResolvedMarkers: []string{
			"[resolved]", "[fixed]", "[done]", "[completed]",
			"\u2705", "\u2714", "\u2611",
		},
		ResolutionKeywords: []string{
			"resolved", "fixed", "done", "addressed", "implemented", "updated",
		},
		ReactionAliases: map[string]models.ReactionKind{
			"+1":         models.ReactionThumbsUp,
			"plusone":    models.ReactionThumbsUp,
			"thumbsup":   models.ReactionThumbsUp,
			"-1":         models.ReactionThumbsDown,
			"minusone":   models.ReactionThumbsDown,
			"thumbsdown": models.ReactionThumbsDown,
			"tada":       models.ReactionHooray,
			"party":      models.ReactionHooray,
			"celebrate":  models.ReactionHooray,
		},
	}
}

// PositiveReactionThreshold is the number of positive reactions that marks a
// comment resolved.
const PositiveReactionThreshold = 2
