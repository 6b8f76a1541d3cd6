package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/joescharf/revstat/internal/models"
)

var commitRefPattern = regexp.MustCompile(`(?i)\b(?:addressed|fixed|resolved|updated) in commit ([0-9a-f]{6,40})\b`)

// Classifier applies a Lexicon to comments.
type Classifier struct {
	lex Lexicon
}

// New returns a Classifier over the given lexicon.
func New(lex Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

var defaultClassifier = New(DefaultLexicon())

// Category classifies a comment with the default lexicon.
func Category(c models.Comment) models.Category { return defaultClassifier.Category(c) }

// Sentiment classifies a comment with the default lexicon.
func Sentiment(c models.Comment) models.Sentiment { return defaultClassifier.Sentiment(c) }

// ReactionKind normalizes a raw reaction with the default lexicon.
func ReactionKind(raw string) models.ReactionKind { return defaultClassifier.ReactionKind(raw) }

// IsResolved decides resolution with the default lexicon.
func IsResolved(c models.Comment) bool { return defaultClassifier.IsResolved(c) }

// Annotate runs the default classifier over a batch.
func Annotate(comments []models.Comment) []models.Comment { return defaultClassifier.Annotate(comments) }

// Category returns the first category whose keywords match, checking
// suggestion, issue, question and praise in that order. A body ending in
// "?" counts as a question. Question keywords must match whole words so
// "show" or "whatever" do not read as questions.
func (c *Classifier) Category(comment models.Comment) models.Category {
	body := strings.ToLower(strings.TrimSpace(comment.Body))
	if body == "" {
		return models.CategoryUnknown
	}

	switch {
	case containsAny(body, c.lex.Suggestion):
		return models.CategorySuggestion
	case containsAny(body, c.lex.Issue):
		return models.CategoryIssue
	case containsAnyWord(body, c.lex.Question) || strings.HasSuffix(body, "?"):
		return models.CategoryQuestion
	case containsAny(body, c.lex.Praise):
		return models.CategoryPraise
	}
	return models.CategoryUnknown
}

// Sentiment is positive when only positive terms occur and negative when
// only negative terms occur. A body with both, or neither, is neutral.
func (c *Classifier) Sentiment(comment models.Comment) models.Sentiment {
	body := strings.ToLower(comment.Body)
	pos := containsAny(body, c.lex.Positive)
	neg := containsAny(body, c.lex.Negative)

	switch {
	case pos && !neg:
		return models.SentimentPositive
	case neg && !pos:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// ReactionKind maps a raw reaction string onto the closed enumeration.
// Unrecognized input yields ReactionUnknown.
func (c *Classifier) ReactionKind(raw string) models.ReactionKind {
	folded := strings.ToLower(strings.TrimSpace(raw))
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || r == '_' {
			return r
		}
		return -1
	}, folded)

	for _, k := range models.ReactionKinds {
		if cleaned == string(k) {
			return k
		}
	}
	if k, ok := c.lex.ReactionAliases[folded]; ok {
		return k
	}
	if k, ok := c.lex.ReactionAliases[cleaned]; ok {
		return k
	}
	return models.ReactionUnknown
}

// IsResolved reports whether a comment carries an explicit marker, enough
// positive reactions, or was edited to announce a fix. Reactions are
// normalized before counting.
func (c *Classifier) IsResolved(comment models.Comment) bool {
	body := strings.ToLower(comment.Body)
	if containsAny(body, c.lex.ResolvedMarkers) {
		return true
	}

	positive := 0
	for _, r := range comment.Reactions {
		if c.ReactionKind(string(r.Kind)).IsPositive() {
			positive++
		}
	}
	if positive >= PositiveReactionThreshold {
		return true
	}

	return comment.UpdatedAt.After(comment.CreatedAt) && containsAny(body, c.lex.ResolutionKeywords)
}

// SyntheticResolutionReaction turns a "fixed in commit <sha>" note into an
// implicit thumbs-up from the comment's author.
func SyntheticResolutionReaction(comment models.Comment) (models.Reaction, bool) {
	if _, ok := CommitHash(comment); !ok {
		return models.Reaction{}, false
	}
	at := comment.UpdatedAt
	if at.IsZero() {
		at = comment.CreatedAt
	}
	return models.Reaction{
		Kind:      models.ReactionThumbsUp,
		User:      comment.Author,
		CreatedAt: at,
		Synthetic: true,
	}, true
}

// CommitHash extracts the commit referenced by a "fixed in commit" note.
func CommitHash(comment models.Comment) (string, bool) {
	m := commitRefPattern.FindStringSubmatch(comment.Body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Annotate returns classified copies of comments: reaction kinds are
// normalized, a synthetic resolution reaction is appended when the body
// references a fixing commit, and the derived fields are filled in.
func (c *Classifier) Annotate(comments []models.Comment) []models.Comment {
	out := make([]models.Comment, len(comments))
	for i, in := range comments {
		cm := in.Clone()
		for j := range cm.Reactions {
			cm.Reactions[j].Kind = c.ReactionKind(string(cm.Reactions[j].Kind))
		}
		if r, ok := SyntheticResolutionReaction(cm); ok {
			cm.Reactions = append(cm.Reactions, r)
		}
		cm.CommitHash, _ = CommitHash(cm)
		cm.IsResolved = c.IsResolved(cm)
		cm.Category = c.Category(cm)
		cm.Sentiment = c.Sentiment(cm)
		out[i] = cm
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// containsAnyWord is containsAny with the match bounded by non-letters on
// both sides.
func containsAnyWord(s string, keywords []string) bool {
	for _, kw := range keywords {
		if containsWord(s, kw) {
			return true
		}
	}
	return false
}

func containsWord(s, word string) bool {
	if word == "" {
		return false
	}
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		if !letterBefore(s, start) && !letterAt(s, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func letterBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r := []rune(s[:i])
	return unicode.IsLetter(r[len(r)-1])
}

func letterAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	for _, r := range s[i:] {
		return unicode.IsLetter(r)
	}
	return false
}
