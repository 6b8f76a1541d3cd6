package models

import "time"

// CommentKind tells where on the pull request a comment was posted.
type CommentKind string

const (
	CommentKindReview CommentKind = "review_comment"
	CommentKindIssue  CommentKind = "issue_comment"
)

// Category is the content category of a reviewer comment.
type Category string

const (
	CategorySuggestion Category = "suggestion"
	CategoryIssue      Category = "issue"
	CategoryQuestion   Category = "question"
	CategoryPraise     Category = "praise"
	CategoryUnknown    Category = "unknown"
)

// Categories lists every category in classification priority order.
var Categories = []Category{
	CategorySuggestion,
	CategoryIssue,
	CategoryQuestion,
	CategoryPraise,
	CategoryUnknown,
}

// Sentiment is the polarity of a comment: -1, 0 or +1.
type Sentiment int

const (
	SentimentNegative Sentiment = -1
	SentimentNeutral  Sentiment = 0
	SentimentPositive Sentiment = 1
)

func (s Sentiment) String() string {
	switch {
	case s > 0:
		return "positive"
	case s < 0:
		return "negative"
	default:
		return "neutral"
	}
}

// Comment is a pull request comment. IsResolved, Replies, Category,
// Sentiment and CommitHash are derived by the analysis pipeline; every stage
// returns new Comment values and leaves its input untouched.
type Comment struct {
	ID          int64       `json:"id"`
	PullRequest int         `json:"pullRequest,omitempty"`
	Kind        CommentKind `json:"kind,omitempty"`
	Body        string      `json:"body"`
	Author      User        `json:"author"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	InReplyToID *int64      `json:"inReplyToId,omitempty"`
	IsResolved  bool        `json:"isResolved"`
	Reactions   []Reaction  `json:"reactions"`
	Replies     []Comment   `json:"replies,omitempty"`

	Category   Category  `json:"category,omitempty"`
	Sentiment  Sentiment `json:"sentiment,omitempty"`
	CommitHash string    `json:"commitHash,omitempty"`
}

// Clone returns a copy of c that shares no slices with it.
func (c Comment) Clone() Comment {
	out := c
	if c.InReplyToID != nil {
		id := *c.InReplyToID
		out.InReplyToID = &id
	}
	out.Reactions = append([]Reaction(nil), c.Reactions...)
	if c.Replies != nil {
		out.Replies = make([]Comment, len(c.Replies))
		for i, r := range c.Replies {
			out.Replies[i] = r.Clone()
		}
	}
	return out
}
