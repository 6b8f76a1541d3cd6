package linker

import (
	"sort"
	"strings"
	"time"

	"github.com/joescharf/revstat/internal/models"
)

// HeuristicWindow bounds how long after a comment a conversational reply
// may appear.
const HeuristicWindow = 7 * 24 * time.Hour

// conversationalIndicators mark a comment as a likely follow-up when no
// explicit reply link exists.
var conversationalIndicators = []string{
	"thanks",
	"thank you",
	"fixed",
	"done",
	"addressed",
	"good point",
	"agreed",
	"however",
	"will do",
	"updated",
}

// Method records how replies were found for a comment.
type Method string

const (
	MethodNone      Method = "none"
	MethodExplicit  Method = "explicit"
	MethodHeuristic Method = "heuristic"
)

// Linked is a reviewer comment with its replies attached.
type Linked struct {
	Comment models.Comment
	Method  Method
}

// Linker finds human replies to reviewer comments.
//
// Explicit in-reply-to links are authoritative. Only when a comment has none
// does the linker fall back to a conversational heuristic: a later human
// comment on the same pull request within HeuristicWindow that mentions the
// author or uses a follow-up phrase. A comment that explicitly replies to a
// different comment is never a heuristic candidate. The heuristic favors
// recall; unrelated comments that happen to say "thanks" will be linked.
type Linker struct {
	detector Detector
}

// New returns a Linker that treats reviewer as a bot account.
func New(reviewer string) *Linker {
	return &Linker{detector: NewDetector(reviewer)}
}

// IsHuman exposes the linker's bot detection.
func (l *Linker) IsHuman(u models.User) bool {
	return l.detector.IsHuman(u)
}

// Replies returns the human replies to target found among all, ordered by
// creation time, and the method that found them.
func (l *Linker) Replies(target models.Comment, all []models.Comment) ([]models.Comment, Method) {
	var explicit []models.Comment
	for _, c := range all {
		if c.InReplyToID != nil && *c.InReplyToID == target.ID && c.ID != target.ID && l.detector.IsHuman(c.Author) {
			explicit = append(explicit, c.Clone())
		}
	}
	if len(explicit) > 0 {
		sortByCreated(explicit)
		return explicit, MethodExplicit
	}

	var inferred []models.Comment
	for _, c := range all {
		if c.ID == target.ID || !l.detector.IsHuman(c.Author) {
			continue
		}
		if c.InReplyToID != nil && *c.InReplyToID != target.ID {
			continue
		}
		if target.PullRequest != 0 && c.PullRequest != 0 && target.PullRequest != c.PullRequest {
			continue
		}
		gap := c.CreatedAt.Sub(target.CreatedAt)
		if gap <= 0 || gap > HeuristicWindow {
			continue
		}
		if looksLikeReply(c.Body, target.Author.Login) {
			inferred = append(inferred, c.Clone())
		}
	}
	if len(inferred) == 0 {
		return nil, MethodNone
	}
	sortByCreated(inferred)
	return inferred, MethodHeuristic
}

// Link returns copies of targets with Replies populated.
func (l *Linker) Link(targets, all []models.Comment) []Linked {
	out := make([]Linked, len(targets))
	for i, t := range targets {
		cm := t.Clone()
		replies, method := l.Replies(t, all)
		cm.Replies = replies
		out[i] = Linked{Comment: cm, Method: method}
	}
	return out
}

func looksLikeReply(body, authorLogin string) bool {
	lower := strings.ToLower(body)
	if login := strings.ToLower(strings.TrimSpace(authorLogin)); login != "" {
		if strings.Contains(lower, "@"+login) {
			return true
		}
		// Mentions drop the "[bot]" suffix GitHub shows on app accounts.
		if trimmed := strings.TrimSuffix(login, "[bot]"); trimmed != login && strings.Contains(lower, "@"+trimmed) {
			return true
		}
	}
	for _, ind := range conversationalIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

func sortByCreated(cs []models.Comment) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].CreatedAt.Before(cs[j].CreatedAt)
	})
}
