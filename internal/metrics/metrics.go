// Package metrics folds classified, linked reviewer comments into summary
// and detailed effectiveness statistics.
package metrics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/joescharf/revstat/internal/linker"
	"github.com/joescharf/revstat/internal/models"
)

// Summary is the headline view of reviewer effectiveness. Percentages are in
// [0,100] and already rounded to one decimal place.
type Summary struct {
	TotalPRs             int     `json:"totalPRs"`
	TotalComments        int     `json:"totalComments"`
	AverageCommentsPerPR float64 `json:"averageCommentsPerPR"`
	ResolvedComments     int     `json:"resolvedComments"`
	ResolvedPercentage   float64 `json:"resolvedPercentage"`
	RepliedComments      int     `json:"repliedComments"`
	ReplyPercentage      float64 `json:"replyPercentage"`
	PositiveReactions    int     `json:"positiveReactions"`
	NegativeReactions    int     `json:"negativeReactions"`
	PositivePercentage   float64 `json:"positivePercentage"`
	NegativePercentage   float64 `json:"negativePercentage"`
	EffectivenessScore   float64 `json:"effectivenessScore"`
	EffectivenessTier    Tier    `json:"effectivenessTier"`
}

// Engagement breaks down how humans responded to the reviewer.
type Engagement struct {
	TotalReplies       int `json:"totalReplies"`
	ExplicitlyLinked   int `json:"explicitlyLinked"`
	HeuristicLinked    int `json:"heuristicLinked"`
	UniqueRepliers     int `json:"uniqueRepliers"`
	SyntheticReactions int `json:"syntheticReactions"`
}

// FollowUp is a comment that got neither a reply nor a resolution.
type FollowUp struct {
	ID          int64           `json:"id"`
	PullRequest int             `json:"pullRequest"`
	CreatedAt   time.Time       `json:"createdAt"`
	Category    models.Category `json:"category"`
	Excerpt     string          `json:"excerpt"`
}

// Detailed carries the per-dimension breakdowns behind a Summary.
type Detailed struct {
	Categories    map[models.Category]int     `json:"categories"`
	Sentiments    map[string]int              `json:"sentiments"`
	Reactions     map[models.ReactionKind]int `json:"reactions"`
	Engagement    Engagement                  `json:"engagement"`
	NeedsFollowUp []FollowUp                  `json:"needsFollowUp"`
}

const excerptLength = 80

// Aggregate computes fresh Summary and Detailed values from a pull request
// set and the linked reviewer comments.
func Aggregate(prs []models.PullRequest, linked []linker.Linked) (Summary, Detailed) {
	s := Summary{
		TotalPRs:      len(prs),
		TotalComments: len(linked),
	}
	d := Detailed{
		Categories:    make(map[models.Category]int, len(models.Categories)),
		Sentiments:    map[string]int{"positive": 0, "neutral": 0, "negative": 0},
		Reactions:     make(map[models.ReactionKind]int, len(models.ReactionKinds)),
		NeedsFollowUp: []FollowUp{},
	}
	for _, c := range models.Categories {
		d.Categories[c] = 0
	}
	for _, k := range models.ReactionKinds {
		d.Reactions[k] = 0
	}

	repliers := make(map[string]struct{})
	for _, l := range linked {
		c := l.Comment

		if c.IsResolved {
			s.ResolvedComments++
		}
		if len(c.Replies) > 0 {
			s.RepliedComments++
		}
		switch l.Method {
		case linker.MethodExplicit:
			d.Engagement.ExplicitlyLinked++
		case linker.MethodHeuristic:
			d.Engagement.HeuristicLinked++
		}
		d.Engagement.TotalReplies += len(c.Replies)
		for _, r := range c.Replies {
			repliers[strings.ToLower(r.Author.Login)] = struct{}{}
		}

		for _, r := range c.Reactions {
			d.Reactions[r.Kind]++
			switch {
			case r.Kind.IsPositive():
				s.PositiveReactions++
			case r.Kind.IsNegative():
				s.NegativeReactions++
			}
			if r.Synthetic {
				d.Engagement.SyntheticReactions++
			}
		}

		category := c.Category
		if category == "" {
			category = models.CategoryUnknown
		}
		d.Categories[category]++
		d.Sentiments[c.Sentiment.String()]++

		if !c.IsResolved && len(c.Replies) == 0 {
			d.NeedsFollowUp = append(d.NeedsFollowUp, FollowUp{
				ID:          c.ID,
				PullRequest: c.PullRequest,
				CreatedAt:   c.CreatedAt,
				Category:    category,
				Excerpt:     excerpt(c.Body, excerptLength),
			})
		}
	}
	d.Engagement.UniqueRepliers = len(repliers)
	sort.SliceStable(d.NeedsFollowUp, func(i, j int) bool {
		return d.NeedsFollowUp[i].CreatedAt.Before(d.NeedsFollowUp[j].CreatedAt)
	})

	resolved := percent(s.ResolvedComments, s.TotalComments)
	replied := percent(s.RepliedComments, s.TotalComments)
	reacted := s.PositiveReactions + s.NegativeReactions
	positive := percent(s.PositiveReactions, reacted)

	s.AverageCommentsPerPR = round1(ratio(s.TotalComments, s.TotalPRs))
	s.ResolvedPercentage = round1(resolved)
	s.ReplyPercentage = round1(replied)
	s.PositivePercentage = round1(positive)
	s.NegativePercentage = round1(percent(s.NegativeReactions, reacted))
	s.EffectivenessScore = round1(Score(resolved, replied, positive))
	s.EffectivenessTier = TierFor(s.EffectivenessScore)

	return s, d
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func percent(n, d int) float64 {
	return ratio(n, d) * 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func excerpt(body string, n int) string {
	s := strings.Join(strings.Fields(body), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
