package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/revstat/internal/linker"
	"github.com/joescharf/revstat/internal/models"
)

var (
	t0       = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	reviewer = models.User{Login: "coderabbitai[bot]", Type: models.AccountTypeBot, ID: 99}
	alice    = models.User{Login: "alice", Type: models.AccountTypeHuman, ID: 1}
	bob      = models.User{Login: "bob", Type: models.AccountTypeHuman, ID: 2}
)

func prs(n int) []models.PullRequest {
	out := make([]models.PullRequest, n)
	for i := range out {
		out[i] = models.PullRequest{Number: i + 1, State: "open", CreatedAt: t0}
	}
	return out
}

func thumbs(n int) []models.Reaction {
	out := make([]models.Reaction, n)
	for i := range out {
		out[i] = models.Reaction{Kind: "+1", User: alice, CreatedAt: t0}
	}
	return out
}

func TestAnalyze_EndToEnd(t *testing.T) {
	in := Input{
		PRs: prs(3),
		Comments: []models.Comment{
			{ID: 1, PullRequest: 1, Author: reviewer, Body: "[fixed] moved the nil check", CreatedAt: t0, UpdatedAt: t0},
			{ID: 2, PullRequest: 2, Author: reviewer, Body: "Consider caching this lookup", CreatedAt: t0, UpdatedAt: t0, Reactions: thumbs(2)},
			{ID: 3, PullRequest: 3, Author: reviewer, Body: "Rename for clarity", CreatedAt: t0, UpdatedAt: t0},
		},
		Reviewer: "coderabbitai",
	}

	res := Analyze(in)

	assert.Equal(t, 3, res.Summary.TotalPRs)
	assert.Equal(t, 3, res.Summary.TotalComments)
	assert.Equal(t, 1.0, res.Summary.AverageCommentsPerPR)
	assert.Equal(t, 2, res.Summary.ResolvedComments)
	assert.Equal(t, 66.7, res.Summary.ResolvedPercentage)
	assert.Equal(t, 0, res.Summary.RepliedComments)
	assert.Equal(t, 2, res.Summary.PositiveReactions)
	assert.Equal(t, 100.0, res.Summary.PositivePercentage)

	require.Len(t, res.Detailed.NeedsFollowUp, 1)
	assert.Equal(t, int64(3), res.Detailed.NeedsFollowUp[0].ID)
	assert.Equal(t, 2, res.Detailed.Reactions[models.ReactionThumbsUp])

	assert.Equal(t, models.ReactionKind("+1"), in.Comments[1].Reactions[0].Kind, "input untouched")
	assert.False(t, in.Comments[0].IsResolved, "input untouched")
}

func TestAnalyze_SelectsReviewerAndLinksReplies(t *testing.T) {
	parent := int64(10)
	in := Input{
		PRs: prs(1),
		Comments: []models.Comment{
			{ID: 10, PullRequest: 1, Author: reviewer, Body: "Possible race on the map", CreatedAt: t0, UpdatedAt: t0},
			{ID: 11, PullRequest: 1, Author: alice, Body: "good catch", CreatedAt: t0.Add(time.Hour), UpdatedAt: t0.Add(time.Hour), InReplyToID: &parent},
			{ID: 12, PullRequest: 1, Author: bob, Body: "Unrelated note on the PR", CreatedAt: t0.Add(time.Hour), UpdatedAt: t0.Add(time.Hour)},
			{ID: 13, PullRequest: 1, Author: models.User{Login: "dependabot[bot]", Type: models.AccountTypeBot}, Body: "bump", CreatedAt: t0, UpdatedAt: t0},
		},
		Reviewer: "coderabbitai[bot]",
	}

	res := Analyze(in)

	require.Len(t, res.Comments, 1, "only the reviewer's comments are analyzed")
	assert.Equal(t, int64(10), res.Comments[0].Comment.ID)
	assert.Equal(t, linker.MethodExplicit, res.Comments[0].Method)
	assert.Equal(t, 1, res.Summary.RepliedComments)
	assert.Equal(t, 100.0, res.Summary.ReplyPercentage)
	assert.Equal(t, 1, res.Detailed.Engagement.ExplicitlyLinked)
	assert.Equal(t, 1, res.Detailed.Engagement.UniqueRepliers)
	assert.Equal(t, models.CategoryUnknown, res.Comments[0].Comment.Category)
}

func TestAnalyze_NoReviewerUsesBots(t *testing.T) {
	in := Input{
		Comments: []models.Comment{
			{ID: 1, Author: reviewer, Body: "nice", CreatedAt: t0},
			{ID: 2, Author: alice, Body: "thanks", CreatedAt: t0.Add(time.Minute)},
		},
	}

	res := Analyze(in)
	require.Len(t, res.Comments, 1)
	assert.Equal(t, int64(1), res.Comments[0].Comment.ID)
	assert.Equal(t, linker.MethodHeuristic, res.Comments[0].Method)
}

func TestAggregate_Empty(t *testing.T) {
	s, d := Aggregate(nil, nil)

	assert.Equal(t, 0, s.TotalComments)
	assert.Equal(t, 0.0, s.ResolvedPercentage)
	assert.Equal(t, 0.0, s.ReplyPercentage)
	assert.Equal(t, 0.0, s.PositivePercentage)
	assert.Equal(t, 0.0, s.NegativePercentage)
	assert.Equal(t, 0.0, s.AverageCommentsPerPR)
	assert.Equal(t, 0.0, s.EffectivenessScore)
	assert.Equal(t, TierNeedsImprovement, s.EffectivenessTier)

	assert.Len(t, d.Categories, len(models.Categories))
	assert.Len(t, d.Reactions, len(models.ReactionKinds))
	assert.NotNil(t, d.NeedsFollowUp)
}

func TestAggregate_ZeroPRs(t *testing.T) {
	linked := []linker.Linked{{Comment: models.Comment{ID: 1, Category: models.CategoryPraise}, Method: linker.MethodNone}}

	s, _ := Aggregate(nil, linked)
	assert.Equal(t, 0.0, s.AverageCommentsPerPR)
	assert.Equal(t, 1, s.TotalComments)
}

func TestAggregate_Reactions(t *testing.T) {
	linked := []linker.Linked{
		{Comment: models.Comment{ID: 1, Reactions: []models.Reaction{
			{Kind: models.ReactionThumbsUp},
			{Kind: models.ReactionHeart},
			{Kind: models.ReactionThumbsUp, Synthetic: true},
			{Kind: models.ReactionThumbsDown},
			{Kind: models.ReactionEyes},
			{Kind: models.ReactionLaugh},
		}}},
	}

	s, d := Aggregate(prs(2), linked)
	assert.Equal(t, 3, s.PositiveReactions, "synthetic reactions count")
	assert.Equal(t, 1, s.NegativeReactions)
	assert.Equal(t, 75.0, s.PositivePercentage)
	assert.Equal(t, 25.0, s.NegativePercentage)
	assert.Equal(t, 0.5, s.AverageCommentsPerPR)
	assert.Equal(t, 1, d.Engagement.SyntheticReactions)
	assert.Equal(t, 1, d.Reactions[models.ReactionEyes])
	assert.Equal(t, 2, d.Reactions[models.ReactionThumbsUp])
}

func TestAggregate_CategoriesAndSentiments(t *testing.T) {
	linked := []linker.Linked{
		{Comment: models.Comment{ID: 1, Category: models.CategoryIssue, Sentiment: models.SentimentNegative}},
		{Comment: models.Comment{ID: 2, Category: models.CategoryIssue, Sentiment: models.SentimentNeutral}},
		{Comment: models.Comment{ID: 3, Category: models.CategoryPraise, Sentiment: models.SentimentPositive}},
		{Comment: models.Comment{ID: 4}},
	}

	_, d := Aggregate(nil, linked)
	assert.Equal(t, 2, d.Categories[models.CategoryIssue])
	assert.Equal(t, 1, d.Categories[models.CategoryPraise])
	assert.Equal(t, 1, d.Categories[models.CategoryUnknown])
	assert.Equal(t, 0, d.Categories[models.CategorySuggestion])
	assert.Equal(t, map[string]int{"positive": 1, "neutral": 2, "negative": 1}, d.Sentiments)
}

func TestAggregate_FollowUpOrderAndExcerpt(t *testing.T) {
	long := "This function allocates on every call and the allocation shows up in the profile under heavy load, please look"
	linked := []linker.Linked{
		{Comment: models.Comment{ID: 2, Body: long, CreatedAt: t0.Add(time.Hour)}},
		{Comment: models.Comment{ID: 1, Body: "short\n\nbody", CreatedAt: t0}},
		{Comment: models.Comment{ID: 3, Body: "resolved", IsResolved: true, CreatedAt: t0}},
		{Comment: models.Comment{ID: 4, Body: "replied", CreatedAt: t0, Replies: []models.Comment{{ID: 5, Author: alice}}}},
	}

	_, d := Aggregate(nil, linked)
	require.Len(t, d.NeedsFollowUp, 2)
	assert.Equal(t, int64(1), d.NeedsFollowUp[0].ID)
	assert.Equal(t, "short body", d.NeedsFollowUp[0].Excerpt)
	assert.Equal(t, int64(2), d.NeedsFollowUp[1].ID)
	assert.Len(t, []rune(d.NeedsFollowUp[1].Excerpt), excerptLength)
	assert.Equal(t, models.CategoryUnknown, d.NeedsFollowUp[1].Category)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name                             string
		resolution, engagement, positive float64
		expected                         float64
	}{
		{"all zero", 0, 0, 0, 0},
		{"all full", 100, 100, 100, 100},
		{"resolution only", 100, 0, 0, 40},
		{"engagement only", 0, 100, 0, 30},
		{"positivity only", 0, 0, 100, 30},
		{"mixed", 50, 20, 80, 50*0.4 + 20*0.3 + 80*0.3},
		{"clamped", 150, -10, 100, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Score(tt.resolution, tt.engagement, tt.positive), 1e-9)
		})
	}

	assert.InDelta(t, 1.0, ResolutionWeight+EngagementWeight+PositivityWeight, 1e-9)
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score float64
		tier  Tier
	}{
		{100, TierExcellent},
		{70, TierExcellent},
		{69.9, TierGood},
		{40, TierGood},
		{39.9, TierNeedsImprovement},
		{0, TierNeedsImprovement},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.tier, TierFor(tt.score), "score %v", tt.score)
	}
}

func TestAggregate_ScoreUsesUnroundedRates(t *testing.T) {
	// 1 of 3 resolved (33.33...), 2 of 3 replied (66.66...), no reactions.
	linked := []linker.Linked{
		{Comment: models.Comment{ID: 1, IsResolved: true, Replies: []models.Comment{{ID: 9, Author: alice}}}, Method: linker.MethodExplicit},
		{Comment: models.Comment{ID: 2, Replies: []models.Comment{{ID: 8, Author: bob}}}, Method: linker.MethodHeuristic},
		{Comment: models.Comment{ID: 3}},
	}

	s, d := Aggregate(prs(3), linked)
	assert.Equal(t, 33.3, s.ResolvedPercentage)
	assert.Equal(t, 66.7, s.ReplyPercentage)
	assert.Equal(t, 33.3, s.EffectivenessScore) // 0.4*33.33 + 0.3*66.67 = 13.33 + 20 = 33.33
	assert.Equal(t, TierNeedsImprovement, s.EffectivenessTier)
	assert.Equal(t, 2, d.Engagement.UniqueRepliers)
	assert.Equal(t, 1, d.Engagement.HeuristicLinked)
}
