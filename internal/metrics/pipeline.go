package metrics

import (
	"github.com/joescharf/revstat/internal/classify"
	"github.com/joescharf/revstat/internal/linker"
	"github.com/joescharf/revstat/internal/models"
)

// Input is a collected batch ready for analysis.
type Input struct {
	PRs      []models.PullRequest
	Comments []models.Comment
	// Reviewer is the AI reviewer's login. When empty, every comment by a
	// non-human account is treated as a reviewer comment.
	Reviewer string
}

// Result is the outcome of one analysis pass.
type Result struct {
	Comments []linker.Linked
	Summary  Summary
	Detailed Detailed
}

// Analyze classifies the reviewer's comments, links human replies to them
// and aggregates the result. The input is not modified.
func Analyze(in Input) Result {
	lk := linker.New(in.Reviewer)

	var targets []models.Comment
	for _, c := range in.Comments {
		if in.Reviewer != "" {
			if linker.SameAccount(c.Author.Login, in.Reviewer) {
				targets = append(targets, c)
			}
			continue
		}
		if !lk.IsHuman(c.Author) {
			targets = append(targets, c)
		}
	}

	linked := lk.Link(classify.Annotate(targets), in.Comments)
	summary, detailed := Aggregate(in.PRs, linked)
	return Result{Comments: linked, Summary: summary, Detailed: detailed}
}
