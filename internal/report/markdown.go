package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joescharf/revstat/internal/models"
)

func renderMarkdown(r Report) string {
	var b strings.Builder
	s := r.Summary
	d := r.Detailed

	b.WriteString("# AI Review Effectiveness Report\n\n")
	fmt.Fprintf(&b, "- **Repository:** %s\n", r.Metadata.Repository)
	fmt.Fprintf(&b, "- **Reviewer:** %s\n", r.Metadata.Reviewer)
	fmt.Fprintf(&b, "- **Period:** %s to %s\n", stamp(r.Metadata.Period.Start), stamp(r.Metadata.Period.End))
	fmt.Fprintf(&b, "- **Generated:** %s\n\n", stamp(r.Metadata.GeneratedAt))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Pull requests | %d |\n", s.TotalPRs)
	fmt.Fprintf(&b, "| Reviewer comments | %d |\n", s.TotalComments)
	fmt.Fprintf(&b, "| Average comments per PR | %s |\n", num(s.AverageCommentsPerPR))
	fmt.Fprintf(&b, "| Resolved comments | %d (%s%%) |\n", s.ResolvedComments, num(s.ResolvedPercentage))
	fmt.Fprintf(&b, "| Replied comments | %d (%s%%) |\n", s.RepliedComments, num(s.ReplyPercentage))
	fmt.Fprintf(&b, "| Positive reactions | %d (%s%%) |\n", s.PositiveReactions, num(s.PositivePercentage))
	fmt.Fprintf(&b, "| Negative reactions | %d (%s%%) |\n", s.NegativeReactions, num(s.NegativePercentage))
	fmt.Fprintf(&b, "| Effectiveness score | %s (%s) |\n\n", num(s.EffectivenessScore), s.EffectivenessTier)

	b.WriteString("## Comment Categories\n\n")
	b.WriteString("| Category | Count |\n")
	b.WriteString("|----------|-------|\n")
	for _, c := range models.Categories {
		fmt.Fprintf(&b, "| %s | %d |\n", c, d.Categories[c])
	}
	b.WriteString("\n")

	b.WriteString("## Sentiment\n\n")
	b.WriteString("| Sentiment | Count |\n")
	b.WriteString("|-----------|-------|\n")
	for _, name := range []string{"positive", "neutral", "negative"} {
		fmt.Fprintf(&b, "| %s | %d |\n", name, d.Sentiments[name])
	}
	b.WriteString("\n")

	b.WriteString("## Reaction Breakdown\n\n")
	b.WriteString("| Reaction | Count |\n")
	b.WriteString("|----------|-------|\n")
	for _, k := range models.ReactionKinds {
		fmt.Fprintf(&b, "| %s | %d |\n", k, d.Reactions[k])
	}
	b.WriteString("\n")

	b.WriteString("## Engagement\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Total human replies | %d |\n", d.Engagement.TotalReplies)
	fmt.Fprintf(&b, "| Comments with explicit replies | %d |\n", d.Engagement.ExplicitlyLinked)
	fmt.Fprintf(&b, "| Comments with inferred replies | %d |\n", d.Engagement.HeuristicLinked)
	fmt.Fprintf(&b, "| Unique repliers | %d |\n", d.Engagement.UniqueRepliers)
	fmt.Fprintf(&b, "| Synthetic reactions | %d |\n\n", d.Engagement.SyntheticReactions)

	b.WriteString("## Needs Follow-up\n\n")
	if len(d.NeedsFollowUp) == 0 {
		b.WriteString("None.\n")
	}
	for _, f := range d.NeedsFollowUp {
		fmt.Fprintf(&b, "- Comment %d (PR #%d, %s) [%s]: %s\n",
			f.ID, f.PullRequest, f.CreatedAt.UTC().Format("2006-01-02"), f.Category, f.Excerpt)
	}

	if n := strings.TrimSpace(r.Metadata.Narrative); n != "" {
		b.WriteString("\n## Narrative\n\n")
		b.WriteString(n)
		b.WriteString("\n")
	}

	return b.String()
}

// num prints a value the way encoding/json does for the same float64, so
// both encodings show identical numbers.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
