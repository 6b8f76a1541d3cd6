package metrics

// Effectiveness weights. They sum to 1 so the score stays in [0,100].
const (
	ResolutionWeight = 0.4
	EngagementWeight = 0.3
	PositivityWeight = 0.3
)

// Tier is the qualitative band of an effectiveness score.
type Tier string

const (
	TierExcellent        Tier = "excellent"
	TierGood             Tier = "good"
	TierNeedsImprovement Tier = "needs improvement"
)

// tierThresholds maps minimum scores to tiers, highest first.
var tierThresholds = []struct {
	min  float64
	tier Tier
}{
	{70, TierExcellent},
	{40, TierGood},
}

// Score blends resolution, engagement and positivity rates (each 0-100)
// into a single 0-100 effectiveness score.
func Score(resolution, engagement, positivity float64) float64 {
	s := ResolutionWeight*clamp(resolution) + EngagementWeight*clamp(engagement) + PositivityWeight*clamp(positivity)
	return clamp(s)
}

// TierFor bands a score.
func TierFor(score float64) Tier {
	for _, t := range tierThresholds {
		if score >= t.min {
			return t.tier
		}
	}
	return TierNeedsImprovement
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
