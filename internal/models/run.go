package models

import (
	"encoding/json"
	"time"
)

// Run is a recorded analysis of a dataset. Summary and Detailed hold the
// JSON-encoded metrics sections so a run can be re-rendered without
// re-analysis.
type Run struct {
	ID                 string          `json:"id"`
	Repository         string          `json:"repository"`
	Reviewer           string          `json:"reviewer"`
	PeriodStart        time.Time       `json:"periodStart"`
	PeriodEnd          time.Time       `json:"periodEnd"`
	DatasetPath        string          `json:"datasetPath,omitempty"`
	TotalPRs           int             `json:"totalPRs"`
	TotalComments      int             `json:"totalComments"`
	ResolvedPercentage float64         `json:"resolvedPercentage"`
	ReplyPercentage    float64         `json:"replyPercentage"`
	EffectivenessScore float64         `json:"effectivenessScore"`
	Tier               string          `json:"effectivenessTier"`
	Summary            json.RawMessage `json:"summary,omitempty"`
	Detailed           json.RawMessage `json:"detailed,omitempty"`
	Narrative          string          `json:"narrative,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}
