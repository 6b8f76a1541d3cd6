package models

import "time"

// DatasetMetadata describes how and for what a dataset was collected.
type DatasetMetadata struct {
	Repository    string    `json:"repository"`
	Reviewer      string    `json:"reviewer"`
	Period        DateRange `json:"period"`
	TotalPRs      int       `json:"totalPRs"`
	TotalComments int       `json:"totalComments"`
	CollectedAt   time.Time `json:"collectedAt"`
}

// Dataset is the persisted output of a collection run. Comments holds every
// comment found on the collected pull requests, so human replies are
// available to the reply linker alongside the reviewer's own comments.
type Dataset struct {
	Metadata DatasetMetadata `json:"metadata"`
	PRs      []PullRequest   `json:"prs"`
	Comments []Comment       `json:"comments"`
}
