package models

import "time"

// PullRequest is the subset of pull request data the analysis needs.
type PullRequest struct {
	Number    int       `json:"number"`
	State     string    `json:"state"`
	Title     string    `json:"title"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}
