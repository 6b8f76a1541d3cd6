package github

import (
	"time"

	gogithub "github.com/google/go-github/v56/github"

	"github.com/joescharf/revstat/internal/classify"
	"github.com/joescharf/revstat/internal/models"
)

func convertUser(u *gogithub.User) models.User {
	t := models.AccountTypeHuman
	if u.GetType() == string(models.AccountTypeBot) {
		t = models.AccountTypeBot
	}
	return models.User{Login: u.GetLogin(), Type: t, ID: u.GetID()}
}

func convertPullRequest(pr *gogithub.PullRequest) models.PullRequest {
	return models.PullRequest{
		Number:    pr.GetNumber(),
		State:     pr.GetState(),
		Title:     pr.GetTitle(),
		Author:    convertUser(pr.GetUser()),
		CreatedAt: pr.GetCreatedAt().Time,
	}
}

func convertReviewComment(number int, rc *gogithub.PullRequestComment) models.Comment {
	cm := models.Comment{
		ID:          rc.GetID(),
		PullRequest: number,
		Kind:        models.CommentKindReview,
		Body:        rc.GetBody(),
		Author:      convertUser(rc.GetUser()),
		CreatedAt:   rc.GetCreatedAt().Time,
		UpdatedAt:   rc.GetUpdatedAt().Time,
	}
	if rc.InReplyTo != nil {
		id := rc.GetInReplyTo()
		cm.InReplyToID = &id
	}
	return cm
}

func convertIssueComment(number int, ic *gogithub.IssueComment) models.Comment {
	return models.Comment{
		ID:          ic.GetID(),
		PullRequest: number,
		Kind:        models.CommentKindIssue,
		Body:        ic.GetBody(),
		Author:      convertUser(ic.GetUser()),
		CreatedAt:   ic.GetCreatedAt().Time,
		UpdatedAt:   ic.GetUpdatedAt().Time,
	}
}

// convertReactions normalizes reaction content. The reactions endpoint
// carries no timestamps, so each reaction is stamped with the comment's
// creation time.
func convertReactions(raw []*gogithub.Reaction, at time.Time) []models.Reaction {
	out := make([]models.Reaction, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.Reaction{
			Kind:      classify.ReactionKind(r.GetContent()),
			User:      convertUser(r.GetUser()),
			CreatedAt: at,
		})
	}
	return out
}
