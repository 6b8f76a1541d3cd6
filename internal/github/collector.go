// Package github collects pull requests, comments and reactions from the
// GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v56/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/joescharf/revstat/internal/linker"
	"github.com/joescharf/revstat/internal/models"
	"github.com/joescharf/revstat/internal/retry"
)

// ErrInvalidRepository is returned for repository names not in owner/repo
// form.
var ErrInvalidRepository = errors.New("invalid repository")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ParseRepository splits "owner/repo".
func ParseRepository(s string) (owner, repo string, err error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || !namePattern.MatchString(parts[0]) || !namePattern.MatchString(parts[1]) {
		return "", "", fmt.Errorf("%w: %q must be in format 'owner/repo'", ErrInvalidRepository, s)
	}
	return parts[0], parts[1], nil
}

const perPage = 100

// Options configures a Collector.
type Options struct {
	// Token is a GitHub token; empty means unauthenticated requests.
	Token string
	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
	BaseURL string
	// RequestsPerSecond paces API calls; zero or less disables pacing.
	RequestsPerSecond float64
	Retry             retry.Config
	Logger            *zap.SugaredLogger
	// HTTPClient is used when Token is empty.
	HTTPClient *http.Client
}

// Collector fetches review data for one repository at a time.
type Collector struct {
	client  *gogithub.Client
	limiter *rate.Limiter
	retry   retry.Config
	log     *zap.SugaredLogger
	now     func() time.Time
}

// NewCollector builds a Collector from opts.
func NewCollector(opts Options) (*Collector, error) {
	httpClient := opts.HTTPClient
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	client := gogithub.NewClient(httpClient)

	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		client.BaseURL = u
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	rc := opts.Retry
	if rc.MaxAttempts <= 0 {
		rc = retry.DefaultConfig()
	}
	if rc.Retryable == nil {
		rc.Retryable = isTransient
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Collector{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		retry:   rc,
		log:     log,
		now:     time.Now,
	}, nil
}

// Collect gathers every pull request created within period and all comments
// on them. Metadata.TotalComments counts only the reviewer's comments.
func (c *Collector) Collect(ctx context.Context, repository, reviewer string, period models.DateRange) (*models.Dataset, error) {
	owner, repo, err := ParseRepository(repository)
	if err != nil {
		return nil, err
	}

	prs, err := c.PullRequests(ctx, owner, repo, period)
	if err != nil {
		return nil, err
	}

	comments := []models.Comment{}
	reviewerComments := 0
	for i, pr := range prs {
		c.log.Debugw("collecting comments", "repository", repository, "pr", pr.Number, "progress", fmt.Sprintf("%d/%d", i+1, len(prs)))
		cs, err := c.Comments(ctx, owner, repo, pr.Number)
		if err != nil {
			return nil, fmt.Errorf("PR #%d: %w", pr.Number, err)
		}
		for _, cm := range cs {
			if linker.SameAccount(cm.Author.Login, reviewer) {
				reviewerComments++
			}
		}
		comments = append(comments, cs...)
	}

	c.log.Infow("collection complete",
		"repository", repository,
		"prs", len(prs),
		"comments", len(comments),
		"reviewer_comments", reviewerComments,
	)

	return &models.Dataset{
		Metadata: models.DatasetMetadata{
			Repository:    owner + "/" + repo,
			Reviewer:      reviewer,
			Period:        period,
			TotalPRs:      len(prs),
			TotalComments: reviewerComments,
			CollectedAt:   c.now().UTC(),
		},
		PRs:      prs,
		Comments: comments,
	}, nil
}

// PullRequests lists pull requests created within period, newest first.
// Listing stops at the first page entry older than the period.
func (c *Collector) PullRequests(ctx context.Context, owner, repo string, period models.DateRange) ([]models.PullRequest, error) {
	opt := &gogithub.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gogithub.ListOptions{PerPage: perPage},
	}

	prs := []models.PullRequest{}
	for {
		var page []*gogithub.PullRequest
		var resp *gogithub.Response
		err := c.call(ctx, func() (err error) {
			page, resp, err = c.client.PullRequests.List(ctx, owner, repo, opt)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("list pull requests: %w", err)
		}

		stop := false
		for _, pr := range page {
			created := pr.GetCreatedAt().Time
			if created.Before(period.Start) {
				stop = true
				break
			}
			if created.After(period.End) {
				continue
			}
			prs = append(prs, convertPullRequest(pr))
		}

		if stop || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	c.log.Infow("found pull requests",
		"repository", owner+"/"+repo,
		"count", len(prs),
		"start", period.Start.Format("2006-01-02"),
		"end", period.End.Format("2006-01-02"),
	)
	return prs, nil
}

// Comments returns the review and conversation comments on one pull
// request, with reactions attached.
func (c *Collector) Comments(ctx context.Context, owner, repo string, number int) ([]models.Comment, error) {
	review, err := c.reviewComments(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	issue, err := c.issueComments(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	return append(review, issue...), nil
}

func (c *Collector) reviewComments(ctx context.Context, owner, repo string, number int) ([]models.Comment, error) {
	opt := &gogithub.PullRequestListCommentsOptions{ListOptions: gogithub.ListOptions{PerPage: perPage}}

	var out []models.Comment
	for {
		var page []*gogithub.PullRequestComment
		var resp *gogithub.Response
		err := c.call(ctx, func() (err error) {
			page, resp, err = c.client.PullRequests.ListComments(ctx, owner, repo, number, opt)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("list review comments: %w", err)
		}

		for _, rc := range page {
			cm := convertReviewComment(number, rc)
			if rc.GetReactions().GetTotalCount() > 0 {
				raw, err := c.listReactions(ctx, func(o *gogithub.ListOptions) ([]*gogithub.Reaction, *gogithub.Response, error) {
					return c.client.Reactions.ListPullRequestCommentReactions(ctx, owner, repo, rc.GetID(), o)
				})
				if err != nil {
					return nil, fmt.Errorf("reactions on comment %d: %w", rc.GetID(), err)
				}
				cm.Reactions = convertReactions(raw, cm.CreatedAt)
			}
			out = append(out, cm)
		}

		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return out, nil
}

func (c *Collector) issueComments(ctx context.Context, owner, repo string, number int) ([]models.Comment, error) {
	opt := &gogithub.IssueListCommentsOptions{ListOptions: gogithub.ListOptions{PerPage: perPage}}

	var out []models.Comment
	for {
		var page []*gogithub.IssueComment
		var resp *gogithub.Response
		err := c.call(ctx, func() (err error) {
			page, resp, err = c.client.Issues.ListComments(ctx, owner, repo, number, opt)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("list issue comments: %w", err)
		}

		for _, ic := range page {
			cm := convertIssueComment(number, ic)
			if ic.GetReactions().GetTotalCount() > 0 {
				raw, err := c.listReactions(ctx, func(o *gogithub.ListOptions) ([]*gogithub.Reaction, *gogithub.Response, error) {
					return c.client.Reactions.ListIssueCommentReactions(ctx, owner, repo, ic.GetID(), o)
				})
				if err != nil {
					return nil, fmt.Errorf("reactions on comment %d: %w", ic.GetID(), err)
				}
				cm.Reactions = convertReactions(raw, cm.CreatedAt)
			}
			out = append(out, cm)
		}

		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return out, nil
}

type reactionLister func(*gogithub.ListOptions) ([]*gogithub.Reaction, *gogithub.Response, error)

func (c *Collector) listReactions(ctx context.Context, list reactionLister) ([]*gogithub.Reaction, error) {
	opt := &gogithub.ListOptions{PerPage: perPage}
	var all []*gogithub.Reaction
	for {
		var page []*gogithub.Reaction
		var resp *gogithub.Response
		err := c.call(ctx, func() (err error) {
			page, resp, err = list(opt)
			return err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return all, nil
}

// call paces and retries one API request.
func (c *Collector) call(ctx context.Context, fn func() error) error {
	return retry.Do(ctx, c.retry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		err := fn()
		if err != nil && isTransient(err) {
			c.log.Warnw("github request failed, retrying", "error", err)
		}
		return err
	})
}

// isTransient reports whether a GitHub API error may succeed on retry:
// rate limiting, server errors and transport failures.
func isTransient(err error) bool {
	var rl *gogithub.RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var abuse *gogithub.AbuseRateLimitError
	if errors.As(err, &abuse) {
		return true
	}
	var er *gogithub.ErrorResponse
	if errors.As(err, &er) {
		if er.Response == nil {
			return false
		}
		code := er.Response.StatusCode
		return code == http.StatusTooManyRequests || code >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
