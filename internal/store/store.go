package store

import (
	"context"
	"errors"

	"github.com/joescharf/revstat/internal/models"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("not found")

// RunFilter narrows ListRuns. Zero values match everything.
type RunFilter struct {
	Repository string
	Reviewer   string
	Limit      int
}

// Store defines the persistence interface for analysis history.
type Store interface {
	CreateRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*models.Run, error)
	DeleteRun(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
