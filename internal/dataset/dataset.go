// Package dataset reads and writes collected datasets as JSON documents.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joescharf/revstat/internal/models"
)

// ErrInvalidDataset is returned when a stored dataset cannot be decoded or is
// missing required metadata.
var ErrInvalidDataset = errors.New("invalid dataset")

// Load reads and validates the dataset at path.
func Load(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Decode parses and validates a dataset document.
func Decode(r io.Reader) (*models.Dataset, error) {
	var ds models.Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidDataset, err)
	}
	if err := Validate(&ds); err != nil {
		return nil, err
	}
	if ds.PRs == nil {
		ds.PRs = []models.PullRequest{}
	}
	if ds.Comments == nil {
		ds.Comments = []models.Comment{}
	}
	return &ds, nil
}

// Validate checks the metadata fields every consumer depends on.
func Validate(ds *models.Dataset) error {
	m := ds.Metadata
	var missing []string
	if strings.TrimSpace(m.Repository) == "" {
		missing = append(missing, "repository")
	}
	if strings.TrimSpace(m.Reviewer) == "" {
		missing = append(missing, "reviewer")
	}
	if m.Period.Start.IsZero() {
		missing = append(missing, "period.start")
	}
	if m.Period.End.IsZero() {
		missing = append(missing, "period.end")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing metadata: %s", ErrInvalidDataset, strings.Join(missing, ", "))
	}
	if m.Period.Start.After(m.Period.End) {
		return fmt.Errorf("%w: period start %s is after end %s", ErrInvalidDataset,
			m.Period.Start.Format("2006-01-02"), m.Period.End.Format("2006-01-02"))
	}
	return nil
}

// Save validates ds and writes it to path atomically.
func Save(path string, ds *models.Dataset) error {
	if err := Validate(ds); err != nil {
		return err
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return WriteFileAtomic(path, append(data, '\n'), 0o644)
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// FileName returns the conventional dataset file name for a repository and
// period, e.g. "acme-widgets_2026-01-01_2026-01-31.json".
func FileName(repository string, period models.DateRange) string {
	slug := strings.NewReplacer("/", "-", " ", "-").Replace(strings.ToLower(repository))
	return fmt.Sprintf("%s_%s_%s.json", slug,
		period.Start.UTC().Format("2006-01-02"), period.End.UTC().Format("2006-01-02"))
}
