// Package report renders aggregated metrics as JSON or Markdown. It only
// projects values computed by the metrics package; nothing is recomputed or
// re-rounded here.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joescharf/revstat/internal/metrics"
	"github.com/joescharf/revstat/internal/models"
)

// Format selects an output encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ErrUnsupportedFormat is returned for format identifiers other than json
// and markdown.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// ParseFormat validates a format identifier.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatMarkdown:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (use: json, markdown)", ErrUnsupportedFormat, s)
	}
}

// Extension returns the conventional file extension for the format.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return ".md"
	}
	return ".json"
}

// Metadata identifies what a report covers.
type Metadata struct {
	Repository  string
	Reviewer    string
	Period      models.DateRange
	GeneratedAt time.Time
	// Narrative is optional free text rendered after the tables.
	Narrative string
}

// Report is the tuple a formatter renders.
type Report struct {
	Metadata Metadata
	Summary  metrics.Summary
	Detailed metrics.Detailed
}

// Render encodes r in the given format.
func Render(f Format, r Report) ([]byte, error) {
	switch f {
	case FormatJSON:
		return renderJSON(r)
	case FormatMarkdown:
		return []byte(renderMarkdown(r)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}

type periodDoc struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type metadataDoc struct {
	Repository  string    `json:"repository"`
	Period      periodDoc `json:"period"`
	Reviewer    string    `json:"reviewer"`
	GeneratedAt time.Time `json:"generatedAt"`
	Narrative   string    `json:"narrative,omitempty"`
}

// Document is the JSON shape of a report. Field names are a public contract.
type Document struct {
	Metadata metadataDoc      `json:"metadata"`
	Summary  metrics.Summary  `json:"summary"`
	Detailed metrics.Detailed `json:"detailed"`
}

func renderJSON(r Report) ([]byte, error) {
	doc := Document{
		Metadata: metadataDoc{
			Repository:  r.Metadata.Repository,
			Period:      periodDoc{Start: r.Metadata.Period.Start.UTC(), End: r.Metadata.Period.End.UTC()},
			Reviewer:    r.Metadata.Reviewer,
			GeneratedAt: r.Metadata.GeneratedAt.UTC(),
			Narrative:   r.Metadata.Narrative,
		},
		Summary:  r.Summary,
		Detailed: r.Detailed,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return append(data, '\n'), nil
}
