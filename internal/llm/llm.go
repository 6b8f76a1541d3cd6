// Package llm produces an optional plain-language narrative for a finished
// report. It never takes part in classification; every metric is computed
// before the model sees it.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joescharf/revstat/internal/metrics"
)

// Narrative is the model's reading of a metrics report.
type Narrative struct {
	Headline        string   `json:"headline"`
	Assessment      string   `json:"assessment"`
	Recommendations []string `json:"recommendations"`
}

// Markdown renders the narrative as report prose.
func (n Narrative) Markdown() string {
	var sb strings.Builder
	if n.Headline != "" {
		sb.WriteString("**")
		sb.WriteString(n.Headline)
		sb.WriteString("**\n\n")
	}
	if n.Assessment != "" {
		sb.WriteString(n.Assessment)
		sb.WriteString("\n")
	}
	if len(n.Recommendations) > 0 {
		sb.WriteString("\nRecommendations:\n\n")
		for _, r := range n.Recommendations {
			sb.WriteString("- ")
			sb.WriteString(r)
			sb.WriteString("\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

// Client wraps the Anthropic API.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model. Extra
// request options are passed through to the SDK.
func NewClient(apiKey, model string, extra ...option.RequestOption) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	opts = append(opts, extra...)
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildNarrativePrompt constructs the system and user prompts for a report
// narrative.
func buildNarrativePrompt(repository, reviewer string, summary metrics.Summary, detailed metrics.Detailed) (system string, user string, err error) {
	system = `You summarize how effective an AI code reviewer has been on a repository, based only on the metrics provided. Return ONLY a JSON object with these fields:
- "headline": one sentence verdict
- "assessment": 2-4 sentences interpreting resolution rate, reply rate and reaction sentiment
- "recommendations": 0-3 short, actionable suggestions for tuning the reviewer or the team's workflow

Rules:
- Quote numbers exactly as given; never recompute or round them differently
- Do not invent metrics that are not in the input
- Return valid JSON only, no markdown fencing or explanation`

	s, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encode summary: %w", err)
	}
	d, err := json.MarshalIndent(detailed, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encode detailed metrics: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Repository: ")
	sb.WriteString(repository)
	sb.WriteString("\nReviewer: ")
	sb.WriteString(reviewer)
	sb.WriteString("\n\nSummary metrics:\n")
	sb.Write(s)
	sb.WriteString("\n\nDetailed metrics:\n")
	sb.Write(d)
	sb.WriteString("\n")
	user = sb.String()
	return system, user, nil
}

// Narrate asks the model for a narrative of the given metrics.
func (c *Client) Narrate(ctx context.Context, repository, reviewer string, summary metrics.Summary, detailed metrics.Detailed) (*Narrative, error) {
	systemPrompt, userPrompt, err := buildNarrativePrompt(repository, reviewer, summary, detailed)
	if err != nil {
		return nil, err
	}

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	text = stripFencing(text)

	var n Narrative
	if err := json.Unmarshal([]byte(text), &n); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}
	return &n, nil
}

// stripFencing removes a surrounding ``` block if the model added one.
func stripFencing(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}
