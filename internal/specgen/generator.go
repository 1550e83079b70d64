// Package specgen turns a raw idea submission into a structured specification
// (title, problem statement, tags, features, tasks, open questions) via an
// external chat model. Model output is validated against the expected schema
// and retried once before the failure surfaces to the caller.
package specgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ideaboard/api/internal/models"
)

// ErrInvalidSpec is returned when the model's output does not parse or fails
// schema validation on the final attempt.
var ErrInvalidSpec = errors.New("specgen: model returned an invalid specification")

// GeneratedTask is one implementable task of a generated specification.
type GeneratedTask struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	AcceptanceCriteria string `json:"acceptanceCriteria"`
	Effort             string `json:"effort"`
}

// Spec is the validated output of one spec-generation run.
type Spec struct {
	Title            string           `json:"title"`
	ProblemStatement string           `json:"problemStatement"`
	Tags             []string         `json:"tags"`
	Features         []models.Feature `json:"features"`
	Tasks            []GeneratedTask  `json:"tasks"`
	OpenQuestions    []string         `json:"openQuestions"`
}

// CompletionClient runs one system+user chat completion.
type CompletionClient interface {
	CreateCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator produces validated specs from raw idea text.
type Generator struct {
	client CompletionClient
	logger *slog.Logger
}

// NewGenerator creates a Generator. logger may be nil (slog default is used).
func NewGenerator(client CompletionClient, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{client: client, logger: logger}
}

const maxAttempts = 2

// Generate runs the spec-generation prompt and returns the validated spec.
// An invalid or unparseable completion is retried once; provider errors are
// returned as-is (the caller maps them to a 502).
func (g *Generator) Generate(ctx context.Context, userPrompt string) (*Spec, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		content, err := g.client.CreateCompletion(ctx, systemPrompt, userPrompt)
		if err != nil {
			return nil, fmt.Errorf("spec completion: %w", err)
		}

		spec, err := parseSpec(content)
		if err != nil {
			lastErr = err
			g.logger.Warn("specgen: invalid completion", "attempt", attempt, "error", err)

			continue
		}

		return spec, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, lastErr)
}

var (
	fenceOpenRegex  = regexp.MustCompile(`(?i)^\x60\x60\x60(?:json)?\s*\n?`)
	fenceCloseRegex = regexp.MustCompile(`\n?\x60\x60\x60\s*$`)
)

// stripFences removes a leading/trailing markdown code fence the model may add
// despite being told not to.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = fenceOpenRegex.ReplaceAllString(content, "")
	content = fenceCloseRegex.ReplaceAllString(content, "")

	return strings.TrimSpace(content)
}

// parseSpec unmarshals and validates one completion.
func parseSpec(content string) (*Spec, error) {
	var spec Spec

	if err := json.Unmarshal([]byte(stripFences(content)), &spec); err != nil {
		return nil, fmt.Errorf("unmarshal spec: %w", err)
	}

	if err := validateSpec(&spec); err != nil {
		return nil, err
	}

	return &spec, nil
}

func validateSpec(spec *Spec) error {
	if strings.TrimSpace(spec.Title) == "" {
		return errors.New("spec is missing a title")
	}

	if strings.TrimSpace(spec.ProblemStatement) == "" {
		return errors.New("spec is missing a problem statement")
	}

	for i, f := range spec.Features {
		if strings.TrimSpace(f.Title) == "" {
			return fmt.Errorf("feature %d is missing a title", i)
		}
	}

	for i, task := range spec.Tasks {
		if strings.TrimSpace(task.Title) == "" {
			return fmt.Errorf("task %d is missing a title", i)
		}

		switch task.Effort {
		case models.EffortSmall, models.EffortMedium, models.EffortLarge, models.EffortXLarge:
		default:
			return fmt.Errorf("task %d has invalid effort %q", i, task.Effort)
		}
	}

	if spec.Tags == nil {
		spec.Tags = []string{}
	}

	if spec.OpenQuestions == nil {
		spec.OpenQuestions = []string{}
	}

	return nil
}
