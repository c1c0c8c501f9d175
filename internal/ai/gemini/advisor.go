package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/unifit/internal/ai"
	"github.com/spigell/unifit/internal/logger"
	"github.com/spigell/unifit/internal/profile"
	"github.com/spigell/unifit/internal/scoring"
	"github.com/spigell/unifit/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	maxPromptCandidates = 10
	maxHighlights       = 3
)

// Advisor asks Gemini to narrate a ranked result.
type Advisor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Advisor = (*Advisor)(nil)

// NewAdvisor returns an Advisor using generator.
func NewAdvisor(generator contentGenerator, maxLogLength int, l *zap.Logger) *Advisor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Advisor{
		generator: generator,
		logger:    logger.WithAIFields(l, "gemini", generator.Model()),
		maxLogLen: maxLogLength,
	}
}

// promptMatch is the compact form of a candidate sent to the model.
type promptMatch struct {
	ID            int               `json:"id"`
	Name          string            `json:"name"`
	City          string            `json:"city,omitempty"`
	State         string            `json:"state,omitempty"`
	Control       string            `json:"control"`
	AdmissionRate *float64          `json:"admission_rate,omitempty"`
	NetPrice      *float64          `json:"net_price,omitempty"`
	MatchScore    int               `json:"match_score"`
	Category      scoring.Category  `json:"match_category"`
	SubScores     scoring.SubScores `json:"sub_scores"`
}

// Summarize builds a prompt from p and the top candidates and parses the
// JSON answer.
func (a *Advisor) Summarize(ctx context.Context, p *profile.Profile, candidates []scoring.Candidate) (*ai.Summary, error) {
	if p == nil {
		return nil, errors.New("profile is required")
	}
	if len(candidates) == 0 {
		return nil, errors.New("no candidates to summarize")
	}

	prompt, err := buildPrompt(p, candidates)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini generate content request",
		zap.Int("candidates", len(candidates)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	summary, err := parseResponse(raw, candidates)
	if err != nil {
		return nil, err
	}
	summary.Raw = raw
	return summary, nil
}

func buildPrompt(p *profile.Profile, candidates []scoring.Candidate) (string, error) {
	profileJSON, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile payload: %w", err)
	}

	if len(candidates) > maxPromptCandidates {
		candidates = candidates[:maxPromptCandidates]
	}
	matches := make([]promptMatch, 0, len(candidates))
	for _, c := range candidates {
		inst := c.Institution
		m := promptMatch{
			ID:            inst.ID,
			Name:          inst.Name,
			City:          inst.City,
			State:         inst.StateName,
			Control:       inst.Control.String(),
			AdmissionRate: inst.AdmissionRate,
			MatchScore:    c.MatchScore,
			Category:      c.Category,
			SubScores:     c.SubScores,
		}
		if price, ok := inst.SelectedNetPrice(p.IncomeBracket); ok {
			m.NetPrice = &price
		}
		matches = append(matches, m)
	}
	matchesJSON, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal matches payload: %w", err)
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Profile:\n{{PROFILE_JSON}}\n\nMatches:\n{{MATCHES_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{PROFILE_JSON}}", string(profileJSON))
	prompt = strings.ReplaceAll(prompt, "{{MATCHES_JSON}}", string(matchesJSON))
	prompt = strings.ReplaceAll(prompt, "{{MAX_HIGHLIGHTS}}", strconv.Itoa(maxHighlights))
	return prompt, nil
}

// parseResponse decodes the model answer. Highlights naming institutions
// that are not in the result are dropped.
func parseResponse(raw string, candidates []scoring.Candidate) (*ai.Summary, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	summary := &ai.Summary{Text: coerceString(data["summary"])}
	if summary.Text == "" {
		return nil, errors.New("gemini response has no summary")
	}

	known := make(map[int]bool, len(candidates))
	for _, c := range candidates {
		known[c.Institution.ID] = true
	}

	items, _ := data["highlights"].([]any)
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id := coerceFloat(obj["institution_id"])
		note := coerceString(obj["note"])
		if math.IsNaN(id) || note == "" || !known[int(id)] {
			continue
		}
		summary.Highlights = append(summary.Highlights, ai.Highlight{InstitutionID: int(id), Note: note})
		if len(summary.Highlights) == maxHighlights {
			break
		}
	}

	return summary, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
