// Package anthropic implements analysis.Scorer against the Anthropic
// messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/davidtran-dev/jobmatch-be/internal/analysis"
	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
)

const apiVersion = "2023-06-01"

const scoringPrompt = `You evaluate how well a job posting matches a candidate profile.
Respond with a single JSON object and nothing else:
{"compatibility_score": <0..1>, "confidence": <0..1>, "skill_matches": [...], "skill_gaps": [...], "reasoning": "..."}`

// Config holds Anthropic connection settings.
type Config struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// Scorer implements analysis.Scorer using the messages API.
type Scorer struct {
	cfg    Config
	client *http.Client
}

// NewScorer creates a scorer. Deadlines come from the caller's context.
func NewScorer(cfg Config) *Scorer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	return &Scorer{
		cfg:    cfg,
		client: &http.Client{},
	}
}

func (s *Scorer) Name() string { return "anthropic" }

type messagesRequest struct {
	Model     string    `json:"model"`
	System    string    `json:"system"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Score sends the posting and profile to the model and parses the JSON
// payload it returns.
func (s *Scorer) Score(ctx context.Context, req analysis.ScoreRequest) (domain.AnalysisResult, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     s.cfg.Model,
		System:    scoringPrompt,
		MaxTokens: s.cfg.MaxTokens,
		Messages: []message{
			{Role: "user", Content: buildUserPrompt(req)},
		},
	})
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", s.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return domain.AnalysisResult{}, fmt.Errorf("%w: %v", analysis.ErrScoreTimeout, err)
		}
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", analysis.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.AnalysisResult{}, fmt.Errorf("%w: status %d: %s", analysis.ErrProviderUnavailable, resp.StatusCode, payload)
	}

	var parsed messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", analysis.ErrInvalidResponse, err)
	}

	for _, block := range parsed.Content {
		if block.Type == "text" {
			return parseResultJSON(block.Text)
		}
	}

	return domain.AnalysisResult{}, fmt.Errorf("%w: no text content", analysis.ErrInvalidResponse)
}

func buildUserPrompt(req analysis.ScoreRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Job title: %s\nCompany: %s\nDescription: %s\n\n", req.Title, req.Company, req.Description)
	fmt.Fprintf(&sb, "Candidate summary: %s\nCandidate skills:", req.Profile.Summary)
	for _, skill := range req.Profile.Skills {
		fmt.Fprintf(&sb, " %s (weight %.1f),", skill.Name, skill.Weight)
	}
	return sb.String()
}

func parseResultJSON(content string) (domain.AnalysisResult, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return domain.AnalysisResult{}, fmt.Errorf("%w: no JSON object in response", analysis.ErrInvalidResponse)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", analysis.ErrInvalidResponse, err)
	}

	return result, nil
}

var _ analysis.Scorer = (*Scorer)(nil)
