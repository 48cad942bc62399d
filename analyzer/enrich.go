package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DJSwig/redup-demo/pkg/redup"
)

const (
	defaultModelBaseURL = "https://api.openai.com/v1"
	defaultModel        = "gpt-4o-mini"

	enrichTimeout     = 90 * time.Second
	enrichTemperature = 0.35
)

// ModelClient talks to an OpenAI-compatible chat completion endpoint
// and asks for a strict-JSON analysis of the draft.
type ModelClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	model      string
	baseURL    string
}

// ModelConfig configures the enrichment client. APIKey is required;
// everything else has defaults.
type ModelConfig struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	APIKey     string
	Model      string
	BaseURL    string
}

// NewModelClient creates an enrichment client, or nil when no API key
// is configured so the caller falls back to the mock.
func NewModelClient(cfg ModelConfig) *ModelClient {
	if cfg.APIKey == "" {
		return nil
	}
	c := &ModelClient{
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: enrichTimeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.baseURL == "" {
		c.baseURL = defaultModelBaseURL
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// wireEnrichment is the JSON shape the prompt asks for. Community names
// arrive in whatever casing the model chose and are canonicalized on
// the way out.
type wireEnrichment struct {
	SeedCommunities []string `json:"seed_communities"`
	Recommendations []struct {
		Name            string   `json:"name"`
		Reason          string   `json:"reason"`
		Engagement      int      `json:"estimated_engagement"`
		FlairSuggestion string   `json:"flair_suggestion"`
		RuleFlags       []string `json:"rule_flags"`
	} `json:"community_recommendations"`
	TitleVariants  []TitleVariant  `json:"title_variants"`
	Sentiment      *Sentiment      `json:"sentiment"`
	ViralityScore  *int            `json:"virality_score"`
	BestTimes      []PostTime      `json:"best_times"`
	FormattingTips []string        `json:"formatting_tips"`
	Checklist      []ChecklistItem `json:"compliance_checklist"`
	FirstComment   string          `json:"first_comment_suggestion"`
}

// Enrich runs one chat completion under its own timeout and normalizes
// the response into an Enrichment.
func (c *ModelClient) Enrich(ctx context.Context, req Request) (*Enrichment, error) {
	ctx, cancel := context.WithTimeout(ctx, enrichTimeout)
	defer cancel()

	body := chatRequest{
		Model:       c.model,
		Messages:    buildPrompt(req),
		Temperature: enrichTemperature,
	}
	body.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat completion HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	c.logger.Debug("chat completion finished",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds())

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	var wire wireEnrichment
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &wire); err != nil {
		return nil, fmt.Errorf("decode enrichment content: %w", err)
	}
	return wire.enrichment(req), nil
}

func (w *wireEnrichment) enrichment(req Request) *Enrichment {
	out := &Enrichment{
		TitleVariants:  w.TitleVariants,
		Sentiment:      Sentiment{Label: "neutral"},
		ViralityScore:  50,
		BestTimes:      w.BestTimes,
		FormattingTips: w.FormattingTips,
		Checklist:      w.Checklist,
		FirstComment:   w.FirstComment,
	}
	if w.Sentiment != nil {
		out.Sentiment = *w.Sentiment
	}
	if w.ViralityScore != nil {
		out.ViralityScore = *w.ViralityScore
	}

	seeds := w.SeedCommunities
	if len(seeds) == 0 {
		seeds = req.Seeds
	}
	for _, s := range seeds {
		out.Seeds = append(out.Seeds, redup.CanonicalName(s))
	}
	for _, r := range w.Recommendations {
		out.Recommendations = append(out.Recommendations, Recommendation{
			Name:            redup.CanonicalName(r.Name),
			Reason:          r.Reason,
			Engagement:      r.Engagement,
			FlairSuggestion: r.FlairSuggestion,
			RuleFlags:       r.RuleFlags,
		})
	}
	return out
}

func buildPrompt(req Request) []chatMessage {
	orNone := func(s string) string {
		if s == "" {
			return "(none)"
		}
		return s
	}
	seeds := "(none)"
	if len(req.Seeds) > 0 {
		seeds = strings.Join(req.Seeds, ", ")
	}
	user := fmt.Sprintf(`Analyze a proposed community post and return structured recommendations.

INPUT:
- Title: %s
- Body: %s
- Link: %s
- Goal: %s
- Tone: %s
- Audience: %s
- Seed communities: %s
- User timezone: %s

OUTPUT JSON SHAPE:
{
  "seed_communities": ["r/example"],
  "community_recommendations": [
    {"name":"r/example", "reason":"why fit", "estimated_engagement":0, "flair_suggestion":"text or null", "rule_flags":["..."]}
  ],
  "title_variants": [{"title":"...", "tone":"matching", "why":"short"}],
  "sentiment": {"score": 0.0, "label": "negative|neutral|positive", "reason":"..."},
  "virality_score": 0,
  "best_times": [{"community":"r/example", "times_local":["Tue 10:00","Thu 14:00"], "confidence": 0.0}],
  "formatting_tips": ["bullet"],
  "compliance_checklist": [{"item":"No clickbait", "ok": true, "note":""}],
  "first_comment_suggestion": "one short high-signal comment"
}`,
		orNone(req.Draft.Title), orNone(req.Draft.Body), orNone(req.Draft.Link),
		orNone(req.Goal), orNone(req.Tone), orNone(req.Draft.Audience),
		seeds, orNone(req.Timezone))

	return []chatMessage{
		{Role: "system", Content: "You are a post analyzer for a community posting dashboard. Return strict JSON only. Be concrete."},
		{Role: "user", Content: user},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
