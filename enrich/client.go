package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/models"
)

// Client is a lightweight OpenAI-compatible API client for report
// enrichment. It uses net/http directly — no third-party SDK needed.
type Client struct {
	cfg        config.EnrichConfig
	httpClient *http.Client
}

// NewClient creates an enrichment client. Pass nil to use a default
// http.Client bound by the configured timeout.
func NewClient(cfg config.EnrichConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// chatRequest is the OpenAI chat completion request body.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the minimal OpenAI chat completion response we need.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// enrichedPayload is the JSON shape the model is asked to return.
type enrichedPayload struct {
	Summary          string   `json:"summary"`
	TopFixes         []string `json:"top_fixes"`
	Recommendations  []string `json:"recommendations"`
	GradeExplanation string   `json:"grade_explanation"`
}

const systemPrompt = `You are a website audit analyst. You receive aggregated audit scores, a letter grade, recurring problems, and optionally a markdown excerpt of the homepage. Write a report layer for the site owner.

Return ONLY valid JSON with this shape, no markdown fences or explanation:
{"summary": string, "top_fixes": [string], "recommendations": [string], "grade_explanation": string}

Rules:
- summary: 2-3 sentences, concrete, referencing actual scores.
- top_fixes: at most 3, ordered by impact.
- recommendations: actionable, grounded in the provided problems.
- grade_explanation: one sentence explaining the letter grade.`

// Summarize asks the model for the enriched report layer.
func (c *Client) Summarize(ctx context.Context, in Input) (models.Enriched, error) {
	userPrompt, err := buildUserPrompt(in)
	if err != nil {
		return models.Enriched{}, models.NewAuditError(models.ErrCodeEnrichment, "failed to build enrichment prompt", err)
	}

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return models.Enriched{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return models.Enriched{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Enriched{}, models.NewAuditError(models.ErrCodeEnrichment, "enrichment request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Enriched{}, models.NewAuditError(models.ErrCodeEnrichment, "failed to read enrichment response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp chatErrorResponse
		msg := "enrichment API error"
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return models.Enriched{}, models.NewAuditError(models.ErrCodeEnrichment,
			fmt.Sprintf("enrichment API returned %d: %s", resp.StatusCode, msg), nil)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return models.Enriched{}, models.NewAuditError(models.ErrCodeEnrichment, "failed to parse enrichment response", err)
	}
	if len(chatResp.Choices) == 0 {
		return models.Enriched{}, models.NewAuditError(models.ErrCodeEnrichment, "enrichment returned no choices", nil)
	}

	var payload enrichedPayload
	if err := json.Unmarshal([]byte(chatResp.Choices[0].Message.Content), &payload); err != nil {
		return models.Enriched{}, models.NewAuditError(models.ErrCodeEnrichment, "enrichment returned invalid JSON", err)
	}
	if payload.Summary == "" {
		return models.Enriched{}, models.NewAuditError(models.ErrCodeEnrichment, "enrichment returned an empty summary", nil)
	}

	out := models.Enriched{
		Summary:          payload.Summary,
		TopFixes:         payload.TopFixes,
		Recommendations:  payload.Recommendations,
		GradeExplanation: payload.GradeExplanation,
	}
	if out.GradeExplanation == "" {
		out.GradeExplanation = in.Grade.Explanation
	}
	return out, nil
}

// buildUserPrompt serializes the audit input for the model.
func buildUserPrompt(in Input) (string, error) {
	doc := map[string]any{
		"target_url": in.TargetURL,
		"scores":     in.Scores,
		"grade":      in.Grade,
		"summary":    in.Summary,
	}
	if in.Ecommerce != nil {
		doc["ecommerce"] = in.Ecommerce
	}
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Audit results:\n")
	b.Write(encoded)
	if in.Digest != "" {
		b.WriteString("\n\nHomepage excerpt (markdown):\n")
		b.WriteString(in.Digest)
	}
	return b.String(), nil
}
