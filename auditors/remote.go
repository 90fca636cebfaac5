package auditors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/models"
)

// auditRequest is the body sent to a rule-engine endpoint.
type auditRequest struct {
	URL string `json:"url"`
}

// auditResponse is the normalized shape every rule engine returns.
type auditResponse struct {
	Score    int             `json:"score"`
	Error    bool            `json:"error,omitempty"`
	Evidence json.RawMessage `json:"evidence,omitempty"`
}

// Remote calls one external rule-engine endpoint over HTTP and decodes the
// evidence into the typed payload for its pillar.
type Remote struct {
	pillar   models.Pillar
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

// NewRemote creates a Remote auditor. Pass nil to use http.DefaultClient.
func NewRemote(pillar models.Pillar, endpoint string, client *http.Client, timeout time.Duration) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{pillar: pillar, endpoint: endpoint, client: client, timeout: timeout}
}

// NewRemoteSet builds the four pillar auditors from config. Pillars with no
// endpoint configured get a disabled auditor that always errors, so a
// misconfigured deployment degrades visibly instead of silently scoring 0.
func NewRemoteSet(cfg config.AuditorConfig, client *http.Client) []Auditor {
	endpoints := map[models.Pillar]string{
		models.PillarAccessibility:  cfg.AccessibilityURL,
		models.PillarPerformance:    cfg.PerformanceURL,
		models.PillarSecurity:       cfg.SecurityURL,
		models.PillarAgentReadiness: cfg.AgentReadinessURL,
	}

	out := make([]Auditor, 0, len(models.Pillars))
	for _, pillar := range models.Pillars {
		if endpoints[pillar] == "" {
			out = append(out, disabled{pillar: pillar})
			continue
		}
		out = append(out, NewRemote(pillar, endpoints[pillar], client, cfg.Timeout))
	}
	return out
}

func (r *Remote) Pillar() models.Pillar { return r.pillar }

// Audit posts the URL to the rule engine and normalizes its response.
func (r *Remote) Audit(ctx context.Context, pageURL string) (models.PillarResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := json.Marshal(auditRequest{URL: pageURL})
	if err != nil {
		return ErrorResult(), fmt.Errorf("auditor %s: marshal request: %w", r.pillar, err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return ErrorResult(), fmt.Errorf("auditor %s: build request: %w", r.pillar, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return ErrorResult(), models.NewAuditError(models.ErrCodePageAudit,
			fmt.Sprintf("%s auditor call failed", r.pillar), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return ErrorResult(), models.NewAuditError(models.ErrCodePageAudit,
			fmt.Sprintf("%s auditor response read failed", r.pillar), err)
	}
	if resp.StatusCode != http.StatusOK {
		return ErrorResult(), models.NewAuditError(models.ErrCodePageAudit,
			fmt.Sprintf("%s auditor returned HTTP %d", r.pillar, resp.StatusCode), nil)
	}

	var ar auditResponse
	if err := json.Unmarshal(respBody, &ar); err != nil {
		return ErrorResult(), models.NewAuditError(models.ErrCodePageAudit,
			fmt.Sprintf("%s auditor returned invalid JSON", r.pillar), err)
	}
	if ar.Error {
		return ErrorResult(), nil
	}

	return models.PillarResult{
		Score:    models.ClampScore(ar.Score),
		Evidence: decodeEvidence(r.pillar, ar.Evidence),
	}, nil
}

// decodeEvidence turns the engine's evidence blob into the typed payload for
// the pillar, keeping the raw bytes for downstream consumers.
func decodeEvidence(pillar models.Pillar, raw json.RawMessage) models.Evidence {
	if len(raw) == 0 {
		return nil
	}
	switch pillar {
	case models.PillarAccessibility:
		var e models.AccessibilityEvidence
		if err := json.Unmarshal(raw, &e); err != nil {
			return models.AccessibilityEvidence{Raw: raw}
		}
		e.Raw = raw
		return e
	case models.PillarPerformance:
		var e models.PerformanceEvidence
		if err := json.Unmarshal(raw, &e); err != nil {
			return models.PerformanceEvidence{Raw: raw}
		}
		e.Raw = raw
		return e
	case models.PillarSecurity:
		var e models.SecurityEvidence
		if err := json.Unmarshal(raw, &e); err != nil {
			return models.SecurityEvidence{Raw: raw}
		}
		e.Raw = raw
		return e
	case models.PillarAgentReadiness:
		var e models.AgentReadinessEvidence
		if err := json.Unmarshal(raw, &e); err != nil {
			return models.AgentReadinessEvidence{Raw: raw}
		}
		e.Raw = raw
		return e
	}
	return nil
}

// disabled stands in for a pillar with no configured engine.
type disabled struct {
	pillar models.Pillar
}

func (d disabled) Pillar() models.Pillar { return d.pillar }

func (d disabled) Audit(ctx context.Context, pageURL string) (models.PillarResult, error) {
	return ErrorResult(), models.NewAuditError(models.ErrCodePageAudit,
		fmt.Sprintf("no %s auditor endpoint configured", d.pillar), nil)
}
