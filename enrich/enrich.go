// Package enrich produces the human-readable report layer: a summary, top
// fixes, and recommendations. The primary path calls an OpenAI-compatible
// service; a deterministic fallback derived from scores alone guarantees the
// same output shape when the service is unavailable.
package enrich

import (
	"context"
	"log/slog"

	"github.com/use-agent/sitegrade/models"
)

// Input is everything the enricher may draw on. Digest is an optional
// markdown excerpt of the homepage content.
type Input struct {
	TargetURL string
	Scores    models.AggregateScoreSet
	Grade     models.Grade
	Summary   models.SiteWideSummary
	Ecommerce *models.EcommerceSummary
	Digest    string
}

// Enricher turns audit output into prose.
type Enricher interface {
	Summarize(ctx context.Context, in Input) (models.Enriched, error)
}

// EnricherFunc adapts a function to the Enricher interface.
type EnricherFunc func(ctx context.Context, in Input) (models.Enriched, error)

func (f EnricherFunc) Summarize(ctx context.Context, in Input) (models.Enriched, error) {
	return f(ctx, in)
}

// WithFallback wraps an enricher so any error yields the deterministic
// fallback summary instead. The result then carries Fallback=true and the
// wrapped enricher never fails.
func WithFallback(e Enricher) Enricher {
	return EnricherFunc(func(ctx context.Context, in Input) (models.Enriched, error) {
		if e != nil {
			out, err := e.Summarize(ctx, in)
			if err == nil {
				return out, nil
			}
			slog.Warn("enrich: falling back to deterministic summary",
				"target", in.TargetURL, "error", err)
		}
		return Fallback(in), nil
	})
}
