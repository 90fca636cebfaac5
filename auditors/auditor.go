// Package auditors is the boundary to the external audit rule engines. The
// scoring rubrics themselves (axe/Lighthouse-class rule sets) live in other
// services; this package only calls them and normalizes their results.
package auditors

import (
	"context"

	"github.com/use-agent/sitegrade/models"
)

// Auditor scores one pillar for one URL. Implementations must return a
// normalized result with Score in [0,100] and must signal failure through
// the error return or the Error flag rather than hanging past their own
// timeout.
type Auditor interface {
	Pillar() models.Pillar
	Audit(ctx context.Context, pageURL string) (models.PillarResult, error)
}

// ErrorResult is the canonical result for a pillar that could not be
// audited. The pipeline records it and moves on.
func ErrorResult() models.PillarResult {
	return models.PillarResult{Score: 0, Error: true}
}
