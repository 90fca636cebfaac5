// Package scoring turns per-page audit results into the site-level score
// set, grade, summary, and commerce summary.
package scoring

import (
	"math"

	"github.com/use-agent/sitegrade/models"
)

// Page-type importance weights, applied site-level only. A homepage says
// more about a site than a contact form does.
var pageTypeWeights = map[models.PageType]float64{
	models.PageHomepage: 2.0,
	models.PageCheckout: 1.8,
	models.PageCart:     1.8,
	models.PageBooking:  1.7,
	models.PageProduct:  1.5,
	models.PageContact:  1.3,
	models.PageAbout:    1.0,
	models.PageOther:    1.0,
}

// Canonical site-level pillar weights. Sum to 1.0.
var pillarWeights = map[models.Pillar]float64{
	models.PillarAccessibility:  0.40,
	models.PillarSecurity:       0.20,
	models.PillarPerformance:    0.25,
	models.PillarAgentReadiness: 0.15,
}

// Per-page weights, used for each page's own overall score. Intentionally
// different from the site-level weights: a single page's security and
// performance matter more locally than in the aggregate.
var pageOverallWeights = map[models.Pillar]float64{
	models.PillarAccessibility:  0.30,
	models.PillarPerformance:    0.25,
	models.PillarSecurity:       0.25,
	models.PillarAgentReadiness: 0.20,
}

// PageTypeWeight returns the site-level importance weight for a page type.
func PageTypeWeight(t models.PageType) float64 {
	if w, ok := pageTypeWeights[t]; ok {
		return w
	}
	return pageTypeWeights[models.PageOther]
}

// PageOverallScore computes one page's own weighted score across the four
// pillars. Errored pillars contribute zero.
func PageOverallScore(p *models.PageAuditResult) int {
	var sum float64
	for pillar, w := range pageOverallWeights {
		res := p.PillarOf(pillar)
		if res.Usable() {
			sum += float64(res.Score) * w
		}
	}
	return models.ClampScore(int(math.Round(sum)))
}

// Aggregate computes the site-level score set, summary, and (when any
// commerce signal exists) the commerce summary from all page results.
func Aggregate(results []models.PageAuditResult) (models.AggregateScoreSet, models.SiteWideSummary, *models.EcommerceSummary) {
	scores := models.AggregateScoreSet{
		Accessibility:  pillarAggregate(results, models.PillarAccessibility),
		Performance:    pillarAggregate(results, models.PillarPerformance),
		Security:       pillarAggregate(results, models.PillarSecurity),
		AgentReadiness: pillarAggregate(results, models.PillarAgentReadiness),
	}
	scores.Overall = overallScore(scores)

	return scores, siteWideSummary(results, scores), ecommerceSummary(results)
}

// pillarAggregate is the page-type-weighted mean of one pillar over every
// page with a usable result. No usable result anywhere means 0.
func pillarAggregate(results []models.PageAuditResult, pillar models.Pillar) int {
	var weightedSum, weightSum float64
	for i := range results {
		res := results[i].PillarOf(pillar)
		if !res.Usable() {
			continue
		}
		w := PageTypeWeight(results[i].PageType)
		weightedSum += float64(res.Score) * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return models.ClampScore(int(math.Round(weightedSum / weightSum)))
}

func overallScore(s models.AggregateScoreSet) int {
	sum := float64(s.Accessibility)*pillarWeights[models.PillarAccessibility] +
		float64(s.Security)*pillarWeights[models.PillarSecurity] +
		float64(s.Performance)*pillarWeights[models.PillarPerformance] +
		float64(s.AgentReadiness)*pillarWeights[models.PillarAgentReadiness]
	return models.ClampScore(int(math.Round(sum)))
}
