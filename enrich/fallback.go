package enrich

import (
	"fmt"
	"sort"

	"github.com/use-agent/sitegrade/models"
)

// pillarRemediation is the generic fix text used when a pillar drags the
// score down. Keyed advice, not page-specific.
var pillarRemediation = map[models.Pillar]string{
	models.PillarAccessibility:  "Fix the reported accessibility violations, starting with missing alt text, form labels, and color contrast.",
	models.PillarPerformance:    "Reduce page weight and defer non-critical scripts to improve load times.",
	models.PillarSecurity:       "Serve every page over HTTPS and add the standard security headers (HSTS, CSP, X-Content-Type-Options).",
	models.PillarAgentReadiness: "Add structured data (schema.org) and descriptive titles so AI agents and search engines can interpret the site.",
}

// Fallback derives the enriched layer deterministically from scores alone.
// Identical input always produces identical output.
func Fallback(in Input) models.Enriched {
	s := in.Scores

	pillars := []struct {
		pillar models.Pillar
		label  string
		score  int
	}{
		{models.PillarAccessibility, "accessibility", s.Accessibility},
		{models.PillarPerformance, "performance", s.Performance},
		{models.PillarSecurity, "security", s.Security},
		{models.PillarAgentReadiness, "agent readiness", s.AgentReadiness},
	}
	// Weakest first; ties broken by the fixed order above.
	sort.SliceStable(pillars, func(i, j int) bool { return pillars[i].score < pillars[j].score })

	out := models.Enriched{
		Summary: fmt.Sprintf(
			"%s scored %d/100 (%s). Accessibility %d, performance %d, security %d, agent readiness %d across the audited pages.",
			in.TargetURL, s.Overall, in.Grade.Letter,
			s.Accessibility, s.Performance, s.Security, s.AgentReadiness),
		GradeExplanation: in.Grade.Explanation,
		Fallback:         true,
	}

	for _, p := range pillars {
		if p.score >= 90 {
			continue
		}
		out.TopFixes = append(out.TopFixes, pillarRemediation[p.pillar])
		if len(out.TopFixes) == 3 {
			break
		}
	}

	for _, problem := range in.Summary.CommonProblems {
		out.Recommendations = append(out.Recommendations,
			fmt.Sprintf("Address the recurring issue %q, present on at least half of the scanned pages.", problem))
	}
	if in.Ecommerce != nil {
		out.Recommendations = append(out.Recommendations, in.Ecommerce.Recommendations...)
	}
	if len(out.Recommendations) == 0 {
		out.Recommendations = append(out.Recommendations,
			"Keep monitoring the site: no recurring site-wide problems were found.")
	}

	return out
}
