package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/use-agent/sitegrade/models"
)

const (
	strengthThreshold      = 90
	agentStrengthThreshold = 85
	commonProblemShare     = 0.5
)

// noHTTPSIssueID is synthesized so a missing-HTTPS finding participates in
// the common-problems tally like any auditor issue would.
const noHTTPSIssueID = "no-https"

func siteWideSummary(results []models.PageAuditResult, scores models.AggregateScoreSet) models.SiteWideSummary {
	summary := models.SiteWideSummary{}

	// issueID -> count of pages it appeared on.
	pagesWith := map[string]int{}

	for i := range results {
		page := &results[i]
		issues := page.Issues()
		summary.TotalIssues += len(issues)

		seen := map[string]bool{}
		for _, issue := range issues {
			if issue.Severity == "critical" {
				summary.CriticalIssues++
			}
			if issue.ID != "" && !seen[issue.ID] {
				pagesWith[issue.ID]++
				seen[issue.ID] = true
			}
		}

		if sec, ok := page.Security.Evidence.(models.SecurityEvidence); ok && !sec.HTTPS && !seen[noHTTPSIssueID] {
			pagesWith[noHTTPSIssueID]++
		}
	}

	if n := len(results); n > 0 {
		for id, count := range pagesWith {
			if float64(count)/float64(n) >= commonProblemShare {
				summary.CommonProblems = append(summary.CommonProblems, id)
			}
		}
		sort.Strings(summary.CommonProblems)
	}

	if scores.Accessibility >= strengthThreshold {
		summary.Strengths = append(summary.Strengths, "accessibility")
	}
	if scores.Performance >= strengthThreshold {
		summary.Strengths = append(summary.Strengths, "performance")
	}
	if scores.Security >= strengthThreshold {
		summary.Strengths = append(summary.Strengths, "security")
	}
	if scores.AgentReadiness >= agentStrengthThreshold {
		summary.Strengths = append(summary.Strengths, "agent readiness")
	}

	return summary
}

// ecommerceSummary returns nil when the site shows no commerce or booking
// signal at all.
func ecommerceSummary(results []models.PageAuditResult) *models.EcommerceSummary {
	var (
		hasCart, hasCheckout, hasCatalog, hasBooking bool
		anySignal                                    bool
		secSum, secCount                             int
	)

	for i := range results {
		page := &results[i]

		if page.PageType.CommerceTyped() {
			anySignal = true
			if page.Security.Usable() {
				secSum += page.Security.Score
				secCount++
			}
		}
		switch page.PageType {
		case models.PageCart:
			hasCart = true
		case models.PageCheckout:
			hasCheckout = true
		case models.PageProduct:
			hasCatalog = true
		case models.PageBooking:
			hasBooking = true
		}

		if a := page.Ecommerce; a != nil {
			if a.HasShoppingCart {
				hasCart = true
			}
			if a.HasCheckoutFlow {
				hasCheckout = true
			}
			if a.HasProductCatalog {
				hasCatalog = true
			}
			if a.HasBookingSystem {
				hasBooking = true
			}
			if a.HasShoppingCart || a.HasCheckoutFlow || a.HasProductCatalog ||
				a.HasBookingSystem || a.HasPaymentOptions {
				anySignal = true
			}
		}
	}
	if !anySignal {
		return nil
	}

	summary := &models.EcommerceSummary{
		HasEcommerce: hasCart || hasCheckout || hasCatalog,
		HasBooking:   hasBooking,
	}

	// Four 25-point functionality indicators.
	for _, present := range []bool{hasCart, hasCheckout, hasCatalog, hasBooking} {
		if present {
			summary.FunctionalityScore += 25
		}
	}

	if secCount > 0 {
		summary.SecurityScore = models.ClampScore(int(math.Round(float64(secSum) / float64(secCount))))
	}

	for i := range results {
		page := &results[i]
		if page.PageType != models.PageCheckout && page.PageType != models.PageCart {
			continue
		}
		if sec, ok := page.Security.Evidence.(models.SecurityEvidence); ok && !sec.HTTPS {
			summary.CriticalIssues = append(summary.CriticalIssues,
				fmt.Sprintf("%s page served without HTTPS: %s", page.PageType, page.URL))
		}
		if page.Accessibility.Usable() && page.Accessibility.Score < 70 {
			summary.CriticalIssues = append(summary.CriticalIssues,
				fmt.Sprintf("%s page has low accessibility (%d): %s", page.PageType, page.Accessibility.Score, page.URL))
		}
	}

	if summary.HasEcommerce && !hasCart {
		summary.Recommendations = append(summary.Recommendations,
			"Add a dedicated cart page so shoppers can review orders before checkout.")
	}
	if summary.HasEcommerce && !hasCheckout {
		summary.Recommendations = append(summary.Recommendations,
			"Expose a clear checkout flow reachable from product pages.")
	}
	if hasBooking && summary.SecurityScore > 0 && summary.SecurityScore < 70 {
		summary.Recommendations = append(summary.Recommendations,
			"Harden the booking pages: visitors share personal details there.")
	}
	if len(summary.CriticalIssues) > 0 {
		summary.Recommendations = append(summary.Recommendations,
			"Resolve the critical commerce issues before driving more traffic to these pages.")
	}

	return summary
}
