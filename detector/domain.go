package detector

import (
	"context"
	"strings"

	"github.com/use-agent/sitegrade/models"
)

// platformDomains maps known vendor domains to (provider, platform class).
// Suffix-matched so api.cloudbeds.com and www.cloudbeds.com both hit.
var platformDomains = map[string][2]string{
	// Hospitality / booking engines.
	"cloudbeds.com":        {"Cloudbeds", "booking engine"},
	"siteminder.com":       {"SiteMinder", "booking engine"},
	"littlehotelier.com":   {"Little Hotelier", "booking engine"},
	"mews.com":             {"Mews", "booking engine"},
	"checkfront.com":       {"Checkfront", "booking engine"},
	"fareharbor.com":       {"FareHarbor", "tour booking"},
	"peek.com":             {"Peek", "tour booking"},
	"rezdy.com":            {"Rezdy", "tour booking"},
	"bokun.io":             {"Bókun", "tour booking"},
	"opentable.com":        {"OpenTable", "restaurant booking"},
	"sevenrooms.com":       {"SevenRooms", "restaurant booking"},
	"resdiary.com":         {"ResDiary", "restaurant booking"},
	"calendly.com":         {"Calendly", "appointment scheduling"},
	"acuityscheduling.com": {"Acuity Scheduling", "appointment scheduling"},
	"simplybook.me":        {"SimplyBook.me", "appointment scheduling"},
	"lodgify.com":          {"Lodgify", "vacation rental"},
	"guesty.com":           {"Guesty", "vacation rental"},
	"hostaway.com":         {"Hostaway", "vacation rental"},

	// E-commerce platforms.
	"myshopify.com":   {"Shopify", "e-commerce platform"},
	"shopify.com":     {"Shopify", "e-commerce platform"},
	"bigcommerce.com": {"BigCommerce", "e-commerce platform"},
	"squarespace.com": {"Squarespace", "website builder"},
	"square.site":     {"Square Online", "e-commerce platform"},
	"wixsite.com":     {"Wix", "website builder"},
	"ecwid.com":       {"Ecwid", "e-commerce platform"},
	"webflow.io":      {"Webflow", "website builder"},
}

// bookingSubdomainLabels are naming conventions that mark a dedicated
// commerce host even when the vendor is unknown.
var bookingSubdomainLabels = map[string]struct{}{
	"book": {}, "booking": {}, "reserve": {}, "reservations": {},
	"shop": {}, "store": {}, "checkout": {},
}

// domainStage matches the page's hostname against the vendor domain table,
// or against subdomain conventions when the page is hosted off the audited
// site. Cheapest stage, highest confidence.
type domainStage struct{}

func (domainStage) method() models.DetectionMethod { return models.DetectByDomain }

func (domainStage) detect(ctx context.Context, page *PageInfo) (*models.BookingSystemDetails, bool) {
	host := page.Host()
	if host == "" {
		return nil, false
	}

	if provider, platform, ok := matchPlatformDomain(host); ok {
		return &models.BookingSystemDetails{
			Provider:   provider,
			Platform:   platform,
			Confidence: models.ConfidenceHigh,
		}, true
	}

	// Off-site host following a booking/shop naming convention.
	if host != page.HomeHost() {
		label, _, found := strings.Cut(host, ".")
		if found {
			if _, ok := bookingSubdomainLabels[label]; ok {
				return &models.BookingSystemDetails{
					Platform:   "dedicated booking host",
					Confidence: models.ConfidenceHigh,
				}, true
			}
		}
	}
	return nil, false
}

// matchPlatformDomain suffix-matches a host against the vendor table.
func matchPlatformDomain(host string) (provider, platform string, ok bool) {
	for domain, info := range platformDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return info[0], info[1], true
		}
	}
	return "", "", false
}
