package detector

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/sitegrade/models"
)

// featureKeyword maps page text probes to named booking or commerce features.
// Order fixes the feature list order in the result.
var featureKeywords = []struct {
	needle  string
	feature string
}{
	{"check-in", "check-in selection"},
	{"check in", "check-in selection"},
	{"check-out", "check-out selection"},
	{"check out", "check-out selection"},
	{"availability", "availability search"},
	{"calendar", "calendar"},
	{"guests", "guest count"},
	{"book now", "direct booking"},
	{"reserve", "reservations"},
	{"add to cart", "cart"},
	{"checkout", "checkout"},
	{"payment", "online payment"},
	{"confirmation", "booking confirmation"},
	{"cancellation", "cancellation policy"},
}

// thirdPartyServices maps well-known script hosts to service labels for the
// ThirdParties list. These are supporting services, not booking vendors.
var thirdPartyServices = map[string]string{
	"googletagmanager.com":  "Google Tag Manager",
	"google-analytics.com":  "Google Analytics",
	"js.stripe.com":         "Stripe",
	"paypal.com":            "PayPal",
	"paypalobjects.com":     "PayPal",
	"static.klaviyo.com":    "Klaviyo",
	"widget.trustpilot.com": "Trustpilot",
	"yotpo.com":             "Yotpo",
	"judge.me":              "Judge.me",
	"intercom.io":           "Intercom",
	"widget.intercom.io":    "Intercom",
	"crisp.chat":            "Crisp",
	"tawk.to":               "Tawk.to",
	"zdassets.com":          "Zendesk",
	"hotjar.com":            "Hotjar",
	"facebook.net":          "Meta Pixel",
}

// fallbackStage never says no: when every vendor stage misses it still
// describes what the page does. Enough distinct commerce features with no
// vendor match reads as a custom build at medium confidence; anything thinner
// is a low-confidence shrug.
type fallbackStage struct{}

func (fallbackStage) method() models.DetectionMethod { return models.DetectByFallback }

func (fallbackStage) detect(ctx context.Context, page *PageInfo) (*models.BookingSystemDetails, bool) {
	features := detectFeatures(page)
	third := detectThirdParties(page)

	det := &models.BookingSystemDetails{
		Features:     features,
		ThirdParties: third,
		Confidence:   models.ConfidenceLow,
	}
	if len(features) > 3 {
		det.Platform = "custom built"
		det.Confidence = models.ConfidenceMedium
	}
	return det, true
}

func detectFeatures(page *PageInfo) []string {
	text := strings.ToLower(page.Doc().Text())
	var features []string
	seen := map[string]bool{}
	for _, kw := range featureKeywords {
		if seen[kw.feature] {
			continue
		}
		if strings.Contains(text, kw.needle) {
			features = append(features, kw.feature)
			seen[kw.feature] = true
		}
	}
	return features
}

func detectThirdParties(page *PageInfo) []string {
	var services []string
	seen := map[string]bool{}
	page.Doc().Find("script[src], iframe[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		u, err := url.Parse(src)
		if err != nil || u.Hostname() == "" {
			return
		}
		host := strings.ToLower(u.Hostname())
		for suffix, name := range thirdPartyServices {
			if (host == suffix || strings.HasSuffix(host, "."+suffix)) && !seen[name] {
				services = append(services, name)
				seen[name] = true
			}
		}
	})
	return services
}
