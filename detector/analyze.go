package detector

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/sitegrade/models"
)

var paymentNeedles = []string{
	"js.stripe.com", "paypal", "braintree", "adyen", "klarna", "afterpay",
	"apple pay", "google pay", "square", "payment method",
}

var trustNeedles = []struct {
	needle string
	signal string
}{
	{"money-back", "money-back guarantee"},
	{"money back guarantee", "money-back guarantee"},
	{"free cancellation", "free cancellation"},
	{"secure checkout", "secure checkout badge"},
	{"ssl secured", "SSL badge"},
	{"trustpilot", "Trustpilot reviews"},
	{"verified reviews", "verified reviews"},
	{"best price guarantee", "best price guarantee"},
	{"norton secured", "Norton seal"},
	{"mcafee secure", "McAfee seal"},
}

// Analyze builds the full commerce analysis for a commerce-typed page:
// capability flags from markup and text probes, trust signals, secure-payment
// check, and the waterfall's platform identification.
func (d *Detector) Analyze(ctx context.Context, page *PageInfo) *models.EcommerceAnalysis {
	details := d.Detect(ctx, page)

	doc := page.Doc()
	text := strings.ToLower(doc.Text())
	html := strings.ToLower(page.HTML)

	analysis := &models.EcommerceAnalysis{
		HasShoppingCart:   hasSelectorOrText(doc, text, `[class*="cart"], [id*="cart"], a[href*="cart"]`, "add to cart"),
		HasCheckoutFlow:   hasSelectorOrText(doc, text, `a[href*="checkout"], form[action*="checkout"], button[class*="checkout"]`, "checkout"),
		HasPaymentOptions: containsAny(html, paymentNeedles),
		HasProductCatalog: hasSelectorOrText(doc, text, `[class*="product-grid"], [class*="product-list"], [itemtype*="schema.org/Product"]`, ""),
		HasBookingSystem:  details.Provider != "" || containsAny(text, []string{"book now", "check availability", "make a reservation"}),
		SecurePayment:     strings.HasPrefix(strings.ToLower(page.URL), "https://"),
		BookingSystem:     &details,
	}

	for _, tn := range trustNeedles {
		if strings.Contains(text, tn.needle) && !contains(analysis.TrustSignals, tn.signal) {
			analysis.TrustSignals = append(analysis.TrustSignals, tn.signal)
		}
	}

	if !analysis.SecurePayment {
		analysis.Issues = append(analysis.Issues, "commerce page served without HTTPS")
	}
	if analysis.HasCheckoutFlow && !analysis.HasPaymentOptions {
		analysis.Issues = append(analysis.Issues, "checkout present but no recognizable payment provider")
	}
	if analysis.HasBookingSystem && details.Provider == "" && details.Platform == "" {
		analysis.Issues = append(analysis.Issues, "booking features present but no identifiable booking platform")
	}

	return analysis
}

func hasSelectorOrText(doc *goquery.Document, text, selector, needle string) bool {
	if doc.Find(selector).Length() > 0 {
		return true
	}
	return needle != "" && strings.Contains(text, needle)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
