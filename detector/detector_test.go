package detector

import (
	"context"
	"strings"
	"testing"

	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/models"
)

func newTestDetector() *Detector {
	return New(config.DetectorConfig{DisableNetworkStage: true})
}

func TestDetectByDomain(t *testing.T) {
	d := newTestDetector()

	res := d.Detect(context.Background(), &PageInfo{
		URL:      "https://demo-hotel.cloudbeds.com/reservation",
		Homepage: "https://demo-hotel.com",
		HTML:     "<html><body>pick your dates</body></html>",
	})

	if res.Provider != "Cloudbeds" {
		t.Fatalf("provider = %q, want Cloudbeds", res.Provider)
	}
	if res.DetectionMethod != models.DetectByDomain {
		t.Errorf("method = %q, want domain", res.DetectionMethod)
	}
	if res.Confidence != models.ConfidenceHigh {
		t.Errorf("confidence = %q, want high", res.Confidence)
	}
}

func TestDetectOffSiteBookingSubdomain(t *testing.T) {
	d := newTestDetector()

	res := d.Detect(context.Background(), &PageInfo{
		URL:      "https://book.unknown-vendor.example/dates",
		Homepage: "https://seaside-inn.example",
		HTML:     "<html></html>",
	})

	if res.DetectionMethod != models.DetectByDomain {
		t.Fatalf("method = %q, want domain", res.DetectionMethod)
	}
	if res.Platform != "dedicated booking host" {
		t.Errorf("platform = %q", res.Platform)
	}
}

// A page whose host matches the vendor table AND whose footer brags about a
// different vendor must resolve through the domain stage.
func TestDomainStageWinsOverFooter(t *testing.T) {
	d := newTestDetector()

	res := d.Detect(context.Background(), &PageInfo{
		URL:      "https://shop.myshopify.com/cart",
		Homepage: "https://shop.example",
		HTML:     `<html><body><footer>Powered by Checkfront</footer></body></html>`,
	})

	if res.DetectionMethod != models.DetectByDomain {
		t.Fatalf("method = %q, want domain", res.DetectionMethod)
	}
	if res.Provider != "Shopify" {
		t.Errorf("provider = %q, want Shopify", res.Provider)
	}
}

func TestDetectByFooterBranding(t *testing.T) {
	d := newTestDetector()

	res := d.Detect(context.Background(), &PageInfo{
		URL:      "https://seaside-inn.example/book",
		Homepage: "https://seaside-inn.example",
		HTML:     `<html><body><footer><p>Booking engine by Checkfront. All rights reserved.</p></footer></body></html>`,
	})

	if res.DetectionMethod != models.DetectByFooter {
		t.Fatalf("method = %q, want footer", res.DetectionMethod)
	}
	if res.Provider != "Checkfront" {
		t.Errorf("provider = %q, want Checkfront", res.Provider)
	}
	if res.Confidence != models.ConfidenceHigh {
		t.Errorf("confidence = %q, want high", res.Confidence)
	}
}

func TestDetectByFooterVendorLink(t *testing.T) {
	d := newTestDetector()

	res := d.Detect(context.Background(), &PageInfo{
		URL:      "https://tours.example/booking",
		Homepage: "https://tours.example",
		HTML:     `<html><body><div class="site-footer"><a href="https://fareharbor.com/">Online booking</a></div></body></html>`,
	})

	if res.DetectionMethod != models.DetectByFooter {
		t.Fatalf("method = %q, want footer", res.DetectionMethod)
	}
	if res.Provider != "FareHarbor" {
		t.Errorf("provider = %q, want FareHarbor", res.Provider)
	}
}

func TestDetectByFingerprintVendor(t *testing.T) {
	d := newTestDetector()

	res := d.Detect(context.Background(), &PageInfo{
		URL:      "https://shop.example/products",
		Homepage: "https://shop.example",
		HTML:     `<html><head><script src="https://cdn.shopify.com/s/files/theme.js"></script></head><body></body></html>`,
	})

	if res.DetectionMethod != models.DetectByFingerprint {
		t.Fatalf("method = %q, want fingerprint", res.DetectionMethod)
	}
	if res.Provider != "Shopify" {
		t.Errorf("provider = %q, want Shopify", res.Provider)
	}
}

func TestDetectByFingerprintFramework(t *testing.T) {
	d := newTestDetector()

	res := d.Detect(context.Background(), &PageInfo{
		URL:      "https://blog.example/",
		Homepage: "https://blog.example",
		HTML:     `<html><body><link href="/wp-content/themes/x/style.css"></body></html>`,
	})

	if res.DetectionMethod != models.DetectByFingerprint {
		t.Fatalf("method = %q, want fingerprint", res.DetectionMethod)
	}
	if res.Platform != "WordPress" {
		t.Errorf("platform = %q, want WordPress", res.Platform)
	}
	if res.Confidence != models.ConfidenceMedium {
		t.Errorf("confidence = %q, want medium", res.Confidence)
	}
}

func TestFallbackCustomBuilt(t *testing.T) {
	d := newTestDetector()

	html := `<html><body>
		<h1>Book your stay</h1>
		<p>Select check-in and check-out dates, search availability,
		choose guests and pay securely. Payment handled on site.
		You will receive a confirmation email. Book now.</p>
	</body></html>`

	res := d.Detect(context.Background(), &PageInfo{
		URL:      "https://indie-hotel.example/reservations",
		Homepage: "https://indie-hotel.example",
		HTML:     html,
	})

	if res.DetectionMethod != models.DetectByFallback {
		t.Fatalf("method = %q, want fallback", res.DetectionMethod)
	}
	if res.Platform != "custom built" {
		t.Errorf("platform = %q, want custom built (features: %v)", res.Platform, res.Features)
	}
	if res.Confidence != models.ConfidenceMedium {
		t.Errorf("confidence = %q, want medium", res.Confidence)
	}
	if len(res.Features) <= 3 {
		t.Errorf("features = %v, want more than 3", res.Features)
	}
}

func TestFallbackLowConfidence(t *testing.T) {
	d := newTestDetector()

	res := d.Detect(context.Background(), &PageInfo{
		URL:      "https://plain.example/",
		Homepage: "https://plain.example",
		HTML:     `<html><body><p>Welcome to our site.</p></body></html>`,
	})

	if res.DetectionMethod != models.DetectByFallback {
		t.Fatalf("method = %q, want fallback", res.DetectionMethod)
	}
	if res.Platform == "custom built" {
		t.Error("bare page should not read as custom built")
	}
	if res.Confidence != models.ConfidenceLow {
		t.Errorf("confidence = %q, want low", res.Confidence)
	}
}

func TestFallbackThirdParties(t *testing.T) {
	d := newTestDetector()

	res := d.Detect(context.Background(), &PageInfo{
		URL:      "https://plain.example/",
		Homepage: "https://plain.example",
		HTML: `<html><head>
			<script src="https://js.stripe.com/v3/"></script>
			<script src="https://www.googletagmanager.com/gtm.js?id=GTM-X"></script>
		</head><body></body></html>`,
	})

	joined := strings.Join(res.ThirdParties, ",")
	if !strings.Contains(joined, "Stripe") {
		t.Errorf("third parties = %v, want Stripe", res.ThirdParties)
	}
	if !strings.Contains(joined, "Google Tag Manager") {
		t.Errorf("third parties = %v, want Google Tag Manager", res.ThirdParties)
	}
}

func TestAnalyzeFlags(t *testing.T) {
	d := newTestDetector()

	html := `<html><head>
		<script src="https://js.stripe.com/v3/"></script>
	</head><body>
		<a href="/cart" class="cart">Cart</a>
		<a href="/checkout">Checkout</a>
		<div class="product-grid"></div>
		<p>Free cancellation on all orders. Secure checkout.</p>
	</body></html>`

	a := d.Analyze(context.Background(), &PageInfo{
		URL:      "https://shop.example/cart",
		Homepage: "https://shop.example",
		HTML:     html,
	})

	if !a.HasShoppingCart || !a.HasCheckoutFlow || !a.HasPaymentOptions || !a.HasProductCatalog {
		t.Errorf("capability flags = cart:%v checkout:%v payment:%v catalog:%v",
			a.HasShoppingCart, a.HasCheckoutFlow, a.HasPaymentOptions, a.HasProductCatalog)
	}
	if !a.SecurePayment {
		t.Error("https page should have SecurePayment")
	}
	if a.BookingSystem == nil {
		t.Fatal("Analyze should always attach BookingSystem details")
	}
	if len(a.TrustSignals) < 2 {
		t.Errorf("trust signals = %v, want free cancellation and secure checkout", a.TrustSignals)
	}
}

func TestAnalyzeInsecureCommercePage(t *testing.T) {
	d := newTestDetector()

	a := d.Analyze(context.Background(), &PageInfo{
		URL:      "http://shop.example/checkout",
		Homepage: "http://shop.example",
		HTML:     `<html><body><a href="/checkout">Checkout</a></body></html>`,
	})

	if a.SecurePayment {
		t.Error("http page must not have SecurePayment")
	}
	if len(a.Issues) == 0 {
		t.Error("insecure commerce page should carry an issue")
	}
}
