package detector

import (
	"context"
	"strings"

	"github.com/use-agent/sitegrade/models"
)

// vendorSignature is a substring probe against the raw HTML. Script URLs and
// vendor-specific markup survive minification, so plain substring matching is
// reliable and avoids a parse pass.
type vendorSignature struct {
	needle   string
	provider string
	platform string
}

var vendorSignatures = []vendorSignature{
	{"cdn.shopify.com", "Shopify", "Shopify"},
	{"shopify.theme", "Shopify", "Shopify"},
	{"woocommerce", "WooCommerce", "WordPress"},
	{"wc-ajax", "WooCommerce", "WordPress"},
	{"cdn11.bigcommerce.com", "BigCommerce", "BigCommerce"},
	{"bigcommerce.com/stencil", "BigCommerce", "BigCommerce"},
	{"static.squarespace_context", "Squarespace", "Squarespace"},
	{"static1.squarespace.com", "Squarespace", "Squarespace"},
	{"static.parastorage.com", "Wix", "Wix"},
	{"wix-code", "Wix", "Wix"},
	{"mage/cookies", "Magento", "Magento"},
	{"magento_ui", "Magento", "Magento"},
	{"prestashop", "PrestaShop", "PrestaShop"},
	{"fareharbor.com/embeds", "FareHarbor", "FareHarbor"},
	{"cdn.checkfront.com", "Checkfront", "Checkfront"},
	{"widgets.mews.com", "Mews", "Mews"},
	{"static.rezdy.com", "Rezdy", "Rezdy"},
	{"otstatic.com", "OpenTable", "OpenTable"},
	{"opentable.com/widget", "OpenTable", "OpenTable"},
	{"sevenrooms.com/widget", "SevenRooms", "SevenRooms"},
	{"assets.calendly.com", "Calendly", "Calendly"},
	{"embed.acuityscheduling.com", "Acuity Scheduling", "Acuity Scheduling"},
	{"simplybook.me/v2/widget", "SimplyBook.me", "SimplyBook.me"},
	{"app.ecwid.com", "Ecwid", "Ecwid"},
	{"snipcart.js", "Snipcart", "Snipcart"},
}

// frameworkSignature identifies the underlying site framework when no vendor
// matched. Medium confidence: it narrows the platform but names no provider.
type frameworkSignature struct {
	needle   string
	platform string
}

var frameworkSignatures = []frameworkSignature{
	{"wp-content", "WordPress"},
	{"wp-includes", "WordPress"},
	{"__viewstate", "server-rendered (ASP.NET)"},
	{"csrfmiddlewaretoken", "server-rendered (Django)"},
	{`id="__next"`, "single-page app"},
	{"data-reactroot", "single-page app"},
	{`id="root"`, "single-page app"},
	{"drupal-settings-json", "Drupal"},
	{"joomla", "Joomla"},
}

// fingerprintStage probes the page HTML for vendor asset URLs and markup
// signatures, then falls back to framework identification.
type fingerprintStage struct{}

func (fingerprintStage) method() models.DetectionMethod { return models.DetectByFingerprint }

func (fingerprintStage) detect(ctx context.Context, page *PageInfo) (*models.BookingSystemDetails, bool) {
	html := strings.ToLower(page.HTML)

	for _, sig := range vendorSignatures {
		if strings.Contains(html, sig.needle) {
			return &models.BookingSystemDetails{
				Provider:   sig.provider,
				Platform:   sig.platform,
				Confidence: models.ConfidenceHigh,
			}, true
		}
	}

	for _, sig := range frameworkSignatures {
		if strings.Contains(html, sig.needle) {
			return &models.BookingSystemDetails{
				Platform:   sig.platform,
				Confidence: models.ConfidenceMedium,
			}, true
		}
	}
	return nil, false
}
