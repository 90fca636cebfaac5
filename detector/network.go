package detector

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/sitegrade/models"
)

// triggerSelectors are elements likely to kick off a booking or checkout
// widget when clicked. The first one present gets a click; the rest of the
// capture window just watches ambient requests.
var triggerSelectors = []string{
	`[class*="book-now"]`,
	`[class*="booking"] button`,
	`[data-testid*="booking"]`,
	`button[class*="reserve"]`,
	`a[href*="book"]`,
	`[class*="date-picker"]`,
	`input[type="date"]`,
	`[class*="add-to-cart"]`,
	`button[class*="checkout"]`,
}

// networkStage drives the live page: it pokes a likely booking trigger and
// watches outgoing requests for a capture window, matching third-party hosts
// against the vendor domain table. Runs last before fallback since it costs
// real wall time.
type networkStage struct {
	window time.Duration
}

func (networkStage) method() models.DetectionMethod { return models.DetectByNetwork }

func (s networkStage) detect(ctx context.Context, page *PageInfo) (*models.BookingSystemDetails, bool) {
	if page.Page == nil {
		return nil, false
	}

	hosts := page.Page.CaptureRequests(ctx, s.window, func(p *rod.Page) {
		for _, sel := range triggerSelectors {
			el, err := p.Timeout(500 * time.Millisecond).Element(sel)
			if err != nil || el == nil {
				continue
			}
			_ = el.Click(proto.InputMouseButtonLeft, 1)
			return
		}
	})

	for _, host := range hosts {
		if provider, platform, ok := matchPlatformDomain(host); ok {
			return &models.BookingSystemDetails{
				Provider:   provider,
				Platform:   platform,
				Confidence: models.ConfidenceHigh,
			}, true
		}
	}
	return nil, false
}
