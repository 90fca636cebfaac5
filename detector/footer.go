package detector

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/sitegrade/models"
)

// brandingRe matches "powered by X" / "booking engine by X" credit lines
// that vendors plant in footers.
var brandingRe = regexp.MustCompile(`(?i)(?:powered by|booking engine by|bookings by|reservations by|built on)\s+([A-Za-z][A-Za-z0-9 .&'-]{1,40})`)

// footerStage scans the footer for vendor branding text and known outbound
// vendor links. Still cheap (no extra navigation), high confidence: vendors
// put their own name there.
type footerStage struct{}

func (footerStage) method() models.DetectionMethod { return models.DetectByFooter }

func (footerStage) detect(ctx context.Context, page *PageInfo) (*models.BookingSystemDetails, bool) {
	doc := page.Doc()

	footer := doc.Find("footer")
	if footer.Length() == 0 {
		footer = doc.Find(`[class*="footer"], [id*="footer"]`)
	}
	if footer.Length() == 0 {
		return nil, false
	}

	// Branding credit line.
	if m := brandingRe.FindStringSubmatch(footer.Text()); m != nil {
		return &models.BookingSystemDetails{
			Provider:   cleanBranding(m[1]),
			Confidence: models.ConfidenceHigh,
		}, true
	}

	// Known vendor outbound link.
	var found *models.BookingSystemDetails
	footer.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		u, err := url.Parse(href)
		if err != nil || u.Hostname() == "" {
			return true
		}
		if provider, platform, ok := matchPlatformDomain(strings.ToLower(u.Hostname())); ok {
			found = &models.BookingSystemDetails{
				Provider:   provider,
				Platform:   platform,
				Confidence: models.ConfidenceHigh,
			}
			return false
		}
		return true
	})
	if found != nil {
		return found, true
	}
	return nil, false
}

// cleanBranding trims trailing boilerplate that the loose regex can drag in.
func cleanBranding(s string) string {
	s = strings.TrimSpace(s)
	for _, stop := range []string{" all rights", " copyright", " terms", " privacy", "."} {
		if idx := strings.Index(strings.ToLower(s), stop); idx > 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
