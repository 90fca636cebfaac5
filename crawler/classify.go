package crawler

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/use-agent/sitegrade/models"
)

// Priority weights assigned by the classification rules, highest first.
// Selection and tie-breaking both depend on these being distinct.
const (
	priorityHomepage  = 10
	priorityBooking   = 9
	priorityCheckout  = 8
	priorityOfferings = 7
	priorityDetail    = 5
	priorityContact   = 3
	priorityAbout     = 2
	priorityOther     = 1
)

var (
	bookingKeywords  = []string{"book", "booking", "reserve", "reservation", "reservations", "appointment", "availability", "schedule"}
	checkoutKeywords = []string{"checkout", "payment", "pay", "order"}
	cartKeywords     = []string{"cart", "basket", "bag"}
	offeringKeywords = []string{"rooms", "room", "tours", "tour", "services", "service", "shop", "store", "products", "product", "catalog", "collections", "menu", "pricing", "offerings", "packages"}
	contactKeywords  = []string{"contact", "contacts", "contact-us", "support"}
	aboutKeywords    = []string{"about", "about-us", "team", "story", "trust", "reviews", "testimonials"}
)

var numericIDRe = regexp.MustCompile(`/\d{2,}(/|$)`)

// classify assigns a (pageType, priority) to a URL via ordered rules, first
// match wins. The ordering mirrors how much a page type matters to a site
// audit: transactional pages beat informational ones.
func classify(start, u *url.URL) (models.PageType, int) {
	segments := pathSegments(u)

	switch {
	case isRoot(u):
		return models.PageHomepage, priorityHomepage
	case matchesAny(segments, bookingKeywords) || hostHasPrefix(u, "book", "booking", "reserve"):
		return models.PageBooking, priorityBooking
	case matchesAny(segments, checkoutKeywords):
		return models.PageCheckout, priorityCheckout
	case matchesAny(segments, cartKeywords):
		return models.PageCart, priorityCheckout
	case matchesAny(segments, offeringKeywords) || hostHasPrefix(u, "shop", "store"):
		return models.PageProduct, priorityOfferings
	case isDetailPage(u, segments):
		return models.PageProduct, priorityDetail
	case matchesAny(segments, contactKeywords):
		return models.PageContact, priorityContact
	case matchesAny(segments, aboutKeywords):
		return models.PageAbout, priorityAbout
	default:
		return models.PageOther, priorityOther
	}
}

// isDetailPage flags product/offering detail pages: deep paths with a
// hyphenated slug or a numeric id.
func isDetailPage(u *url.URL, segments []string) bool {
	if len(segments) < 3 {
		return false
	}
	last := segments[len(segments)-1]
	if strings.Contains(last, "-") {
		return true
	}
	return numericIDRe.MatchString(u.Path)
}

func isRoot(u *url.URL) bool {
	return u.Path == "" || u.Path == "/"
}

func pathSegments(u *url.URL) []string {
	raw := strings.Split(strings.Trim(strings.ToLower(u.Path), "/"), "/")
	out := raw[:0]
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func matchesAny(segments, keywords []string) bool {
	for _, seg := range segments {
		for _, kw := range keywords {
			if seg == kw {
				return true
			}
		}
	}
	return false
}

func hostHasPrefix(u *url.URL, prefixes ...string) bool {
	host := strings.ToLower(u.Hostname())
	label, _, found := strings.Cut(host, ".")
	if !found {
		return false
	}
	for _, p := range prefixes {
		if label == p {
			return true
		}
	}
	return false
}
