package crawler

import (
	"sort"

	"github.com/use-agent/sitegrade/models"
)

// selectPages deterministically fills the bounded output list:
// homepage first, then the best booking page, the best checkout/cart page,
// the best offerings page (plus one detail page if slots remain), and
// finally the remainder by descending priority. No URL appears twice; if
// fewer distinct pages exist than cap, the output is simply shorter.
func selectPages(pages []models.DiscoveredPage, cap int) []models.DiscoveredPage {
	selected := make([]models.DiscoveredPage, 0, cap)
	taken := make(map[string]struct{}, cap)

	take := func(p models.DiscoveredPage) bool {
		if len(selected) >= cap {
			return false
		}
		if _, dup := taken[p.URL]; dup {
			return false
		}
		taken[p.URL] = struct{}{}
		selected = append(selected, p)
		return true
	}

	// Stable priority order up front so every "best of type" pick below is
	// deterministic.
	ranked := make([]models.DiscoveredPage, len(pages))
	copy(ranked, pages)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Priority != ranked[j].Priority {
			return ranked[i].Priority > ranked[j].Priority
		}
		return ranked[i].URL < ranked[j].URL
	})

	bestOf := func(want func(models.DiscoveredPage) bool) (models.DiscoveredPage, bool) {
		for _, p := range ranked {
			if _, dup := taken[p.URL]; dup {
				continue
			}
			if want(p) {
				return p, true
			}
		}
		return models.DiscoveredPage{}, false
	}

	if p, ok := bestOf(func(p models.DiscoveredPage) bool { return p.PageType == models.PageHomepage }); ok {
		take(p)
	}
	if p, ok := bestOf(func(p models.DiscoveredPage) bool { return p.PageType == models.PageBooking }); ok {
		take(p)
	}
	if p, ok := bestOf(func(p models.DiscoveredPage) bool {
		return p.PageType == models.PageCheckout || p.PageType == models.PageCart
	}); ok {
		take(p)
	}
	if p, ok := bestOf(func(p models.DiscoveredPage) bool {
		return p.PageType == models.PageProduct && p.Priority == priorityOfferings
	}); ok {
		take(p)
	}
	// One detail page when a slot is still free.
	if p, ok := bestOf(func(p models.DiscoveredPage) bool {
		return p.PageType == models.PageProduct && p.Priority == priorityDetail
	}); ok {
		take(p)
	}

	// Remaining slots by descending priority.
	for _, p := range ranked {
		if len(selected) >= cap {
			break
		}
		take(p)
	}

	return selected
}
