package crawler

import (
	"net/url"
	"testing"

	"github.com/use-agent/sitegrade/models"
)

func TestClassify(t *testing.T) {
	start, _ := url.Parse("https://example.com/")

	tests := []struct {
		url      string
		wantType models.PageType
		wantPrio int
	}{
		{"https://example.com/", models.PageHomepage, priorityHomepage},
		{"https://example.com", models.PageHomepage, priorityHomepage},
		{"https://example.com/booking", models.PageBooking, priorityBooking},
		{"https://example.com/reserve/rooms", models.PageBooking, priorityBooking},
		{"https://book.example.com/stay", models.PageBooking, priorityBooking},
		{"https://example.com/checkout", models.PageCheckout, priorityCheckout},
		{"https://example.com/cart", models.PageCart, priorityCheckout},
		{"https://example.com/basket", models.PageCart, priorityCheckout},
		{"https://example.com/shop", models.PageProduct, priorityOfferings},
		{"https://example.com/tours", models.PageProduct, priorityOfferings},
		{"https://example.com/category/widgets/blue-widget-deluxe", models.PageProduct, priorityDetail},
		{"https://example.com/p/items/12345", models.PageProduct, priorityDetail},
		{"https://example.com/contact", models.PageContact, priorityContact},
		{"https://example.com/about-us", models.PageAbout, priorityAbout},
		{"https://example.com/blog", models.PageOther, priorityOther},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.url)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.url, err)
		}
		gotType, gotPrio := classify(start, u)
		if gotType != tt.wantType || gotPrio != tt.wantPrio {
			t.Errorf("classify(%q) = (%s, %d), want (%s, %d)",
				tt.url, gotType, gotPrio, tt.wantType, tt.wantPrio)
		}
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	start, _ := url.Parse("https://example.com/")

	// A URL matching both booking and checkout keywords must classify as
	// booking, the higher rule.
	u, _ := url.Parse("https://example.com/booking/checkout")
	gotType, _ := classify(start, u)
	if gotType != models.PageBooking {
		t.Errorf("booking/checkout classified as %s, want booking", gotType)
	}
}

func TestInScope(t *testing.T) {
	start, _ := url.Parse("https://www.example.com/")

	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.example.com/about", true},
		{"https://example.com/about", true},
		{"https://docs.example.com/guide", true},
		{"https://book.vendor-engine.com/example", true},
		{"https://shop.othersite.io/x", true},
		{"https://unrelated.com/page", false},
		{"https://www.facebook.com/example", false},
		{"https://twitter.com/example", false},
		{"ftp://example.com/file", false},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.url)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.url, err)
		}
		if got := inScope(start, u); got != tt.want {
			t.Errorf("inScope(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
