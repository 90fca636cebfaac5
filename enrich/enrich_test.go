package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/models"
)

func sampleInput() Input {
	return Input{
		TargetURL: "https://example.com",
		Scores: models.AggregateScoreSet{
			Accessibility: 81, Performance: 72, Security: 64, AgentReadiness: 88, Overall: 76,
		},
		Grade: models.Grade{Letter: "B+", Explanation: "Good. Solid fundamentals with several clear areas to tighten up."},
		Summary: models.SiteWideSummary{
			TotalIssues:    12,
			CommonProblems: []string{"img-alt"},
		},
	}
}

func TestFallbackIsDeterministic(t *testing.T) {
	in := sampleInput()
	a := Fallback(in)
	b := Fallback(in)

	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical input produced different fallbacks:\n%+v\n%+v", a, b)
	}
	if !a.Fallback {
		t.Error("fallback output must be flagged")
	}
	if a.GradeExplanation != in.Grade.Explanation {
		t.Errorf("gradeExplanation = %q", a.GradeExplanation)
	}
}

func TestFallbackOrdersFixesByWeakestPillar(t *testing.T) {
	out := Fallback(sampleInput())

	if len(out.TopFixes) == 0 {
		t.Fatal("expected top fixes for sub-90 pillars")
	}
	// Security (64) is the weakest pillar in the sample.
	if !strings.Contains(out.TopFixes[0], "HTTPS") {
		t.Errorf("first fix = %q, want the security remediation", out.TopFixes[0])
	}
	if len(out.TopFixes) > 3 {
		t.Errorf("top fixes = %d, want at most 3", len(out.TopFixes))
	}
}

func TestFallbackCarriesCommonProblems(t *testing.T) {
	out := Fallback(sampleInput())

	found := false
	for _, r := range out.Recommendations {
		if strings.Contains(r, "img-alt") {
			found = true
		}
	}
	if !found {
		t.Errorf("recommendations = %v, want the img-alt recurring issue", out.Recommendations)
	}
}

func TestWithFallbackOnError(t *testing.T) {
	failing := EnricherFunc(func(ctx context.Context, in Input) (models.Enriched, error) {
		return models.Enriched{}, errors.New("quota exceeded")
	})

	out, err := WithFallback(failing).Summarize(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("WithFallback must not fail: %v", err)
	}
	if !out.Fallback {
		t.Error("error path should be flagged as fallback")
	}
}

func TestWithFallbackPassesThroughSuccess(t *testing.T) {
	ok := EnricherFunc(func(ctx context.Context, in Input) (models.Enriched, error) {
		return models.Enriched{Summary: "ai summary", GradeExplanation: "g"}, nil
	})

	out, err := WithFallback(ok).Summarize(context.Background(), sampleInput())
	if err != nil {
		t.Fatal(err)
	}
	if out.Fallback || out.Summary != "ai summary" {
		t.Errorf("got %+v", out)
	}
}

func TestWithFallbackNilEnricher(t *testing.T) {
	out, err := WithFallback(nil).Summarize(context.Background(), sampleInput())
	if err != nil || !out.Fallback {
		t.Fatalf("nil enricher should yield fallback, got %+v err=%v", out, err)
	}
}

func TestClientSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		payload := `{"summary":"Site scores 76 overall.","top_fixes":["Serve HTTPS"],"recommendations":["Fix alt text"],"grade_explanation":"B+ means good."}`
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, payload)
	}))
	defer srv.Close()

	client := NewClient(config.EnrichConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: srv.URL,
	}, srv.Client())

	out, err := client.Summarize(context.Background(), sampleInput())
	if err != nil {
		t.Fatal(err)
	}
	if out.Summary != "Site scores 76 overall." || out.Fallback {
		t.Errorf("got %+v", out)
	}
	if len(out.TopFixes) != 1 || out.TopFixes[0] != "Serve HTTPS" {
		t.Errorf("topFixes = %v", out.TopFixes)
	}
}

func TestClientSummarizeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer srv.Close()

	client := NewClient(config.EnrichConfig{BaseURL: srv.URL}, srv.Client())

	_, err := client.Summarize(context.Background(), sampleInput())
	var auditErr *models.AuditError
	if !errors.As(err, &auditErr) || auditErr.Code != models.ErrCodeEnrichment {
		t.Fatalf("err = %v, want ENRICH_FAILURE", err)
	}
}

func TestDigestBoundsOutput(t *testing.T) {
	html := "<html><body><article><h1>Seaside Inn</h1><p>" +
		strings.Repeat("A quiet hotel on the coast with sea-view rooms. ", 50) +
		"</p></article></body></html>"

	d := Digest(html, "https://example.com", 100)
	if d == "" {
		t.Fatal("digest should not be empty for real content")
	}
	if n := len([]rune(d)); n > 102 {
		t.Errorf("digest length = %d runes, want ≤ 100 plus ellipsis", n)
	}
}

func TestDigestEmptyInput(t *testing.T) {
	if d := Digest("", "https://example.com", 100); d != "" {
		t.Errorf("empty HTML should digest to empty, got %q", d)
	}
	if d := Digest("<p>x</p>", "https://example.com", 0); d != "" {
		t.Errorf("zero budget should digest to empty, got %q", d)
	}
}

func TestDigestLeadsWithPageTitle(t *testing.T) {
	html := "<html><head><title>Seaside Inn — Book Direct</title></head>" +
		"<body><article><p>" +
		strings.Repeat("A quiet hotel on the coast with sea-view rooms. ", 10) +
		"</p></article></body></html>"

	d := Digest(html, "https://example.com", 500)
	if !strings.HasPrefix(d, "# Seaside Inn — Book Direct") {
		t.Errorf("digest should open with the page title, got %q", d)
	}
}
