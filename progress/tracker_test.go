package progress

import (
	"testing"

	"github.com/use-agent/sitegrade/models"
)

func TestTrackerSetGetDelete(t *testing.T) {
	tr := NewTracker()

	if _, ok := tr.Get("missing"); ok {
		t.Fatal("empty tracker returned an entry")
	}

	tr.Set("scan-1", models.ScanProgress{Stage: models.StageCrawling, Percentage: 0})
	p, ok := tr.Get("scan-1")
	if !ok || p.Stage != models.StageCrawling {
		t.Fatalf("got %+v ok=%v", p, ok)
	}

	tr.Delete("scan-1")
	if _, ok := tr.Get("scan-1"); ok {
		t.Fatal("entry survived Delete")
	}
}

func TestTrackerPercentageNeverRegresses(t *testing.T) {
	tr := NewTracker()

	tr.Set("scan-1", models.ScanProgress{Stage: models.StageScanning, Percentage: 60})
	tr.Set("scan-1", models.ScanProgress{Stage: models.StageScanning, Percentage: 40, Message: "retry"})

	p, _ := tr.Get("scan-1")
	if p.Percentage != 60 {
		t.Fatalf("percentage regressed to %d", p.Percentage)
	}
	if p.Message != "retry" {
		t.Errorf("non-percentage fields should still update, got %q", p.Message)
	}
}

func TestTrackerScansAreIndependent(t *testing.T) {
	tr := NewTracker()

	tr.Set("scan-1", models.ScanProgress{Percentage: 80})
	tr.Set("scan-2", models.ScanProgress{Percentage: 10})

	if p, _ := tr.Get("scan-2"); p.Percentage != 10 {
		t.Fatalf("scan-2 percentage = %d, want 10", p.Percentage)
	}
}
