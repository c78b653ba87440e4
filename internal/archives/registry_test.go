package archives_test

import (
	"testing"
	"time"

	"archivist/internal/archives"
	"archivist/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Archives = []config.Archive{
		{
			Name:                  "main",
			DestinationRoot:       "/srv/main",
			AccountUpdateGapHours: 24,
			ContentUpdateGapHours: 168,
			Entities: []config.Entity{
				{Name: "Creator", Accounts: []config.AccountRef{{Service: "youtube", ID: "A1"}}},
				{Name: "Duo", Accounts: []config.AccountRef{{Service: "youtube", ID: "A2"}, {Service: "youtube", ID: "A1"}}},
			},
		},
		{
			Name:                  "backup",
			DestinationRoot:       "/srv/backup",
			AccountUpdateGapHours: 72,
			ContentUpdateGapHours: 168,
			Services:              map[string]config.ServiceGaps{"youtube": {AccountUpdateGapHours: 12}},
			Entities: []config.Entity{
				{Name: "Creator", Accounts: []config.AccountRef{{Service: "youtube", ID: "A1"}}},
			},
		},
	}
	return &cfg
}

func TestListTrackingPreservesConfigOrder(t *testing.T) {
	reg := archives.New(testConfig())

	tracking := reg.ListTracking("youtube", "A1")
	if len(tracking) != 2 {
		t.Fatalf("expected 2 tracking archives, got %d", len(tracking))
	}
	if tracking[0].Name != "main" || tracking[1].Name != "backup" {
		t.Fatalf("unexpected order: %s, %s", tracking[0].Name, tracking[1].Name)
	}
	primary, ok := reg.Primary("youtube", "A1")
	if !ok || primary.Name != "main" {
		t.Fatalf("expected main as primary, got %+v", primary)
	}
	if got := reg.ListTracking("youtube", "A2"); len(got) != 1 || got[0].Name != "main" {
		t.Fatalf("unexpected tracking for A2: %+v", got)
	}
	if got := reg.ListTracking("youtube", "missing"); len(got) != 0 {
		t.Fatalf("expected no tracking archives, got %+v", got)
	}
}

func TestPairsDeduplicateWithinArchive(t *testing.T) {
	reg := archives.New(testConfig())
	pairs := reg.Pairs("youtube")
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs (A1 main, A2 main, A1 backup), got %d", len(pairs))
	}
	if pairs[0].AccountID != "A1" || pairs[1].AccountID != "A2" || pairs[2].Archive.Name != "backup" {
		t.Fatalf("unexpected pair order: %+v", pairs)
	}
	if got := reg.Services(); len(got) != 1 || got[0] != "youtube" {
		t.Fatalf("unexpected services: %v", got)
	}
}

func TestArchiveGapsAndPaths(t *testing.T) {
	reg := archives.New(testConfig())
	backup, ok := reg.Get("backup")
	if !ok {
		t.Fatal("expected backup archive")
	}
	if got := backup.AccountGap("youtube"); got != 12*time.Hour {
		t.Fatalf("expected service override of 12h, got %s", got)
	}
	if got := backup.ContentGap("youtube"); got != 168*time.Hour {
		t.Fatalf("expected 168h content gap, got %s", got)
	}
	if got := backup.Path("A1/V1.mkv"); got != "/srv/backup/A1/V1.mkv" {
		t.Fatalf("unexpected path: %s", got)
	}
}

func TestArchivesKeepConfigOrder(t *testing.T) {
	reg := archives.New(testConfig())

	all := reg.Archives()
	if len(all) != 2 || all[0].Name != "main" || all[1].Name != "backup" {
		t.Fatalf("unexpected archives: %+v", all)
	}
	all[0].Name = "mutated"
	if got, ok := reg.Get("main"); !ok || got.Root != "/srv/main" {
		t.Fatalf("registry should not share its slice, got %+v ok=%v", got, ok)
	}
	if _, ok := reg.Get("nope"); ok {
		t.Fatal("expected unknown archive lookup to fail")
	}
}
