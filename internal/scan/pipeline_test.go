package scan_test

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"archivist/internal/archives"
	"archivist/internal/catalog"
	"archivist/internal/freshness"
	"archivist/internal/logging"
	"archivist/internal/scan"
	"archivist/internal/services"
	"archivist/internal/testsupport"
)

type fixture struct {
	store    *catalog.Store
	fake     *testsupport.FakeExtractor
	clock    *testsupport.Clock
	pipeline *scan.Pipeline
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	if len(opts) == 0 {
		opts = []testsupport.ConfigOption{testsupport.WithArchive("main", "youtube", "UC1")}
	}
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	fake := testsupport.NewFakeExtractor("youtube")
	clock := testsupport.NewClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	pipeline := scan.NewPipeline(fake, store, archives.New(cfg), freshness.NewScheduler(clock), scan.Options{}, logging.NewNop())
	return &fixture{store: store, fake: fake, clock: clock, pipeline: pipeline}
}

func (f *fixture) pass(t *testing.T) scan.PassResult {
	t.Helper()
	result, err := f.pipeline.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	return result
}

func (f *fixture) content(t *testing.T, id string) *catalog.Content {
	t.Helper()
	content, err := f.store.GetContent(context.Background(), catalog.ContentRef{Service: "youtube", ID: id})
	if err != nil {
		t.Fatalf("GetContent %s: %v", id, err)
	}
	if content == nil {
		t.Fatalf("content %s not stored", id)
	}
	return content
}

func TestFirstPassListsAndDetails(t *testing.T) {
	f := newFixture(t)
	f.fake.SetListing("UC1", "Channel One", "v1", "v2")

	result := f.pass(t)
	if result.AccountsScanned != 1 || result.ContentDetailed != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	account, err := f.store.GetAccount(context.Background(), "youtube", "UC1")
	if err != nil || account == nil {
		t.Fatalf("GetAccount: %v %v", account, err)
	}
	if account.Depth != catalog.DepthFull || account.Name != "Channel One" {
		t.Fatalf("unexpected account %+v", account)
	}
	for _, id := range []string{"v1", "v2"} {
		if got := f.content(t, id); got.Depth != catalog.DepthFull || got.OwnerID != "UC1" {
			t.Fatalf("unexpected content %+v", got)
		}
	}
}

func TestRepeatedPassIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.fake.SetListing("UC1", "Channel One", "v1")
	f.pass(t)

	result := f.pass(t)
	if result.Work() != 0 {
		t.Fatalf("expected an idle second pass, got %+v", result)
	}
	if f.fake.ListCalls("UC1") != 1 || f.fake.DetailCalls("v1") != 1 {
		t.Fatalf("expected no extra extractor calls, list=%d detail=%d", f.fake.ListCalls("UC1"), f.fake.DetailCalls("v1"))
	}
}

func TestFreshFullContentSurvivesRelisting(t *testing.T) {
	f := newFixture(t)
	f.fake.SetListing("UC1", "Channel One", "v1")
	f.pass(t)

	// Account gap (24h) expires, content gap (168h) does not.
	f.clock.Advance(25 * time.Hour)
	result := f.pass(t)
	if f.fake.ListCalls("UC1") != 2 {
		t.Fatalf("expected account to be re-listed, calls=%d", f.fake.ListCalls("UC1"))
	}
	if result.ContentListed != 0 || result.ContentDetailed != 0 {
		t.Fatalf("expected listing to leave full content alone, got %+v", result)
	}
	if got := f.content(t, "v1"); got.Depth != catalog.DepthFull {
		t.Fatalf("depth regressed to %q", got.Depth)
	}
}

func TestStaleFullContentIsRescanned(t *testing.T) {
	f := newFixture(t)
	f.fake.SetListing("UC1", "Channel One", "v1")
	f.pass(t)

	f.clock.Advance(169 * time.Hour)
	result := f.pass(t)
	if result.ContentDetailed != 1 || f.fake.DetailCalls("v1") != 2 {
		t.Fatalf("expected stale content to be detailed again, got %+v calls=%d", result, f.fake.DetailCalls("v1"))
	}
	if got := f.content(t, "v1"); got.Depth != catalog.DepthFull {
		t.Fatalf("expected full after rescan, got %q", got.Depth)
	}
}

func TestPermanentDetailErrorWritesTerminalMarker(t *testing.T) {
	f := newFixture(t)
	f.fake.SetListing("UC1", "Channel One", "v1", "v2")
	f.fake.SetDetailError("v2", services.Wrap(services.ErrUnavailable, "fake", "detail", "private video", nil))

	result := f.pass(t)
	if result.ContentTerminal != 1 {
		t.Fatalf("expected one terminal marker, got %+v", result)
	}
	got := f.content(t, "v2")
	if !got.Terminal() || got.ErrorKind != "unavailable" {
		t.Fatalf("expected terminal marker, got %+v", got)
	}

	next, err := f.store.FindUndownloaded(context.Background(), nil)
	if err != nil {
		t.Fatalf("FindUndownloaded: %v", err)
	}
	if next == nil || next.ID != "v1" {
		t.Fatalf("expected only v1 to be downloadable, got %+v", next)
	}

	f.pass(t)
	if f.fake.DetailCalls("v2") != 1 {
		t.Fatalf("expected terminal marker not to be re-fetched, calls=%d", f.fake.DetailCalls("v2"))
	}
}

func TestTransientDetailErrorLeavesRecord(t *testing.T) {
	f := newFixture(t)
	f.fake.SetListing("UC1", "Channel One", "v1")
	f.fake.SetDetailError("v1", services.Wrap(services.ErrTransient, "fake", "detail", "rate limited", nil))

	result := f.pass(t)
	if result.ContentFailed != 1 {
		t.Fatalf("expected a failed detail, got %+v", result)
	}
	if got := f.content(t, "v1"); got.Depth != catalog.DepthListed || got.ErrorKind != "" {
		t.Fatalf("expected listed record untouched, got %+v", got)
	}

	f.fake.SetDetailError("v1", nil)
	f.pass(t)
	if got := f.content(t, "v1"); got.Depth != catalog.DepthFull {
		t.Fatalf("expected retry on next pass, got %q", got.Depth)
	}
}

func TestMissingAccountWritesEmptyFullRecord(t *testing.T) {
	f := newFixture(t)
	f.fake.SetListError("UC1", services.Wrap(services.ErrNotFound, "fake", "list", "gone", nil))

	result := f.pass(t)
	if result.AccountsMissing != 1 {
		t.Fatalf("expected missing account, got %+v", result)
	}
	account, err := f.store.GetAccount(context.Background(), "youtube", "UC1")
	if err != nil || account == nil {
		t.Fatalf("GetAccount: %v %v", account, err)
	}
	if account.Depth != catalog.DepthFull || account.ErrorKind != "not_found" {
		t.Fatalf("unexpected account %+v", account)
	}

	f.pass(t)
	if f.fake.ListCalls("UC1") != 1 {
		t.Fatalf("expected missing account not to be re-listed inside its gap, calls=%d", f.fake.ListCalls("UC1"))
	}
}

func TestSharedAccountScannedOncePerPass(t *testing.T) {
	f := newFixture(t,
		testsupport.WithArchive("main", "youtube", "UC1"),
		testsupport.WithArchive("backup", "youtube", "UC1"),
	)
	f.fake.SetListing("UC1", "Channel One", "v1")

	f.pass(t)
	if f.fake.ListCalls("UC1") != 1 || f.fake.DetailCalls("v1") != 1 {
		t.Fatalf("expected one scan for a shared account, list=%d detail=%d", f.fake.ListCalls("UC1"), f.fake.DetailCalls("v1"))
	}
}

func TestRejectedAccountIsNotDetailed(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.EnsureAccount(context.Background(), "youtube", "UC1", ""); err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}
	if err := f.store.SetAccountStatus(context.Background(), "youtube", "UC1", catalog.AccountRejected); err != nil {
		t.Fatalf("SetAccountStatus: %v", err)
	}
	f.fake.SetListing("UC1", "Channel One", "v1")

	f.pass(t)
	if f.fake.DetailCalls("v1") != 0 {
		t.Fatalf("expected no detail calls for rejected account, got %d", f.fake.DetailCalls("v1"))
	}
	if got := f.content(t, "v1"); got.Depth != catalog.DepthListed {
		t.Fatalf("expected listed content, got %q", got.Depth)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.fake.SetListing("UC1", "Channel One", "v1")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.pipeline.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for f.fake.DetailCalls("v1") == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for first pass")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestLocalDetailErrorAbortsPassWithoutMarker(t *testing.T) {
	f := newFixture(t)
	f.fake.SetListing("UC1", "Channel One", "v1")
	f.fake.SetDetailError("v1", services.Wrap(services.ErrConfiguration, "ytdlp", "metadata", "binary not found", exec.ErrNotFound))

	_, err := f.pipeline.RunPass(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected the pass to fail with the configuration error, got %v", err)
	}
	if got := f.content(t, "v1"); got.Depth != catalog.DepthListed || got.ErrorKind != "" {
		t.Fatalf("a host problem must not mark content terminal, got depth=%q kind=%q", got.Depth, got.ErrorKind)
	}

	f.fake.SetDetailError("v1", nil)
	f.pass(t)
	next, err := f.store.FindUndownloaded(context.Background(), nil)
	if err != nil {
		t.Fatalf("FindUndownloaded: %v", err)
	}
	if next == nil || next.ID != "v1" {
		t.Fatalf("expected v1 downloadable once yt-dlp is back, got %+v", next)
	}
}

func TestLocalListErrorAbortsPass(t *testing.T) {
	f := newFixture(t)
	f.fake.SetListError("UC1", services.Wrap(services.ErrConfiguration, "ytdlp", "list", "binary not found", exec.ErrNotFound))

	if _, err := f.pipeline.RunPass(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	account, err := f.store.GetAccount(context.Background(), "youtube", "UC1")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if account != nil && account.ErrorKind != "" {
		t.Fatalf("account must not be marked, got %+v", account)
	}
}

func TestRunLogsIdleOncePerStreak(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithArchive("main", "youtube", "UC1"))
	store := testsupport.MustOpenStore(t, cfg)
	fake := testsupport.NewFakeExtractor("youtube")
	fake.SetListing("UC1", "Channel One", "v1")
	clock := testsupport.NewClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	rec, logger := testsupport.NewLogRecorder()
	pipeline := scan.NewPipeline(fake, store, archives.New(cfg), freshness.NewScheduler(clock),
		scan.Options{IdleDelay: time.Millisecond, ErrorDelay: time.Millisecond}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pipeline.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	waitUntil(t, "first idle line", func() bool { return rec.Count("scan_idle") == 1 })
	// Many idle passes run in this window.
	time.Sleep(100 * time.Millisecond)
	if n := rec.Count("scan_idle"); n != 1 {
		t.Fatalf("expected one idle line for the streak, got %d", n)
	}

	fake.SetListing("UC1", "Channel One", "v1", "v2")
	clock.Advance(25 * time.Hour)
	waitUntil(t, "v2 detail", func() bool { return fake.DetailCalls("v2") == 1 })
	waitUntil(t, "second idle line", func() bool { return rec.Count("scan_idle") == 2 })
	time.Sleep(50 * time.Millisecond)
	if n := rec.Count("scan_idle"); n != 2 {
		t.Fatalf("expected exactly one more idle line after new work, got %d", n)
	}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
