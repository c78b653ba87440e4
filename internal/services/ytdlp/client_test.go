package ytdlp_test

import (
	"context"
	"errors"
	osexec "os/exec"
	"strings"
	"testing"

	"archivist/internal/services"
	"archivist/internal/services/ytdlp"
)

type stubExecutor struct {
	stdout []string
	stderr []string
	err    error
	calls  int
	args   [][]string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onStdout, onStderr func(string)) error {
	s.calls++
	s.args = append(s.args, append([]string(nil), args...))
	for _, line := range s.stdout {
		onStdout(line)
	}
	for _, line := range s.stderr {
		onStderr(line)
	}
	return s.err
}

func newClient(t *testing.T, exec ytdlp.Executor) *ytdlp.Client {
	t.Helper()
	client, err := ytdlp.New(ytdlp.Config{Binary: "yt-dlp", Format: "bv*+ba", MergeFormat: "mkv", RequestTimeoutSeconds: 5}, ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := ytdlp.New(ytdlp.Config{Binary: "  "}); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestMetadataDecodesInfo(t *testing.T) {
	exec := &stubExecutor{stdout: []string{`{"id":"abc","title":"Hello","duration":61.5,"upload_date":"20240301","channel_id":"UC1","tags":["x"]}`}}
	client := newClient(t, exec)

	info, err := client.Metadata(context.Background(), "https://www.youtube.com/watch?v=abc")
	if err != nil {
		t.Fatalf("Metadata returned error: %v", err)
	}
	if info.ID != "abc" || info.ChannelID != "UC1" || info.Title != "Hello" {
		t.Fatalf("unexpected info %+v", info)
	}
	published := info.PublishedAt()
	if published == nil || published.Format("2006-01-02") != "2024-03-01" {
		t.Fatalf("unexpected published date %v", published)
	}
	args := strings.Join(exec.args[0], " ")
	if !strings.Contains(args, "-J --skip-download") {
		t.Fatalf("expected info flags, got %q", args)
	}
}

func TestMetadataRejectsGarbage(t *testing.T) {
	client := newClient(t, &stubExecutor{stdout: []string{"not json"}})
	_, err := client.Metadata(context.Background(), "u")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name   string
		stderr string
		want   error
	}{
		{"private", "ERROR: [youtube] abc: Private video. Sign in if you've been granted access", services.ErrUnavailable},
		{"removed", "ERROR: [youtube] abc: Video unavailable. This video has been removed by the uploader", services.ErrUnavailable},
		{"missing channel", "ERROR: [youtube:tab] This channel does not exist.", services.ErrNotFound},
		{"empty channel", "ERROR: [youtube:tab] UC1: This channel has no videos", services.ErrNoContent},
		{"rate limited", "ERROR: unable to download webpage: HTTP Error 429: Too Many Requests", services.ErrTransient},
		{"premiere", "ERROR: [youtube] abc: Premieres in 3 hours", services.ErrTransient},
		{"upcoming live", "ERROR: [youtube] abc: This live event will begin in 2 days.", services.ErrTransient},
		{"unknown", "ERROR: something odd", services.ErrExternalTool},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient(t, &stubExecutor{stderr: []string{"WARNING: noise", tc.stderr}, err: errors.New("exit status 1")})
			_, err := client.Metadata(context.Background(), "u")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestMissingBinaryIsLocalNotGone(t *testing.T) {
	client := newClient(t, &stubExecutor{err: &osexec.Error{Name: "yt-dlp", Err: osexec.ErrNotFound}})
	_, err := client.Metadata(context.Background(), "u")
	if !errors.Is(err, services.ErrConfiguration) || !services.IsLocal(err) {
		t.Fatalf("expected a local configuration error, got %v", err)
	}
	if services.IsContentGone(err) {
		t.Fatalf("missing binary must not read as missing content: %v", err)
	}
}

func TestPermanentClassificationIsPermanent(t *testing.T) {
	client := newClient(t, &stubExecutor{stderr: []string{"ERROR: Private video"}, err: errors.New("exit status 1")})
	_, err := client.Metadata(context.Background(), "u")
	if !services.IsPermanent(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if kind := services.ErrorKind(err); kind != "unavailable" {
		t.Fatalf("unexpected kind %q", kind)
	}
}

func TestDownloadParsesAfterMovePrint(t *testing.T) {
	exec := &stubExecutor{stdout: []string{"/stage/UC1/abc.f137+140.mkv\t137+140"}}
	client := newClient(t, exec)

	res, err := client.Download(context.Background(), "u", "/stage", "%(channel_id)s/%(id)s.%(ext)s")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if res.Path != "/stage/UC1/abc.f137+140.mkv" || res.Format != "137+140" {
		t.Fatalf("unexpected result %+v", res)
	}
	args := strings.Join(exec.args[0], " ")
	for _, want := range []string{"-f bv*+ba", "--merge-output-format mkv", "-P /stage", "--no-simulate"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in args %q", want, args)
		}
	}
}

func TestDownloadWithoutOutputFails(t *testing.T) {
	client := newClient(t, &stubExecutor{})
	if _, err := client.Download(context.Background(), "u", "/stage", "x"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestDownloadRequiresDirectory(t *testing.T) {
	client := newClient(t, &stubExecutor{})
	if _, err := client.Download(context.Background(), "u", "", "x"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
