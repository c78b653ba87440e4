package textutil_test

import (
	"testing"

	"archivist/internal/textutil"
)

func TestSanitizeToken(t *testing.T) {
	cases := map[string]string{
		"UCabc-123_x":   "ucabc-123_x",
		"  spaced out ": "spaced_out",
		"a/b\\c":        "a_b_c",
		"":              "unknown",
		"///":           "unknown",
		"Caf\u00e9":     "caf",
	}
	for input, want := range cases {
		if got := textutil.SanitizeToken(input); got != want {
			t.Fatalf("SanitizeToken(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSanitizeTokenNormalizesBeforeMapping(t *testing.T) {
	composed := textutil.SanitizeToken("Caf\u00e9")
	decomposed := textutil.SanitizeToken("Cafe\u0301")
	if composed != decomposed {
		t.Fatalf("expected equal tokens, got %q and %q", composed, decomposed)
	}
}

func TestServiceLabel(t *testing.T) {
	if got := textutil.ServiceLabel("youtube"); got != "Youtube" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := textutil.ServiceLabel("peer_tube"); got != "Peer Tube" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := textutil.ServiceLabel(" "); got != "Unknown" {
		t.Fatalf("unexpected label %q", got)
	}
}
