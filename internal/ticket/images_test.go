package ticket

import (
	"strings"
	"testing"
)

func twoShots() []Screenshot {
	return []Screenshot{
		{ID: "s1", Data: []byte("login-bytes"), MIMEType: "image/png", Description: "Login screen"},
		{ID: "s2", Data: []byte("dash-bytes"), MIMEType: "image/jpeg", Description: "Dashboard"},
	}
}

func TestResolvePlaceholders_InOrder(t *testing.T) {
	shots := twoShots()
	content := "Intro [[0]] middle [[1]] end"
	out := ResolvePlaceholders(content, shots)

	loginAt := strings.Index(out, "![Login screen](data:image/png;base64,")
	dashAt := strings.Index(out, "![Dashboard](data:image/jpeg;base64,")
	if loginAt == -1 || dashAt == -1 {
		t.Fatalf("expected both images embedded, got: %s", out)
	}
	if loginAt > dashAt {
		t.Fatalf("images swapped")
	}
	if strings.Contains(out, "[[") {
		t.Fatalf("unresolved placeholder remains: %s", out)
	}
}

func TestResolvePlaceholders_LabelVariants(t *testing.T) {
	shots := twoShots()
	for _, content := range []string{
		"[[Image 0]]", "[[image_0]]", "[[SCREEN-0]]", "[[img 0]]", "[[0 ]]",
	} {
		out := ResolvePlaceholders(content, shots)
		if !strings.Contains(out, "![Login screen](") {
			t.Fatalf("variant %q not resolved: %s", content, out)
		}
	}
}

func TestResolvePlaceholders_OneBasedFallback(t *testing.T) {
	shots := twoShots()
	// Index 2 is one past the end; falls back to shots[1].
	out := ResolvePlaceholders("see [[2]]", shots)
	if !strings.Contains(out, "![Dashboard](") {
		t.Fatalf("expected 1-based fallback to Dashboard, got: %s", out)
	}
}

func TestResolvePlaceholders_OutOfRangeMarker(t *testing.T) {
	shots := twoShots()
	out := ResolvePlaceholders("see [[7]]", shots)
	if !strings.Contains(out, "> [Missing Image #7]") {
		t.Fatalf("expected missing-image marker with original index, got: %s", out)
	}
}

func TestResolvePlaceholders_EmptyShotsRemovesToken(t *testing.T) {
	out := ResolvePlaceholders("before [[3]] after", nil)
	if out != "before  after" {
		t.Fatalf("expected token removed outright, got: %q", out)
	}
	if strings.Contains(out, "Missing Image") {
		t.Fatalf("no marker expected for empty screenshots")
	}
}

func TestResolvePlaceholders_Idempotent(t *testing.T) {
	shots := twoShots()
	once := ResolvePlaceholders("start [[0]] end", shots)
	twice := ResolvePlaceholders(once, shots)
	if once != twice {
		t.Fatalf("resolution is not idempotent:\n once: %s\ntwice: %s", once, twice)
	}
}

func TestResolvePlaceholders_BlankDescriptionDefault(t *testing.T) {
	shots := []Screenshot{{ID: "s1", Data: []byte("x"), MIMEType: "image/png"}}
	out := ResolvePlaceholders("[[0]]", shots)
	if !strings.Contains(out, "![Screenshot 0](") {
		t.Fatalf("expected default alt text, got: %s", out)
	}
}

func TestInlineParts_PreservesOrderAndMIME(t *testing.T) {
	parts, err := InlineParts(twoShots())
	if err != nil {
		t.Fatalf("inline: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].MIMEType != "image/png" || parts[1].MIMEType != "image/jpeg" {
		t.Fatalf("mime order wrong: %+v", parts)
	}
	if string(parts[0].Data) != "login-bytes" {
		t.Fatalf("data order wrong")
	}
}

func TestInlineParts_RejectsOversized(t *testing.T) {
	shots := []Screenshot{{ID: "big", Data: make([]byte, MaxInlineImageBytes+1), MIMEType: "image/png"}}
	if _, err := InlineParts(shots); err == nil {
		t.Fatalf("expected oversized screenshot to be rejected")
	}
}
