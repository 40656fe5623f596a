package llm

import (
	"strings"
	"testing"
)

func TestRedactMedia(t *testing.T) {
	in := "before data:image/png;base64,aGVsbG8= after"
	got := RedactMedia(in)
	if strings.Contains(got, "base64") {
		t.Fatalf("payload survived: %q", got)
	}
	if got != "before [REDACTED media] after" {
		t.Fatalf("got %q", got)
	}
}

func TestRedactMediaLeavesPlainTextAlone(t *testing.T) {
	in := "a prompt mentioning data: formats but no payload"
	if got := RedactMedia(in); got != in {
		t.Fatalf("got %q", got)
	}
}
