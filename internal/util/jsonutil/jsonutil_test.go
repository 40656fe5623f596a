package jsonutil

import (
	"strings"
	"testing"
)

func TestMarshalNoEscape(t *testing.T) {
	b, err := MarshalNoEscape(map[string]string{"a": "1 < 2 && 3 > 2"})
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if strings.Contains(s, `<`) || strings.Contains(s, `&`) {
		t.Fatalf("HTML escaping leaked into %q", s)
	}
	if strings.HasSuffix(s, "\n") {
		t.Fatalf("trailing newline in %q", s)
	}
}

func TestMarshalNoEscapeIndent(t *testing.T) {
	b, err := MarshalNoEscapeIndent(map[string]string{"key": "<value>"}, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.Contains(s, "\n  \"key\": \"<value>\"") {
		t.Fatalf("got %q", s)
	}
}
