package jira

import (
	"encoding/base64"
	"strings"
	"testing"
	"unicode/utf8"
)

func dataURI(payload string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

func TestBuildDescriptionParagraphPerLine(t *testing.T) {
	doc, atts := BuildDescription("first line\n\nsecond line\n   \nthird")
	if len(atts) != 0 {
		t.Fatalf("unexpected attachments: %d", len(atts))
	}
	if doc.Type != "doc" || doc.Version != 1 {
		t.Fatalf("bad doc envelope: %+v", doc)
	}
	if len(doc.Content) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(doc.Content))
	}
	if got := doc.Content[1].Content[0].Text; got != "second line" {
		t.Fatalf("paragraph text = %q", got)
	}
}

func TestBuildDescriptionEmptyContent(t *testing.T) {
	doc, _ := BuildDescription("   \n ")
	if len(doc.Content) != 1 || doc.Content[0].Content[0].Text != "No content" {
		t.Fatalf("empty content should yield a No content paragraph: %+v", doc)
	}
}

func TestBuildDescriptionExtractsMarkdownImage(t *testing.T) {
	content := "intro\n![Login Screen](" + dataURI("pngbytes") + ")\noutro"
	doc, atts := BuildDescription(content)

	if len(atts) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(atts))
	}
	if atts[0].Filename != "Login_Screen.png" {
		t.Fatalf("filename = %q", atts[0].Filename)
	}
	if string(atts[0].Data) != "pngbytes" {
		t.Fatalf("attachment data = %q", atts[0].Data)
	}

	var joined []string
	for _, p := range doc.Content {
		joined = append(joined, p.Content[0].Text)
	}
	all := strings.Join(joined, "\n")
	if strings.Contains(all, "base64") {
		t.Fatal("data URI leaked into description")
	}
	if !strings.Contains(all, "[Attachment: Login_Screen.png]") {
		t.Fatalf("missing attachment placeholder:\n%s", all)
	}
}

func TestBuildDescriptionIndexesRawURIs(t *testing.T) {
	content := dataURI("a") + "\n" + dataURI("b")
	_, atts := BuildDescription(content)
	if len(atts) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(atts))
	}
	if atts[0].Filename != "Image_1.png" || atts[1].Filename != "Image_2.png" {
		t.Fatalf("filenames = %q, %q", atts[0].Filename, atts[1].Filename)
	}
}

func TestBuildDescriptionTruncates(t *testing.T) {
	doc, _ := BuildDescription(strings.Repeat("x", maxDescriptionChars+500))
	last := doc.Content[len(doc.Content)-1].Content[0].Text
	if !strings.Contains(last, "[Content Truncated due to size limits]") {
		t.Fatalf("missing truncation marker, last paragraph: %q", last)
	}
}

func TestBuildDescriptionTruncatesOnRuneBoundary(t *testing.T) {
	// One leading ASCII byte misaligns the cut so it would land inside
	// a three-byte rune.
	content := "a" + strings.Repeat("€", maxDescriptionChars/3)
	doc, _ := BuildDescription(content)
	for _, p := range doc.Content {
		if !utf8.ValidString(p.Content[0].Text) {
			t.Fatal("truncation split a rune")
		}
	}
	last := doc.Content[len(doc.Content)-1].Content[0].Text
	if !strings.Contains(last, "[Content Truncated due to size limits]") {
		t.Fatalf("missing truncation marker, last paragraph: %q", last)
	}
}

func TestBuildDescriptionKeepsInvalidURI(t *testing.T) {
	content := "![x](data:image/png;base64,not-base64!!!)"
	_, atts := BuildDescription(content)
	if len(atts) != 0 {
		t.Fatalf("invalid base64 should not produce an attachment")
	}
}
