package ticket

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"

	"ticketsmith/internal/llm"
)

// MaxInlineImageBytes caps a single screenshot payload. Inline-encoding
// is memory bound and the provider rejects oversized requests anyway.
const MaxInlineImageBytes = 8 << 20

// Placeholder tokens: "[[3]]", "[[Image 2]]", "[[screen_0]]" and similar.
// Already-resolved Markdown image syntax never matches, which keeps
// ResolvePlaceholders idempotent.
var rePlaceholder = regexp.MustCompile(`(?i)\[\[(?:\s*(?:screen|image|img)\s*[-_\s]?)?(\d+)\s*\]\]`)

// InlineParts converts screenshots into inline model parts, preserving
// order. Order is the index space placeholders resolve against.
func InlineParts(shots []Screenshot) ([]llm.Part, error) {
	parts := make([]llm.Part, 0, len(shots))
	for i, s := range shots {
		if len(s.Data) == 0 {
			return nil, fmt.Errorf("screenshot %d has no data", i)
		}
		if len(s.Data) > MaxInlineImageBytes {
			return nil, fmt.Errorf("screenshot %d exceeds %d bytes", i, MaxInlineImageBytes)
		}
		mime := s.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, llm.Part{MIMEType: mime, Data: s.Data})
	}
	return parts, nil
}

// DataURI renders a screenshot as an inline data reference for Markdown.
func DataURI(s Screenshot) string {
	mime := s.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(s.Data)
}

// ResolvePlaceholders substitutes [[N]] tokens in content with embedded
// Markdown images. Index N addresses shots by position; N-1 is tried as
// a fallback for models that emit 1-based indices. An index missing both
// ways leaves a visible marker carrying the original digits, except when
// shots is empty, in which case the token is removed outright.
// Re-running on already-resolved content is a no-op.
func ResolvePlaceholders(content string, shots []Screenshot) string {
	return rePlaceholder.ReplaceAllStringFunc(content, func(match string) string {
		digits := rePlaceholder.FindStringSubmatch(match)[1]
		i, err := strconv.Atoi(digits)
		if err != nil {
			return match
		}
		shot, ok := shotAt(shots, i)
		if !ok {
			if len(shots) == 0 {
				return ""
			}
			return "\n> [Missing Image #" + digits + "]\n"
		}
		alt := shot.Description
		if alt == "" {
			alt = "Screenshot " + strconv.Itoa(i)
		}
		return "\n![" + alt + "](" + DataURI(shot) + ")\n"
	})
}

// shotAt returns shots[i], falling back to shots[i-1].
func shotAt(shots []Screenshot, i int) (Screenshot, bool) {
	if i >= 0 && i < len(shots) {
		return shots[i], true
	}
	if i-1 >= 0 && i-1 < len(shots) {
		return shots[i-1], true
	}
	return Screenshot{}, false
}
