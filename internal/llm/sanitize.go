package llm

import (
	"regexp"
)

var reDataURL = regexp.MustCompile(`(?is)\bdata:(image|video|audio)/[a-z0-9+.-]+;base64,[a-z0-9+/=\r\n]+`)

// RedactMedia replaces inline media payloads in s with a short marker so
// prompts and responses can be logged without megabytes of base64.
func RedactMedia(s string) string {
	return reDataURL.ReplaceAllString(s, "[REDACTED media]")
}
