package jira

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Jira truncates huge descriptions and rejects oversized payloads; stay
// well under the limit and make the cut visible.
const maxDescriptionChars = 30000

const truncationMarker = "\n\n... [Content Truncated due to size limits] ..."

var (
	reMarkdownImage = regexp.MustCompile(`!\[(.*?)\]\((data:image/[^;]+;base64,[^)]+)\)`)
	reRawDataURI    = regexp.MustCompile(`data:(image/[^;]+);base64,[^\s"')]+`)
	reUnsafeName    = regexp.MustCompile(`[^a-zA-Z0-9-_]`)
)

// ADFNode is a node in Atlassian Document Format.
type ADFNode struct {
	Type    string    `json:"type"`
	Version int       `json:"version,omitempty"`
	Text    string    `json:"text,omitempty"`
	Content []ADFNode `json:"content,omitempty"`
}

// Attachment is an image lifted out of ticket content for upload.
type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// BuildDescription converts ticket Markdown into an ADF document plus
// the attachments extracted from it. Embedded images are replaced with
// textual placeholders (the issue-create payload cannot carry binaries),
// content beyond the ceiling is truncated with a visible marker, and
// each remaining non-blank line becomes one paragraph block.
func BuildDescription(content string) (ADFNode, []Attachment) {
	if strings.TrimSpace(content) == "" {
		content = "No content"
	}

	var attachments []Attachment

	// Markdown images first: alt text names the attachment.
	content = reMarkdownImage.ReplaceAllStringFunc(content, func(match string) string {
		groups := reMarkdownImage.FindStringSubmatch(match)
		alt, uri := groups[1], groups[2]
		att, ok := decodeDataURI(uri, sanitizeFilename(alt))
		if !ok {
			return match
		}
		attachments = append(attachments, att)
		return fmt.Sprintf("\n> 📎 **[Attachment: %s]** (See Attachments section below)\n", att.Filename)
	})

	// Then bare data URIs, named by index.
	rawIndex := 1
	content = reRawDataURI.ReplaceAllStringFunc(content, func(match string) string {
		att, ok := decodeDataURI(match, fmt.Sprintf("Image_%d", rawIndex))
		if !ok {
			return match
		}
		rawIndex++
		attachments = append(attachments, att)
		return fmt.Sprintf("[Attachment: %s]", att.Filename)
	})

	if len(content) > maxDescriptionChars {
		cut := maxDescriptionChars
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut] + truncationMarker
	}

	var paragraphs []ADFNode
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		paragraphs = append(paragraphs, ADFNode{
			Type:    "paragraph",
			Content: []ADFNode{{Type: "text", Text: line}},
		})
	}

	return ADFNode{Type: "doc", Version: 1, Content: paragraphs}, attachments
}

func sanitizeFilename(alt string) string {
	if strings.TrimSpace(alt) == "" {
		alt = "Screenshot"
	}
	return reUnsafeName.ReplaceAllString(alt, "_")
}

func decodeDataURI(uri, name string) (Attachment, bool) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Attachment{}, false
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return Attachment{}, false
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return Attachment{}, false
	}
	return Attachment{Filename: name + ".png", MIMEType: mime, Data: data}, true
}
