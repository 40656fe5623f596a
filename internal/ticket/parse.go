package ticket

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Models sometimes over-escape inside Markdown strings, emitting a
// backslash before characters that are not legal JSON escape targets.
// Stripping exactly those backslashes is the only repair applied.
var reOverEscape = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

type ticketWire struct {
	Title           *string `json:"title"`
	Type            *string `json:"type"`
	CoreContent     *string `json:"coreContent"`
	MissingElements *string `json:"missingElements"`
}

func (w *ticketWire) toGenerated() (Generated, error) {
	for name, p := range map[string]*string{
		"title":           w.Title,
		"type":            w.Type,
		"coreContent":     w.CoreContent,
		"missingElements": w.MissingElements,
	} {
		if p == nil {
			return Generated{}, fmt.Errorf("missing required field %q", name)
		}
	}
	return Generated{
		Title:           *w.Title,
		Type:            *w.Type,
		CoreContent:     *w.CoreContent,
		MissingElements: *w.MissingElements,
	}, nil
}

// ParseTicketResponse parses raw model output against the four-field
// ticket shape. On a parse failure it applies the de-escaping repair and
// retries once; a second failure yields *MalformedResponseError with the
// original payload attached.
func ParseTicketResponse(raw []byte) (Generated, error) {
	t, err := parseTicket(raw)
	if err == nil {
		return t, nil
	}
	repaired := reOverEscape.ReplaceAll(raw, []byte("$1"))
	t, err2 := parseTicket(repaired)
	if err2 != nil {
		return Generated{}, &MalformedResponseError{Raw: string(raw), Err: err}
	}
	return t, nil
}

func parseTicket(raw []byte) (Generated, error) {
	var w ticketWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Generated{}, err
	}
	return w.toGenerated()
}

type refineWire struct {
	UpdatedTicket *ticketWire `json:"updatedTicket"`
	Message       *string     `json:"message"`
}

// ParseRefineResponse parses the refinement shape: a nested updatedTicket
// object plus a top-level message. Repair strategy is identical to
// ParseTicketResponse.
func ParseRefineResponse(raw []byte) (RefineResult, error) {
	r, err := parseRefine(raw)
	if err == nil {
		return r, nil
	}
	repaired := reOverEscape.ReplaceAll(raw, []byte("$1"))
	r, err2 := parseRefine(repaired)
	if err2 != nil {
		return RefineResult{}, &MalformedResponseError{Raw: string(raw), Err: err}
	}
	return r, nil
}

func parseRefine(raw []byte) (RefineResult, error) {
	var w refineWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return RefineResult{}, err
	}
	if w.UpdatedTicket == nil {
		return RefineResult{}, fmt.Errorf("missing required field %q", "updatedTicket")
	}
	if w.Message == nil {
		return RefineResult{}, fmt.Errorf("missing required field %q", "message")
	}
	t, err := w.UpdatedTicket.toGenerated()
	if err != nil {
		return RefineResult{}, err
	}
	return RefineResult{UpdatedTicket: t, Message: *w.Message}, nil
}
