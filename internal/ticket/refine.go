package ticket

import (
	"context"
	"fmt"
	"strings"

	"ticketsmith/internal/llm"
	"ticketsmith/internal/util/jsonutil"
)

// Refiner runs one conversational refinement turn. It holds no session
// state: the caller owns the ticket and history and must serialize turns
// for a single editing session.
type Refiner struct {
	llm llm.Client
}

func NewRefiner(client llm.Client) *Refiner {
	return &Refiner{llm: client}
}

func refineSchema() *llm.Schema {
	return &llm.Schema{
		Type:        "object",
		Description: "Refined ticket structure and explanation",
		Properties: map[string]*llm.Schema{
			"updatedTicket": {
				Type: "object",
				Properties: map[string]*llm.Schema{
					"title":           {Type: "string"},
					"type":            {Type: "string"},
					"coreContent":     {Type: "string", Description: "The full markdown content. ONLY change this if the user explicitly asks for an update/edit."},
					"missingElements": {Type: "string", Description: "Updated AI Analysis / Engineering Considerations"},
				},
				Required: []string{"title", "type", "coreContent", "missingElements"},
			},
			"message": {Type: "string", Description: "The AI response. If the user asked a question, put the full answer here. If the user asked for an edit, put a brief confirmation here."},
		},
		Required: []string{"updatedTicket", "message"},
	}
}

// Refine classifies userMessage as an explicit edit request (ACTION) or
// a question/brainstorm (DISCUSSION) and returns the model's response.
// Either way updatedTicket must equal current: edits are narrated in
// message, never applied silently. On failure the returned error is a
// *RefinementError and neither input has been mutated; callers must not
// append the failed turn to history.
func (r *Refiner) Refine(ctx context.Context, current Generated, history []ChatTurn, userMessage string) (RefineResult, error) {
	prompt, err := composeRefinePrompt(current, history, userMessage)
	if err != nil {
		return RefineResult{}, &RefinementError{Err: err}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	raw, err := r.llm.GenerateJSON(llm.WithOp(ctx, "refine"), prompt, nil, refineSchema())
	if err != nil {
		return RefineResult{}, &RefinementError{Err: &ProviderError{Err: err}}
	}
	res, err := ParseRefineResponse(raw)
	if err != nil {
		return RefineResult{}, &RefinementError{Err: err}
	}
	return res, nil
}

func composeRefinePrompt(current Generated, history []ChatTurn, userMessage string) (string, error) {
	ticketJSON, err := jsonutil.MarshalNoEscapeIndent(current, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode current ticket: %w", err)
	}

	var b strings.Builder
	b.WriteString(tpmPersona)
	b.WriteString("\n\nTASK: You are a \"Contextual Copilot\" helping a Product Manager refine a ticket.\n")

	b.WriteString("\nCurrent Ticket Context:\n")
	b.Write(ticketJSON)
	b.WriteString("\n")

	b.WriteString("\nChat History:\n")
	for _, turn := range history {
		speaker := "AI"
		if turn.Role == RoleUser {
			speaker = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, turn.Content)
	}

	fmt.Fprintf(&b, "\nLatest User Request: %q\n", userMessage)

	b.WriteString(`
CRITICAL INSTRUCTION ON BEHAVIOR:
1. **ANALYZE INTENT**:
   - **ACTION**: Does the user explicitly ask you to "add", "change", "remove", "update", or "fix" something in the ticket?
   - **DISCUSSION**: Is the user asking a question, seeking ideas, or asking "what if"?

2. **IF ACTION (Explicit Edit Request)**:
   - **DO NOT CHANGE** the ticket content directly. The updatedTicket field must match currentTicket EXACTLY.
   - Provide the specific section of changed content in the message field.
   - **FORMATTING**: Use a Markdown code block (` + "```markdown ... ```" + `) for the new content so the user can easily copy/paste.
   - Explain briefly what specific changes were made.

3. **IF DISCUSSION (Question/Brainstorming)**:
   - **DO NOT CHANGE** the ticket content. Return updatedTicket EXACTLY as it is in currentTicket.
   - Set message to your detailed answer, suggestion, or explanation.
   - **FORMATTING**: Use Markdown (bullet points, bold text) to make the response easy to read. Avoid long paragraphs.

4. **INTELLIGENT**:
   - If unsure, err on the side of DISCUSSION (don't touch the ticket).
   - If the user says "Yes, do that", treat it as an ACTION based on the previous assistant turn.

OUTPUT: A JSON object with updatedTicket and message.
`)
	return b.String(), nil
}
