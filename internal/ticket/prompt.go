package ticket

import (
	"fmt"
	"strings"

	"ticketsmith/internal/llm"
)

const tpmPersona = `You are an expert Technical Product Manager (TPM) at a top-tier tech company.
Your writing is concise, precise, and focused on clarity and implementation details.
You anticipate edge cases and engineering constraints.`

const staffEngineerPersona = `You are a Staff Software Engineer at a top-tier tech company.
Your role is to translate loose requirements into rigorous Technical Specifications.

Focus on:
- **System Design & Architecture**: How components interact.
- **Data Models**: Schema definitions, relationships, and migrations.
- **API Contracts**: REST/GraphQL definitions with request/response examples.
- **Scalability & Performance**: Caching strategies, N+1 query prevention, indexing.
- **Edge Cases**: Race conditions, error states, and security implications (RBAC, IDOR).

Your output is directed at Senior Engineers who need to implement this feature.`

// PromptSpec is a composed generation request: the prompt text plus the
// ordered inline image parts it references.
type PromptSpec struct {
	Text  string
	Parts []llm.Part
}

// ComposePrompt builds the generation prompt from a draft. It performs no
// validation; empty fields pass through and the orchestrator rejects them
// before any model call.
func ComposePrompt(d Draft) (PromptSpec, error) {
	parts, err := InlineParts(d.Screenshots)
	if err != nil {
		return PromptSpec{}, err
	}

	technical := d.Type == TypeTechnical
	persona := tpmPersona
	doc := "comprehensive Product Requirement Document (PRD) / Ticket"
	if technical {
		persona = staffEngineerPersona
		doc = "Technical Design Document (TDD) / Engineering Ticket"
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nTask: Generate a " + doc + " based on the context.\n")

	b.WriteString("\nContext:\n")
	fmt.Fprintf(&b, "- Feature: %s\n", d.FeatureName)
	fmt.Fprintf(&b, "- Platforms: %s\n", strings.Join(d.Platforms, ", "))
	fmt.Fprintf(&b, "- Problem: %s\n", d.Problem)
	fmt.Fprintf(&b, "- Expected Behavior: %s\n", d.Behavior)
	fmt.Fprintf(&b, "- Desired Formats: %s\n", strings.Join(d.Formats, ", "))

	b.WriteString("\nMedia Context (CRITICAL):\n")
	fmt.Fprintf(&b, "- The user has uploaded %d screenshots.\n", len(d.Screenshots))
	b.WriteString("- **Image Reference Map**:\n")
	for i, s := range d.Screenshots {
		desc := s.Description
		if desc == "" {
			desc = fmt.Sprintf("Screenshot %d", i)
		}
		fmt.Fprintf(&b, "  - [[%d]]: %s\n", i, desc)
	}

	b.WriteString("\nInstructions:\n")
	b.WriteString("1. **Core Content (coreContent)**:\n")
	b.WriteString("   - Write a clean, professional specification.\n")
	b.WriteString("   - **IMAGES**: Use placeholders '[[N]]' exactly where relevant; never describe an image in prose.\n")
	if technical {
		writeTechnicalStructure(&b)
	} else {
		writeFunctionalStructure(&b, d.Formats)
	}
	b.WriteString("   - Use standard Markdown headers (#, ##, ###).\n")

	b.WriteString("\n2. **AI Analysis (missingElements)**:\n")
	if technical {
		b.WriteString("   - Focus on **Engineering Risks**:\n")
		b.WriteString("   - **Security**: IDOR, XSS, Rate Limiting?\n")
		b.WriteString("   - **Scalability**: Will this perform with 1M users? Database locking?\n")
		b.WriteString("   - **Observability**: What logs/metrics are needed?\n")
		b.WriteString("   - **Tech Debt**: Any hacks we should avoid?\n")
	} else {
		b.WriteString("   - Focus on **Product Logic**:\n")
		b.WriteString("   - Missing User Flows.\n")
		b.WriteString("   - UX Edge Cases.\n")
		b.WriteString("   - Business Logic gaps.\n")
	}
	b.WriteString("   - Format as a numbered list.\n")

	b.WriteString("\nCRITICAL JSON INSTRUCTION:\n")
	b.WriteString("- Output strictly valid JSON matching the response schema.\n")
	b.WriteString("- Escape quotes, backslashes, and newlines in markdown strings safely.\n")

	return PromptSpec{Text: b.String(), Parts: parts}, nil
}

func writeFunctionalStructure(b *strings.Builder, formats []string) {
	b.WriteString("\n   **FUNCTIONAL TICKET STRUCTURE**:\n")
	b.WriteString("   - **Acceptance Criteria**.\n")
	b.WriteString("   - Focus on the *What* and *Why*, not the *How*.\n")
	if hasFormat(formats, "gherkin") {
		b.WriteString("   - Provide exactly ONE unifying user story, then strict Given/When/Then scenarios.\n")
		b.WriteString("   - Each Given/When/Then line on its own line.\n")
		b.WriteString("   - Precede each scenario with its image placeholder and separate adjacent scenarios with a horizontal rule (---).\n")
	} else {
		b.WriteString("   - Provide a comprehensive list of independent User Stories.\n")
		b.WriteString("   - Precede each story with its image placeholder and separate adjacent stories with a horizontal rule (---).\n")
	}
}

func writeTechnicalStructure(b *strings.Builder) {
	b.WriteString(`
   **TECHNICAL TICKET STRUCTURE**:

   ### 1. High-Level Approach
   - Briefly explain the architectural changes.
   - Mention new components or services.

   ---

   ### 2. Database Design (Schema)
   - Provide schema changes (SQL or ORM models).
   - Explain relationships and indexes.

   ---

   ### 3. API Contract
   - Define new endpoints (Method, URL, Body, Response).
   - Include validation rules.

   ---

   ### 4. Implementation Steps
   - Step-by-step guide for the engineer.
   - Logical order of execution (e.g. 1. DB Migration, 2. Backend Service, 3. UI Components).

   ---

   ### 5. Frontend & UI
   [[0]] (Show relevant UI mocks here)
   - Component hierarchy.
   - State management.
`)
}

func hasFormat(formats []string, want string) bool {
	for _, f := range formats {
		if strings.EqualFold(strings.TrimSpace(f), want) {
			return true
		}
	}
	return false
}
