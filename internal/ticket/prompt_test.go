package ticket

import (
	"strings"
	"testing"
)

func functionalDraft() Draft {
	return Draft{
		FeatureName: "Dark Mode",
		Platforms:   []string{"web", "ios"},
		Type:        TypeFunctional,
		Problem:     "users blinded at night",
		Behavior:    "toggle in settings",
		Formats:     []string{"user_stories"},
	}
}

func TestComposePrompt_FunctionalPersona(t *testing.T) {
	spec, err := ComposePrompt(functionalDraft())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !strings.Contains(spec.Text, "Technical Product Manager") {
		t.Fatalf("expected TPM persona for functional ticket")
	}
	if strings.Contains(spec.Text, "Staff Software Engineer") {
		t.Fatalf("staff persona leaked into functional prompt")
	}
	if !strings.Contains(spec.Text, "FUNCTIONAL TICKET STRUCTURE") {
		t.Fatalf("missing functional structure block")
	}
	if !strings.Contains(spec.Text, "independent User Stories") {
		t.Fatalf("expected user-story branch without gherkin format")
	}
}

func TestComposePrompt_GherkinBranch(t *testing.T) {
	d := functionalDraft()
	d.Formats = []string{"Gherkin"}
	spec, err := ComposePrompt(d)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !strings.Contains(spec.Text, "ONE unifying user story") {
		t.Fatalf("expected unifying-story instruction for gherkin")
	}
	if !strings.Contains(spec.Text, "Given/When/Then") {
		t.Fatalf("expected gherkin scenario instruction")
	}
	if !strings.Contains(spec.Text, "horizontal rule (---)") {
		t.Fatalf("expected scenario separator instruction")
	}
}

func TestComposePrompt_TechnicalSkeleton(t *testing.T) {
	d := functionalDraft()
	d.Type = TypeTechnical
	d.Formats = nil
	spec, err := ComposePrompt(d)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	for _, section := range []string{
		"High-Level Approach",
		"Database Design (Schema)",
		"API Contract",
		"Implementation Steps",
		"Frontend & UI",
	} {
		if !strings.Contains(spec.Text, section) {
			t.Fatalf("technical skeleton missing %q", section)
		}
	}
	if !strings.Contains(spec.Text, "[[0]] (Show relevant UI mocks here)") {
		t.Fatalf("UI section not anchored to first image placeholder")
	}
	if !strings.Contains(spec.Text, "Staff Software Engineer") {
		t.Fatalf("expected staff-engineer persona for technical ticket")
	}
}

func TestComposePrompt_ImageReferenceMap(t *testing.T) {
	d := functionalDraft()
	d.Screenshots = []Screenshot{
		{ID: "a", Data: []byte("x"), MIMEType: "image/png", Description: "Login screen"},
		{ID: "b", Data: []byte("y"), MIMEType: "image/png"},
	}
	spec, err := ComposePrompt(d)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !strings.Contains(spec.Text, "[[0]]: Login screen") {
		t.Fatalf("missing indexed description in image map")
	}
	if !strings.Contains(spec.Text, "[[1]]: Screenshot 1") {
		t.Fatalf("blank description should default, got:\n%s", spec.Text)
	}
	if len(spec.Parts) != 2 {
		t.Fatalf("expected 2 inline parts, got %d", len(spec.Parts))
	}
}

func TestComposePrompt_NoValidation(t *testing.T) {
	// Composition is a pure transformation; empty fields pass through.
	spec, err := ComposePrompt(Draft{Type: TypeFunctional})
	if err != nil {
		t.Fatalf("compose should not validate, got %v", err)
	}
	if spec.Text == "" {
		t.Fatalf("expected prompt text")
	}
}
