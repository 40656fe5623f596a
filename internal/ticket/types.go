package ticket

// Type selects the authoring persona and structure of a generated ticket.
type Type string

const (
	TypeFunctional Type = "functional"
	TypeTechnical  Type = "technical"
)

// Screenshot is an uploaded image attached to a draft. Order within the
// draft is significant: generated placeholders address screenshots by
// position. ID is a stable opaque token assigned at upload time.
type Screenshot struct {
	ID          string
	Data        []byte
	MIMEType    string
	Description string
}

// Draft is the user-authored, unsaved ticket input.
type Draft struct {
	FeatureName string
	Platforms   []string
	Type        Type
	Problem     string
	Behavior    string
	// Formats is required and non-empty for functional tickets
	// (e.g. "user_stories", "gherkin").
	Formats     []string
	Screenshots []Screenshot
}

// Generated is the model's structured four-field output. CoreContent is
// Markdown and may contain [[N]] placeholders referencing screenshots
// by zero-based position.
type Generated struct {
	Title           string `json:"title"`
	Type            string `json:"type"`
	CoreContent     string `json:"coreContent"`
	MissingElements string `json:"missingElements"`
}

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatTurn is one entry in an editing session's append-only history.
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// RefineResult is the refinement response: the (possibly identical)
// ticket plus the assistant's message.
type RefineResult struct {
	UpdatedTicket Generated `json:"updatedTicket"`
	Message       string    `json:"message"`
}

// UsageResult is the usage limiter's verdict for one generation attempt.
type UsageResult struct {
	Allowed bool
	Reason  string
	Limit   int
	Usage   int
}
