package chat

// Role selects the persona a conversation runs under. It is fixed per conversation.
type Role string

const (
	RoleStudent    Role = "student"
	RoleEducator   Role = "educator"
	RoleResearcher Role = "researcher"
)

// ParseRole matches raw exactly against the known roles. Anything else,
// including a different case, becomes RoleStudent.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleEducator:
		return RoleEducator
	case RoleResearcher:
		return RoleResearcher
	default:
		return RoleStudent
	}
}

// Mode switches the composer into an alternate behaviour. Only ModeDesigner exists.
type Mode string

const (
	ModeNone     Mode = ""
	ModeDesigner Mode = "designer"
)

// ParseMode matches "designer" exactly.
func ParseMode(raw string) Mode {
	if Mode(raw) == ModeDesigner {
		return ModeDesigner
	}
	return ModeNone
}

// CourseContext grounds a conversation in a course the user is looking at or building.
type CourseContext struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Topics      []string `json:"topics,omitempty"`
}

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is one visible chat turn, as the browser holds it.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Turn is everything needed to run one exchange against the model.
type Turn struct {
	Messages      []Message
	Role          Role
	Mode          Mode
	CourseContext *CourseContext
}
