package models

// Message roles. History replay into the model prompt only propagates
// RoleUser and RoleAssistant; anything else is dropped.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Timestamp layouts used in the persisted history file.
const (
	MessageTimeLayout = "15:04"
	SessionTimeLayout = "2006-01-02 15:04:05"
)

// ChatMessage is one turn in a session. Ordered, append-only.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Time    string `json:"time,omitempty"`
}

// Session is one persisted, named conversation thread.
type Session struct {
	Name     string        `json:"name"`
	Messages []ChatMessage `json:"messages"`
	Time     string        `json:"time"`
}

// History is the persisted multi-session store: all sessions keyed by id
// plus the active session pointer.
type History struct {
	Sessions map[string]*Session `json:"sessions"`
	ActiveID string              `json:"active_id"`
}

// NewHistory returns an empty history with an initialized session map.
func NewHistory() *History {
	return &History{Sessions: make(map[string]*Session)}
}

// Profile is the singleton local user profile. Fully overwritten on save.
type Profile struct {
	Skills    string `json:"skills"`
	Education string `json:"education"`
	Interest  string `json:"interest"`
}

// DefaultProfile returns the empty-defaults profile used on first run and reset.
func DefaultProfile() Profile {
	return Profile{Skills: "", Education: "Student", Interest: ""}
}
