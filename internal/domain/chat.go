package domain

// Role tags a transcript entry with its author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single role-tagged entry in a diagnostic dialogue
// transcript.
type ChatMessage struct {
	Role    Role
	Content string
}
