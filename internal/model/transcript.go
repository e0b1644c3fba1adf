package model

// Role identifies the author of a conversational turn.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Turn is a single message in an enhancement conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is the ordered, append-only history of an enhancement session.
// It is held in memory for the life of a session and discarded on close;
// only the terminal artifact is ever persisted.
type Transcript []Turn

// Append returns the transcript with one more turn. The orchestrator is
// responsible for role alternation; Transcript itself is a dumb sequence.
func (t Transcript) Append(role Role, content string) Transcript {
	return append(t, Turn{Role: role, Content: content})
}

// LastRole returns the role of the final turn, or "" for an empty transcript.
func (t Transcript) LastRole() Role {
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1].Role
}
