package models

// Role identifies the author of a chat message. The provider wire format
// knows exactly two roles, so there is no "system" role here.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is a single turn in the follow-up conversation about the
// current search result. Messages are append-only and the whole sequence
// is discarded when a new lookup starts.
type ChatMessage struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}
