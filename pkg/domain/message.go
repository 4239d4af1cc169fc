package domain

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser   Role = "user"   // operator input
	RoleAgent  Role = "agent"  // engine/step output
	RoleSystem Role = "system" // engine-internal notices
)

// Message is one entry in a session's conversation log.
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}
