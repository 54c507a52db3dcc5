package domain

import "time"

// Conversation is a single answered question, partitioned by user.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Status    *Status   `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AssistantReply is the best-effort structure extracted from a free-text answer.
type AssistantReply struct {
	Status      *Status
	Explanation string
}

// Clone returns a copy that does not share its status with c.
func (c Conversation) Clone() Conversation {
	if c.Status != nil {
		st := *c.Status
		c.Status = &st
	}
	return c
}
