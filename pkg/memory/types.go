// Package memory holds bounded per-session conversation state for the
// counselling chat service. Sessions live in process memory only: older
// turns are compacted into a rolling summary once a session exceeds the
// retention window, and idle sessions are reclaimed by Sweep. The store is
// explicitly not the system of record; the transcript log is kept elsewhere.
package memory

import (
	"errors"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser is a message sent by the end user.
	RoleUser Role = "user"
	// RoleAssistant is a message produced by the generation pipeline.
	RoleAssistant Role = "assistant"
	// RoleSummary frames the compacted-history entry emitted by History.
	// It is never stored on a message; it only appears in projections.
	RoleSummary Role = "summary"
)

// FallbackSummary replaces the compacted span when summarization fails or is
// disabled. Bounded memory wins over perfect recall: the overflow is dropped
// either way.
const FallbackSummary = "Previous conversation context (summarization unavailable)"

// ErrEmptySessionID is returned by Append when no session id is given.
var ErrEmptySessionID = errors.New("session id must not be empty")

// Message is a single conversation turn. Messages are immutable once
// appended. CreatedAt is advisory; ordering is append order, not wall clock.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Turn is the wire projection of a message for the generation pipeline.
// Timestamps and ids are stripped.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Snapshot is a deep copy of a session record for diagnostics and tests.
// Mutating a Snapshot never affects store state.
type Snapshot struct {
	SessionID    string    `json:"sessionId"`
	Messages     []Message `json:"messages"`
	Summary      string    `json:"summary,omitempty"`
	LastActivity time.Time `json:"lastActivity"`
}

// PairCount reports the number of retained pairs in the snapshot, two
// consecutive messages forming one pair.
func (s Snapshot) PairCount() int {
	return len(s.Messages) / 2
}
