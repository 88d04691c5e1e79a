package memory

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rvhari80/ivy-ai-counsellor/pkg/observability"
	"github.com/rvhari80/ivy-ai-counsellor/pkg/summarizer"
)

// Config holds store tuning knobs.
type Config struct {
	// WindowPairs is the maximum number of message pairs kept verbatim
	// before compaction (default 10, i.e. 20 raw messages).
	WindowPairs int
	// IdleTimeout is how long a session may sit untouched before Sweep
	// removes it (default 30 minutes).
	IdleTimeout time.Duration
	// SummarizeTimeout bounds a single summarization call (default 10s).
	// A slow summarizer degrades to the fallback marker instead of
	// stalling the append.
	SummarizeTimeout time.Duration
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		WindowPairs:      10,
		IdleTimeout:      30 * time.Minute,
		SummarizeTimeout: 10 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.WindowPairs <= 0 {
		c.WindowPairs = d.WindowPairs
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.SummarizeTimeout <= 0 {
		c.SummarizeTimeout = d.SummarizeTimeout
	}
}

// session is the per-id record. Its mutex serializes all operations on one
// session; operations on distinct sessions never contend on it.
type session struct {
	mu           sync.Mutex
	messages     []Message
	summary      string
	lastActivity time.Time
}

// touch advances lastActivity. It never moves the clock backward.
func (s *session) touch(t time.Time) {
	if t.After(s.lastActivity) {
		s.lastActivity = t
	}
}

// Store owns all session records and is the sole mutator of them.
// Store is safe for concurrent use; lock order is always the store map lock
// before any session lock.
type Store struct {
	cfg        Config
	summarizer summarizer.Client

	// now is the clock; tests substitute it.
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewStore creates a store. client may be nil, in which case compaction
// always falls back to the marker summary (summarization disabled).
func NewStore(cfg Config, client summarizer.Client) *Store {
	cfg.applyDefaults()
	return &Store{
		cfg:        cfg,
		summarizer: client,
		now:        time.Now,
		sessions:   make(map[string]*session),
	}
}

// Append records a new message for the session, creating the session on
// first use, and compacts the window when it overflows. A summarization
// failure never fails the append; only an empty session id does.
func (s *Store) Append(ctx context.Context, sessionID string, role Role, content string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	sess := s.getOrCreate(sessionID)

	sess.mu.Lock()
	now := s.now()
	sess.messages = append(sess.messages, Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: now,
	})
	sess.touch(now)
	overflow, compact := splitWindow(sess, s.cfg.WindowPairs)
	prior := sess.summary
	sess.mu.Unlock()

	observability.RecordAppend(string(role))

	if !compact {
		return nil
	}

	// The record lock is released across the summarizer call so a slow
	// summarization only ever delays this session's summary, not other
	// sessions or even concurrent reads of this one. The window bound
	// already holds: splitWindow truncated under the lock.
	summary, outcome := s.summarizeOverflow(ctx, overflow, prior)

	sess.mu.Lock()
	sess.summary = summary
	sess.mu.Unlock()

	observability.RecordCompaction(outcome)
	log.Printf("memory: compacted %d messages for session %s (%s)", len(overflow), sessionID, outcome)
	return nil
}

// History projects the session into the turn sequence consumed by the
// generation pipeline: the summary first (if any) under RoleSummary, then
// the retained messages in append order. Reading counts as activity. An
// unknown session yields an empty slice and is not created.
func (s *Store) History(sessionID string) []Turn {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()

	if sess == nil {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch(s.now())
	return projectTurns(sess.summary, sess.messages)
}

// Clear removes the session if present. Clearing an unknown session is a
// no-op.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	if _, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		log.Printf("memory: cleared session %s", sessionID)
	}
	observability.SetActiveSessions(len(s.sessions))
	s.mu.Unlock()
}

// Count reports the number of tracked sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Inspect returns a deep copy of the raw session record for diagnostics.
// The second return is false when the session does not exist.
func (s *Store) Inspect(sessionID string) (Snapshot, bool) {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()

	if sess == nil {
		return Snapshot{}, false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	snap := Snapshot{
		SessionID:    sessionID,
		Messages:     make([]Message, len(sess.messages)),
		Summary:      sess.summary,
		LastActivity: sess.lastActivity,
	}
	copy(snap.Messages, sess.messages)
	return snap, true
}

// Sweep removes every session idle for at least the configured timeout as
// of now and returns the removed count. It is driven by an external
// scheduler; the store holds no timers of its own. A session being touched
// concurrently finishes its touch before the idle check and survives.
func (s *Store) Sweep(now time.Time) int {
	start := time.Now()

	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.lastActivity) >= s.cfg.IdleTimeout
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()

	observability.RecordSweep(removed, active, time.Since(start))
	if removed > 0 {
		log.Printf("memory: expired %d idle sessions", removed)
	}
	return removed
}

// getOrCreate fetches the session record, creating it on first use.
func (s *Store) getOrCreate(sessionID string) *session {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess != nil {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess = s.sessions[sessionID]; sess == nil {
		sess = &session{lastActivity: s.now()}
		s.sessions[sessionID] = sess
		observability.SetActiveSessions(len(s.sessions))
	}
	return sess
}

// summarizeOverflow asks the summarizer for a replacement summary covering
// the evicted span plus the prior summary. Every failure mode collapses to
// the fixed fallback marker; nothing propagates to the caller.
func (s *Store) summarizeOverflow(ctx context.Context, overflow []Message, prior string) (summary, outcome string) {
	if s.summarizer == nil {
		return FallbackSummary, "disabled"
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SummarizeTimeout)
	defer cancel()

	turns := make([]summarizer.Message, len(overflow))
	for i, m := range overflow {
		turns[i] = summarizer.Message{Role: string(m.Role), Content: m.Content}
	}

	start := time.Now()
	text, err := s.summarizer.Summarize(ctx, turns, prior)
	observability.ObserveSummarization(time.Since(start), err == nil)
	if err != nil {
		log.Printf("memory: summarization failed: %v", err)
		return FallbackSummary, "fallback"
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackSummary, "fallback"
	}
	return text, "ok"
}
