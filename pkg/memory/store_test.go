package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rvhari80/ivy-ai-counsellor/pkg/summarizer"
)

// clock is a controllable time source for store tests.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(start time.Time) *clock {
	return &clock{now: start}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, cfg Config, client summarizer.Client) (*Store, *clock) {
	t.Helper()
	clk := newClock(testEpoch)
	store := NewStore(cfg, client)
	store.now = clk.Now
	return store, clk
}

func appendPairs(t *testing.T, store *Store, sessionID string, pairs int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < pairs; i++ {
		if err := store.Append(ctx, sessionID, RoleUser, fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("Append() user error = %v", err)
		}
		if err := store.Append(ctx, sessionID, RoleAssistant, fmt.Sprintf("answer %d", i)); err != nil {
			t.Fatalf("Append() assistant error = %v", err)
		}
	}
}

func TestAppendCreatesSession(t *testing.T) {
	store, _ := newTestStore(t, Config{}, nil)
	ctx := context.Background()

	if got := store.Count(); got != 0 {
		t.Fatalf("Count() = %d, want 0", got)
	}

	if err := store.Append(ctx, "s1", RoleUser, "Hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if got := store.Count(); got != 1 {
		t.Errorf("Count() after first append = %d, want 1", got)
	}

	// Appending to the same session must not create another.
	if err := store.Append(ctx, "s1", RoleAssistant, "Hi there!"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if got := store.Count(); got != 1 {
		t.Errorf("Count() after second append = %d, want 1", got)
	}
}

func TestAppendEmptySessionID(t *testing.T) {
	store, _ := newTestStore(t, Config{}, nil)

	err := store.Append(context.Background(), "", RoleUser, "Hello")
	if err != ErrEmptySessionID {
		t.Errorf("Append() error = %v, want %v", err, ErrEmptySessionID)
	}
	if got := store.Count(); got != 0 {
		t.Errorf("Count() after invalid append = %d, want 0", got)
	}
}

func TestHistoryUnknownSession(t *testing.T) {
	store, _ := newTestStore(t, Config{}, nil)

	turns := store.History("no-such-session")
	if len(turns) != 0 {
		t.Errorf("History() returned %d turns, want 0", len(turns))
	}
	// Reading must not create the session.
	if got := store.Count(); got != 0 {
		t.Errorf("Count() after History() = %d, want 0", got)
	}
}

func TestHistoryOrderAndProjection(t *testing.T) {
	store, _ := newTestStore(t, Config{}, nil)
	ctx := context.Background()

	contents := []struct {
		role    Role
		content string
	}{
		{RoleUser, "What are my options for the UK?"},
		{RoleAssistant, "Several, depending on your scores."},
		{RoleUser, "My IELTS is 7.5"},
	}
	for _, m := range contents {
		if err := store.Append(ctx, "s1", m.role, m.content); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	turns := store.History("s1")
	if len(turns) != len(contents) {
		t.Fatalf("History() returned %d turns, want %d", len(turns), len(contents))
	}
	for i, want := range contents {
		if turns[i].Role != want.role || turns[i].Content != want.content {
			t.Errorf("turn %d = %+v, want {%s %s}", i, turns[i], want.role, want.content)
		}
	}
}

func TestClearThenHistory(t *testing.T) {
	store, _ := newTestStore(t, Config{}, nil)
	ctx := context.Background()

	if err := store.Append(ctx, "s1", RoleUser, "Hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	store.Clear("s1")
	if got := store.Count(); got != 0 {
		t.Errorf("Count() after Clear() = %d, want 0", got)
	}
	if turns := store.History("s1"); len(turns) != 0 {
		t.Errorf("History() after Clear() returned %d turns, want 0", len(turns))
	}

	// Double clear is a no-op.
	store.Clear("s1")
	store.Clear("never-existed")
}

func TestInspect(t *testing.T) {
	store, _ := newTestStore(t, Config{}, nil)
	ctx := context.Background()

	if _, ok := store.Inspect("missing"); ok {
		t.Error("Inspect() on missing session should return false")
	}

	if err := store.Append(ctx, "s1", RoleUser, "Hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	snap, ok := store.Inspect("s1")
	if !ok {
		t.Fatal("Inspect() returned false for existing session")
	}
	if snap.SessionID != "s1" {
		t.Errorf("SessionID = %v, want s1", snap.SessionID)
	}
	if len(snap.Messages) != 1 {
		t.Fatalf("Inspect() returned %d messages, want 1", len(snap.Messages))
	}
	if snap.Messages[0].ID == "" {
		t.Error("message ID should not be empty")
	}
	if snap.Messages[0].CreatedAt.IsZero() {
		t.Error("message CreatedAt should be set")
	}

	// Mutating the snapshot must not leak into the store.
	snap.Messages[0].Content = "tampered"
	again, _ := store.Inspect("s1")
	if again.Messages[0].Content != "Hello" {
		t.Errorf("snapshot mutation leaked into store: %q", again.Messages[0].Content)
	}
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	idle := 30 * time.Minute
	store, clk := newTestStore(t, Config{IdleTimeout: idle}, nil)
	ctx := context.Background()

	if err := store.Append(ctx, "old", RoleUser, "Hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	clk.Advance(2 * time.Minute)
	if err := store.Append(ctx, "fresh", RoleUser, "Hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// "old" is idle+1s past its last activity, "fresh" is idle-2m+1s.
	now := testEpoch.Add(idle + time.Second)
	removed := store.Sweep(now)
	if removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if _, ok := store.Inspect("old"); ok {
		t.Error("expired session should be removed")
	}
	if _, ok := store.Inspect("fresh"); !ok {
		t.Error("active session should survive")
	}
}

func TestSweepBoundary(t *testing.T) {
	idle := 30 * time.Minute
	store, _ := newTestStore(t, Config{IdleTimeout: idle}, nil)
	ctx := context.Background()

	if err := store.Append(ctx, "s1", RoleUser, "Hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// Just under the threshold survives.
	if removed := store.Sweep(testEpoch.Add(idle - time.Second)); removed != 0 {
		t.Errorf("Sweep() before threshold = %d, want 0", removed)
	}
	// Exactly at the threshold is removed.
	if removed := store.Sweep(testEpoch.Add(idle)); removed != 1 {
		t.Errorf("Sweep() at threshold = %d, want 1", removed)
	}
}

func TestSweepEmptyStore(t *testing.T) {
	store, _ := newTestStore(t, Config{}, nil)

	if removed := store.Sweep(time.Now()); removed != 0 {
		t.Errorf("Sweep() on empty store = %d, want 0", removed)
	}
}

func TestHistoryRefreshesActivity(t *testing.T) {
	idle := 30 * time.Minute
	store, clk := newTestStore(t, Config{IdleTimeout: idle}, nil)
	ctx := context.Background()

	if err := store.Append(ctx, "read", RoleUser, "Hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(ctx, "untouched", RoleUser, "Hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// A read shortly before expiry counts as activity.
	clk.Advance(idle - time.Minute)
	_ = store.History("read")

	removed := store.Sweep(testEpoch.Add(idle + time.Minute))
	if removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if _, ok := store.Inspect("read"); !ok {
		t.Error("recently read session should survive the sweep")
	}
	if _, ok := store.Inspect("untouched"); ok {
		t.Error("untouched session should be removed")
	}
}

func TestLastActivityNeverMovesBackward(t *testing.T) {
	store, clk := newTestStore(t, Config{}, nil)
	ctx := context.Background()

	clk.Advance(10 * time.Minute)
	if err := store.Append(ctx, "s1", RoleUser, "Hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	snap, _ := store.Inspect("s1")
	appendTime := snap.LastActivity

	// A skewed clock must not rewind activity.
	clk.Set(testEpoch)
	_ = store.History("s1")

	snap, _ = store.Inspect("s1")
	if snap.LastActivity.Before(appendTime) {
		t.Errorf("LastActivity moved backward: %v -> %v", appendTime, snap.LastActivity)
	}
}

func TestConcurrentSessions(t *testing.T) {
	store, _ := newTestStore(t, Config{WindowPairs: 2}, summarizer.NewMock("compact summary"))
	ctx := context.Background()

	const sessions = 8
	const pairs = 6

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < pairs; j++ {
				_ = store.Append(ctx, id, RoleUser, "q")
				_ = store.Append(ctx, id, RoleAssistant, "a")
				_ = store.History(id)
			}
		}(fmt.Sprintf("s%d", i))
	}
	wg.Wait()

	if got := store.Count(); got != sessions {
		t.Errorf("Count() = %d, want %d", got, sessions)
	}
	for i := 0; i < sessions; i++ {
		snap, ok := store.Inspect(fmt.Sprintf("s%d", i))
		if !ok {
			t.Fatalf("session s%d missing", i)
		}
		if snap.PairCount() > 2 {
			t.Errorf("session s%d holds %d pairs, want <= 2", i, snap.PairCount())
		}
	}
}
