package memory

import (
	"testing"
	"time"
)

func TestProjectTurnsEmpty(t *testing.T) {
	if turns := projectTurns("", nil); len(turns) != 0 {
		t.Errorf("projectTurns() returned %d turns, want 0", len(turns))
	}
}

func TestProjectTurnsSummaryFirst(t *testing.T) {
	msgs := []Message{
		{ID: "m1", Role: RoleUser, Content: "What about scholarships?", CreatedAt: time.Now()},
		{ID: "m2", Role: RoleAssistant, Content: "Here are three options.", CreatedAt: time.Now()},
	}

	turns := projectTurns("Student wants STEM programs in Canada.", msgs)
	if len(turns) != 3 {
		t.Fatalf("projectTurns() returned %d turns, want 3", len(turns))
	}
	if turns[0].Role != RoleSummary {
		t.Errorf("first turn role = %v, want %v", turns[0].Role, RoleSummary)
	}
	if turns[0].Content != "Student wants STEM programs in Canada." {
		t.Errorf("first turn content = %q, want the summary verbatim", turns[0].Content)
	}
	if turns[1] != (Turn{Role: RoleUser, Content: "What about scholarships?"}) {
		t.Errorf("second turn = %+v", turns[1])
	}
	if turns[2] != (Turn{Role: RoleAssistant, Content: "Here are three options."}) {
		t.Errorf("third turn = %+v", turns[2])
	}
}

func TestProjectTurnsNoSummary(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "Hello"},
	}

	turns := projectTurns("", msgs)
	if len(turns) != 1 {
		t.Fatalf("projectTurns() returned %d turns, want 1", len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Content != "Hello" {
		t.Errorf("turn = %+v, want {user Hello}", turns[0])
	}
}
