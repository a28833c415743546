package services

import (
	"database/sql/driver"
	"math"
	"regexp"
	"testing"
)

func TestReliabilityScore(t *testing.T) {
	// A fresh reviewer has no history to hold against them.
	if got := ReliabilityScore(0, 0, 0, 0); got != 1 {
		t.Fatalf("no history: got %v want 1", got)
	}
	// Everything completed on time.
	if got := ReliabilityScore(10, 10, 0, 0); got != 1 {
		t.Fatalf("perfect record: got %v want 1", got)
	}
	// 8/10 completed, 2 missed, 1 late: 0.8*0.7 + (1-0.125)*0.3 - 0.1 = 0.7225.
	got := ReliabilityScore(10, 8, 2, 1)
	if math.Abs(got-0.7225) > 1e-9 {
		t.Fatalf("mixed record: got %v want 0.7225", got)
	}
	// Enough misses drive the score to the floor, never below it.
	if got := ReliabilityScore(20, 0, 20, 0); got != 0 {
		t.Fatalf("all missed: got %v want 0", got)
	}
}

func TestSimulateComputesPerReviewerScores(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("(?s)SELECT .* FROM .review_assignments. JOIN users"),
			columns: []string{"reviewer_id", "username", "total", "completed", "missed", "late"},
			rows: [][]driver.Value{
				{int64(5), "alice", int64(10), int64(10), int64(0), int64(0)},
				{int64(9), "bob", int64(10), int64(8), int64(2), int64(1)},
			},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewReliabilityService(gormDB)
	out, err := service.Simulate()
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("rows: got %d want 2", len(out))
	}
	if out[0].ReviewerID != 5 || out[0].Score != 1 {
		t.Fatalf("alice: got id=%d score=%v", out[0].ReviewerID, out[0].Score)
	}
	if out[1].Username != "bob" || math.Abs(out[1].Score-0.7225) > 1e-9 {
		t.Fatalf("bob: got %s score=%v", out[1].Username, out[1].Score)
	}
	if out[1].CompletionRate != 0.8 {
		t.Fatalf("bob completion rate: got %v want 0.8", out[1].CompletionRate)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
