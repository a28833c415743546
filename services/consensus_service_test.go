package services

import (
	"database/sql/driver"
	"math"
	"regexp"
	"testing"
)

func TestCalculatePeerXpAveragesScores(t *testing.T) {
	got := CalculatePeerXp([]int{70, 75, 80})
	if got != 75 {
		t.Fatalf("peer xp: got %v want 75", got)
	}
	if got := CalculatePeerXp(nil); got != 0 {
		t.Fatalf("peer xp of no scores: got %v want 0", got)
	}
}

func TestCalculateFinalXpWeighting(t *testing.T) {
	// 0.4*60 + 0.6*75 = 69
	if got := CalculateFinalXp(60, 75, true); got != 69 {
		t.Fatalf("weighted final xp: got %d want 69", got)
	}
	// AI disabled: the peer average stands alone, rounded.
	if got := CalculateFinalXp(0, 71.5, false); got != 72 {
		t.Fatalf("peer-only final xp: got %d want 72", got)
	}
	if got := CalculateFinalXp(100, 68.4, false); got != 68 {
		t.Fatalf("peer-only final xp must ignore ai score: got %d want 68", got)
	}
}

func TestCalculateConsensusScore(t *testing.T) {
	if got := CalculateConsensusScore([]int{80, 80, 80}); got != 1 {
		t.Fatalf("identical scores: got %v want 1", got)
	}
	if got := CalculateConsensusScore([]int{42}); got != 1 {
		t.Fatalf("single score: got %v want 1", got)
	}
	// 0 and 100 give stddev 50, the full spread.
	if got := CalculateConsensusScore([]int{0, 100}); got != 0 {
		t.Fatalf("full spread: got %v want 0", got)
	}

	// {70, 75, 80}: stddev ~4.08, consensus ~0.918.
	got := CalculateConsensusScore([]int{70, 75, 80})
	if math.Abs(got-0.9184) > 0.001 {
		t.Fatalf("close scores: got %v want ~0.9184", got)
	}
	if got < LowConsensusThreshold {
		t.Fatalf("close scores must not fall under the flag threshold")
	}

	// {10, 50, 90}: stddev ~32.66, consensus ~0.347 -> flagged.
	got = CalculateConsensusScore([]int{10, 50, 90})
	if math.Abs(got-0.3469) > 0.001 {
		t.Fatalf("divergent scores: got %v want ~0.3469", got)
	}
	if got >= LowConsensusThreshold {
		t.Fatalf("divergent scores must fall under the flag threshold")
	}
}

func TestExplainReportsInsufficientReviews(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .submissions. WHERE submission_id"),
			columns: []string{"submission_id", "user_id", "status"},
			rows:    [][]driver.Value{{int64(42), int64(7), "UNDER_PEER_REVIEW"}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .peer_reviews. WHERE submission_id"),
			columns: []string{"review_id", "submission_id", "xp_score"},
			rows: [][]driver.Value{
				{int64(1), int64(42), int64(70)},
				{int64(2), int64(42), int64(80)},
			},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewConsensusService(gormDB, nil)
	report, err := service.Explain(42)
	if err != nil {
		t.Fatalf("explain failed: %v", err)
	}
	if report.Computable {
		t.Fatalf("two reviews must not be computable")
	}
	if report.ReviewCount != 2 || report.RequiredCount != RequiredPeerReviews {
		t.Fatalf("counts: got %d/%d want 2/%d", report.ReviewCount, report.RequiredCount, RequiredPeerReviews)
	}
	if report.Reason == "" {
		t.Fatalf("expected a reason for the incomputable report")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestExplainFlagsDivergentScores(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .submissions. WHERE submission_id"),
			columns: []string{"submission_id", "user_id", "status"},
			rows:    [][]driver.Value{{int64(42), int64(7), "UNDER_PEER_REVIEW"}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .peer_reviews. WHERE submission_id"),
			columns: []string{"review_id", "submission_id", "xp_score"},
			rows: [][]driver.Value{
				{int64(1), int64(42), int64(10)},
				{int64(2), int64(42), int64(50)},
				{int64(3), int64(42), int64(90)},
			},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewConsensusService(gormDB, nil)
	report, err := service.Explain(42)
	if err != nil {
		t.Fatalf("explain failed: %v", err)
	}
	if !report.Computable {
		t.Fatalf("three reviews must be computable: %s", report.Reason)
	}
	if !report.WouldFlag {
		t.Fatalf("divergent scores must report WouldFlag")
	}
	if report.AiEnabled {
		t.Fatalf("submission without ai_xp must report AiEnabled=false")
	}
	if report.PeerXp == nil || *report.PeerXp != 50 {
		t.Fatalf("peer xp: got %v want 50", report.PeerXp)
	}
	if report.FinalXp == nil || *report.FinalXp != 50 {
		t.Fatalf("final xp: got %v want 50", report.FinalXp)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

// ForceFinalize pays out a flagged submission with the standard weighting
// even though the score spread is below the consensus threshold. The
// scripted recalculation keeps the owner's total equal to the ledger sum.
func TestForceFinalizeIgnoresConsensusThreshold(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .submissions. WHERE submission_id"),
			columns: []string{"submission_id", "user_id", "status", "final_xp", "ai_xp"},
			rows:    [][]driver.Value{{int64(42), int64(7), "FLAGGED", nil, nil}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .peer_reviews. WHERE submission_id"),
			columns: []string{"review_id", "submission_id", "xp_score"},
			rows: [][]driver.Value{
				{int64(1), int64(42), int64(10)},
				{int64(2), int64(42), int64(50)},
				{int64(3), int64(42), int64(90)},
			},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("UPDATE .submissions. SET"),
			contains: []driver.Value{"FINALIZED", int64(50), int64(42)},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("INSERT INTO .xp_transactions."),
			contains: []driver.Value{"SUBMISSION_REWARD", int64(50), int64(7)},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .users. WHERE user_id"),
			columns: []string{"user_id", "username", "total_xp", "current_week_xp"},
			rows:    [][]driver.Value{{int64(7), "alice", int64(0), int64(0)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT COALESCE.SUM.amount., 0. FROM .xp_transactions."),
			columns: []string{"total"},
			rows:    [][]driver.Value{{int64(50)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT COALESCE.SUM.amount., 0. FROM .xp_transactions."),
			columns: []string{"total"},
			rows:    [][]driver.Value{{int64(50)}},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("UPDATE .users. SET"),
			contains: []driver.Value{int64(50), int64(7)},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewConsensusService(gormDB, NewXpService(gormDB, nil))
	finalXp, err := service.ForceFinalize(gormDB, 42)
	if err != nil {
		t.Fatalf("force finalize failed: %v", err)
	}
	if finalXp != 50 {
		t.Fatalf("final xp: got %d want 50", finalXp)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestForceFinalizeRequiresFlaggedSubmission(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .submissions. WHERE submission_id"),
			columns: []string{"submission_id", "user_id", "status", "final_xp"},
			rows:    [][]driver.Value{{int64(42), int64(7), "FINALIZED", int64(80)}},
		},
	}
	gormDB, _, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewConsensusService(gormDB, nil)
	if _, err := service.ForceFinalize(gormDB, 42); err != ErrNotAwaitingAdjudication {
		t.Fatalf("expected ErrNotAwaitingAdjudication, got %v", err)
	}
}

func TestForceFinalizeRequiresEnoughReviews(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .submissions. WHERE submission_id"),
			columns: []string{"submission_id", "user_id", "status", "final_xp"},
			rows:    [][]driver.Value{{int64(42), int64(7), "FLAGGED", nil}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .peer_reviews. WHERE submission_id"),
			columns: []string{"review_id", "submission_id", "xp_score"},
			rows: [][]driver.Value{
				{int64(1), int64(42), int64(70)},
				{int64(2), int64(42), int64(75)},
			},
		},
	}
	gormDB, _, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewConsensusService(gormDB, nil)
	if _, err := service.ForceFinalize(gormDB, 42); err != ErrNotEnoughReviews {
		t.Fatalf("expected ErrNotEnoughReviews, got %v", err)
	}
}
