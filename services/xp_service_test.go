package services

import (
	"database/sql/driver"
	"regexp"
	"testing"
)

// Ledger invariant: an admin override never mutates existing rows, it
// appends exactly one ADMIN_ADJUSTMENT carrying the difference. The script
// rejects any statement beyond the ones listed, so a second adjustment or
// an UPDATE of the ledger would fail the test.
func TestOverrideSubmissionXpAppendsSingleAdjustment(t *testing.T) {
	week := int64(CurrentWeekNumber())
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .submissions. WHERE submission_id"),
			args:    []driver.Value{int64(42)},
			columns: []string{"submission_id", "user_id", "status", "final_xp", "week_number"},
			rows:    [][]driver.Value{{int64(42), int64(7), "FINALIZED", int64(69), week}},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("UPDATE .submissions. SET"),
			contains: []driver.Value{int64(90), int64(42)},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("INSERT INTO .xp_transactions."),
			contains: []driver.Value{int64(21), "ADMIN_ADJUSTMENT", int64(7)},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .users. WHERE user_id"),
			args:    []driver.Value{int64(7)},
			columns: []string{"user_id", "username", "total_xp", "current_week_xp"},
			rows:    [][]driver.Value{{int64(7), "alice", int64(500), int64(120)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT COALESCE.SUM.amount., 0. FROM .xp_transactions. WHERE user_id = \\?"),
			args:    []driver.Value{int64(7)},
			columns: []string{"total"},
			rows:    [][]driver.Value{{int64(521)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT COALESCE.SUM.amount., 0. FROM .xp_transactions. WHERE user_id = \\? AND week_number = \\?"),
			args:    []driver.Value{int64(7), week},
			columns: []string{"total"},
			rows:    [][]driver.Value{{int64(141)}},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("UPDATE .users. SET"),
			contains: []driver.Value{int64(521), int64(141), int64(7)},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("INSERT INTO .admin_actions."),
			contains: []driver.Value{"XP_OVERRIDE"},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewXpService(gormDB, nil)
	result, err := service.OverrideSubmissionXp(42, 90, "appeal granted", 3)
	if err != nil {
		t.Fatalf("override failed: %v", err)
	}
	if result.PreviousXp != 69 || result.NewXp != 90 || result.Difference != 21 {
		t.Fatalf("override result: got %d -> %d (diff %d)", result.PreviousXp, result.NewXp, result.Difference)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

// A flagged submission with no final XP may be adjudicated by the override:
// it is finalized in the same statement and the adjustment carries the full
// amount.
func TestOverrideSubmissionXpAdjudicatesFlagged(t *testing.T) {
	week := int64(CurrentWeekNumber())
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .submissions. WHERE submission_id"),
			args:    []driver.Value{int64(42)},
			columns: []string{"submission_id", "user_id", "status", "final_xp", "week_number"},
			rows:    [][]driver.Value{{int64(42), int64(7), "FLAGGED", nil, week}},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("UPDATE .submissions. SET"),
			contains: []driver.Value{int64(90), "FINALIZED", int64(42)},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("INSERT INTO .xp_transactions."),
			contains: []driver.Value{int64(90), "ADMIN_ADJUSTMENT"},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .users. WHERE user_id"),
			args:    []driver.Value{int64(7)},
			columns: []string{"user_id", "username", "total_xp", "current_week_xp"},
			rows:    [][]driver.Value{{int64(7), "alice", int64(0), int64(0)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT COALESCE.SUM.amount., 0. FROM .xp_transactions."),
			columns: []string{"total"},
			rows:    [][]driver.Value{{int64(90)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT COALESCE.SUM.amount., 0. FROM .xp_transactions."),
			columns: []string{"total"},
			rows:    [][]driver.Value{{int64(90)}},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("UPDATE .users. SET"),
			contains: []driver.Value{int64(90), int64(7)},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("INSERT INTO .admin_actions."),
			contains: []driver.Value{"XP_OVERRIDE"},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewXpService(gormDB, nil)
	result, err := service.OverrideSubmissionXp(42, 90, "adjudicated after flag review", 3)
	if err != nil {
		t.Fatalf("override of flagged submission failed: %v", err)
	}
	if result.PreviousXp != 0 || result.NewXp != 90 || result.Difference != 90 {
		t.Fatalf("adjudication result: got %d -> %d (diff %d)", result.PreviousXp, result.NewXp, result.Difference)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestOverrideSubmissionXpRejectsUnfinalized(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .submissions. WHERE submission_id"),
			columns: []string{"submission_id", "user_id", "status", "final_xp"},
			rows:    [][]driver.Value{{int64(42), int64(7), "UNDER_PEER_REVIEW", nil}},
		},
	}
	gormDB, _, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewXpService(gormDB, nil)
	if _, err := service.OverrideSubmissionXp(42, 90, "too early", 3); err != ErrSubmissionNotFinalized {
		t.Fatalf("expected ErrSubmissionNotFinalized, got %v", err)
	}
}

// Recalculation persists exactly the sums read back from the ledger.
func TestRecalculateUserDerivesTotalsFromLedger(t *testing.T) {
	week := int64(CurrentWeekNumber())
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .users. WHERE user_id"),
			args:    []driver.Value{int64(7)},
			columns: []string{"user_id", "username", "total_xp", "current_week_xp"},
			rows:    [][]driver.Value{{int64(7), "alice", int64(100), int64(0)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT COALESCE.SUM.amount., 0. FROM .xp_transactions. WHERE user_id = \\?"),
			args:    []driver.Value{int64(7)},
			columns: []string{"total"},
			rows:    [][]driver.Value{{int64(150)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT COALESCE.SUM.amount., 0. FROM .xp_transactions. WHERE user_id = \\? AND week_number = \\?"),
			args:    []driver.Value{int64(7), week},
			columns: []string{"total"},
			rows:    [][]driver.Value{{int64(50)}},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("UPDATE .users. SET"),
			contains: []driver.Value{int64(150), int64(50), int64(7)},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewXpService(gormDB, nil)
	if err := service.RecalculateUser(7); err != nil {
		t.Fatalf("recalculate failed: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

// Deleting a submission removes its ledger rows, cancels its open
// assignments and recalculates the owner, all in one transaction.
func TestDeleteSubmissionReversesAwardedXp(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .submissions. WHERE submission_id"),
			args:    []driver.Value{int64(42)},
			columns: []string{"submission_id", "submission_number", "user_id", "status", "final_xp"},
			rows:    [][]driver.Value{{int64(42), "SUB-2026-0042", int64(7), "FINALIZED", int64(50)}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("DELETE FROM .xp_transactions. WHERE source_type = \\? AND source_id = \\?"),
			args:    []driver.Value{"submission", int64(42)},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("UPDATE .submissions. SET"),
			contains: []driver.Value{int64(42)},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("UPDATE .review_assignments. SET"),
			contains: []driver.Value{"CANCELLED", int64(42)},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .users. WHERE user_id"),
			args:    []driver.Value{int64(7)},
			columns: []string{"user_id", "username", "total_xp", "current_week_xp"},
			rows:    [][]driver.Value{{int64(7), "alice", int64(550), int64(50)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT COALESCE.SUM.amount., 0. FROM .xp_transactions."),
			columns: []string{"total"},
			rows:    [][]driver.Value{{int64(500)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT COALESCE.SUM.amount., 0. FROM .xp_transactions."),
			columns: []string{"total"},
			rows:    [][]driver.Value{{int64(0)}},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("UPDATE .users. SET"),
			contains: []driver.Value{int64(500), int64(7)},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("INSERT INTO .admin_actions."),
			contains: []driver.Value{"SUBMISSION_DELETE"},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewXpService(gormDB, nil)
	if err := service.DeleteSubmission(42, 3); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
