package services

import (
	"strings"
	"testing"
	"time"
)

func TestStatusFilterValidate(t *testing.T) {
	if err := (StatusFilter{Statuses: []string{"FINALIZED", "FLAGGED"}}).Validate(); err != nil {
		t.Fatalf("known statuses rejected: %v", err)
	}
	if err := (StatusFilter{Statuses: []string{"BANANA"}}).Validate(); err == nil {
		t.Fatalf("unknown status must be rejected")
	}
	if err := (StatusFilter{}).Validate(); err == nil {
		t.Fatalf("empty status list must be rejected")
	}
}

func TestWeekFilterValidate(t *testing.T) {
	if err := (WeekFilter{WeekNumber: 202636}).Validate(); err != nil {
		t.Fatalf("valid week rejected: %v", err)
	}
	if err := (WeekFilter{WeekNumber: 36}).Validate(); err == nil {
		t.Fatalf("bare week index must be rejected")
	}
}

func TestDateRangeFilterValidate(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := (DateRangeFilter{From: &from, To: &to}).Validate(); err == nil {
		t.Fatalf("inverted range must be rejected")
	}
	if err := (DateRangeFilter{From: &from}).Validate(); err != nil {
		t.Fatalf("open-ended range rejected: %v", err)
	}
	if err := (DateRangeFilter{}).Validate(); err == nil {
		t.Fatalf("empty range must be rejected")
	}
}

func TestSearchFilterValidate(t *testing.T) {
	if err := (SearchFilter{Query: "zk proofs"}).Validate(); err != nil {
		t.Fatalf("valid query rejected: %v", err)
	}
	if err := (SearchFilter{Query: strings.Repeat("x", 201)}).Validate(); err == nil {
		t.Fatalf("oversized query must be rejected")
	}
	if err := (SearchFilter{Query: "   "}).Validate(); err == nil {
		t.Fatalf("blank query must be rejected")
	}
}

func TestParseSubmissionFilters(t *testing.T) {
	params := map[string]string{
		"status":   "finalized, flagged",
		"platform": "youtube",
		"week":     "202610",
		"from":     "2026-03-01",
		"min_xp":   "10",
		"search":   "rollup",
	}
	get := func(k string) string { return params[k] }

	filters, err := ParseSubmissionFilters(get)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(filters) != 5 {
		t.Fatalf("filter count: got %d want 5", len(filters))
	}

	status, ok := filters[0].(StatusFilter)
	if !ok {
		t.Fatalf("first filter is %T, want StatusFilter", filters[0])
	}
	if len(status.Statuses) != 2 || status.Statuses[0] != "FINALIZED" || status.Statuses[1] != "FLAGGED" {
		t.Fatalf("statuses must be upper-cased and trimmed: %v", status.Statuses)
	}
}

func TestParseSubmissionFiltersRejectsBadInput(t *testing.T) {
	cases := []map[string]string{
		{"week": "soon"},
		{"week": "12"},
		{"from": "01/03/2026"},
		{"min_xp": "ten"},
		{"status": "NOT_A_STATUS"},
	}
	for _, params := range cases {
		p := params
		if _, err := ParseSubmissionFilters(func(k string) string { return p[k] }); err == nil {
			t.Fatalf("params %v must be rejected", p)
		}
	}
}
