package services

import (
	"testing"

	"scholarxp-api/models"
)

func strPtr(s string) *string { return &s }

func TestBaseHandle(t *testing.T) {
	if got := BaseHandle("scholar#1234"); got != "scholar" {
		t.Fatalf("got %q want scholar", got)
	}
	if got := BaseHandle("  plainname "); got != "plainname" {
		t.Fatalf("got %q want plainname", got)
	}
}

func TestMatchHandleTiers(t *testing.T) {
	users := []models.User{
		{UserID: 1, Username: "alice", DiscordHandle: strPtr("alice#1111")},
		{UserID: 2, Username: "bob", DiscordHandle: strPtr("bobby#2222")},
		{UserID: 3, Username: "carol"},
	}

	m := MatchHandle(users, "Alice#1111")
	if m.Tier != MatchTierExact || m.User == nil || m.User.UserID != 1 {
		t.Fatalf("exact match: got tier=%s user=%v", m.Tier, m.User)
	}

	// Different discriminator, same base handle.
	m = MatchHandle(users, "bobby#9999")
	if m.Tier != MatchTierBaseHandle || m.User == nil || m.User.UserID != 2 {
		t.Fatalf("base handle match: got tier=%s user=%v", m.Tier, m.User)
	}

	// No discord handle on record, falls through to username.
	m = MatchHandle(users, "carol#0001")
	if m.Tier != MatchTierUsername || m.User == nil || m.User.UserID != 3 {
		t.Fatalf("username match: got tier=%s user=%v", m.Tier, m.User)
	}

	m = MatchHandle(users, "nobody#0000")
	if m.Tier != MatchTierNone || m.User != nil {
		t.Fatalf("no match: got tier=%s user=%v", m.Tier, m.User)
	}

	m = MatchHandle(users, "   ")
	if m.Tier != MatchTierNone {
		t.Fatalf("blank handle: got tier=%s", m.Tier)
	}
}

func TestMatchHandleReportsAmbiguity(t *testing.T) {
	users := []models.User{
		{UserID: 1, Username: "one", DiscordHandle: strPtr("dup#1111")},
		{UserID: 2, Username: "two", DiscordHandle: strPtr("dup#2222")},
	}

	m := MatchHandle(users, "dup#3333")
	if m.Tier != MatchTierBaseHandle || !m.Ambiguous {
		t.Fatalf("colliding base handles must be ambiguous: tier=%s ambiguous=%v", m.Tier, m.Ambiguous)
	}
	if len(m.Candidates) != 2 {
		t.Fatalf("candidates: got %d want 2", len(m.Candidates))
	}
	if m.User != nil {
		t.Fatalf("ambiguous match must not pick a user")
	}
}

func TestMatchHandlePrefersStrongerTier(t *testing.T) {
	// An exact match wins even when a weaker tier would be ambiguous.
	users := []models.User{
		{UserID: 1, Username: "x", DiscordHandle: strPtr("handle#1111")},
		{UserID: 2, Username: "y", DiscordHandle: strPtr("handle#2222")},
	}
	m := MatchHandle(users, "handle#2222")
	if m.Tier != MatchTierExact || m.User == nil || m.User.UserID != 2 {
		t.Fatalf("exact tier must win: tier=%s user=%v", m.Tier, m.User)
	}
}
