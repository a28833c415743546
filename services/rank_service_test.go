package services

import "testing"

func TestRankTableIsContiguous(t *testing.T) {
	table := RankTable()
	if len(table) != 15 {
		t.Fatalf("rank table size: got %d want 15", len(table))
	}
	if table[0].MinXp != 0 {
		t.Fatalf("bottom band must start at 0, got %d", table[0].MinXp)
	}
	for i := 0; i < len(table)-1; i++ {
		if table[i].MaxXp < 0 {
			t.Fatalf("band %s has an open ceiling but is not last", table[i].Name())
		}
		if table[i].MaxXp+1 != table[i+1].MinXp {
			t.Fatalf("gap between %s (max %d) and %s (min %d)",
				table[i].Name(), table[i].MaxXp, table[i+1].Name(), table[i+1].MinXp)
		}
	}
	last := table[len(table)-1]
	if last.MaxXp != -1 {
		t.Fatalf("top band %s must be open-ended, got max %d", last.Name(), last.MaxXp)
	}
}

func TestRankForXp(t *testing.T) {
	cases := []struct {
		xp   int
		want string
	}{
		{0, "Bronze III"},
		{99, "Bronze III"},
		{100, "Bronze II"},
		{-50, "Bronze III"},
		{2750, "Gold III"},
		{24999, "Diamond II"},
		{25000, "Diamond I"},
		{1000000, "Diamond I"},
	}
	for _, tc := range cases {
		if got := RankForXp(tc.xp).Name(); got != tc.want {
			t.Fatalf("rank for %d: got %s want %s", tc.xp, got, tc.want)
		}
	}
}

func TestNextRank(t *testing.T) {
	next := NextRank(RankForXp(0))
	if next == nil || next.Name() != "Bronze II" {
		t.Fatalf("next rank above Bronze III: got %v want Bronze II", next)
	}
	if next := NextRank(RankForXp(30000)); next != nil {
		t.Fatalf("next rank above the ceiling must be nil, got %s", next.Name())
	}
}

func TestRankIndexOrdersPromotions(t *testing.T) {
	if RankIndexForXp(100) <= RankIndexForXp(99) {
		t.Fatalf("crossing a band boundary must raise the rank index")
	}
	if RankIndexForXp(50) != RankIndexForXp(0) {
		t.Fatalf("movement inside a band must not change the rank index")
	}
}
