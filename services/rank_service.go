package services

import (
	"fmt"
	"log"
	"time"

	"scholarxp-api/models"

	"gorm.io/gorm"
)

// RankBand is one row of the fixed rank table. MaxXp of -1 marks the
// open-ended ceiling band. Bands are contiguous: each band's MaxXp + 1 is
// the next band's MinXp.
type RankBand struct {
	Category string `json:"category"`
	Tier     string `json:"tier"`
	MinXp    int    `json:"min_xp"`
	MaxXp    int    `json:"max_xp"` // -1 = unbounded
}

// Name returns the display name, e.g. "Gold II".
func (b RankBand) Name() string {
	return b.Category + " " + b.Tier
}

// Contains reports whether totalXp falls inside the band.
func (b RankBand) Contains(totalXp int) bool {
	if totalXp < b.MinXp {
		return false
	}
	return b.MaxXp < 0 || totalXp <= b.MaxXp
}

var rankTable = []RankBand{
	{Category: "Bronze", Tier: "III", MinXp: 0, MaxXp: 99},
	{Category: "Bronze", Tier: "II", MinXp: 100, MaxXp: 249},
	{Category: "Bronze", Tier: "I", MinXp: 250, MaxXp: 499},
	{Category: "Silver", Tier: "III", MinXp: 500, MaxXp: 999},
	{Category: "Silver", Tier: "II", MinXp: 1000, MaxXp: 1749},
	{Category: "Silver", Tier: "I", MinXp: 1750, MaxXp: 2749},
	{Category: "Gold", Tier: "III", MinXp: 2750, MaxXp: 3999},
	{Category: "Gold", Tier: "II", MinXp: 4000, MaxXp: 5499},
	{Category: "Gold", Tier: "I", MinXp: 5500, MaxXp: 7499},
	{Category: "Platinum", Tier: "III", MinXp: 7500, MaxXp: 9999},
	{Category: "Platinum", Tier: "II", MinXp: 10000, MaxXp: 12999},
	{Category: "Platinum", Tier: "I", MinXp: 13000, MaxXp: 16499},
	{Category: "Diamond", Tier: "III", MinXp: 16500, MaxXp: 20499},
	{Category: "Diamond", Tier: "II", MinXp: 20500, MaxXp: 24999},
	{Category: "Diamond", Tier: "I", MinXp: 25000, MaxXp: -1},
}

// RankTable returns a copy of the band table, lowest band first.
func RankTable() []RankBand {
	out := make([]RankBand, len(rankTable))
	copy(out, rankTable)
	return out
}

// RankForXp maps a cumulative XP total to its band. Negative totals clamp to
// the bottom band.
func RankForXp(totalXp int) RankBand {
	if totalXp < 0 {
		totalXp = 0
	}
	for _, band := range rankTable {
		if band.Contains(totalXp) {
			return band
		}
	}
	return rankTable[len(rankTable)-1]
}

// RankIndexForXp returns the position of the band for totalXp. Lower index
// means lower rank.
func RankIndexForXp(totalXp int) int {
	if totalXp < 0 {
		totalXp = 0
	}
	for i, band := range rankTable {
		if band.Contains(totalXp) {
			return i
		}
	}
	return len(rankTable) - 1
}

// NextRank returns the band immediately above the given one, or nil at the
// ceiling.
func NextRank(band RankBand) *RankBand {
	for i, b := range rankTable {
		if b.Category == band.Category && b.Tier == band.Tier {
			if i+1 < len(rankTable) {
				next := rankTable[i+1]
				return &next
			}
			return nil
		}
	}
	return nil
}

// DetectRankChange compares the ranks derived from a user's XP before and
// after a ledger change. On a category or tier change it writes a
// notification for the user and an audit row, distinguishing promotions
// from demotions. Runs inside the caller's transaction so the audit commits
// atomically with the ledger write.
func DetectRankChange(tx *gorm.DB, userID, beforeXp, afterXp int) error {
	before := RankForXp(beforeXp)
	after := RankForXp(afterXp)
	if before == after {
		return nil
	}

	promoted := RankIndexForXp(afterXp) > RankIndexForXp(beforeXp)

	title := "Rank promotion"
	message := fmt.Sprintf("You have been promoted from %s to %s", before.Name(), after.Name())
	ntype := "success"
	action := "RANK_PROMOTION"
	if !promoted {
		title = "Rank demotion"
		message = fmt.Sprintf("Your rank changed from %s to %s", before.Name(), after.Name())
		ntype = "warning"
		action = "RANK_DEMOTION"
	}

	now := time.Now()
	notification := models.Notification{
		UserID:   uint(userID),
		Title:    title,
		Message:  message,
		Type:     ntype,
		CreateAt: now,
	}
	if err := tx.Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create rank notification: %w", err)
	}

	audit := models.AdminAction{
		Action:     action,
		TargetType: "user",
		TargetID:   userID,
		Details:    fmt.Sprintf("%s -> %s (xp %d -> %d)", before.Name(), after.Name(), beforeXp, afterXp),
		CreateAt:   now,
	}
	if err := tx.Create(&audit).Error; err != nil {
		return fmt.Errorf("failed to create rank audit record: %w", err)
	}

	log.Printf("[DetectRankChange] user=%d %s %s -> %s", userID, action, before.Name(), after.Name())
	return nil
}
