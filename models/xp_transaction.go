package models

import "time"

// Ledger transaction types.
const (
	XpTypeSubmissionReward = "SUBMISSION_REWARD"
	XpTypeReviewReward     = "REVIEW_REWARD"
	XpTypeStreakBonus      = "STREAK_BONUS"
	XpTypePenalty          = "PENALTY"
	XpTypeAdminAdjustment  = "ADMIN_ADJUSTMENT"
	XpTypeAchievement      = "ACHIEVEMENT"
)

// XpTransaction is an append-only ledger row. A user's displayed totals are
// always recomputable as the sum of their transactions; rows are removed only
// when their source submission is deleted, together with a recalculation.
type XpTransaction struct {
	TransactionID int       `gorm:"primaryKey;column:transaction_id" json:"transaction_id"`
	UserID        int       `gorm:"column:user_id" json:"user_id"`
	Amount        int       `gorm:"column:amount" json:"amount"`
	Type          string    `gorm:"column:type" json:"type"`
	SourceType    *string   `gorm:"column:source_type" json:"source_type,omitempty"`
	SourceID      *int      `gorm:"column:source_id" json:"source_id,omitempty"`
	Description   string    `gorm:"column:description" json:"description"`
	WeekNumber    int       `gorm:"column:week_number" json:"week_number"`
	AdminID       *int      `gorm:"column:admin_id" json:"admin_id,omitempty"`
	CreateAt      time.Time `gorm:"column:create_at" json:"create_at"`
}

func (XpTransaction) TableName() string {
	return "xp_transactions"
}
