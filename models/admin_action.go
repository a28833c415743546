package models

import "time"

// AdminAction is the audit trail. One row per admin-visible state change:
// reshuffles, XP overrides, moderation decisions, rank changes.
type AdminAction struct {
	ActionID   int       `gorm:"primaryKey;column:action_id" json:"action_id"`
	AdminID    *int      `gorm:"column:admin_id" json:"admin_id,omitempty"` // nil for system actions
	Action     string    `gorm:"column:action" json:"action"`
	TargetType string    `gorm:"column:target_type" json:"target_type"`
	TargetID   int       `gorm:"column:target_id" json:"target_id"`
	Details    string    `gorm:"column:details" json:"details"`
	CreateAt   time.Time `gorm:"column:create_at" json:"create_at"`
}

func (AdminAction) TableName() string {
	return "admin_actions"
}
