package models

import "time"

// WeeklyStreak records per-week submission activity used for streak bonuses.
type WeeklyStreak struct {
	StreakID        int        `gorm:"primaryKey;column:streak_id" json:"streak_id"`
	UserID          int        `gorm:"column:user_id" json:"user_id"`
	WeekNumber      int        `gorm:"column:week_number" json:"week_number"`
	SubmissionCount int        `gorm:"column:submission_count" json:"submission_count"`
	StreakAwarded   bool       `gorm:"column:streak_awarded" json:"streak_awarded"`
	CreateAt        time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt        *time.Time `gorm:"column:update_at" json:"update_at,omitempty"`
}

func (WeeklyStreak) TableName() string {
	return "weekly_streaks"
}
