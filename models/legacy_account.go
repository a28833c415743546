package models

import "time"

// LegacyAccount is a pre-migration record keyed by Discord handle instead of
// a native user id. It is matched heuristically and merged at most once.
type LegacyAccount struct {
	LegacyID         int        `gorm:"primaryKey;column:legacy_id" json:"legacy_id"`
	DiscordHandle    string     `gorm:"column:discord_handle" json:"discord_handle"`
	Username         *string    `gorm:"column:username" json:"username,omitempty"`
	TotalXp          int        `gorm:"column:total_xp" json:"total_xp"`
	MergedIntoUserID *int       `gorm:"column:merged_into_user_id" json:"merged_into_user_id,omitempty"`
	MergedAt         *time.Time `gorm:"column:merged_at" json:"merged_at,omitempty"`
	CreateAt         time.Time  `gorm:"column:create_at" json:"create_at"`
}

func (LegacyAccount) TableName() string {
	return "legacy_accounts"
}
