package models

import (
	"time"
)

// Role IDs as seeded in the roles table.
const (
	RoleUser     = 1
	RoleReviewer = 2
	RoleAdmin    = 3
)

type User struct {
	UserID            int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	Username          string     `gorm:"column:username;unique" json:"username"`
	DiscordHandle     *string    `gorm:"column:discord_handle" json:"discord_handle,omitempty"`
	Email             string     `gorm:"column:email;unique" json:"email"`
	Password          string     `gorm:"column:password" json:"-"`
	RoleID            int        `gorm:"column:role_id" json:"role_id"`
	TotalXp           int        `gorm:"column:total_xp" json:"total_xp"`
	CurrentWeekXp     int        `gorm:"column:current_week_xp" json:"current_week_xp"`
	StreakCount       int        `gorm:"column:streak_count" json:"streak_count"`
	MissedReviewCount int        `gorm:"column:missed_review_count" json:"missed_review_count"`
	WalletAddress     *string    `gorm:"column:wallet_address" json:"wallet_address,omitempty"`
	CreateAt          *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt          *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt          *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

type Role struct {
	RoleID   int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Role     string     `gorm:"column:role" json:"role"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}

// CanReview reports whether the user may hold review assignments.
func (u *User) CanReview() bool {
	return u.RoleID == RoleReviewer || u.RoleID == RoleAdmin
}
