package models

import "time"

// Content flag severities and statuses.
const (
	FlagSeverityLow    = "LOW"
	FlagSeverityMedium = "MEDIUM"
	FlagSeverityHigh   = "HIGH"

	FlagStatusOpen      = "OPEN"
	FlagStatusResolved  = "RESOLVED"
	FlagStatusDismissed = "DISMISSED"
)

type ContentFlag struct {
	FlagID       int        `gorm:"primaryKey;column:flag_id" json:"flag_id"`
	SubmissionID int        `gorm:"column:submission_id" json:"submission_id"`
	FlaggedBy    *int       `gorm:"column:flagged_by" json:"flagged_by,omitempty"` // nil when raised by the system
	Reason       string     `gorm:"column:reason" json:"reason"`
	Severity     string     `gorm:"column:severity" json:"severity"`
	Status       string     `gorm:"column:status" json:"status"`
	Notes        *string    `gorm:"column:notes" json:"notes,omitempty"`
	ResolvedBy   *int       `gorm:"column:resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at,omitempty"`

	// Relations
	Submission *Submission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`
}

func (ContentFlag) TableName() string {
	return "content_flags"
}
