package models

import "time"

// Submission lifecycle statuses.
const (
	SubmissionStatusPending         = "PENDING"
	SubmissionStatusAiReviewed      = "AI_REVIEWED"
	SubmissionStatusUnderPeerReview = "UNDER_PEER_REVIEW"
	SubmissionStatusFinalized       = "FINALIZED"
	SubmissionStatusRejected        = "REJECTED"
	SubmissionStatusFlagged         = "FLAGGED"
)

type Submission struct {
	SubmissionID     int        `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	SubmissionNumber string     `gorm:"column:submission_number;unique" json:"submission_number"`
	UserID           int        `gorm:"column:user_id" json:"user_id"`
	Title            string     `gorm:"column:title" json:"title"`
	URL              string     `gorm:"column:url" json:"url"`
	Platform         string     `gorm:"column:platform" json:"platform"`
	TaskTypes        string     `gorm:"column:task_types" json:"task_types"` // comma-joined tags
	Status           string     `gorm:"column:status" json:"status"`
	AiXp             *int       `gorm:"column:ai_xp" json:"ai_xp,omitempty"`
	OriginalityScore *float64   `gorm:"column:originality_score" json:"originality_score,omitempty"`
	PeerXp           *float64   `gorm:"column:peer_xp" json:"peer_xp,omitempty"`
	FinalXp          *int       `gorm:"column:final_xp" json:"final_xp,omitempty"`
	ConsensusScore   *float64   `gorm:"column:consensus_score" json:"consensus_score,omitempty"`
	ReviewCount      int        `gorm:"column:review_count" json:"review_count"`
	FlagCount        int        `gorm:"column:flag_count" json:"flag_count"`
	WeekNumber       int        `gorm:"column:week_number" json:"week_number"`
	CreateAt         *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt         *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// IsTerminal reports whether the submission has left the review pipeline.
func (s *Submission) IsTerminal() bool {
	switch s.Status {
	case SubmissionStatusFinalized, SubmissionStatusRejected, SubmissionStatusFlagged:
		return true
	}
	return false
}
