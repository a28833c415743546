package models

import "time"

// Judgment validation statuses for a peer review.
const (
	JudgmentPending   = "PENDING"
	JudgmentValidated = "VALIDATED"
	JudgmentRejected  = "REJECTED"
)

// PeerReview is created exactly once per completed assignment and is never
// mutated afterwards; corrections go through admin XP overrides.
type PeerReview struct {
	ReviewID      int       `gorm:"primaryKey;column:review_id" json:"review_id"`
	AssignmentID  int       `gorm:"column:assignment_id;unique" json:"assignment_id"`
	SubmissionID  int       `gorm:"column:submission_id" json:"submission_id"`
	ReviewerID    int       `gorm:"column:reviewer_id" json:"reviewer_id"`
	XpScore       int       `gorm:"column:xp_score" json:"xp_score"`
	QualityRating int       `gorm:"column:quality_rating" json:"quality_rating"`
	Comments      *string   `gorm:"column:comments" json:"comments,omitempty"`
	IsLate        bool      `gorm:"column:is_late" json:"is_late"`
	Judgment      string    `gorm:"column:judgment" json:"judgment"`
	CreateAt      time.Time `gorm:"column:create_at" json:"create_at"`

	// Relations
	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

func (PeerReview) TableName() string {
	return "peer_reviews"
}
