package models

import "time"

// Review assignment statuses. REASSIGNED and CANCELLED are terminal; a
// replacement assignment is always a new row, never a mutated one.
const (
	AssignmentStatusPending    = "PENDING"
	AssignmentStatusInProgress = "IN_PROGRESS"
	AssignmentStatusCompleted  = "COMPLETED"
	AssignmentStatusMissed     = "MISSED"
	AssignmentStatusReassigned = "REASSIGNED"
	AssignmentStatusCancelled  = "CANCELLED"
)

// ReassignedByAuto marks reassignments produced by the automatic scan
// rather than an admin.
const ReassignedByAuto = "auto"

type ReviewAssignment struct {
	AssignmentID     int        `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	SubmissionID     int        `gorm:"column:submission_id" json:"submission_id"`
	ReviewerID       int        `gorm:"column:reviewer_id" json:"reviewer_id"`
	Status           string     `gorm:"column:status" json:"status"`
	AssignedAt       time.Time  `gorm:"column:assigned_at" json:"assigned_at"`
	Deadline         time.Time  `gorm:"column:deadline" json:"deadline"`
	CompletedAt      *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	ReassignedFromID *int       `gorm:"column:reassigned_from_id" json:"reassigned_from_id,omitempty"`
	ReassignReason   *string    `gorm:"column:reassign_reason" json:"reassign_reason,omitempty"`
	ReassignedBy     *string    `gorm:"column:reassigned_by" json:"reassigned_by,omitempty"`
	CreateAt         time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"update_at,omitempty"`

	// Relations
	Reviewer   *User       `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Submission *Submission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`
}

func (ReviewAssignment) TableName() string {
	return "review_assignments"
}

// IsActive reports whether the assignment counts against the submission's
// reviewer pool.
func (a *ReviewAssignment) IsActive() bool {
	return a.Status != AssignmentStatusReassigned && a.Status != AssignmentStatusCancelled
}
