package services

import (
	"fmt"
	"log"
	"time"

	"scholarxp-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// ReviewerPoolSize caps active assignments per submission.
	ReviewerPoolSize = 3

	// ReviewDeadlineOffset is how long a reviewer has to complete an
	// assignment.
	ReviewDeadlineOffset = 72 * time.Hour
)

// AssignmentResult reports how a pool assignment went. Business-rule
// failures (empty pool, full pool) come back with Success=false and a
// message rather than an error; only database failures return errors.
type AssignmentResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Warning       string `json:"warning,omitempty"`
	Requested     int    `json:"requested"`
	AssignedCount int    `json:"assigned_count"`
	AssignmentIDs []int  `json:"assignment_ids,omitempty"`
	ReviewerIDs   []int  `json:"reviewer_ids,omitempty"`
}

type AssignmentService struct {
	db     *gorm.DB
	notify *NotificationService
}

func NewAssignmentService(db *gorm.DB, notify *NotificationService) *AssignmentService {
	return &AssignmentService{db: db, notify: notify}
}

// EligibleReviewers selects up to limit reviewers for a submission:
// reviewer or admin role, not the author, not excluded, not soft-deleted,
// and not already holding an active assignment on this submission.
// Reviewers with fewer misses are preferred so unreliable reviewers drain
// out of the rotation.
func (s *AssignmentService) EligibleReviewers(db *gorm.DB, submissionID, authorID int, excluded []int, limit int) ([]models.User, error) {
	q := db.Model(&models.User{}).
		Where("role_id IN ?", []int{models.RoleReviewer, models.RoleAdmin}).
		Where("user_id <> ?", authorID).
		Where("delete_at IS NULL").
		Where("user_id NOT IN (?)",
			db.Model(&models.ReviewAssignment{}).
				Select("reviewer_id").
				Where("submission_id = ? AND status NOT IN ?", submissionID,
					[]string{models.AssignmentStatusReassigned, models.AssignmentStatusCancelled}))

	if len(excluded) > 0 {
		q = q.Where("user_id NOT IN ?", excluded)
	}

	var reviewers []models.User
	if err := q.Order("missed_review_count ASC, user_id ASC").Limit(limit).Find(&reviewers).Error; err != nil {
		return nil, fmt.Errorf("failed to query eligible reviewers: %w", err)
	}
	return reviewers, nil
}

// AssignReviewers fills the submission's reviewer pool up to
// ReviewerPoolSize, creating assignment rows with the standard deadline and
// moving the submission under peer review. A pool smaller than the open
// slots is a partial assignment (success with warning); an empty pool is a
// business failure, not an error. replacing carries the ids of reassigned
// assignments a reshuffle is backfilling; each new row links one of them
// through reassigned_from_id.
//
// The slot arithmetic and the per-reviewer duplicate check run inside the
// write transaction while holding the submission row FOR UPDATE, so two
// concurrent calls cannot both read a free pool and overfill it.
func (s *AssignmentService) AssignReviewers(submissionID int, excluded, replacing []int) (*AssignmentResult, error) {
	var sub models.Submission
	if err := s.db.First(&sub, "submission_id = ? AND delete_at IS NULL", submissionID).Error; err != nil {
		return nil, err
	}
	if sub.IsTerminal() {
		return &AssignmentResult{
			Success: false,
			Message: fmt.Sprintf("submission is %s and no longer accepts reviewers", sub.Status),
		}, nil
	}

	// Candidate selection runs outside the lock; the pool bound is enforced
	// again inside the transaction before anything is inserted.
	reviewers, err := s.EligibleReviewers(s.db, submissionID, sub.UserID, excluded, ReviewerPoolSize)
	if err != nil {
		return nil, err
	}

	result := &AssignmentResult{}
	now := time.Now()
	deadline := now.Add(ReviewDeadlineOffset)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var locked models.Submission
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, "submission_id = ?", submissionID).Error; err != nil {
			return err
		}

		var activeCount int64
		if err := tx.Model(&models.ReviewAssignment{}).
			Where("submission_id = ? AND status NOT IN ?", submissionID,
				[]string{models.AssignmentStatusReassigned, models.AssignmentStatusCancelled}).
			Count(&activeCount).Error; err != nil {
			return fmt.Errorf("failed to count active assignments: %w", err)
		}

		slots := ReviewerPoolSize - int(activeCount)
		result.Requested = slots
		if slots <= 0 {
			result.Message = "reviewer pool is already full"
			return nil
		}
		if len(reviewers) == 0 {
			result.Message = "no eligible reviewers available for this submission"
			return nil
		}

		for _, reviewer := range reviewers {
			if len(result.AssignmentIDs) == slots {
				break
			}

			// A concurrent request may have assigned this reviewer between
			// selection and the lock.
			var dup int64
			if err := tx.Model(&models.ReviewAssignment{}).
				Where("submission_id = ? AND reviewer_id = ? AND status NOT IN ?",
					submissionID, reviewer.UserID,
					[]string{models.AssignmentStatusReassigned, models.AssignmentStatusCancelled}).
				Count(&dup).Error; err != nil {
				return fmt.Errorf("failed duplicate check: %w", err)
			}
			if dup > 0 {
				continue
			}

			assignment := models.ReviewAssignment{
				SubmissionID: submissionID,
				ReviewerID:   reviewer.UserID,
				Status:       models.AssignmentStatusPending,
				AssignedAt:   now,
				Deadline:     deadline,
				CreateAt:     now,
			}
			if i := len(result.AssignmentIDs); i < len(replacing) {
				fromID := replacing[i]
				assignment.ReassignedFromID = &fromID
			}
			if err := tx.Create(&assignment).Error; err != nil {
				return fmt.Errorf("failed to create assignment: %w", err)
			}
			result.AssignmentIDs = append(result.AssignmentIDs, assignment.AssignmentID)
			result.ReviewerIDs = append(result.ReviewerIDs, reviewer.UserID)
		}

		result.AssignedCount = len(result.AssignmentIDs)
		if result.AssignedCount == 0 {
			result.Message = "no eligible reviewers available for this submission"
			return nil
		}
		result.Success = true

		updates := map[string]interface{}{
			"review_count": int(activeCount) + result.AssignedCount,
			"update_at":    now,
		}
		if locked.Status == models.SubmissionStatusPending || locked.Status == models.SubmissionStatusAiReviewed {
			updates["status"] = models.SubmissionStatusUnderPeerReview
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update submission metadata: %w", err)
		}

		if s.notify != nil {
			for _, reviewerID := range result.ReviewerIDs {
				if err := s.notify.Notify(tx, reviewerID,
					"New review assignment",
					fmt.Sprintf("You have been assigned to review submission %s. Deadline: %s.",
						sub.SubmissionNumber, deadline.Format(time.RFC1123)),
					"info", &submissionID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Success {
		return result, nil
	}
	if result.AssignedCount < result.Requested {
		result.Warning = fmt.Sprintf("eligible pool smaller than requested: assigned %d of %d",
			result.AssignedCount, result.Requested)
	}
	log.Printf("[AssignReviewers] submission=%d assigned=%d/%d excluded=%d",
		submissionID, result.AssignedCount, result.Requested, len(excluded))
	return result, nil
}

// StartAssignment transitions a pending assignment to IN_PROGRESS for the
// reviewer who owns it.
func (s *AssignmentService) StartAssignment(assignmentID, reviewerID int) error {
	res := s.db.Model(&models.ReviewAssignment{}).
		Where("assignment_id = ? AND reviewer_id = ? AND status = ?",
			assignmentID, reviewerID, models.AssignmentStatusPending).
		Updates(map[string]interface{}{
			"status":    models.AssignmentStatusInProgress,
			"update_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to start assignment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
