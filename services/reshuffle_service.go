package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"scholarxp-api/models"

	"gorm.io/gorm"
)

// MinReshuffleReasonLength guards against empty/throwaway audit reasons.
const MinReshuffleReasonLength = 5

var ErrReasonTooShort = fmt.Errorf("reshuffle reason must be at least %d characters", MinReshuffleReasonLength)

// ValidateReshuffleReason rejects reasons shorter than the minimum after
// trimming.
func ValidateReshuffleReason(reason string) error {
	if len(strings.TrimSpace(reason)) < MinReshuffleReasonLength {
		return ErrReasonTooShort
	}
	return nil
}

// IsReshuffleCandidate reports whether an assignment should be handed to a
// new reviewer: still open (PENDING or MISSED) with its deadline in the
// past. REASSIGNED assignments are terminal, so re-running a reshuffle over
// them is a no-op.
func IsReshuffleCandidate(a *models.ReviewAssignment, now time.Time) bool {
	if a.Status != models.AssignmentStatusPending && a.Status != models.AssignmentStatusMissed {
		return false
	}
	return a.Deadline.Before(now)
}

// ReshuffleResult summarizes one submission's reshuffle.
type ReshuffleResult struct {
	SubmissionID    int    `json:"submission_id"`
	ReshuffledCount int    `json:"reshuffled_count"`
	TotalProcessed  int    `json:"total_processed"`
	BackfillWarning string `json:"backfill_warning,omitempty"`
	Message         string `json:"message"`
}

// BulkReshuffleResult aggregates a batch run. Per-submission failures are
// recorded, not fatal.
type BulkReshuffleResult struct {
	SubmissionsProcessed int               `json:"submissions_processed"`
	SubmissionsFailed    int               `json:"submissions_failed"`
	TotalReshuffled      int               `json:"total_reshuffled"`
	Results              []ReshuffleResult `json:"results"`
}

type ReshuffleService struct {
	db          *gorm.DB
	assignments *AssignmentService
	xp          *XpService
}

func NewReshuffleService(db *gorm.DB, assignments *AssignmentService, xp *XpService) *ReshuffleService {
	return &ReshuffleService{db: db, assignments: assignments, xp: xp}
}

// ReshuffleSubmission reassigns the targeted (or all candidate) assignments
// of one submission and backfills the pool with fresh reviewers, excluding
// the ones just removed. Marking and penalties run in one short
// transaction; the backfill runs in its own, keeping lock duration bounded.
// actor is "auto" for the automatic scan or the admin's id string.
func (s *ReshuffleService) ReshuffleSubmission(submissionID int, assignmentIDs []int, reason, actor string, adminID *int) (*ReshuffleResult, error) {
	if err := ValidateReshuffleReason(reason); err != nil {
		return nil, err
	}

	var sub models.Submission
	if err := s.db.First(&sub, "submission_id = ? AND delete_at IS NULL", submissionID).Error; err != nil {
		return nil, err
	}

	result := &ReshuffleResult{SubmissionID: submissionID}
	now := time.Now()
	reshuffledReviewers := make([]int, 0)
	reshuffledAssignments := make([]int, 0)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("submission_id = ?", submissionID)
		if len(assignmentIDs) > 0 {
			q = q.Where("assignment_id IN ?", assignmentIDs)
		}
		var assignments []models.ReviewAssignment
		if err := q.Find(&assignments).Error; err != nil {
			return fmt.Errorf("failed to load assignments: %w", err)
		}

		result.TotalProcessed = len(assignments)
		explicit := len(assignmentIDs) > 0

		for i := range assignments {
			a := &assignments[i]
			// Explicitly targeted assignments may be reshuffled before the
			// deadline (admin pulling a stale reviewer); the scan path only
			// touches overdue ones. Terminal assignments are skipped either
			// way, which keeps repeat reshuffles idempotent.
			if explicit {
				if a.Status != models.AssignmentStatusPending && a.Status != models.AssignmentStatusMissed {
					continue
				}
			} else if !IsReshuffleCandidate(a, now) {
				continue
			}

			wasMissed := a.Status == models.AssignmentStatusMissed || a.Deadline.Before(now)

			if err := tx.Model(&models.ReviewAssignment{}).
				Where("assignment_id = ?", a.AssignmentID).
				Updates(map[string]interface{}{
					"status":          models.AssignmentStatusReassigned,
					"reassign_reason": reason,
					"reassigned_by":   actor,
					"update_at":       now,
				}).Error; err != nil {
				return fmt.Errorf("failed to mark assignment reassigned: %w", err)
			}

			if wasMissed {
				if err := tx.Model(&models.User{}).
					Where("user_id = ?", a.ReviewerID).
					Update("missed_review_count", gorm.Expr("missed_review_count + 1")).Error; err != nil {
					return fmt.Errorf("failed to bump missed count: %w", err)
				}
				if err := s.xp.ApplyMissedPenalty(tx, a.ReviewerID, a.AssignmentID); err != nil {
					return err
				}
			}

			reshuffledReviewers = append(reshuffledReviewers, a.ReviewerID)
			reshuffledAssignments = append(reshuffledAssignments, a.AssignmentID)
			result.ReshuffledCount++
		}

		if result.ReshuffledCount == 0 {
			return nil
		}

		audit := models.AdminAction{
			AdminID:    adminID,
			Action:     "REVIEW_RESHUFFLE",
			TargetType: "submission",
			TargetID:   submissionID,
			Details:    fmt.Sprintf("reshuffled %d assignment(s) by %s: %s", result.ReshuffledCount, actor, reason),
			CreateAt:   now,
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		return nil, err
	}

	if result.ReshuffledCount == 0 {
		result.Message = "no assignments were eligible for reshuffle"
		return result, nil
	}

	// Backfill outside the marking transaction; the removed reviewers are
	// excluded so the same reviewer cannot bounce straight back in, and the
	// reassigned ids are threaded through so each replacement row records
	// which assignment it replaces.
	backfill, err := s.assignments.AssignReviewers(submissionID, reshuffledReviewers, reshuffledAssignments)
	if err != nil {
		return nil, err
	}
	if !backfill.Success {
		result.BackfillWarning = backfill.Message
	} else if backfill.Warning != "" {
		result.BackfillWarning = backfill.Warning
	}

	result.Message = fmt.Sprintf("reshuffled %d of %d assignment(s), %d replacement reviewer(s) assigned",
		result.ReshuffledCount, result.TotalProcessed, backfill.AssignedCount)
	log.Printf("[ReshuffleSubmission] submission=%d reshuffled=%d backfilled=%d actor=%s",
		submissionID, result.ReshuffledCount, backfill.AssignedCount, actor)
	return result, nil
}

// BulkReshuffle runs ReshuffleSubmission over the given submissions, or
// over every submission under peer review with at least one overdue open
// assignment when none are given. One short transaction per submission; a
// failure on one submission is logged and skipped so the batch continues.
func (s *ReshuffleService) BulkReshuffle(submissionIDs []int, reason, actor string, adminID *int) (*BulkReshuffleResult, error) {
	if err := ValidateReshuffleReason(reason); err != nil {
		return nil, err
	}

	ids := submissionIDs
	if len(ids) == 0 {
		var err error
		ids, err = s.overdueSubmissionIDs()
		if err != nil {
			return nil, err
		}
	}

	bulk := &BulkReshuffleResult{}
	for _, id := range ids {
		res, err := s.ReshuffleSubmission(id, nil, reason, actor, adminID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("[BulkReshuffle] submission=%d not found, skipping", id)
			} else {
				log.Printf("[BulkReshuffle] submission=%d failed: %v", id, err)
			}
			bulk.SubmissionsFailed++
			continue
		}
		bulk.SubmissionsProcessed++
		bulk.TotalReshuffled += res.ReshuffledCount
		bulk.Results = append(bulk.Results, *res)
	}

	summary := models.AdminAction{
		AdminID:    adminID,
		Action:     "BULK_RESHUFFLE",
		TargetType: "batch",
		TargetID:   0,
		Details: fmt.Sprintf("processed=%d failed=%d reshuffled=%d by %s: %s",
			bulk.SubmissionsProcessed, bulk.SubmissionsFailed, bulk.TotalReshuffled, actor, reason),
		CreateAt: time.Now(),
	}
	if err := s.db.Create(&summary).Error; err != nil {
		log.Printf("[BulkReshuffle] failed to write summary audit: %v", err)
	}
	return bulk, nil
}

// AutoReshuffleAll is the automatic entry point used by the reshuffle CLI:
// every submission under peer review with an overdue open assignment is
// reshuffled with a standard reason.
func (s *ReshuffleService) AutoReshuffleAll() (*BulkReshuffleResult, error) {
	return s.BulkReshuffle(nil, "automatic reshuffle of overdue review assignments", models.ReassignedByAuto, nil)
}

// overdueSubmissionIDs lists submissions under peer review holding at least
// one PENDING or MISSED assignment whose deadline has passed. Deadline
// expiry is detected here, lazily, rather than by a timer.
func (s *ReshuffleService) overdueSubmissionIDs() ([]int, error) {
	var ids []int
	err := s.db.Model(&models.ReviewAssignment{}).
		Distinct("review_assignments.submission_id").
		Joins("JOIN submissions ON submissions.submission_id = review_assignments.submission_id").
		Where("submissions.status = ? AND submissions.delete_at IS NULL", models.SubmissionStatusUnderPeerReview).
		Where("review_assignments.status IN ?", []string{models.AssignmentStatusPending, models.AssignmentStatusMissed}).
		Where("review_assignments.deadline < ?", time.Now()).
		Pluck("review_assignments.submission_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan for overdue assignments: %w", err)
	}
	return ids, nil
}

// CountOverdue reports how many open assignments are past deadline,
// without changing them. Used by the reshuffle CLI's dry-run mode.
func (s *ReshuffleService) CountOverdue() (int64, error) {
	var count int64
	err := s.db.Model(&models.ReviewAssignment{}).
		Where("status IN ? AND deadline < ?",
			[]string{models.AssignmentStatusPending, models.AssignmentStatusInProgress}, time.Now()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count overdue assignments: %w", err)
	}
	return count, nil
}

// MarkOverdueAsMissed flips overdue PENDING/IN_PROGRESS assignments to
// MISSED. Run by the reshuffle CLI before the reshuffle pass so penalties
// and reliability metrics see the MISSED state.
func (s *ReshuffleService) MarkOverdueAsMissed() (int64, error) {
	res := s.db.Model(&models.ReviewAssignment{}).
		Where("status IN ? AND deadline < ?",
			[]string{models.AssignmentStatusPending, models.AssignmentStatusInProgress}, time.Now()).
		Updates(map[string]interface{}{
			"status":    models.AssignmentStatusMissed,
			"update_at": time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark overdue assignments: %w", res.Error)
	}
	return res.RowsAffected, nil
}
