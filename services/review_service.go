package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"scholarxp-api/models"

	"gorm.io/gorm"
)

var (
	ErrAssignmentNotOpen   = errors.New("assignment is not open for review")
	ErrReviewAlreadyExists = errors.New("a review already exists for this assignment")
	ErrInvalidXpScore      = errors.New("xp score must be between 0 and 100")
	ErrInvalidQuality      = errors.New("quality rating must be between 1 and 5")
)

// ReviewInput is a reviewer's submitted judgment.
type ReviewInput struct {
	AssignmentID  int
	ReviewerID    int
	XpScore       int
	QualityRating int
	Comments      string
}

func (in ReviewInput) validate() error {
	if in.XpScore < 0 || in.XpScore > 100 {
		return ErrInvalidXpScore
	}
	if in.QualityRating < 1 || in.QualityRating > 5 {
		return ErrInvalidQuality
	}
	return nil
}

// ReviewService turns an open assignment into an immutable peer review,
// credits the reviewer through the ledger and kicks consensus once the
// submission has enough completed reviews.
type ReviewService struct {
	db        *gorm.DB
	xp        *XpService
	consensus *ConsensusService
}

func NewReviewService(db *gorm.DB, xp *XpService, consensus *ConsensusService) *ReviewService {
	return &ReviewService{db: db, xp: xp, consensus: consensus}
}

// SubmitReview completes an assignment. The review row, the COMPLETED
// transition, the reward ledger entry and the reviewer's recalculated
// totals commit in one transaction; consensus finalization runs in its own
// transaction afterwards so a consensus failure never rolls back an
// accepted review.
func (s *ReviewService) SubmitReview(in ReviewInput) (*models.PeerReview, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var review models.PeerReview
	var submissionID int

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var assignment models.ReviewAssignment
		if err := tx.First(&assignment, "assignment_id = ? AND reviewer_id = ?",
			in.AssignmentID, in.ReviewerID).Error; err != nil {
			return err
		}

		switch assignment.Status {
		case models.AssignmentStatusPending, models.AssignmentStatusInProgress, models.AssignmentStatusMissed:
			// MISSED assignments may still be completed until a reshuffle
			// actually replaces them; the review is just marked late.
		default:
			return ErrAssignmentNotOpen
		}

		var existing int64
		if err := tx.Model(&models.PeerReview{}).
			Where("assignment_id = ?", in.AssignmentID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed review existence check: %w", err)
		}
		if existing > 0 {
			return ErrReviewAlreadyExists
		}

		now := time.Now()
		isLate := now.After(assignment.Deadline)

		review = models.PeerReview{
			AssignmentID:  in.AssignmentID,
			SubmissionID:  assignment.SubmissionID,
			ReviewerID:    in.ReviewerID,
			XpScore:       in.XpScore,
			QualityRating: in.QualityRating,
			IsLate:        isLate,
			Judgment:      models.JudgmentPending,
			CreateAt:      now,
		}
		if in.Comments != "" {
			review.Comments = &in.Comments
		}
		if err := tx.Create(&review).Error; err != nil {
			return fmt.Errorf("failed to create peer review: %w", err)
		}

		if err := tx.Model(&models.ReviewAssignment{}).
			Where("assignment_id = ?", in.AssignmentID).
			Updates(map[string]interface{}{
				"status":       models.AssignmentStatusCompleted,
				"completed_at": now,
				"update_at":    now,
			}).Error; err != nil {
			return fmt.Errorf("failed to complete assignment: %w", err)
		}

		if err := s.xp.AwardReviewReward(tx, in.ReviewerID, review.ReviewID, !isLate); err != nil {
			return err
		}

		submissionID = assignment.SubmissionID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.consensus.FinalizeIfReady(submissionID); err != nil {
		// The review itself is committed; consensus will be retried on the
		// next review or via the debug endpoint.
		log.Printf("[SubmitReview] consensus run failed for submission=%d: %v", submissionID, err)
	}
	return &review, nil
}

// AssignmentsForReviewer lists a reviewer's assignments, open ones first.
func (s *ReviewService) AssignmentsForReviewer(reviewerID int) ([]models.ReviewAssignment, error) {
	var assignments []models.ReviewAssignment
	err := s.db.
		Preload("Submission").
		Where("reviewer_id = ? AND status NOT IN ?", reviewerID,
			[]string{models.AssignmentStatusReassigned, models.AssignmentStatusCancelled}).
		Order("CASE WHEN status IN ('PENDING','IN_PROGRESS') THEN 0 ELSE 1 END, deadline ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load reviewer assignments: %w", err)
	}
	return assignments, nil
}
