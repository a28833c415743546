package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"scholarxp-api/models"

	"gorm.io/gorm"
)

// XP amounts for ledger events not derived from a score.
const (
	ReviewRewardXp        = 5
	TimelinessBonusXp     = 2
	MissedReviewPenaltyXp = 5 // applied as a negative amount
	StreakBonusXp         = 10
)

var ErrSubmissionNotFinalized = errors.New("submission has no final XP to adjust")

// XpService owns the append-only ledger. Every XP-affecting event appends
// one transaction row, and the owner's totals are recalculated from the sum
// of their rows inside the same database transaction, so displayed totals
// can never drift from the ledger.
type XpService struct {
	db    *gorm.DB
	cache *CacheService
}

func NewXpService(db *gorm.DB, cache *CacheService) *XpService {
	return &XpService{db: db, cache: cache}
}

// append writes one ledger row, then recalculates the user's totals from
// the ledger and runs rank change detection, all on the caller's
// transaction.
func (s *XpService) append(tx *gorm.DB, txn *models.XpTransaction) error {
	if txn.WeekNumber == 0 {
		txn.WeekNumber = CurrentWeekNumber()
	}
	if txn.CreateAt.IsZero() {
		txn.CreateAt = time.Now()
	}
	if err := tx.Create(txn).Error; err != nil {
		return fmt.Errorf("failed to append xp transaction: %w", err)
	}
	return s.recalcUser(tx, txn.UserID)
}

// recalcUser re-derives total and current-week XP as the sum of the user's
// ledger rows and persists them, emitting rank change events on the same
// transaction.
func (s *XpService) recalcUser(tx *gorm.DB, userID int) error {
	var user models.User
	if err := tx.First(&user, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to load user %d for recalculation: %w", userID, err)
	}
	beforeTotal := user.TotalXp

	var total int64
	if err := tx.Model(&models.XpTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return fmt.Errorf("failed to sum xp transactions: %w", err)
	}

	var weekTotal int64
	if err := tx.Model(&models.XpTransaction{}).
		Where("user_id = ? AND week_number = ?", userID, CurrentWeekNumber()).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&weekTotal).Error; err != nil {
		return fmt.Errorf("failed to sum current week xp: %w", err)
	}

	now := time.Now()
	if err := tx.Model(&models.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_xp":        total,
			"current_week_xp": weekTotal,
			"update_at":       now,
		}).Error; err != nil {
		return fmt.Errorf("failed to update user totals: %w", err)
	}

	if err := DetectRankChange(tx, userID, beforeTotal, int(total)); err != nil {
		return err
	}

	s.invalidateLeaderboard()
	return nil
}

func (s *XpService) invalidateLeaderboard() {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.InvalidatePattern(ctx, "leaderboard:*"); err != nil {
		log.Printf("[XpService] leaderboard cache invalidation failed: %v", err)
	}
}

// AwardSubmissionReward credits a finalized submission's XP to its owner.
func (s *XpService) AwardSubmissionReward(tx *gorm.DB, userID, submissionID, amount int) error {
	sourceType := "submission"
	return s.append(tx, &models.XpTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        models.XpTypeSubmissionReward,
		SourceType:  &sourceType,
		SourceID:    &submissionID,
		Description: fmt.Sprintf("Submission #%d finalized", submissionID),
	})
}

// AwardReviewReward credits a completed peer review, with a timeliness
// bonus when the review landed before the assignment deadline.
func (s *XpService) AwardReviewReward(tx *gorm.DB, reviewerID, reviewID int, onTime bool) error {
	amount := ReviewRewardXp
	description := fmt.Sprintf("Peer review #%d completed (late)", reviewID)
	if onTime {
		amount += TimelinessBonusXp
		description = fmt.Sprintf("Peer review #%d completed on time", reviewID)
	}
	sourceType := "peer_review"
	return s.append(tx, &models.XpTransaction{
		UserID:      reviewerID,
		Amount:      amount,
		Type:        models.XpTypeReviewReward,
		SourceType:  &sourceType,
		SourceID:    &reviewID,
		Description: description,
	})
}

// ApplyMissedPenalty debits a reviewer whose assignment was reshuffled away
// after the deadline.
func (s *XpService) ApplyMissedPenalty(tx *gorm.DB, reviewerID, assignmentID int) error {
	sourceType := "review_assignment"
	return s.append(tx, &models.XpTransaction{
		UserID:      reviewerID,
		Amount:      -MissedReviewPenaltyXp,
		Type:        models.XpTypePenalty,
		SourceType:  &sourceType,
		SourceID:    &assignmentID,
		Description: fmt.Sprintf("Missed review assignment #%d", assignmentID),
	})
}

// AwardStreakBonus credits a weekly submission streak.
func (s *XpService) AwardStreakBonus(tx *gorm.DB, userID, streakWeeks int) error {
	return s.append(tx, &models.XpTransaction{
		UserID:      userID,
		Amount:      StreakBonusXp,
		Type:        models.XpTypeStreakBonus,
		Description: fmt.Sprintf("Weekly submission streak (%d weeks)", streakWeeks),
	})
}

// OverrideResult reports the outcome of an admin XP override.
type OverrideResult struct {
	SubmissionID int `json:"submission_id"`
	PreviousXp   int `json:"previous_xp"`
	NewXp        int `json:"new_xp"`
	Difference   int `json:"difference"`
}

// OverrideSubmissionXp sets a submission's XP to newValue by appending a
// single ADMIN_ADJUSTMENT of the difference. Existing rows are never
// mutated, so the sum-of-transactions invariant holds. A FLAGGED submission
// with no final XP may be adjudicated this way: the override finalizes it
// and the adjustment carries the full amount.
func (s *XpService) OverrideSubmissionXp(submissionID, newValue int, reason string, adminID int) (*OverrideResult, error) {
	var result *OverrideResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sub models.Submission
		if err := tx.First(&sub, "submission_id = ?", submissionID).Error; err != nil {
			return err
		}
		if sub.FinalXp == nil && sub.Status != models.SubmissionStatusFlagged {
			return ErrSubmissionNotFinalized
		}

		previous := 0
		if sub.FinalXp != nil {
			previous = *sub.FinalXp
		}
		difference := newValue - previous
		now := time.Now()

		updates := map[string]interface{}{"final_xp": newValue, "update_at": now}
		if sub.FinalXp == nil {
			updates["status"] = models.SubmissionStatusFinalized
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update submission final xp: %w", err)
		}

		if difference != 0 {
			sourceType := "submission"
			if err := s.append(tx, &models.XpTransaction{
				UserID:      sub.UserID,
				Amount:      difference,
				Type:        models.XpTypeAdminAdjustment,
				SourceType:  &sourceType,
				SourceID:    &submissionID,
				Description: fmt.Sprintf("Admin XP override: %s", reason),
				WeekNumber:  sub.WeekNumber,
				AdminID:     &adminID,
			}); err != nil {
				return err
			}
		}

		audit := models.AdminAction{
			AdminID:    &adminID,
			Action:     "XP_OVERRIDE",
			TargetType: "submission",
			TargetID:   submissionID,
			Details:    fmt.Sprintf("final_xp %d -> %d: %s", previous, newValue, reason),
			CreateAt:   now,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("failed to create override audit record: %w", err)
		}

		result = &OverrideResult{
			SubmissionID: submissionID,
			PreviousXp:   previous,
			NewXp:        newValue,
			Difference:   difference,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteSubmission soft-deletes a submission and reverses its awarded XP:
// the submission's ledger rows are removed and the owner's totals are
// recalculated in the same transaction, so no orphaned rows or drifted
// totals survive the deletion.
func (s *XpService) DeleteSubmission(submissionID int, adminID int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var sub models.Submission
		if err := tx.First(&sub, "submission_id = ?", submissionID).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Where("source_type = ? AND source_id = ?", "submission", submissionID).
			Delete(&models.XpTransaction{}).Error; err != nil {
			return fmt.Errorf("failed to remove submission transactions: %w", err)
		}

		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Updates(map[string]interface{}{"delete_at": now, "update_at": now}).Error; err != nil {
			return fmt.Errorf("failed to delete submission: %w", err)
		}

		if err := tx.Model(&models.ReviewAssignment{}).
			Where("submission_id = ? AND status IN ?", submissionID,
				[]string{models.AssignmentStatusPending, models.AssignmentStatusInProgress, models.AssignmentStatusMissed}).
			Updates(map[string]interface{}{"status": models.AssignmentStatusCancelled, "update_at": now}).Error; err != nil {
			return fmt.Errorf("failed to cancel open assignments: %w", err)
		}

		if err := s.recalcUser(tx, sub.UserID); err != nil {
			return err
		}

		audit := models.AdminAction{
			AdminID:    &adminID,
			Action:     "SUBMISSION_DELETE",
			TargetType: "submission",
			TargetID:   submissionID,
			Details:    fmt.Sprintf("submission %s deleted, xp reversed", sub.SubmissionNumber),
			CreateAt:   now,
		}
		return tx.Create(&audit).Error
	})
}

// RecalculateUser re-derives one user's totals from the ledger. Used by the
// recalculate-xp CLI and after legacy merges.
func (s *XpService) RecalculateUser(userID int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.recalcUser(tx, userID)
	})
}

// RecalculateAllUsers walks every active user; per-user failures are logged
// and skipped so one bad row cannot stall the reconciliation.
func (s *XpService) RecalculateAllUsers() (int, int, error) {
	var userIDs []int
	if err := s.db.Model(&models.User{}).
		Where("delete_at IS NULL").
		Pluck("user_id", &userIDs).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to list users: %w", err)
	}

	succeeded, failed := 0, 0
	for _, id := range userIDs {
		if err := s.RecalculateUser(id); err != nil {
			log.Printf("[RecalculateAllUsers] user=%d failed: %v", id, err)
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed, nil
}
