package services

import (
	"errors"
	"fmt"
	"time"

	"scholarxp-api/models"

	"gorm.io/gorm"
)

// StreakService tracks per-week submission activity and pays the streak
// bonus through the ledger once per week.
type StreakService struct {
	xp *XpService
}

func NewStreakService(xp *XpService) *StreakService {
	return &StreakService{xp: xp}
}

// previousWeekNumber steps one ISO week back from the given week number.
func previousWeekNumber(weekNumber int) int {
	year := weekNumber / 100
	week := weekNumber % 100
	if week > 1 {
		return year*100 + week - 1
	}
	// Last ISO week of the prior year is 52 or 53.
	_, lastWeek := time.Date(year-1, 12, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return (year-1)*100 + lastWeek
}

// OnSubmissionCreated records a submission against the user's weekly streak
// on the caller's transaction. The first submission of a week extends the
// streak when the previous week was active, otherwise resets it to 1; a
// continued streak of two or more weeks pays the bonus once per week.
func (s *StreakService) OnSubmissionCreated(tx *gorm.DB, userID, weekNumber int) error {
	var row models.WeeklyStreak
	err := tx.Where("user_id = ? AND week_number = ?", userID, weekNumber).First(&row).Error
	now := time.Now()

	if err == nil {
		return tx.Model(&models.WeeklyStreak{}).
			Where("streak_id = ?", row.StreakID).
			Updates(map[string]interface{}{
				"submission_count": gorm.Expr("submission_count + 1"),
				"update_at":        now,
			}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load weekly streak: %w", err)
	}

	// First submission of this week.
	var prevCount int64
	if err := tx.Model(&models.WeeklyStreak{}).
		Where("user_id = ? AND week_number = ? AND submission_count > 0", userID, previousWeekNumber(weekNumber)).
		Count(&prevCount).Error; err != nil {
		return fmt.Errorf("failed to check previous week: %w", err)
	}

	var user models.User
	if err := tx.First(&user, "user_id = ?", userID).Error; err != nil {
		return err
	}

	streak := 1
	if prevCount > 0 {
		streak = user.StreakCount + 1
	}
	if err := tx.Model(&models.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"streak_count": streak, "update_at": now}).Error; err != nil {
		return fmt.Errorf("failed to update streak count: %w", err)
	}

	row = models.WeeklyStreak{
		UserID:          userID,
		WeekNumber:      weekNumber,
		SubmissionCount: 1,
		CreateAt:        now,
	}

	if streak >= 2 {
		if err := s.xp.AwardStreakBonus(tx, userID, streak); err != nil {
			return err
		}
		row.StreakAwarded = true
	}

	return tx.Create(&row).Error
}
