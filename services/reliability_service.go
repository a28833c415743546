package services

import (
	"fmt"

	"scholarxp-api/models"

	"gorm.io/gorm"
)

// ReviewerReliability is a derived, non-persisted view of one reviewer's
// track record, recomputed on demand for the admin simulator.
type ReviewerReliability struct {
	ReviewerID       int     `json:"reviewer_id"`
	Username         string  `json:"username"`
	TotalAssignments int     `json:"total_assignments"`
	Completed        int     `json:"completed"`
	Missed           int     `json:"missed"`
	LateReviews      int     `json:"late_reviews"`
	CompletionRate   float64 `json:"completion_rate"`
	LatenessRate     float64 `json:"lateness_rate"`
	Score            float64 `json:"score"`
}

// ReliabilityScore folds a reviewer's counts into [0,1]: completion rate
// carries most of the weight, lateness erodes it, and every miss costs a
// flat increment.
func ReliabilityScore(total, completed, missed, late int) float64 {
	if total == 0 {
		return 1
	}
	completionRate := float64(completed) / float64(total)
	latenessRate := 0.0
	if completed > 0 {
		latenessRate = float64(late) / float64(completed)
	}

	score := completionRate*0.7 + (1-latenessRate)*0.3 - float64(missed)*0.05
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

type ReliabilityService struct {
	db *gorm.DB
}

func NewReliabilityService(db *gorm.DB) *ReliabilityService {
	return &ReliabilityService{db: db}
}

type reliabilityRow struct {
	ReviewerID int
	Username   string
	Total      int
	Completed  int
	Missed     int
	Late       int
}

// Simulate aggregates assignment history per reviewer. Reassigned and
// cancelled assignments are excluded from the denominator since the
// reviewer was relieved of them.
func (s *ReliabilityService) Simulate() ([]ReviewerReliability, error) {
	var rows []reliabilityRow
	err := s.db.Model(&models.ReviewAssignment{}).
		Select(`review_assignments.reviewer_id,
			users.username,
			COUNT(*) AS total,
			SUM(CASE WHEN review_assignments.status = ? THEN 1 ELSE 0 END) AS completed,
			SUM(CASE WHEN review_assignments.status = ? THEN 1 ELSE 0 END) AS missed,
			SUM(CASE WHEN peer_reviews.is_late = 1 THEN 1 ELSE 0 END) AS late`,
			models.AssignmentStatusCompleted, models.AssignmentStatusMissed).
		Joins("JOIN users ON users.user_id = review_assignments.reviewer_id").
		Joins("LEFT JOIN peer_reviews ON peer_reviews.assignment_id = review_assignments.assignment_id").
		Where("review_assignments.status NOT IN ?",
			[]string{models.AssignmentStatusReassigned, models.AssignmentStatusCancelled}).
		Group("review_assignments.reviewer_id, users.username").
		Order("review_assignments.reviewer_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviewer reliability: %w", err)
	}

	out := make([]ReviewerReliability, 0, len(rows))
	for _, row := range rows {
		entry := ReviewerReliability{
			ReviewerID:       row.ReviewerID,
			Username:         row.Username,
			TotalAssignments: row.Total,
			Completed:        row.Completed,
			Missed:           row.Missed,
			LateReviews:      row.Late,
			Score:            ReliabilityScore(row.Total, row.Completed, row.Missed, row.Late),
		}
		if row.Total > 0 {
			entry.CompletionRate = float64(row.Completed) / float64(row.Total)
		}
		if row.Completed > 0 {
			entry.LatenessRate = float64(row.Late) / float64(row.Completed)
		}
		out = append(out, entry)
	}
	return out, nil
}
