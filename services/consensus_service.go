package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"scholarxp-api/models"

	"gorm.io/gorm"
)

const (
	// RequiredPeerReviews is the completion threshold before consensus runs.
	RequiredPeerReviews = 3

	// AiWeight and PeerWeight combine AI and peer scores into the final XP.
	AiWeight   = 0.4
	PeerWeight = 0.6

	// LowConsensusThreshold flags a submission for admin attention instead
	// of auto-finalizing it.
	LowConsensusThreshold = 0.5

	// consensusSpread is the score stddev at which agreement is treated as
	// zero (scores span the 0-100 scale).
	consensusSpread = 50.0
)

// CalculatePeerXp averages the peer review scores.
func CalculatePeerXp(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// CalculateFinalXp combines AI and peer XP into the awarded value. When AI
// evaluation is disabled or unavailable the peer average stands alone.
func CalculateFinalXp(aiXp int, peerXp float64, aiEnabled bool) int {
	if !aiEnabled {
		return int(math.Round(peerXp))
	}
	return int(math.Round(AiWeight*float64(aiXp) + PeerWeight*peerXp))
}

// CalculateConsensusScore maps reviewer agreement to [0,1]: 1 means the
// reviewers scored identically, 0 means their spread reached the full scale.
func CalculateConsensusScore(scores []int) float64 {
	if len(scores) < 2 {
		return 1
	}
	mean := CalculatePeerXp(scores)
	variance := 0.0
	for _, s := range scores {
		d := float64(s) - mean
		variance += d * d
	}
	variance /= float64(len(scores))
	stddev := math.Sqrt(variance)

	score := 1 - stddev/consensusSpread
	if score < 0 {
		return 0
	}
	return score
}

// ConsensusReport is the non-persisting explanation returned by the admin
// consensus-debug endpoint.
type ConsensusReport struct {
	SubmissionID   int      `json:"submission_id"`
	Computable     bool     `json:"computable"`
	Reason         string   `json:"reason,omitempty"`
	ReviewCount    int      `json:"review_count"`
	RequiredCount  int      `json:"required_count"`
	Scores         []int    `json:"scores,omitempty"`
	AiEnabled      bool     `json:"ai_enabled"`
	AiXp           *int     `json:"ai_xp,omitempty"`
	PeerXp         *float64 `json:"peer_xp,omitempty"`
	FinalXp        *int     `json:"final_xp,omitempty"`
	ConsensusScore *float64 `json:"consensus_score,omitempty"`
	WouldFlag      bool     `json:"would_flag"`
}

type ConsensusService struct {
	db *gorm.DB
	xp *XpService
}

func NewConsensusService(db *gorm.DB, xp *XpService) *ConsensusService {
	return &ConsensusService{db: db, xp: xp}
}

// completedScores loads the XP scores of completed peer reviews for a
// submission, oldest first.
func (s *ConsensusService) completedScores(db *gorm.DB, submissionID int) ([]int, error) {
	var reviews []models.PeerReview
	if err := db.
		Where("submission_id = ?", submissionID).
		Order("create_at ASC").
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to load peer reviews: %w", err)
	}

	scores := make([]int, 0, len(reviews))
	for _, r := range reviews {
		scores = append(scores, r.XpScore)
	}
	return scores, nil
}

// FinalizeIfReady runs the consensus calculation once the review threshold
// is met. Low consensus flags the submission instead of finalizing; high
// consensus sets peer/final XP, awards the submission reward through the
// ledger and finalizes the submission. Everything commits in one
// transaction. Returns true when the submission reached a terminal state.
func (s *ConsensusService) FinalizeIfReady(submissionID int) (bool, error) {
	finalized := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sub models.Submission
		if err := tx.First(&sub, "submission_id = ?", submissionID).Error; err != nil {
			return err
		}
		if sub.IsTerminal() {
			return nil
		}

		scores, err := s.completedScores(tx, submissionID)
		if err != nil {
			return err
		}
		if len(scores) < RequiredPeerReviews {
			return nil
		}

		peerXp := CalculatePeerXp(scores)
		consensus := CalculateConsensusScore(scores)
		now := time.Now()

		if consensus < LowConsensusThreshold {
			reason := fmt.Sprintf("Low reviewer consensus (%.2f)", consensus)
			flag := models.ContentFlag{
				SubmissionID: submissionID,
				Reason:       reason,
				Severity:     models.FlagSeverityMedium,
				Status:       models.FlagStatusOpen,
				CreateAt:     now,
			}
			if err := tx.Create(&flag).Error; err != nil {
				return fmt.Errorf("failed to create consensus flag: %w", err)
			}
			updates := map[string]interface{}{
				"status":          models.SubmissionStatusFlagged,
				"peer_xp":         peerXp,
				"consensus_score": consensus,
				"flag_count":      gorm.Expr("flag_count + 1"),
				"update_at":       now,
			}
			if err := tx.Model(&models.Submission{}).
				Where("submission_id = ?", submissionID).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to flag submission: %w", err)
			}
			log.Printf("[FinalizeIfReady] submission=%d flagged, consensus=%.2f", submissionID, consensus)
			go AlertAdminsOfFlag(submissionID, reason)
			finalized = true
			return nil
		}

		aiEnabled := sub.AiXp != nil
		aiXp := 0
		if aiEnabled {
			aiXp = *sub.AiXp
		}
		finalXp := CalculateFinalXp(aiXp, peerXp, aiEnabled)

		updates := map[string]interface{}{
			"status":          models.SubmissionStatusFinalized,
			"peer_xp":         peerXp,
			"final_xp":        finalXp,
			"consensus_score": consensus,
			"update_at":       now,
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to finalize submission: %w", err)
		}

		if err := s.xp.AwardSubmissionReward(tx, sub.UserID, submissionID, finalXp); err != nil {
			return err
		}

		log.Printf("[FinalizeIfReady] submission=%d finalized, peer=%.1f final=%d consensus=%.2f",
			submissionID, peerXp, finalXp, consensus)
		finalized = true
		return nil
	})
	return finalized, err
}

var (
	ErrNotAwaitingAdjudication = errors.New("submission is not flagged awaiting adjudication")
	ErrNotEnoughReviews        = errors.New("not enough completed reviews to finalize")
)

// ForceFinalize finalizes a FLAGGED submission with the normal AI/peer
// weighting, ignoring the consensus threshold. This is the recovery path
// for submissions parked by a low-consensus flag: dismissing the flag means
// the score spread was acceptable, so the standard calculation proceeds and
// the reward is paid. Runs on the caller's transaction.
func (s *ConsensusService) ForceFinalize(tx *gorm.DB, submissionID int) (int, error) {
	var sub models.Submission
	if err := tx.First(&sub, "submission_id = ?", submissionID).Error; err != nil {
		return 0, err
	}
	if sub.Status != models.SubmissionStatusFlagged || sub.FinalXp != nil {
		return 0, ErrNotAwaitingAdjudication
	}

	scores, err := s.completedScores(tx, submissionID)
	if err != nil {
		return 0, err
	}
	if len(scores) < RequiredPeerReviews {
		return 0, ErrNotEnoughReviews
	}

	peerXp := CalculatePeerXp(scores)
	consensus := CalculateConsensusScore(scores)
	aiEnabled := sub.AiXp != nil
	aiXp := 0
	if aiEnabled {
		aiXp = *sub.AiXp
	}
	finalXp := CalculateFinalXp(aiXp, peerXp, aiEnabled)

	if err := tx.Model(&models.Submission{}).
		Where("submission_id = ?", submissionID).
		Updates(map[string]interface{}{
			"status":          models.SubmissionStatusFinalized,
			"peer_xp":         peerXp,
			"final_xp":        finalXp,
			"consensus_score": consensus,
			"update_at":       time.Now(),
		}).Error; err != nil {
		return 0, fmt.Errorf("failed to finalize flagged submission: %w", err)
	}

	if err := s.xp.AwardSubmissionReward(tx, sub.UserID, submissionID, finalXp); err != nil {
		return 0, err
	}

	log.Printf("[ForceFinalize] submission=%d finalized after flag dismissal, final=%d consensus=%.2f",
		submissionID, finalXp, consensus)
	return finalXp, nil
}

// Explain recomputes the consensus state without persisting anything, for
// admin troubleshooting. It reports whether consensus could be calculated
// and why not when it cannot.
func (s *ConsensusService) Explain(submissionID int) (*ConsensusReport, error) {
	var sub models.Submission
	if err := s.db.First(&sub, "submission_id = ?", submissionID).Error; err != nil {
		return nil, err
	}

	scores, err := s.completedScores(s.db, submissionID)
	if err != nil {
		return nil, err
	}

	report := &ConsensusReport{
		SubmissionID:  submissionID,
		ReviewCount:   len(scores),
		RequiredCount: RequiredPeerReviews,
		Scores:        scores,
		AiEnabled:     sub.AiXp != nil,
		AiXp:          sub.AiXp,
	}

	if sub.IsTerminal() && sub.Status == models.SubmissionStatusFinalized {
		report.Reason = "submission already finalized"
	}
	if len(scores) < RequiredPeerReviews {
		report.Computable = false
		if report.Reason == "" {
			report.Reason = fmt.Sprintf("insufficient completed reviews: have %d, need %d",
				len(scores), RequiredPeerReviews)
		}
		return report, nil
	}

	peerXp := CalculatePeerXp(scores)
	consensus := CalculateConsensusScore(scores)
	aiXp := 0
	if sub.AiXp != nil {
		aiXp = *sub.AiXp
	}
	finalXp := CalculateFinalXp(aiXp, peerXp, sub.AiXp != nil)

	report.Computable = true
	report.PeerXp = &peerXp
	report.ConsensusScore = &consensus
	report.FinalXp = &finalXp
	report.WouldFlag = consensus < LowConsensusThreshold
	if report.Reason == "" && sub.AiXp == nil {
		report.Reason = "AI evaluation disabled for this submission, peer-only weighting"
	}
	return report, nil
}
