package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"scholarxp-api/config"
	"scholarxp-api/models"
	"scholarxp-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ModerationRequest struct {
	Action  string `json:"action" binding:"required"` // resolve|dismiss|updateSeverity
	FlagIDs []int  `json:"flag_ids" binding:"required"`
	Data    struct {
		Notes    string `json:"notes,omitempty"`
		Severity string `json:"severity,omitempty"`
	} `json:"data"`
}

// ModerateFlags applies a bulk moderation action to content flags. Each
// flag is processed in its own transaction with an audit row; per-item
// failures are skipped and reported in the aggregate counts.
func ModerateFlags(c *gin.Context) {
	var req ModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.FlagIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "flag_ids must not be empty"})
		return
	}

	switch req.Action {
	case "resolve", "dismiss":
	case "updateSeverity":
		switch req.Data.Severity {
		case models.FlagSeverityLow, models.FlagSeverityMedium, models.FlagSeverityHigh:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid severity"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown moderation action"})
		return
	}

	adminID := c.GetInt("userID")
	succeeded, failed := 0, 0

	for _, flagID := range req.FlagIDs {
		if err := moderateOneFlag(flagID, adminID, req); err != nil {
			log.Printf("[ModerateFlags] flag=%d action=%s failed: %v", flagID, req.Action, err)
			failed++
			continue
		}
		succeeded++
	}

	c.JSON(http.StatusOK, gin.H{
		"action":    req.Action,
		"succeeded": succeeded,
		"failed":    failed,
		"message":   fmt.Sprintf("%s applied to %d of %d flag(s)", req.Action, succeeded, len(req.FlagIDs)),
	})
}

func moderateOneFlag(flagID, adminID int, req ModerationRequest) error {
	return config.DB.Transaction(func(tx *gorm.DB) error {
		var flag models.ContentFlag
		if err := tx.First(&flag, "flag_id = ?", flagID).Error; err != nil {
			return err
		}

		now := time.Now()
		updates := map[string]interface{}{"update_at": now}
		details := ""

		switch req.Action {
		case "resolve":
			updates["status"] = models.FlagStatusResolved
			updates["resolved_by"] = adminID
			updates["resolved_at"] = now
			details = "flag resolved"
		case "dismiss":
			updates["status"] = models.FlagStatusDismissed
			updates["resolved_by"] = adminID
			updates["resolved_at"] = now
			details = "flag dismissed"
		case "updateSeverity":
			updates["severity"] = req.Data.Severity
			details = fmt.Sprintf("severity %s -> %s", flag.Severity, req.Data.Severity)
		}
		if notes := strings.TrimSpace(req.Data.Notes); notes != "" {
			updates["notes"] = notes
		}

		if err := tx.Model(&models.ContentFlag{}).
			Where("flag_id = ?", flagID).
			Updates(updates).Error; err != nil {
			return err
		}

		// Dismissing the last open flag of a submission parked by low
		// consensus unblocks it: the standard weighting runs and the reward
		// is paid. A resolved flag leaves the submission FLAGGED for the
		// admin XP override to adjudicate.
		if req.Action == "dismiss" {
			if err := unparkFlaggedSubmission(tx, flag.SubmissionID); err != nil {
				return err
			}
		}

		audit := models.AdminAction{
			AdminID:    &adminID,
			Action:     "FLAG_" + strings.ToUpper(req.Action),
			TargetType: "content_flag",
			TargetID:   flagID,
			Details:    details,
			CreateAt:   now,
		}
		return tx.Create(&audit).Error
	})
}

// unparkFlaggedSubmission finalizes a FLAGGED submission once no open
// flags remain against it. When the reviews on record are not enough to
// finalize, the submission returns to UNDER_PEER_REVIEW instead so the
// pipeline can refill it.
func unparkFlaggedSubmission(tx *gorm.DB, submissionID int) error {
	var sub models.Submission
	if err := tx.First(&sub, "submission_id = ? AND delete_at IS NULL", submissionID).Error; err != nil {
		return err
	}
	if sub.Status != models.SubmissionStatusFlagged || sub.FinalXp != nil {
		return nil
	}

	var openFlags int64
	if err := tx.Model(&models.ContentFlag{}).
		Where("submission_id = ? AND status = ?", submissionID, models.FlagStatusOpen).
		Count(&openFlags).Error; err != nil {
		return err
	}
	if openFlags > 0 {
		return nil
	}

	_, err := consensusSvc.ForceFinalize(tx, submissionID)
	if errors.Is(err, services.ErrNotEnoughReviews) {
		log.Printf("[ModerateFlags] submission=%d lacks reviews, returning to peer review", submissionID)
		return tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Updates(map[string]interface{}{
				"status":    models.SubmissionStatusUnderPeerReview,
				"update_at": time.Now(),
			}).Error
	}
	return err
}

type CreateFlagRequest struct {
	SubmissionID int    `json:"submission_id" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
	Severity     string `json:"severity"`
}

// CreateFlag lets a reviewer or admin flag a submission for moderation.
func CreateFlag(c *gin.Context) {
	var req CreateFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	severity := req.Severity
	switch severity {
	case "":
		severity = models.FlagSeverityMedium
	case models.FlagSeverityLow, models.FlagSeverityMedium, models.FlagSeverityHigh:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid severity"})
		return
	}

	var submission models.Submission
	if err := config.DB.First(&submission, "submission_id = ? AND delete_at IS NULL", req.SubmissionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		return
	}

	userID := c.GetInt("userID")
	now := time.Now()
	flag := models.ContentFlag{
		SubmissionID: req.SubmissionID,
		FlaggedBy:    &userID,
		Reason:       strings.TrimSpace(req.Reason),
		Severity:     severity,
		Status:       models.FlagStatusOpen,
		CreateAt:     now,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&flag).Error; err != nil {
			return err
		}
		return tx.Model(&models.Submission{}).
			Where("submission_id = ?", req.SubmissionID).
			Updates(map[string]interface{}{
				"flag_count": gorm.Expr("flag_count + 1"),
				"update_at":  now,
			}).Error
	})
	if err != nil {
		log.Printf("[CreateFlag] submission=%d failed: %v", req.SubmissionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create flag"})
		return
	}

	if severity == models.FlagSeverityHigh {
		go services.AlertAdminsOfFlag(req.SubmissionID, flag.Reason)
	}

	c.JSON(http.StatusCreated, gin.H{"flag": flag})
}

// ListFlags returns content flags for the admin moderation table, filtered
// by status when given.
func ListFlags(c *gin.Context) {
	q := config.DB.Model(&models.ContentFlag{}).Preload("Submission")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", strings.ToUpper(status))
	}

	var flags []models.ContentFlag
	if err := q.Order("create_at DESC").Limit(200).Find(&flags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch flags"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"flags": flags})
}
