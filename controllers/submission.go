package controllers

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"scholarxp-api/config"
	"scholarxp-api/models"
	"scholarxp-api/services"
	"scholarxp-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateSubmissionRequest struct {
	Title     string   `json:"title" binding:"required"`
	URL       string   `json:"url" binding:"required"`
	Platform  string   `json:"platform" binding:"required"`
	TaskTypes []string `json:"task_types"`
}

// CreateSubmission registers new content for review. The submission starts
// PENDING, stamped with the current week number; streak bookkeeping runs in
// the same transaction.
func CreateSubmission(c *gin.Context) {
	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !utils.ValidateSubmissionURL(req.URL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission URL"})
		return
	}

	userID := c.GetInt("userID")
	now := time.Now()

	submission := models.Submission{
		SubmissionNumber: uuid.NewString(),
		UserID:           userID,
		Title:            utils.SanitizeInput(req.Title),
		URL:              strings.TrimSpace(req.URL),
		Platform:         utils.SanitizeInput(req.Platform),
		TaskTypes:        strings.Join(req.TaskTypes, ","),
		Status:           models.SubmissionStatusPending,
		WeekNumber:       services.WeekNumber(now),
		CreateAt:         &now,
		UpdateAt:         &now,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&submission).Error; err != nil {
			return err
		}
		return streakSvc.OnSubmissionCreated(tx, userID, submission.WeekNumber)
	})
	if err != nil {
		log.Printf("[CreateSubmission] user=%d failed: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create submission"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"submission": submission})
}

// GetSubmission returns one submission with its reviews and assignments.
// Owners see their own; reviewers and admins see any.
func GetSubmission(c *gin.Context) {
	sid, err := strconv.Atoi(c.Param("id"))
	if err != nil || sid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}

	var submission models.Submission
	if err := config.DB.Preload("User").
		First(&submission, "submission_id = ? AND delete_at IS NULL", sid).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		return
	}

	userID := c.GetInt("userID")
	roleID := c.GetInt("roleID")
	if submission.UserID != userID && roleID == models.RoleUser {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	var assignments []models.ReviewAssignment
	if err := config.DB.Preload("Reviewer").
		Where("submission_id = ?", sid).
		Order("assigned_at ASC").
		Find(&assignments).Error; err != nil {
		log.Printf("[GetSubmission] load assignments error: %v", err)
	}

	var reviews []models.PeerReview
	if err := config.DB.Preload("Reviewer").
		Where("submission_id = ?", sid).
		Order("create_at ASC").
		Find(&reviews).Error; err != nil {
		log.Printf("[GetSubmission] load reviews error: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"submission":  submission,
		"assignments": assignments,
		"reviews":     reviews,
	})
}

// ListSubmissions returns the caller's submissions (admins see all) with
// the typed filter vocabulary: status, platform, week, from/to, min_xp/
// max_xp, search.
func ListSubmissions(c *gin.Context) {
	filters, err := services.ParseSubmissionFilters(c.Query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage := 50

	q := config.DB.Model(&models.Submission{}).
		Preload("User").
		Where("submissions.delete_at IS NULL")

	roleID := c.GetInt("roleID")
	if roleID != models.RoleAdmin {
		q = q.Where("submissions.user_id = ?", c.GetInt("userID"))
	}

	q, err = services.ApplySubmissionFilters(q, filters)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var total int64
	q.Count(&total)

	var submissions []models.Submission
	if err := q.Order("submissions.create_at DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&submissions).Error; err != nil {
		log.Printf("[ListSubmissions] query error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"pagination": gin.H{
			"page":        page,
			"per_page":    perPage,
			"total":       total,
			"total_pages": int(math.Ceil(float64(total) / float64(perPage))),
		},
	})
}

// AdminDeleteSubmission removes a submission and reverses its awarded XP.
func AdminDeleteSubmission(c *gin.Context) {
	sid, err := strconv.Atoi(c.Param("id"))
	if err != nil || sid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}
	adminID := c.GetInt("userID")

	if err := xpSvc.DeleteSubmission(sid, adminID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
			return
		}
		log.Printf("[AdminDeleteSubmission] submission=%d failed: %v", sid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete submission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Submission deleted and XP reversed"})
}

// AdminRecordAiEvaluation stores the automated evaluator's score for a
// pending submission and moves it to AI_REVIEWED.
func AdminRecordAiEvaluation(c *gin.Context) {
	sid, err := strconv.Atoi(c.Param("id"))
	if err != nil || sid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}

	type AiEvaluationRequest struct {
		AiXp             *int     `json:"ai_xp" binding:"required"`
		OriginalityScore *float64 `json:"originality_score"`
	}
	var req AiEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.AiXp < 0 || *req.AiXp > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ai_xp must be between 0 and 100"})
		return
	}

	var submission models.Submission
	if err := config.DB.First(&submission, "submission_id = ? AND delete_at IS NULL", sid).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		return
	}
	if submission.Status != models.SubmissionStatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "submission is not awaiting AI evaluation"})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"ai_xp":     *req.AiXp,
		"status":    models.SubmissionStatusAiReviewed,
		"update_at": now,
	}
	if req.OriginalityScore != nil {
		updates["originality_score"] = *req.OriginalityScore
	}
	if err := config.DB.Model(&models.Submission{}).
		Where("submission_id = ?", sid).
		Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record AI evaluation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "AI evaluation recorded", "ai_xp": *req.AiXp})
}
