package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"scholarxp-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ManualReshuffleRequest struct {
	Reason        string `json:"reason" binding:"required"`
	AssignmentIDs []int  `json:"assignment_ids,omitempty"`
}

// ManualReshuffle reassigns one submission's targeted (or all overdue)
// assignments to new reviewers, with a mandatory audit reason.
func ManualReshuffle(c *gin.Context) {
	sid, err := strconv.Atoi(c.Param("id"))
	if err != nil || sid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}

	var req ManualReshuffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adminID := c.GetInt("userID")
	result, err := reshuffleSvc.ReshuffleSubmission(sid, req.AssignmentIDs, req.Reason,
		strconv.Itoa(adminID), &adminID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReasonTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		default:
			log.Printf("[ManualReshuffle] submission=%d failed: %v", sid, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reshuffle assignments"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reshuffled_count": result.ReshuffledCount,
		"total_processed":  result.TotalProcessed,
		"message":          result.Message,
		"backfill_warning": result.BackfillWarning,
	})
}

type BulkReshuffleRequest struct {
	SubmissionIDs []int  `json:"submission_ids,omitempty"`
	Reason        string `json:"reason" binding:"required"`
}

// BulkReshuffle reshuffles across many submissions under peer review; with
// no ids given it targets every submission holding an overdue open
// assignment. Per-submission failures are skipped, not fatal.
func BulkReshuffle(c *gin.Context) {
	var req BulkReshuffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adminID := c.GetInt("userID")
	result, err := reshuffleSvc.BulkReshuffle(req.SubmissionIDs, req.Reason,
		strconv.Itoa(adminID), &adminID)
	if err != nil {
		if errors.Is(err, services.ErrReasonTooShort) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[BulkReshuffle] failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run bulk reshuffle"})
		return
	}

	c.JSON(http.StatusOK, result)
}
