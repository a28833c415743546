package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AutoAssignRequest struct {
	SubmissionID int   `json:"submission_id" binding:"required"`
	Excluded     []int `json:"excluded,omitempty"`
}

// AutoAssignReviewers fills a submission's reviewer pool. An empty eligible
// pool is an expected operational state and comes back as a structured
// failure, not a 500; partial assignment succeeds with a warning.
func AutoAssignReviewers(c *gin.Context) {
	var req AutoAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := assignmentSvc.AssignReviewers(req.SubmissionID, req.Excluded, nil)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
			return
		}
		log.Printf("[AutoAssignReviewers] submission=%d failed: %v", req.SubmissionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign reviewers"})
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}
