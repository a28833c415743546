package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"scholarxp-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetMyAssignments lists the caller's review assignments, open first.
func GetMyAssignments(c *gin.Context) {
	assignments, err := reviewSvc.AssignmentsForReviewer(c.GetInt("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assignments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

// StartAssignment marks a pending assignment in progress for its reviewer.
func StartAssignment(c *gin.Context) {
	aid, err := strconv.Atoi(c.Param("id"))
	if err != nil || aid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment id"})
		return
	}

	if err := assignmentSvc.StartAssignment(aid, c.GetInt("userID")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no pending assignment found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start assignment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assignment started"})
}

type SubmitReviewRequest struct {
	AssignmentID  int    `json:"assignment_id" binding:"required"`
	XpScore       *int   `json:"xp_score" binding:"required"`
	QualityRating int    `json:"quality_rating" binding:"required"`
	Comments      string `json:"comments"`
}

// SubmitReview records the caller's peer review for one of their
// assignments. Completion pays the review reward; the third completed
// review triggers the consensus calculation.
func SubmitReview(c *gin.Context) {
	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := reviewSvc.SubmitReview(services.ReviewInput{
		AssignmentID:  req.AssignmentID,
		ReviewerID:    c.GetInt("userID"),
		XpScore:       *req.XpScore,
		QualityRating: req.QualityRating,
		Comments:      req.Comments,
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "assignment not found"})
		case errors.Is(err, services.ErrAssignmentNotOpen),
			errors.Is(err, services.ErrReviewAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInvalidXpScore),
			errors.Is(err, services.ErrInvalidQuality):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit review"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": review, "message": "Review submitted"})
}
