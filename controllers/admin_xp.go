package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"scholarxp-api/config"
	"scholarxp-api/models"
	"scholarxp-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type XpOverrideRequest struct {
	FinalXp *int   `json:"final_xp" binding:"required"`
	Reason  string `json:"reason" binding:"required"`
}

// OverrideSubmissionXp sets a finalized submission's XP to an explicit
// value. The ledger receives one transaction of the difference; nothing
// existing is mutated.
func OverrideSubmissionXp(c *gin.Context) {
	sid, err := strconv.Atoi(c.Param("id"))
	if err != nil || sid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}

	var req XpOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}
	if *req.FinalXp < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "final_xp must be non-negative"})
		return
	}

	result, err := xpSvc.OverrideSubmissionXp(sid, *req.FinalXp, strings.TrimSpace(req.Reason), c.GetInt("userID"))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		case errors.Is(err, services.ErrSubmissionNotFinalized):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("[OverrideSubmissionXp] submission=%d failed: %v", sid, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to override XP"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"override": result, "message": "XP override applied"})
}

// GetUserLedger lists a user's XP transactions, newest first, so admins can
// audit how a total came to be.
func GetUserLedger(c *gin.Context) {
	uid, err := strconv.Atoi(c.Param("id"))
	if err != nil || uid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var transactions []models.XpTransaction
	if err := config.DB.
		Where("user_id = ?", uid).
		Order("create_at DESC").
		Find(&transactions).Error; err != nil {
		log.Printf("[GetUserLedger] user=%d failed: %v", uid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ledger"})
		return
	}

	sum := 0
	for _, t := range transactions {
		sum += t.Amount
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"ledger_sum":   sum,
	})
}
