package controllers

import (
	"errors"
	"log"
	"net/http"

	"scholarxp-api/config"
	"scholarxp-api/models"
	"scholarxp-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LegacyMatchRequest struct {
	Handle string `json:"handle" binding:"required"`
}

// MatchLegacyHandle runs the handle-matching heuristic for a legacy Discord
// handle. Ambiguous matches come back with the candidate list so the admin
// picks explicitly; the server never guesses.
func MatchLegacyHandle(c *gin.Context) {
	var req LegacyMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match, err := legacySvc.FindMatch(req.Handle)
	if err != nil {
		log.Printf("[MatchLegacyHandle] handle=%q failed: %v", req.Handle, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to match handle"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": match})
}

type LegacyMergeRequest struct {
	LegacyID int `json:"legacy_id" binding:"required"`
	UserID   int `json:"user_id" binding:"required"`
}

// MergeLegacyAccount folds a legacy account's XP into an explicit user via
// a single ledger entry.
func MergeLegacyAccount(c *gin.Context) {
	var req LegacyMergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := legacySvc.Merge(req.LegacyID, req.UserID, c.GetInt("userID"))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "legacy account or user not found"})
		case errors.Is(err, services.ErrLegacyAlreadyMerged):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("[MergeLegacyAccount] legacy=%d user=%d failed: %v", req.LegacyID, req.UserID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to merge legacy account"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Legacy account merged"})
}

// ListLegacyAccounts shows unmerged legacy accounts for the admin merge UI.
func ListLegacyAccounts(c *gin.Context) {
	q := config.DB.Model(&models.LegacyAccount{})
	if c.Query("merged") != "true" {
		q = q.Where("merged_into_user_id IS NULL")
	}

	var accounts []models.LegacyAccount
	if err := q.Order("legacy_id ASC").Limit(200).Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch legacy accounts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"legacy_accounts": accounts})
}
