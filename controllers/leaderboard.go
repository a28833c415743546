package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"scholarxp-api/config"
	"scholarxp-api/models"
	"scholarxp-api/services"

	"github.com/gin-gonic/gin"
)

type leaderboardEntry struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	TotalXp  int    `json:"total_xp"`
	WeekXp   int    `json:"week_xp"`
	Rank     string `json:"rank"`
	Position int    `json:"position"`
}

// GetLeaderboard returns the all-time top users by total XP. Results are
// served from the query cache and invalidated whenever the ledger moves.
func GetLeaderboard(c *gin.Context) {
	serveLeaderboard(c, false)
}

// GetWeeklyLeaderboard ranks by current-week XP instead.
func GetWeeklyLeaderboard(c *gin.Context) {
	serveLeaderboard(c, true)
}

func serveLeaderboard(c *gin.Context, weekly bool) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	if limit < 1 || limit > 100 {
		limit = 25
	}

	cacheKey := fmt.Sprintf("leaderboard:alltime:%d", limit)
	orderColumn := "total_xp"
	if weekly {
		cacheKey = fmt.Sprintf("leaderboard:week:%d:%d", services.CurrentWeekNumber(), limit)
		orderColumn = "current_week_xp"
	}

	var entries []leaderboardEntry
	if cacheSvc.Get(c.Request.Context(), cacheKey, &entries) {
		c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "cached": true})
		return
	}

	var users []models.User
	if err := config.DB.
		Where("delete_at IS NULL").
		Order(orderColumn + " DESC, user_id ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		log.Printf("[GetLeaderboard] query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
		return
	}

	entries = make([]leaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, leaderboardEntry{
			UserID:   u.UserID,
			Username: u.Username,
			TotalXp:  u.TotalXp,
			WeekXp:   u.CurrentWeekXp,
			Rank:     services.RankForXp(u.TotalXp).Name(),
			Position: i + 1,
		})
	}

	cacheSvc.Set(c.Request.Context(), cacheKey, entries)
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "cached": false})
}

// GetRankTable exposes the fixed rank bands so the UI can render progress
// bars without hardcoding thresholds.
func GetRankTable(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ranks": services.RankTable()})
}
