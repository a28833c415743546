package controllers

import (
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"scholarxp-api/config"
	"scholarxp-api/models"

	"github.com/gin-gonic/gin"
)

// GetNotifications lists the caller's notifications, newest first. This is
// also the reconciliation endpoint for realtime consumers: cursor-style
// polling via ?after=<notification_id> returns only rows the push channel
// may have dropped.
func GetNotifications(c *gin.Context) {
	userID := c.GetInt("userID")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage := 50

	q := config.DB.Model(&models.Notification{}).Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		q = q.Where("is_read = ?", false)
	}
	if after := c.Query("after"); after != "" {
		afterID, err := strconv.Atoi(after)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid after cursor"})
			return
		}
		q = q.Where("notification_id > ?", afterID)
	}

	var total int64
	q.Count(&total)

	var notifications []models.Notification
	if err := q.Order("notification_id DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&notifications).Error; err != nil {
		log.Printf("[GetNotifications] user=%d failed: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	var unread int64
	config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread)

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
		"pagination": gin.H{
			"page":        page,
			"per_page":    perPage,
			"total":       total,
			"total_pages": int(math.Ceil(float64(total) / float64(perPage))),
		},
	})
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(c *gin.Context) {
	nid, err := strconv.Atoi(c.Param("id"))
	if err != nil || nid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	now := time.Now()
	res := config.DB.Model(&models.Notification{}).
		Where("notification_id = ? AND user_id = ?", nid, c.GetInt("userID")).
		Updates(map[string]interface{}{"is_read": true, "update_at": now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead clears the caller's unread badge.
func MarkAllNotificationsRead(c *gin.Context) {
	now := time.Now()
	res := config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", c.GetInt("userID"), false).
		Updates(map[string]interface{}{"is_read": true, "update_at": now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": res.RowsAffected})
}
