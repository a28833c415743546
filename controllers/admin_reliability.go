package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReliabilitySimulator computes derived reviewer-reliability metrics on
// demand; nothing is persisted.
func ReliabilitySimulator(c *gin.Context) {
	metrics, err := reliabilitySvc.Simulate()
	if err != nil {
		log.Printf("[ReliabilitySimulator] failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute reliability metrics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviewers": metrics})
}
