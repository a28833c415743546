package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ConsensusDebug recomputes a submission's consensus state without
// persisting anything, reporting whether consensus could be calculated and
// why not when it cannot. With persist=true it also runs the real
// finalization, for submissions a failed earlier run left stuck.
func ConsensusDebug(c *gin.Context) {
	sid, err := strconv.Atoi(c.Param("id"))
	if err != nil || sid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}

	report, err := consensusSvc.Explain(sid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
			return
		}
		log.Printf("[ConsensusDebug] submission=%d failed: %v", sid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute consensus report"})
		return
	}

	response := gin.H{"report": report}

	if c.Query("persist") == "true" && report.Computable {
		finalized, err := consensusSvc.FinalizeIfReady(sid)
		if err != nil {
			log.Printf("[ConsensusDebug] persist for submission=%d failed: %v", sid, err)
			response["persist_error"] = "finalization failed, see server logs"
		} else {
			response["finalized"] = finalized
		}
	}

	c.JSON(http.StatusOK, response)
}
