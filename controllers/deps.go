package controllers

import (
	"time"

	"scholarxp-api/config"
	"scholarxp-api/services"
)

// Shared service instances, wired once at startup.
var (
	cacheSvc       *services.CacheService
	notifySvc      *services.NotificationService
	xpSvc          *services.XpService
	assignmentSvc  *services.AssignmentService
	consensusSvc   *services.ConsensusService
	reviewSvc      *services.ReviewService
	reshuffleSvc   *services.ReshuffleService
	streakSvc      *services.StreakService
	legacySvc      *services.LegacyService
	reliabilitySvc *services.ReliabilityService
)

// Cache exposes the shared query cache, used by the monitor status page.
func Cache() *services.CacheService {
	return cacheSvc
}

// InitServices builds the service graph on the shared database and redis
// clients. Must run after config.InitDB/InitRedis and before routes are
// served.
func InitServices() {
	cacheSvc = services.NewCacheService(config.Redis, 5*time.Minute)
	notifySvc = services.NewNotificationService(config.DB, config.Redis)
	xpSvc = services.NewXpService(config.DB, cacheSvc)
	assignmentSvc = services.NewAssignmentService(config.DB, notifySvc)
	consensusSvc = services.NewConsensusService(config.DB, xpSvc)
	reviewSvc = services.NewReviewService(config.DB, xpSvc, consensusSvc)
	reshuffleSvc = services.NewReshuffleService(config.DB, assignmentSvc, xpSvc)
	streakSvc = services.NewStreakService(xpSvc)
	legacySvc = services.NewLegacyService(config.DB, xpSvc)
	reliabilitySvc = services.NewReliabilityService(config.DB)
}
