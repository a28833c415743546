// Command reshuffle runs the scheduled reshuffle pass: overdue open
// assignments are marked MISSED, then every submission holding a stale
// assignment gets replacement reviewers. Intended to run from cron.
package main

import (
	"flag"
	"log"

	"scholarxp-api/config"
	"scholarxp-api/services"

	"github.com/joho/godotenv"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "list overdue assignments without changing anything")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitDB()
	config.InitRedis()

	xp := services.NewXpService(config.DB, nil)
	notify := services.NewNotificationService(config.DB, config.Redis)
	assignments := services.NewAssignmentService(config.DB, notify)
	reshuffle := services.NewReshuffleService(config.DB, assignments, xp)

	if *dryRun {
		missed, err := reshuffle.CountOverdue()
		if err != nil {
			log.Fatalf("❌ Failed to count overdue assignments: %v", err)
		}
		log.Printf("Dry run: %d assignments past deadline, nothing changed", missed)
		return
	}

	missed, err := reshuffle.MarkOverdueAsMissed()
	if err != nil {
		log.Fatalf("❌ Failed to mark overdue assignments: %v", err)
	}
	log.Printf("Marked %d overdue assignments as MISSED", missed)

	result, err := reshuffle.AutoReshuffleAll()
	if err != nil {
		log.Fatalf("❌ Reshuffle pass failed: %v", err)
	}

	log.Printf("✅ Reshuffle complete: %d submissions processed, %d failed, %d assignments reshuffled",
		result.SubmissionsProcessed, result.SubmissionsFailed, result.TotalReshuffled)
}
