// Command recalculate-xp rebuilds every user's XP totals from the
// transaction ledger. Use after manual database surgery or a bad import.
package main

import (
	"flag"
	"log"

	"scholarxp-api/config"
	"scholarxp-api/services"

	"github.com/joho/godotenv"
)

func main() {
	userID := flag.Int("user", 0, "recalculate a single user instead of all users")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitDB()

	xp := services.NewXpService(config.DB, nil)

	if *userID > 0 {
		if err := xp.RecalculateUser(*userID); err != nil {
			log.Fatalf("❌ Failed to recalculate user %d: %v", *userID, err)
		}
		log.Printf("✅ Recalculated XP for user %d", *userID)
		return
	}

	updated, failed, err := xp.RecalculateAllUsers()
	if err != nil {
		log.Fatalf("❌ Recalculation failed: %v", err)
	}
	log.Printf("✅ Recalculated XP: %d users updated, %d failed", updated, failed)
}
