// Command expire-assignments sweeps unanswered reviewer invitations whose
// due date passed by more than the grace window. Run it from cron or the
// platform scheduler.
package main

import (
	"flag"
	"log"
	"time"

	"journal-management-api/config"
	"journal-management-api/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitDB()

	var dryRun bool
	flag.BoolVar(&dryRun, "dry-run", false, "report what would expire without changing anything")
	flag.Parse()

	svc := services.NewAssignmentService(nil, nil)

	if dryRun {
		pending, err := svc.CountOverdue(time.Now())
		if err != nil {
			log.Fatalf("overdue count failed: %v", err)
		}
		log.Printf("dry run: %d invitation(s) past the %d-day grace window; no rows touched", pending, services.AssignmentGraceDays())
		return
	}

	expired, err := svc.ExpireOverdue(time.Now())
	if err != nil {
		log.Fatalf("expiry sweep failed: %v", err)
	}
	log.Printf("expired %d overdue invitation(s)", expired)
}
