package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/Navideft74/Arses-club/internal/models"
	"github.com/Navideft74/Arses-club/internal/services"
)

// Pre-creates reservations (and with them, the day's time slots) for
// upcoming dates, so the calendar is open for booking ahead of time. Safe to
// re-run: dates that already have a reservation are skipped.
func main() {
	courtID := flag.String("court", "", "Court id (optional, default: all courts)")
	fromStr := flag.String("from", "", "First date to open (optional, format: 2006-01-02, default: today)")
	count := flag.Int("count", 7, "Number of dates to open (optional, default: 7)")
	rruleStr := flag.String("rrule", "", "RFC 5545 RRULE selecting the dates (optional, default: daily)")

	flag.Parse()

	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := services.InitDB(dsn)
	if err != nil {
		log.Fatalf("Failed to connect DB: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	from := models.DateOnly(time.Now())
	if *fromStr != "" {
		parsed, err := time.Parse("2006-01-02", *fromStr)
		if err != nil {
			log.Fatalf("Invalid -from date, use 2006-01-02: %v", err)
		}
		from = models.DateOnly(parsed)
	}

	var rule *rrule.RRule
	if *rruleStr != "" {
		rule, err = rrule.StrToRRule(*rruleStr)
		if err != nil {
			log.Fatalf("Invalid -rrule: %v", err)
		}
		rule.DTStart(from)
	} else {
		rule, err = rrule.NewRRule(rrule.ROption{Freq: rrule.DAILY, Dtstart: from, Count: *count})
		if err != nil {
			log.Fatalf("Failed to build recurrence rule: %v", err)
		}
	}

	dates := rule.All()
	if len(dates) > *count {
		dates = dates[:*count]
	}

	courts := models.Courts
	if *courtID != "" {
		court, ok := models.CourtByID(*courtID)
		if !ok {
			log.Fatalf("Unknown court %q", *courtID)
		}
		courts = []models.Court{court}
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	svc := services.NewReservationService(db, logger)
	ctx := context.Background()

	created, skipped := 0, 0
	for _, date := range dates {
		for _, court := range courts {
			_, err := svc.CreateReservation(ctx, court.ID, date)
			switch {
			case errors.Is(err, services.ErrDuplicateDate):
				skipped++
			case err != nil:
				log.Fatalf("Failed to open %s on %s: %v", court.ID, date.Format("2006-01-02"), err)
			default:
				created++
			}
		}
	}

	fmt.Printf("Opened %d reservation(s), skipped %d already existing\n", created, skipped)
}
