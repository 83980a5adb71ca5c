package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/Navideft74/Arses-club/internal/services"
)

// Sends a test code through the configured SMS gateway, for checking the
// Kavenegar credentials without going through the login flow.
func main() {
	mobile := flag.String("mobile", "", "Recipient mobile number (mandatory)")
	code := flag.Int("code", 1234, "Code to send (optional)")

	flag.Parse()

	if *mobile == "" {
		fmt.Println("Usage: smstest -mobile <number> [-code <code>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}
	if os.Getenv("KAVENEGAR_API_KEY") == "" {
		log.Fatal("KAVENEGAR_API_KEY is not set")
	}

	sender := services.NewKavenegarService()
	if err := sender.SendOTP(context.Background(), *mobile, *code); err != nil {
		log.Fatalf("Failed to send: %v", err)
	}

	fmt.Printf("Sent code %d to %s\n", *code, *mobile)
}
