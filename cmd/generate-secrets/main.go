package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/voyagecrm/booking-core/internal/models"
	"github.com/voyagecrm/booking-core/internal/utils"
	"github.com/voyagecrm/booking-core/pkg/jwt"
)

func main() {
	var (
		userID string
		name   string
		roles  string
		expiry time.Duration
	)
	flag.StringVar(&userID, "user", "", "mint a development token for this user id (uses JWT_SECRET)")
	flag.StringVar(&name, "name", "Development User", "display name carried in the token")
	flag.StringVar(&roles, "roles", models.RoleTravelAgent, "comma separated roles: travel_agent, basic_admin, super_admin")
	flag.DurationVar(&expiry, "expiry", 24*time.Hour, "token lifetime")
	flag.Parse()

	if userID != "" {
		mintToken(userID, name, roles, expiry)
		return
	}

	fmt.Println("===========================================")
	fmt.Println("Secret Generator for VoyageCRM booking core")
	fmt.Println("===========================================")
	fmt.Println()

	jwtSecret, err := utils.GenerateJWTSecret()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}
	apiKey, err := utils.GenerateAPIKey()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("Add these to your .env file:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", jwtSecret)
	fmt.Printf("ERROR_TRACKING_API_KEY=%s\n", apiKey)
	fmt.Println()
	fmt.Println("IMPORTANT: keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}

func mintToken(userID, name, roleList string, expiry time.Duration) {
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	var roles []string
	for _, r := range strings.Split(roleList, ",") {
		r = strings.TrimSpace(r)
		if !models.IsValidRole(r) {
			log.Fatalf("unknown role %q", r)
		}
		roles = append(roles, r)
	}

	token, err := jwt.NewService(secret, expiry).GenerateAccessToken(userID, name, "", roles)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}
	fmt.Println(token)
}
