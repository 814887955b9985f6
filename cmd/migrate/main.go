package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/voyagecrm/booking-core/internal/config"
	"github.com/voyagecrm/booking-core/internal/database"
)

func main() {
	var (
		dbURLFlag string
		driver    string
		reset     bool
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.StringVar(&driver, "driver", "", "database/sql driver: postgres or pgx (overrides DATABASE_DRIVER)")
	flag.BoolVar(&reset, "reset", false, "truncate bookings and their events after migrating")
	flag.Parse()

	// .env is optional; it keeps secrets off the command line
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}
	if driver == "" {
		driver = os.Getenv("DATABASE_DRIVER")
	}

	// minimal config, the full app config would also demand JWT_SECRET
	dbCfg := config.DatabaseConfig{
		Driver:             driver,
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
		ConnMaxLifetime:    time.Minute,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("Connected to database. Applying schema...")
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	fmt.Println("Schema is up to date.")

	if reset {
		if err := database.Reset(ctx, db); err != nil {
			log.Fatalf("failed to reset data: %v", err)
		}
		fmt.Println("All bookings and events cleared.")
	}

	fmt.Println("Row counts:")
	for _, table := range []string{"bookings", "booking_events"} {
		var count int
		if err := db.GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)); err != nil {
			fmt.Printf("  %s: error: %v\n", table, err)
			continue
		}
		fmt.Printf("  %s: %d\n", table, count)
	}
}
