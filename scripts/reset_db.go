package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"tecnobra-backend/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	all := flag.Bool("all", false, "Also delete dashboard users")
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("   Reset Site Data for Testing")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("WARNING: This will DELETE ALL SITE DATA!")
	fmt.Println()
	fmt.Println("This will clear check-ins, loans, equipment, rental machines,")
	fmt.Println("safety deliveries, employees and visits.")
	if *all {
		fmt.Println("Dashboard users are deleted too.")
	}
	fmt.Println()
	fmt.Print("Type 'yes' to confirm: ")

	var confirm string
	fmt.Scanln(&confirm)

	if confirm != "yes" {
		fmt.Println("Reset cancelled.")
		return
	}

	// Load environment variables
	godotenv.Load()

	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPassword := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "tecnobra")

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		dbUser, dbPassword, dbHost, dbPort, dbName)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v\n", err)
	}
	defer tx.Rollback(ctx)

	for _, key := range store.Keys {
		if key == store.KeyUsers && !*all {
			continue
		}
		if _, err := tx.Exec(ctx, `DELETE FROM kv_collections WHERE key = $1`, key); err != nil {
			log.Fatalf("Failed to clear %s: %v\n", key, err)
		}
		fmt.Printf("  cleared %s\n", key)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit transaction: %v\n", err)
	}

	fmt.Println()
	fmt.Println("Reset successful. The demo tool list is seeded again on first read.")
	if *all {
		fmt.Println("The next signup becomes the admin.")
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
