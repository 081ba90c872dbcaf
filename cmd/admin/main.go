package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"kudi/internal/domain/session"
	"kudi/internal/domain/transaction"
	"kudi/internal/infrastructure/localstore"
	"kudi/internal/shared/config"
)

const usage = `Kudi Admin CLI - Management commands for the Kudi API

Usage:
  admin <command> [options]

Commands:
  seed-demo     Seed sample transactions into the local store for the demo user
  clear-user    Remove all locally stored transactions for a user

Examples:
  # Seed the demo account with sample data
  admin seed-demo

  # Seed a different user
  admin seed-demo --user-id=some-uid

  # Wipe the demo account's local data
  admin clear-user --user-id=demo-user-123
`

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("%s\n", usage)
		os.Exit(1)
	}

	// Load .env if present (development convenience)
	godotenv.Load()

	command := os.Args[1]

	switch command {
	case "seed-demo":
		runSeedDemo(os.Args[2:])
	case "clear-user":
		runClearUser(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Printf("%s\n", usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Printf("%s\n", usage)
		os.Exit(1)
	}
}

func openLocalStore() *localstore.Store {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	kv, err := localstore.OpenKV(cfg.LocalStore.DBPath)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}

	return localstore.NewStore(kv)
}

func runSeedDemo(args []string) {
	fs := flag.NewFlagSet("seed-demo", flag.ExitOnError)
	userID := fs.String("user-id", session.DemoUID, "User to seed transactions for")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	store := openLocalStore()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	samples := []transaction.CreateParams{
		{UserID: *userID, Amount: 150000, Category: "Income", Description: "Monthly salary", Type: transaction.TypeIncome},
		{UserID: *userID, Amount: 45000, Category: "Housing", Description: "Rent", Type: transaction.TypeExpense},
		{UserID: *userID, Amount: 8500, Category: "Food & Drink", Description: "Groceries", Type: transaction.TypeExpense},
		{UserID: *userID, Amount: 3200, Category: "Transportation", Description: "Fuel", Type: transaction.TypeExpense},
		{UserID: *userID, Amount: 2000, Category: "Life & Entertainment", Description: "Cinema tickets", Type: transaction.TypeExpense},
		{UserID: *userID, Amount: 12000, Category: "Communication & PC", Description: "Internet bill", Type: transaction.TypeExpense},
	}

	for _, params := range samples {
		tx, err := store.Add(ctx, params)
		if err != nil {
			log.Fatalf("Failed to seed transaction %q: %v", params.Description, err)
		}
		fmt.Printf("Seeded %s: %s (%.2f)\n", tx.ID, tx.Description, tx.Amount)
	}

	txs, err := store.ListByUser(ctx, *userID)
	if err != nil {
		log.Fatalf("Failed to verify seeded data: %v", err)
	}
	summary := transaction.Aggregate(txs)
	fmt.Printf("Done. User %s now has %d transactions (income=%.2f expense=%.2f balance=%.2f)\n",
		*userID, len(txs), summary.Income, summary.Expense, summary.Balance)
}

func runClearUser(args []string) {
	fs := flag.NewFlagSet("clear-user", flag.ExitOnError)
	userID := fs.String("user-id", "", "User whose local transactions should be removed")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *userID == "" {
		fmt.Println("Error: must specify --user-id")
		os.Exit(1)
	}

	store := openLocalStore()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	txs, err := store.ListByUser(ctx, *userID)
	if err != nil {
		log.Fatalf("Failed to list transactions: %v", err)
	}

	for _, tx := range txs {
		if err := store.Remove(ctx, *userID, tx.ID); err != nil {
			log.Fatalf("Failed to remove transaction %s: %v", tx.ID, err)
		}
	}

	fmt.Printf("Removed %d transactions for user %s\n", len(txs), *userID)
}
