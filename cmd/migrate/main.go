// Command migrate applies the ledger schema to a SQLite database and can
// optionally seed a user with an opening account for local development.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-ledger/internal/domain"
	"github.com/dvloznov/wealth-ledger/internal/store/sqlite"
)

var (
	dbPath       = flag.String("db", "ledger.db", "SQLite database path")
	seedEmail    = flag.String("seed-email", "", "Create a user with this email after migrating")
	seedName     = flag.String("seed-name", "Demo User", "Display name for the seeded user")
	seedAccount  = flag.String("seed-account", "Checking", "Name for the seeded account")
	seedBalance  = flag.String("seed-balance", "0", "Opening balance for the seeded account")
	seedCurrency = flag.String("seed-currency", "USD", "Currency for the seeded account")
)

func main() {
	flag.Parse()

	ctx := context.Background()

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database %s: %v", *dbPath, err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	log.Printf("Schema applied to %s", *dbPath)

	if *seedEmail == "" {
		return
	}

	balance, err := decimal.NewFromString(*seedBalance)
	if err != nil {
		log.Fatalf("Invalid seed balance %q: %v", *seedBalance, err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.NewString(),
		Email:     *seedEmail,
		Name:      *seedName,
		CreatedAt: now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		log.Fatalf("Failed to seed user: %v", err)
	}

	account := &domain.Account{
		ID:        uuid.NewString(),
		OwnerID:   user.ID,
		Name:      *seedAccount,
		Balance:   balance,
		Currency:  *seedCurrency,
		CreatedAt: now,
	}
	if err := store.CreateAccount(ctx, account); err != nil {
		log.Fatalf("Failed to seed account: %v", err)
	}

	log.Printf("Seeded user %s (%s) with account %s (%s %s)",
		user.ID, user.Email, account.ID, account.Balance, account.Currency)
}
