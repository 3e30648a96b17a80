package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User owns accounts and the transactions recorded against them.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Account holds the running balance for one currency.
// Invariant: Balance equals the starting balance plus the sum of the signed
// effects of every committed transaction on the account.
type Account struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
}
