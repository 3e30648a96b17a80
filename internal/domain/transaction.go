package domain

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// Valid reports whether the type is one of the two known values.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// RecurringInterval is the calendar cadence of a recurring transaction.
type RecurringInterval string

const (
	IntervalDaily   RecurringInterval = "DAILY"
	IntervalWeekly  RecurringInterval = "WEEKLY"
	IntervalMonthly RecurringInterval = "MONTHLY"
	IntervalYearly  RecurringInterval = "YEARLY"
)

// Valid reports whether the interval is one of the four known cadences.
func (i RecurringInterval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}

// Categories is the fixed taxonomy a transaction can be tagged with.
var Categories = []string{
	"housing", "transportation", "groceries", "utilities", "entertainment",
	"food", "shopping", "healthcare", "education", "personal", "travel",
	"insurance", "gifts", "bills", "other-expense",
	"salary", "freelance", "investments", "business", "rental", "other-income",
}

var categorySet = func() map[string]bool {
	set := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		set[c] = true
	}
	return set
}()

// ValidCategory reports whether name is part of the taxonomy,
// case-insensitively and ignoring surrounding whitespace.
func ValidCategory(name string) bool {
	return categorySet[NormalizeCategory(name)]
}

// NormalizeCategory normalizes a category name for comparison and storage.
func NormalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Transaction is one committed ledger entry: a single monetary movement with
// a signed effect on its account's balance.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	UserID      string          `json:"user_id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"` // non-negative magnitude
	Date        civil.Date      `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`

	IsRecurring       bool              `json:"is_recurring"`
	RecurringInterval RecurringInterval `json:"recurring_interval,omitempty"`
	NextRecurringDate *civil.Date       `json:"next_recurring_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Effect is the signed balance impact of the entry: +Amount for income,
// -Amount for expense. This, not the stored magnitude, is what reconciles
// against the account balance.
func (t *Transaction) Effect() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// TransactionDraft is the caller-supplied input for creating or updating a
// ledger entry. Updates are full field replacement, not patches.
type TransactionDraft struct {
	AccountID   string          `json:"account_id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Date        civil.Date      `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`

	IsRecurring       bool              `json:"is_recurring"`
	RecurringInterval RecurringInterval `json:"recurring_interval,omitempty"`
}

// Effect computes the signed balance impact the draft would have.
func (d *TransactionDraft) Effect() decimal.Decimal {
	if d.Type == TypeExpense {
		return d.Amount.Neg()
	}
	return d.Amount
}

// Validate checks the draft's fields. It returns an ErrValidation error
// naming the first problem found.
func (d *TransactionDraft) Validate() error {
	if d.AccountID == "" {
		return Errorf(ErrValidation, "account id is required")
	}
	if !d.Type.Valid() {
		return Errorf(ErrValidation, "unknown transaction type %q", d.Type)
	}
	if !d.Amount.IsPositive() {
		return Errorf(ErrValidation, "amount must be positive, got %s", d.Amount)
	}
	if !d.Date.IsValid() {
		return Errorf(ErrValidation, "date is required")
	}
	if !ValidCategory(d.Category) {
		return Errorf(ErrValidation, "unknown category %q", d.Category)
	}
	if d.IsRecurring && !d.RecurringInterval.Valid() {
		return Errorf(ErrValidation, "recurring transaction requires a valid interval, got %q", d.RecurringInterval)
	}
	if !d.IsRecurring && d.RecurringInterval != "" {
		return Errorf(ErrValidation, "recurring interval set on a non-recurring transaction")
	}
	return nil
}
