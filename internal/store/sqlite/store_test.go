package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-ledger/internal/domain"
	"github.com/dvloznov/wealth-ledger/internal/engine"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return store
}

func seedAccount(t *testing.T, store *Store, balance int64) (userID, accountID string) {
	t.Helper()
	ctx := context.Background()
	userID = uuid.NewString()
	accountID = uuid.NewString()

	err := store.CreateUser(ctx, &domain.User{
		ID:        userID,
		Email:     userID + "@example.com",
		Name:      "Test User",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	err = store.CreateAccount(ctx, &domain.Account{
		ID:        accountID,
		OwnerID:   userID,
		Name:      "Current",
		Balance:   decimal.NewFromInt(balance),
		Currency:  "USD",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return userID, accountID
}

func sampleTransaction(userID, accountID string) *domain.Transaction {
	now := time.Now().UTC()
	next := civil.Date{Year: 2024, Month: 4, Day: 30}
	return &domain.Transaction{
		ID:                uuid.NewString(),
		AccountID:         accountID,
		UserID:            userID,
		Type:              domain.TypeExpense,
		Amount:            decimal.RequireFromString("42.75"),
		Date:              civil.Date{Year: 2024, Month: 3, Day: 31},
		Description:       "groceries run",
		Category:          "groceries",
		IsRecurring:       true,
		RecurringInterval: domain.IntervalMonthly,
		NextRecurringDate: &next,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestExecTx_CommitsInsertAndBalanceTogether(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID, accountID := seedAccount(t, store, 100)

	entry := sampleTransaction(userID, accountID)
	err := store.ExecTx(ctx, func(uow engine.UnitOfWork) error {
		if err := uow.InsertTransaction(ctx, entry); err != nil {
			return err
		}
		return uow.AddToAccountBalance(ctx, accountID, entry.Effect())
	})
	if err != nil {
		t.Fatalf("ExecTx: %v", err)
	}

	account, err := store.GetAccount(ctx, accountID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	want := decimal.RequireFromString("57.25") // 100 - 42.75
	if !account.Balance.Equal(want) {
		t.Errorf("balance = %s, want %s", account.Balance, want)
	}

	got, err := store.GetTransaction(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !got.Amount.Equal(entry.Amount) || got.Type != entry.Type || got.Category != entry.Category {
		t.Errorf("round-trip mismatch: got %+v", got)
	}
	if got.Date.String() != "2024-03-31" {
		t.Errorf("date = %s, want 2024-03-31", got.Date)
	}
	if got.NextRecurringDate == nil || got.NextRecurringDate.String() != "2024-04-30" {
		t.Errorf("next recurring date = %v, want 2024-04-30", got.NextRecurringDate)
	}
	if got.RecurringInterval != domain.IntervalMonthly {
		t.Errorf("interval = %s, want MONTHLY", got.RecurringInterval)
	}
}

func TestExecTx_RollsBackAsAUnit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID, accountID := seedAccount(t, store, 100)

	entry := sampleTransaction(userID, accountID)
	injected := errors.New("injected failure between insert and balance update")
	err := store.ExecTx(ctx, func(uow engine.UnitOfWork) error {
		if err := uow.InsertTransaction(ctx, entry); err != nil {
			return err
		}
		return injected
	})
	if !errors.Is(err, injected) {
		t.Fatalf("ExecTx = %v, want injected failure", err)
	}

	if _, err := store.GetTransaction(ctx, entry.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetTransaction after rollback = %v, want ErrNotFound", err)
	}
	account, err := store.GetAccount(ctx, accountID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !account.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance after rollback = %s, want 100", account.Balance)
	}
}

func TestReplaceTransaction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID, accountID := seedAccount(t, store, 100)

	entry := sampleTransaction(userID, accountID)
	if err := store.InsertTransaction(ctx, entry); err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}

	entry.Type = domain.TypeIncome
	entry.Amount = decimal.NewFromInt(30)
	entry.Description = "refund"
	entry.Category = "other-income"
	entry.IsRecurring = false
	entry.RecurringInterval = ""
	entry.NextRecurringDate = nil
	if err := store.ReplaceTransaction(ctx, entry); err != nil {
		t.Fatalf("ReplaceTransaction: %v", err)
	}

	got, err := store.GetTransaction(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Type != domain.TypeIncome || !got.Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("replaced entry = %+v", got)
	}
	if got.IsRecurring || got.RecurringInterval != "" || got.NextRecurringDate != nil {
		t.Errorf("recurring fields not cleared: %+v", got)
	}
}

func TestReplaceTransaction_MissingRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID, accountID := seedAccount(t, store, 100)

	ghost := sampleTransaction(userID, accountID)
	if err := store.ReplaceTransaction(ctx, ghost); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ReplaceTransaction on missing row = %v, want ErrNotFound", err)
	}
}

func TestLookupsReportNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetUser(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetUser = %v, want ErrNotFound", err)
	}
	if _, err := store.GetAccount(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetAccount = %v, want ErrNotFound", err)
	}
	if _, err := store.GetTransaction(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetTransaction = %v, want ErrNotFound", err)
	}
	if err := store.ExecTx(ctx, func(uow engine.UnitOfWork) error {
		return uow.AddToAccountBalance(ctx, "ghost", decimal.NewFromInt(1))
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("AddToAccountBalance = %v, want ErrNotFound", err)
	}
}

func TestListTransactionsByAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID, accountID := seedAccount(t, store, 100)

	dates := []civil.Date{
		{Year: 2024, Month: 1, Day: 10},
		{Year: 2024, Month: 3, Day: 5},
		{Year: 2024, Month: 2, Day: 20},
	}
	for _, d := range dates {
		entry := sampleTransaction(userID, accountID)
		entry.ID = uuid.NewString()
		entry.Date = d
		entry.IsRecurring = false
		entry.RecurringInterval = ""
		entry.NextRecurringDate = nil
		if err := store.InsertTransaction(ctx, entry); err != nil {
			t.Fatalf("InsertTransaction: %v", err)
		}
	}

	list, err := store.ListTransactionsByAccount(ctx, accountID, 10)
	if err != nil {
		t.Fatalf("ListTransactionsByAccount: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d transactions, want 3", len(list))
	}
	if list[0].Date.String() != "2024-03-05" || list[2].Date.String() != "2024-01-10" {
		t.Errorf("unexpected order: %s, %s, %s", list[0].Date, list[1].Date, list[2].Date)
	}
}
