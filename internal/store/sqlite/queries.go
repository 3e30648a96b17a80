package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-ledger/internal/domain"
	"github.com/dvloznov/wealth-ledger/internal/engine"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so the same queries serve
// plain reads and units of work.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Queries bundles all row-level operations over a DBTX.
type Queries struct {
	db DBTX
}

// New creates Queries over the given handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// CreateUser inserts a user row. Used by tooling and tests; the engine only
// reads users.
func (q *Queries) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user %s: %w", u.ID, err)
	}
	return nil
}

// GetUser loads a user by id.
func (q *Queries) GetUser(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := q.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.Errorf(domain.ErrNotFound, "user %s", id)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// CreateAccount inserts an account row with its starting balance.
func (q *Queries) CreateAccount(ctx context.Context, a *domain.Account) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO accounts (id, owner_id, name, balance, currency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, a.Name, a.Balance.String(), a.Currency, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create account %s: %w", a.ID, err)
	}
	return nil
}

// GetAccount loads an account by id.
func (q *Queries) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	var (
		a          domain.Account
		rawBalance string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, balance, currency, created_at FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.OwnerID, &a.Name, &rawBalance, &a.Currency, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.Errorf(domain.ErrNotFound, "account %s", id)
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account %s: %w", id, err)
	}
	a.Balance, err = decimal.NewFromString(rawBalance)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account %s holds malformed balance %q: %w", id, rawBalance, err)
	}
	return a, nil
}

// ListAccountsByOwner returns all accounts owned by ownerID.
func (q *Queries) ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, owner_id, name, balance, currency, created_at
		 FROM accounts WHERE owner_id = ? ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts for %s: %w", ownerID, err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var (
			a          domain.Account
			rawBalance string
		)
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &rawBalance, &a.Currency, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Balance, err = decimal.NewFromString(rawBalance)
		if err != nil {
			return nil, fmt.Errorf("account %s holds malformed balance %q: %w", a.ID, rawBalance, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// AddToAccountBalance adjusts the balance by a signed decimal delta. It must
// run inside ExecTx: the immediate transaction holds the write lock, so the
// read-add-write below cannot interleave with another writer.
func (q *Queries) AddToAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	var raw string
	err := q.db.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE id = ?`, accountID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Errorf(domain.ErrNotFound, "account %s", accountID)
	}
	if err != nil {
		return fmt.Errorf("read balance of %s: %w", accountID, err)
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("account %s holds malformed balance %q: %w", accountID, raw, err)
	}

	_, err = q.db.ExecContext(ctx,
		`UPDATE accounts SET balance = ? WHERE id = ?`,
		balance.Add(delta).String(), accountID)
	if err != nil {
		return fmt.Errorf("update balance of %s: %w", accountID, err)
	}
	return nil
}

// InsertTransaction inserts a new ledger entry row.
func (q *Queries) InsertTransaction(ctx context.Context, t *domain.Transaction) error {
	interval, nextDate := recurringColumns(t)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO transactions (
		    id, account_id, user_id, type, amount, date, description, category,
		    is_recurring, recurring_interval, next_recurring_date, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.UserID, string(t.Type), t.Amount.String(), t.Date.String(),
		t.Description, t.Category, t.IsRecurring, interval, nextDate, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}
	return nil
}

// ReplaceTransaction overwrites every mutable field of an existing entry.
func (q *Queries) ReplaceTransaction(ctx context.Context, t *domain.Transaction) error {
	interval, nextDate := recurringColumns(t)
	res, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET
		    account_id = ?, user_id = ?, type = ?, amount = ?, date = ?,
		    description = ?, category = ?, is_recurring = ?,
		    recurring_interval = ?, next_recurring_date = ?, updated_at = ?
		 WHERE id = ?`,
		t.AccountID, t.UserID, string(t.Type), t.Amount.String(), t.Date.String(),
		t.Description, t.Category, t.IsRecurring, interval, nextDate, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("replace transaction %s: %w", t.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace transaction %s: %w", t.ID, err)
	}
	if affected == 0 {
		return domain.Errorf(domain.ErrNotFound, "transaction %s", t.ID)
	}
	return nil
}

// GetTransaction loads a ledger entry by id.
func (q *Queries) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, account_id, user_id, type, amount, date, description, category,
		        is_recurring, recurring_interval, next_recurring_date, created_at, updated_at
		 FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Transaction{}, domain.Errorf(domain.ErrNotFound, "transaction %s", id)
	}
	return t, err
}

// ListTransactionsByAccount returns the account's entries, most recent date
// first, capped at limit.
func (q *Queries) ListTransactionsByAccount(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, account_id, user_id, type, amount, date, description, category,
		        is_recurring, recurring_interval, next_recurring_date, created_at, updated_at
		 FROM transactions WHERE account_id = ? ORDER BY date DESC, created_at DESC LIMIT ?`,
		accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", accountID, err)
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func recurringColumns(t *domain.Transaction) (interval, nextDate sql.NullString) {
	if t.IsRecurring {
		interval = sql.NullString{String: string(t.RecurringInterval), Valid: true}
		if t.NextRecurringDate != nil {
			nextDate = sql.NullString{String: t.NextRecurringDate.String(), Valid: true}
		}
	}
	return interval, nextDate
}

func scanTransaction(scan func(dest ...interface{}) error) (domain.Transaction, error) {
	var (
		t                  domain.Transaction
		txType             string
		rawAmount, rawDate string
		interval, nextDate sql.NullString
	)
	err := scan(&t.ID, &t.AccountID, &t.UserID, &txType, &rawAmount, &rawDate,
		&t.Description, &t.Category, &t.IsRecurring, &interval, &nextDate,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Transaction{}, err
	}

	t.Type = domain.TransactionType(txType)
	t.Amount, err = decimal.NewFromString(rawAmount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s holds malformed amount %q: %w", t.ID, rawAmount, err)
	}
	t.Date, err = civil.ParseDate(rawDate)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s holds malformed date %q: %w", t.ID, rawDate, err)
	}
	if interval.Valid {
		t.RecurringInterval = domain.RecurringInterval(interval.String)
	}
	if nextDate.Valid {
		d, err := civil.ParseDate(nextDate.String)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("transaction %s holds malformed next date %q: %w", t.ID, nextDate.String, err)
		}
		t.NextRecurringDate = &d
	}
	return t, nil
}

var _ engine.UnitOfWork = (*Queries)(nil)
