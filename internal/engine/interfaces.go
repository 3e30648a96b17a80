package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-ledger/internal/domain"
)

// UnitOfWork is the set of store operations available inside one atomic
// unit of work. Everything invoked through it commits or rolls back together.
type UnitOfWork interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetAccount(ctx context.Context, id string) (domain.Account, error)
	GetTransaction(ctx context.Context, id string) (domain.Transaction, error)
	InsertTransaction(ctx context.Context, t *domain.Transaction) error
	ReplaceTransaction(ctx context.Context, t *domain.Transaction) error

	// AddToAccountBalance adjusts the account balance by a signed delta.
	// The delta form is what keeps concurrent operations on the same
	// account composable; callers never write an absolute balance.
	AddToAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) error
}

// Ledger is the transactional store the engine runs against. ExecTx runs fn
// inside one atomic unit of work; a commit that loses to a concurrent writer
// surfaces as domain.ErrConflict.
type Ledger interface {
	ExecTx(ctx context.Context, fn func(UnitOfWork) error) error
}

// Invalidator receives the post-commit view-invalidation signals. Delivery
// is fire-and-forget: it must never affect the committed result.
type Invalidator interface {
	InvalidateDashboard(userID string)
	InvalidateAccount(accountID string)
}
