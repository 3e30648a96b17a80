// Package engine implements the transaction ledger engine: creating and
// amending ledger entries while keeping the owning account's balance
// reconciled with the full history of committed entries.
package engine

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/wealth-ledger/internal/domain"
	"github.com/dvloznov/wealth-ledger/internal/recurrence"
)

const (
	// maxCommitAttempts bounds automatic retries of conflicted commits.
	maxCommitAttempts = 3
	baseRetryDelay    = 50 * time.Millisecond
)

// Engine orchestrates ledger operations against a transactional store.
type Engine struct {
	ledger Ledger
	inval  Invalidator
	log    zerolog.Logger

	now func() time.Time // test hook
}

// New creates an engine on top of the given store. inval may be nil when no
// downstream views need invalidation (e.g. in tooling).
func New(ledger Ledger, inval Invalidator, log zerolog.Logger) *Engine {
	return &Engine{
		ledger: ledger,
		inval:  inval,
		log:    log,
		now:    time.Now,
	}
}

// Create records a new ledger entry and applies its effect to the owning
// account's balance inside one atomic unit of work.
func (e *Engine) Create(ctx context.Context, callerID string, draft domain.TransactionDraft) (*domain.Transaction, error) {
	if callerID == "" {
		return nil, domain.Errorf(domain.ErrUnauthorized, "missing caller identity")
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	nextDate, err := nextRecurringDate(draft)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	entry := &domain.Transaction{
		ID:                uuid.NewString(),
		AccountID:         draft.AccountID,
		UserID:            callerID,
		Type:              draft.Type,
		Amount:            draft.Amount,
		Date:              draft.Date,
		Description:       draft.Description,
		Category:          domain.NormalizeCategory(draft.Category),
		IsRecurring:       draft.IsRecurring,
		RecurringInterval: draft.RecurringInterval,
		NextRecurringDate: nextDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	effect := entry.Effect()

	err = e.withConflictRetry(ctx, "create", func() error {
		return e.ledger.ExecTx(ctx, func(uow UnitOfWork) error {
			if _, err := uow.GetUser(ctx, callerID); err != nil {
				return err
			}
			account, err := uow.GetAccount(ctx, draft.AccountID)
			if err != nil {
				return err
			}
			if account.OwnerID != callerID {
				return domain.Errorf(domain.ErrNotFound, "account %s", draft.AccountID)
			}
			if err := uow.InsertTransaction(ctx, entry); err != nil {
				return err
			}
			return uow.AddToAccountBalance(ctx, account.ID, effect)
		})
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("transaction_id", entry.ID).
		Str("account_id", entry.AccountID).
		Str("effect", effect.String()).
		Msg("Ledger entry created")

	e.invalidate(entry.UserID, entry.AccountID)
	return entry, nil
}

// Update replaces an existing ledger entry's fields and adjusts the account
// balance by the difference between the new and old signed effects. The
// delta increment composes correctly under concurrent updates on the same
// account, which an absolute rewrite of a locally read balance does not.
func (e *Engine) Update(ctx context.Context, callerID, transactionID string, draft domain.TransactionDraft) (*domain.Transaction, error) {
	if callerID == "" {
		return nil, domain.Errorf(domain.ErrUnauthorized, "missing caller identity")
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	nextDate, err := nextRecurringDate(draft)
	if err != nil {
		return nil, err
	}

	var updated domain.Transaction
	err = e.withConflictRetry(ctx, "update", func() error {
		return e.ledger.ExecTx(ctx, func(uow UnitOfWork) error {
			if _, err := uow.GetUser(ctx, callerID); err != nil {
				return err
			}
			original, err := uow.GetTransaction(ctx, transactionID)
			if err != nil {
				return err
			}
			// Ownership mismatch reads the same as absence.
			if original.UserID != callerID {
				return domain.Errorf(domain.ErrNotFound, "transaction %s", transactionID)
			}
			if draft.AccountID != original.AccountID {
				return domain.Errorf(domain.ErrValidation, "transaction cannot move between accounts")
			}
			account, err := uow.GetAccount(ctx, original.AccountID)
			if err != nil {
				return err
			}
			if account.OwnerID != callerID {
				return domain.Errorf(domain.ErrNotFound, "transaction %s", transactionID)
			}

			updated = domain.Transaction{
				ID:                original.ID,
				AccountID:         original.AccountID,
				UserID:            original.UserID,
				Type:              draft.Type,
				Amount:            draft.Amount,
				Date:              draft.Date,
				Description:       draft.Description,
				Category:          domain.NormalizeCategory(draft.Category),
				IsRecurring:       draft.IsRecurring,
				RecurringInterval: draft.RecurringInterval,
				NextRecurringDate: nextDate,
				CreatedAt:         original.CreatedAt,
				UpdatedAt:         e.now().UTC(),
			}
			if err := uow.ReplaceTransaction(ctx, &updated); err != nil {
				return err
			}

			delta := updated.Effect().Sub(original.Effect())
			return uow.AddToAccountBalance(ctx, account.ID, delta)
		})
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("transaction_id", updated.ID).
		Str("account_id", updated.AccountID).
		Msg("Ledger entry updated")

	e.invalidate(updated.UserID, updated.AccountID)
	return &updated, nil
}

// Get returns a single ledger entry owned by the caller.
func (e *Engine) Get(ctx context.Context, callerID, transactionID string) (*domain.Transaction, error) {
	if callerID == "" {
		return nil, domain.Errorf(domain.ErrUnauthorized, "missing caller identity")
	}

	var entry domain.Transaction
	err := e.ledger.ExecTx(ctx, func(uow UnitOfWork) error {
		t, err := uow.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if t.UserID != callerID {
			return domain.Errorf(domain.ErrNotFound, "transaction %s", transactionID)
		}
		entry = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// nextRecurringDate derives the next occurrence for a recurring draft and
// clears it for non-recurring ones.
func nextRecurringDate(draft domain.TransactionDraft) (*civil.Date, error) {
	if !draft.IsRecurring {
		return nil, nil
	}
	next, err := recurrence.Next(draft.Date, draft.RecurringInterval)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// withConflictRetry runs op, retrying up to maxCommitAttempts with linear
// backoff when the unit of work fails to commit due to a concurrent
// modification. Every other failure kind is terminal for the call.
func (e *Engine) withConflictRetry(ctx context.Context, opName string, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		err = op()
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			return err
		}
		if attempt == maxCommitAttempts {
			break
		}
		e.log.Warn().
			Err(err).
			Str("op", opName).
			Int("attempt", attempt).
			Msg("Commit conflict, retrying")
		select {
		case <-time.After(time.Duration(attempt) * baseRetryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (e *Engine) invalidate(userID, accountID string) {
	if e.inval == nil {
		return
	}
	e.inval.InvalidateDashboard(userID)
	e.inval.InvalidateAccount(accountID)
}
