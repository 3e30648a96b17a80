package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-ledger/internal/api/middleware"
	"github.com/dvloznov/wealth-ledger/internal/domain"
	"github.com/dvloznov/wealth-ledger/internal/invalidation"
)

// recentEntriesPerAccount bounds the transaction list in each account summary.
const recentEntriesPerAccount = 5

// DashboardReader is the read surface the dashboard view needs.
type DashboardReader interface {
	ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error)
	ListTransactionsByAccount(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error)
}

// AccountSummary is one account with its most recent ledger entries.
type AccountSummary struct {
	Account            domain.Account       `json:"account"`
	RecentTransactions []domain.Transaction `json:"recent_transactions"`
}

// DashboardSummary aggregates a user's accounts.
type DashboardSummary struct {
	NetWorth    decimal.Decimal  `json:"net_worth"`
	Accounts    []AccountSummary `json:"accounts"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// DashboardHandler serves per-user account summaries from a cache that is
// evicted by post-commit invalidation signals.
type DashboardHandler struct {
	reader DashboardReader
	log    zerolog.Logger

	mu           sync.Mutex
	cache        map[string]*DashboardSummary
	accountOwner map[string]string // account id -> owning user id
}

// NewDashboardHandler creates the handler and starts consuming signals until
// the channel closes.
func NewDashboardHandler(reader DashboardReader, signals <-chan invalidation.Signal, log zerolog.Logger) *DashboardHandler {
	h := &DashboardHandler{
		reader:       reader,
		log:          log,
		cache:        make(map[string]*DashboardSummary),
		accountOwner: make(map[string]string),
	}
	go h.watch(signals)
	return h
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.UserIDFromContext(ctx)
	if callerID == "" {
		middleware.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	h.mu.Lock()
	cached := h.cache[callerID]
	h.mu.Unlock()
	if cached != nil {
		middleware.WriteJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := h.build(ctx, callerID)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	h.mu.Lock()
	h.cache[callerID] = summary
	for _, acc := range summary.Accounts {
		h.accountOwner[acc.Account.ID] = callerID
	}
	h.mu.Unlock()

	middleware.WriteJSON(w, http.StatusOK, summary)
}

func (h *DashboardHandler) build(ctx context.Context, userID string) (*DashboardSummary, error) {
	accounts, err := h.reader.ListAccountsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		NetWorth:    decimal.Zero,
		Accounts:    make([]AccountSummary, 0, len(accounts)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, acc := range accounts {
		recent, err := h.reader.ListTransactionsByAccount(ctx, acc.ID, recentEntriesPerAccount)
		if err != nil {
			return nil, err
		}
		summary.NetWorth = summary.NetWorth.Add(acc.Balance)
		summary.Accounts = append(summary.Accounts, AccountSummary{
			Account:            acc,
			RecentTransactions: recent,
		})
	}
	return summary, nil
}

// watch evicts cached summaries as signals arrive. Dashboard-scope signals
// carry the user id directly; account-scope signals are resolved through the
// owner index built on cache fill.
func (h *DashboardHandler) watch(signals <-chan invalidation.Signal) {
	for sig := range signals {
		h.mu.Lock()
		switch sig.Scope {
		case invalidation.ScopeDashboard:
			delete(h.cache, sig.Key)
		case invalidation.ScopeAccount:
			if owner, ok := h.accountOwner[sig.Key]; ok {
				delete(h.cache, owner)
			}
		}
		h.mu.Unlock()
	}
}
