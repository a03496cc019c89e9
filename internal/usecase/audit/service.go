// Package audit checks the cached balances of accounts against their
// transaction log without repairing anything.
package audit

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/fintrack-backend/internal/domain"
	"github.com/simaogato/fintrack-backend/internal/logger"
)

// Drift is an account whose cached balance disagrees with its log
type Drift struct {
	ItemID        string
	Name          string
	CachedBalance decimal.Decimal
	LogBalance    decimal.Decimal
}

// Difference is cached minus log
func (d Drift) Difference() decimal.Decimal {
	return d.CachedBalance.Sub(d.LogBalance)
}

// Report is the outcome of one audit run
type Report struct {
	UserID          string
	AccountsChecked int
	Drifts          []Drift
}

// Clean reports whether every account matched its log
func (r Report) Clean() bool { return len(r.Drifts) == 0 }

// AuditService verifies account.Balance == Σ transaction.Amount
type AuditService struct {
	Store domain.Store
}

// NewAuditService creates a new AuditService instance
func NewAuditService(store domain.Store) *AuditService {
	return &AuditService{Store: store}
}

// Run checks every account of userID, archived ones included
func (s *AuditService) Run(ctx context.Context, userID string) (*Report, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrMissingArgument)
	}

	accounts, err := s.Store.Items().List(ctx, userID, domain.ItemFilter{Type: domain.ItemTypeAccount, IncludeArchived: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	txs, err := s.Store.Transactions().ListByItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	sums := make(map[string]decimal.Decimal, len(accounts))
	for _, tx := range txs {
		if tx.Kind.AffectsBalance() {
			sums[tx.ItemID] = sums[tx.ItemID].Add(tx.Amount)
		}
	}

	report := &Report{UserID: userID, AccountsChecked: len(accounts), Drifts: []Drift{}}
	for _, a := range accounts {
		acc, _ := a.Account()
		logBalance := sums[a.ID]
		if !acc.Balance.Equal(logBalance) {
			report.Drifts = append(report.Drifts, Drift{
				ItemID:        a.ID,
				Name:          acc.Name,
				CachedBalance: acc.Balance,
				LogBalance:    logBalance,
			})
		}
	}

	log := logger.FromContext(ctx)
	if report.Clean() {
		log.Info("balance audit clean", "user_id", userID, "accounts", report.AccountsChecked)
	} else {
		log.Warn("balance audit found drift", "user_id", userID, "accounts", report.AccountsChecked, "drifts", len(report.Drifts))
	}
	return report, nil
}
