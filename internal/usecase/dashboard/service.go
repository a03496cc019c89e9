package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/fintrack-backend/internal/domain"
)

// AccountBalance is one account's contribution to an aggregate
type AccountBalance struct {
	ID      string
	Name    string
	Balance decimal.Decimal
}

// CurrencySummary represents the rollup of the accounts sharing a currency label
type CurrencySummary struct {
	CurrencyItemID   string
	Currency         string
	Value            decimal.Decimal
	AccountBreakdown []AccountBalance
}

// DashboardService derives read-side views. It never mutates the store.
type DashboardService struct {
	Store domain.Store
	Now   func() time.Time
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(store domain.Store) *DashboardService {
	return &DashboardService{
		Store: store,
		Now:   time.Now,
	}
}

// accountsByCurrency lists every account of userID with the given label, archived ones included
func (s *DashboardService) accountsByCurrency(ctx context.Context, userID, currency string) ([]*domain.Item, error) {
	accounts, err := s.Store.Items().List(ctx, userID, domain.ItemFilter{
		Type:            domain.ItemTypeAccount,
		Currency:        currency,
		IncludeArchived: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// GetCurrencySummaries calculates the total of every currency item of userID
// Logic:
//   - for each currency item, sum the balances of the accounts with the same currency string
//   - the breakdown lists those accounts sorted by balance descending
func (s *DashboardService) GetCurrencySummaries(ctx context.Context, userID string) ([]CurrencySummary, error) {
	currencies, err := s.Store.Items().List(ctx, userID, domain.ItemFilter{Type: domain.ItemTypeCurrency})
	if err != nil {
		return nil, fmt.Errorf("failed to list currency items: %w", err)
	}

	accounts, err := s.accountsByCurrency(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	summaries := make([]CurrencySummary, 0, len(currencies))
	for _, c := range currencies {
		summary := CurrencySummary{
			CurrencyItemID:   c.ID,
			Currency:         c.Currency(),
			Value:            decimal.Zero,
			AccountBreakdown: []AccountBalance{},
		}
		for _, a := range accounts {
			if a.Currency() != summary.Currency {
				continue
			}
			acc, _ := a.Account()
			summary.Value = summary.Value.Add(acc.Balance)
			summary.AccountBreakdown = append(summary.AccountBreakdown, AccountBalance{ID: a.ID, Name: acc.Name, Balance: acc.Balance})
		}
		sort.SliceStable(summary.AccountBreakdown, func(i, j int) bool {
			return summary.AccountBreakdown[i].Balance.GreaterThan(summary.AccountBreakdown[j].Balance)
		})
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetDebtPaymentStatus derives the settlement state of a debt from its transactions
func (s *DashboardService) GetDebtPaymentStatus(ctx context.Context, debtID, userID string) (domain.DebtPaymentStatus, error) {
	if debtID == "" {
		return domain.DebtPaymentStatus{}, fmt.Errorf("debt id is required: %w", domain.ErrMissingArgument)
	}

	item, err := s.Store.Items().GetByID(ctx, debtID, userID)
	if err != nil {
		return domain.DebtPaymentStatus{}, err
	}
	debt, ok := item.Debt()
	if !ok {
		return domain.DebtPaymentStatus{}, fmt.Errorf("item %s is a %s, not a debt: %w", debtID, item.Type(), domain.ErrInvalidArgument)
	}

	txs, err := s.Store.Transactions().ListByItem(ctx, debtID, domain.SortAscending)
	if err != nil {
		return domain.DebtPaymentStatus{}, fmt.Errorf("failed to list debt transactions: %w", err)
	}
	return domain.ComputeDebtStatus(debt, txs), nil
}

// GetCurrencyEvolutionData returns the daily balance series of the accounts
// sharing a currency label. See BuildCurrencyEvolution.
func (s *DashboardService) GetCurrencyEvolutionData(ctx context.Context, currency, userID string) ([]EvolutionPoint, error) {
	if currency == "" {
		return nil, fmt.Errorf("currency is required: %w", domain.ErrMissingArgument)
	}

	accounts, err := s.accountsByCurrency(ctx, userID, currency)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return []EvolutionPoint{}, nil
	}

	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	txs, err := s.Store.Transactions().ListByItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list account transactions: %w", err)
	}

	return BuildCurrencyEvolution(accounts, txs, s.Now()), nil
}
