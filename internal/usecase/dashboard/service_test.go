package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/fintrack-backend/internal/adapter/repository/memory"
	"github.com/simaogato/fintrack-backend/internal/domain"
	"github.com/simaogato/fintrack-backend/internal/usecase/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const user = "user-1"

var now = time.Date(2024, 2, 15, 14, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*ledger.LedgerService, *DashboardService) {
	t.Helper()
	store := memory.NewStore()
	items := ledger.NewLedgerService(store, ledger.DefaultOptions())
	items.Now = func() time.Time { return now }
	service := NewDashboardService(store)
	service.Now = func() time.Time { return now }
	return items, service
}

func create(t *testing.T, items *ledger.LedgerService, details domain.ItemDetails) *domain.Item {
	t.Helper()
	item, err := items.CreateItem(context.Background(), &domain.Item{Details: details}, user)
	require.NoError(t, err)
	return item
}

func TestAccountAndCurrencyScenario(t *testing.T) {
	ctx := context.Background()
	items, service := setup(t)

	a := create(t, items, &domain.Account{Name: "A", Currency: "USD"})
	_, err := items.CreateTransaction(ctx, ledger.CreateTransactionInput{ItemID: a.ID, Amount: decimal.NewFromInt(100), Note: "deposit"}, user)
	require.NoError(t, err)
	_, err = items.CreateTransaction(ctx, ledger.CreateTransactionInput{ItemID: a.ID, Amount: decimal.NewFromInt(-30), Note: "withdrawal"}, user)
	require.NoError(t, err)

	stored, err := items.GetItem(ctx, a.ID, user)
	require.NoError(t, err)
	acc, _ := stored.Account()
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(70)))

	create(t, items, &domain.CurrencyView{Currency: "USD"})

	summaries, err := service.GetCurrencySummaries(ctx, user)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "USD", summaries[0].Currency)
	assert.True(t, summaries[0].Value.Equal(decimal.NewFromInt(70)))
	require.Len(t, summaries[0].AccountBreakdown, 1)
	assert.Equal(t, "A", summaries[0].AccountBreakdown[0].Name)
	assert.True(t, summaries[0].AccountBreakdown[0].Balance.Equal(decimal.NewFromInt(70)))
}

func TestGetCurrencySummaries_BreakdownSortedAndScoped(t *testing.T) {
	ctx := context.Background()
	items, service := setup(t)

	create(t, items, &domain.Account{Name: "Low", Currency: "EUR", Balance: decimal.NewFromInt(5)})
	create(t, items, &domain.Account{Name: "High", Currency: "EUR", Balance: decimal.NewFromInt(500)})
	create(t, items, &domain.Account{Name: "Negative", Currency: "EUR", Balance: decimal.NewFromInt(-20)})
	create(t, items, &domain.Account{Name: "Other", Currency: "USD", Balance: decimal.NewFromInt(1000)})
	create(t, items, &domain.CurrencyView{Currency: "EUR"})
	create(t, items, &domain.CurrencyView{Currency: "JPY"})

	_, err := items.CreateItem(ctx, &domain.Item{Details: &domain.Account{Name: "Foreign", Currency: "EUR", Balance: decimal.NewFromInt(7)}}, "user-2")
	require.NoError(t, err)

	summaries, err := service.GetCurrencySummaries(ctx, user)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	eur := summaries[0]
	assert.True(t, eur.Value.Equal(decimal.NewFromInt(485)))
	names := []string{}
	for _, b := range eur.AccountBreakdown {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"High", "Low", "Negative"}, names)

	jpy := summaries[1]
	assert.True(t, jpy.Value.IsZero())
	assert.Empty(t, jpy.AccountBreakdown)
}

func TestGetDebtPaymentStatus_Boundaries(t *testing.T) {
	ctx := context.Background()
	items, service := setup(t)
	debt := create(t, items, &domain.Debt{WithWho: "Ana", Amount: decimal.NewFromInt(100), Currency: "EUR"})

	status, err := service.GetDebtPaymentStatus(ctx, debt.ID, user)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusUnpaid, status.PaymentStatus)
	assert.True(t, status.RemainingAmount.Equal(decimal.NewFromInt(100)))

	_, err = items.CreateDebtPayment(ctx, ledger.CreateDebtPaymentInput{DebtID: debt.ID, Amount: decimal.NewFromInt(100)}, user)
	require.NoError(t, err)

	status, err = service.GetDebtPaymentStatus(ctx, debt.ID, user)
	require.NoError(t, err)
	assert.True(t, status.TotalPaid.Equal(decimal.NewFromInt(100)))
	assert.True(t, status.RemainingAmount.IsZero())
	assert.Equal(t, domain.PaymentStatusPaid, status.PaymentStatus)
	assert.Equal(t, 1, status.TransactionCount)

	// Overpayment is accepted and clamped, not rejected.
	_, err = items.CreateDebtPayment(ctx, ledger.CreateDebtPaymentInput{DebtID: debt.ID, Amount: decimal.NewFromInt(10)}, user)
	require.NoError(t, err)

	status, err = service.GetDebtPaymentStatus(ctx, debt.ID, user)
	require.NoError(t, err)
	assert.True(t, status.TotalPaid.Equal(decimal.NewFromInt(110)))
	assert.True(t, status.RemainingAmount.IsZero())
	assert.Equal(t, domain.PaymentStatusPaid, status.PaymentStatus)
	assert.Equal(t, 2, status.TransactionCount)
}

func TestGetDebtPaymentStatus_Errors(t *testing.T) {
	ctx := context.Background()
	items, service := setup(t)
	account := create(t, items, &domain.Account{Name: "A"})
	debt := create(t, items, &domain.Debt{WithWho: "Ana", Amount: decimal.NewFromInt(1)})

	_, err := service.GetDebtPaymentStatus(ctx, "", user)
	assert.ErrorIs(t, err, domain.ErrMissingArgument)

	_, err = service.GetDebtPaymentStatus(ctx, account.ID, user)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = service.GetDebtPaymentStatus(ctx, debt.ID, "intruder")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetCurrencyEvolutionData_FromStore(t *testing.T) {
	ctx := context.Background()
	items, service := setup(t)

	a := create(t, items, &domain.Account{Name: "A", Currency: "USD", Balance: decimal.NewFromInt(10)})
	create(t, items, &domain.Account{Name: "B", Currency: "USD", Balance: decimal.RequireFromString("2.50")})
	create(t, items, &domain.Account{Name: "C", Currency: "EUR", Balance: decimal.NewFromInt(99)})
	_, err := items.CreateTransaction(ctx, ledger.CreateTransactionInput{ItemID: a.ID, Amount: decimal.NewFromInt(5)}, user)
	require.NoError(t, err)

	points, err := service.GetCurrencyEvolutionData(ctx, "USD", user)
	require.NoError(t, err)

	require.Len(t, points, 1, "every transaction happened today")
	assert.True(t, points[0].Value.Equal(decimal.RequireFromString("17.50")))
	require.Len(t, points[0].TopAccounts, 2)
	assert.Equal(t, "A", points[0].TopAccounts[0].Name)

	empty, err := service.GetCurrencyEvolutionData(ctx, "GBP", user)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = service.GetCurrencyEvolutionData(ctx, "", user)
	assert.ErrorIs(t, err, domain.ErrMissingArgument)
}
