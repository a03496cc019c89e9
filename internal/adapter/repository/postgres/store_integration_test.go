//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/fintrack-backend/internal/domain"
	"github.com/simaogato/fintrack-backend/internal/usecase/investment"
	"github.com/simaogato/fintrack-backend/internal/usecase/ledger"
)

var testDB *DB

// TestMain connects to the database named by DB_CONN_STR (or DB_HOST and
// friends) and applies the migrations once
func TestMain(m *testing.M) {
	db, err := NewDB(getDBConnectionString())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	if err := db.Migrate(context.Background()); err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}
	testDB = db

	code := m.Run()
	db.Close()
	os.Exit(code)
}

func getDBConnectionString() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}
	get := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		get("DB_HOST", "localhost"), get("DB_PORT", "5432"), get("DB_USER", "postgres"),
		get("DB_PASSWORD", "postgres"), get("DB_NAME", "fintrack"))
}

// freshUser isolates every test run in its own user id
func freshUser() string {
	return "it-" + uuid.NewString()
}

func TestIntegration_AccountFlow(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testDB)
	service := ledger.NewLedgerService(store, ledger.DefaultOptions())
	user := freshUser()

	acc, err := service.CreateItem(ctx, &domain.Item{Details: &domain.Account{Name: "Main", Currency: "USD", Balance: decimal.NewFromInt(20)}}, user)
	require.NoError(t, err)
	assert.NotEmpty(t, acc.CurrencyEntityID)

	_, err = service.CreateTransaction(ctx, ledger.CreateTransactionInput{ItemID: acc.ID, Amount: decimal.NewFromInt(100)}, user)
	require.NoError(t, err)
	tx, err := service.CreateTransaction(ctx, ledger.CreateTransactionInput{ItemID: acc.ID, Amount: decimal.RequireFromString("-30.25")}, user)
	require.NoError(t, err)

	got, err := service.GetItem(ctx, acc.ID, user)
	require.NoError(t, err)
	account, _ := got.Account()
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("89.75")))

	require.NoError(t, service.DeleteTransaction(ctx, tx.ID, user))
	got, err = service.GetItem(ctx, acc.ID, user)
	require.NoError(t, err)
	account, _ = got.Account()
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(120)))

	txs, err := service.GetTransactions(ctx, acc.ID, user)
	require.NoError(t, err)
	assert.True(t, domain.SumAmounts(txs).Equal(account.Balance))

	_, err = service.GetItem(ctx, acc.ID, freshUser())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIntegration_AtomicRollback(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testDB)
	service := ledger.NewLedgerService(store, ledger.DefaultOptions())
	user := freshUser()

	acc, err := service.CreateItem(ctx, &domain.Item{Details: &domain.Account{Name: "Main", Currency: "EUR"}}, user)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.Atomic(ctx, func(tx domain.Store) error {
		if err := tx.Transactions().Create(ctx, &domain.Transaction{
			ID: uuid.NewString(), ItemID: acc.ID, UserID: user, Kind: domain.TransactionKindRegular,
			Amount: decimal.NewFromInt(5), Date: acc.CreateDate,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	txs, err := service.GetTransactions(ctx, acc.ID, user)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestIntegration_EntityDedup(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testDB)
	service := ledger.NewLedgerService(store, ledger.DefaultOptions())
	user := freshUser()

	a, err := service.CreateItem(ctx, &domain.Item{Details: &domain.Account{Name: "A", Currency: "JPY"}}, user)
	require.NoError(t, err)
	b, err := service.CreateItem(ctx, &domain.Item{Details: &domain.Account{Name: "B", Currency: "JPY"}}, user)
	require.NoError(t, err)

	assert.Equal(t, a.CurrencyEntityID, b.CurrencyEntityID)
}

func TestIntegration_InvestmentFallback(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testDB)
	items := ledger.NewLedgerService(store, ledger.DefaultOptions())
	investments := investment.NewInvestmentService(store)
	user := freshUser()

	inv, err := items.CreateItem(ctx, &domain.Item{Details: &domain.Investment{Name: "ETF", InitialValue: decimal.NewFromInt(1000)}}, user)
	require.NoError(t, err)

	update, err := investments.AddInvestmentValueUpdate(ctx, investment.AddValueUpdateInput{InvestmentID: inv.ID, Value: decimal.NewFromInt(1200)}, user)
	require.NoError(t, err)
	require.NoError(t, investments.DeleteInvestmentValueUpdate(ctx, update.ID, user))

	perf, err := investments.GetInvestmentPerformance(ctx, inv.ID, user)
	require.NoError(t, err)
	assert.True(t, perf.CurrentValue.Equal(decimal.NewFromInt(1000)))
}
