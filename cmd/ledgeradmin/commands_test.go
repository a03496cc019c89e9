package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/fintrack-backend/internal/adapter/repository/memory"
	"github.com/simaogato/fintrack-backend/internal/domain"
	"github.com/simaogato/fintrack-backend/internal/usecase/ledger"
)

func TestRunAudit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	items := ledger.NewLedgerService(store, ledger.DefaultOptions())
	_, err := items.CreateItem(ctx, &domain.Item{Details: &domain.Account{Name: "Main", Currency: "EUR", Balance: decimal.NewFromInt(10)}}, "u1")
	require.NoError(t, err)

	var out bytes.Buffer
	assert.Equal(t, subcommands.ExitSuccess, runAudit(ctx, store, "u1", &out))
	assert.Contains(t, out.String(), "1 accounts checked, 0 with drift")

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Items().Create(ctx, &domain.Item{
		ID: "stale", UserID: "u1", CreateDate: now, EditDate: now,
		Details: &domain.Account{Name: "Stale", Balance: decimal.NewFromInt(5)},
	}))

	out.Reset()
	assert.Equal(t, subcommands.ExitFailure, runAudit(ctx, store, "u1", &out))
	assert.Contains(t, out.String(), "1 with drift")
	assert.Contains(t, out.String(), "Stale")
}

func TestRunEvolution(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	items := ledger.NewLedgerService(store, ledger.DefaultOptions())
	_, err := items.CreateItem(ctx, &domain.Item{Details: &domain.Account{Name: "Main", Currency: "USD", Balance: decimal.NewFromInt(42)}}, "u1")
	require.NoError(t, err)

	var out bytes.Buffer
	assert.Equal(t, subcommands.ExitSuccess, runEvolution(ctx, store, "u1", "USD", &out))
	assert.Contains(t, out.String(), "42.00")
	assert.Contains(t, out.String(), "Main=42.00")
	assert.Contains(t, out.String(), time.Now().UTC().Format("2006-01-02"))
}

func TestCommandsAreRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range commands {
		names[c.Name()] = true
		assert.NotEmpty(t, c.Synopsis())
		assert.NotEmpty(t, c.Usage())
	}
	assert.Equal(t, map[string]bool{"migrate": true, "audit": true, "evolution": true}, names)
}
