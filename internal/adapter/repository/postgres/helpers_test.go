package postgres

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/simaogato/fintrack-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"placeholders kept", "SELECT * FROM items WHERE id = $1 AND user_id = $12", "SELECT * FROM items WHERE id = $1 AND user_id = $12"},
		{"string literal", "SELECT * FROM items WHERE item_type = 'account'", "SELECT * FROM items WHERE item_type = '?'"},
		{"escaped quote", "SELECT 'it''s' FROM x", "SELECT '?' FROM x"},
		{"number literal", "SELECT * FROM t LIMIT 10", "SELECT * FROM t LIMIT ?"},
		{"identifiers with digits", "SELECT col1 FROM t2", "SELECT col1 FROM t2"},
		{"whitespace collapsed", "SELECT\n\t\tid\n  FROM items", "SELECT id FROM items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeQuery(tt.query))
		})
	}
}

func TestExtractSQLVerb(t *testing.T) {
	assert.Equal(t, "SELECT", extractSQLVerb("\n\t\tselect id from items"))
	assert.Equal(t, "UPDATE", extractSQLVerb("UPDATE items SET x = 1"))
	assert.Equal(t, "", extractSQLVerb("   "))
}

func TestEncodeDecodeItem_PreservesVariantFields(t *testing.T) {
	items := []*domain.Item{
		{ID: "a", Details: &domain.Account{Name: "Checking", Currency: "USD", Balance: decimal.RequireFromString("12.34")}},
		{ID: "d", Details: &domain.Debt{Description: "Loan", WithWho: "Ana", Amount: decimal.NewFromInt(300), Currency: "EUR", TheyPayMe: true, Details: "monthly"}},
		{ID: "s", Details: &domain.Service{Name: "Music", Cost: decimal.RequireFromString("9.99"), Currency: "USD", IsManual: true, Notes: "family"}},
		{ID: "c", Details: &domain.CurrencyView{Currency: "GBP"}},
		{ID: "i", Details: &domain.Investment{Name: "ETF", Tag: "stocks", InitialValue: decimal.NewFromInt(1000), CurrentValue: decimal.NewFromInt(1100), Currency: "USD", IsFinished: true}},
	}

	for _, it := range items {
		t.Run(string(it.Type()), func(t *testing.T) {
			rec, err := encodeItem(it)
			require.NoError(t, err)

			details, err := decodeDetails(it.Type(), it.Currency(), rec)
			require.NoError(t, err)
			assert.Equal(t, it.Details, details)
		})
	}
}

func TestEncodeItem_RequiresDetails(t *testing.T) {
	_, err := encodeItem(&domain.Item{ID: "x"})
	assert.ErrorIs(t, err, domain.ErrMissingArgument)
}

func TestDecodeDetails_UnknownType(t *testing.T) {
	_, err := decodeDetails("wallet", "USD", itemRecord{})
	assert.Error(t, err)
}

func TestEntityTable(t *testing.T) {
	table, err := entityTable(domain.EntityKindCurrency)
	require.NoError(t, err)
	assert.Equal(t, "currencies", table)

	table, err = entityTable(domain.EntityKindPerson)
	require.NoError(t, err)
	assert.Equal(t, "persons", table)

	_, err = entityTable("planet")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestStoreErr_WrapsBothCauses(t *testing.T) {
	cause := errors.New("connection reset")
	err := storeErr("failed to query items", cause)
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	assert.ErrorIs(t, err, cause)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("plain")))
}
