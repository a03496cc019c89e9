package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr error
		errMsg  string
	}{
		{
			name:    "Item without details should fail",
			item:    Item{},
			wantErr: ErrMissingArgument,
			errMsg:  "item details are required",
		},
		{
			name: "Account with name should pass",
			item: Item{Details: &Account{Name: "Checking", Currency: "USD"}},
		},
		{
			name:    "Account without name should fail",
			item:    Item{Details: &Account{Name: "  ", Currency: "USD"}},
			wantErr: ErrMissingArgument,
			errMsg:  "account name is required",
		},
		{
			name: "Debt with counterpart and positive amount should pass",
			item: Item{Details: &Debt{WithWho: "Ana", Amount: decimal.NewFromInt(100)}},
		},
		{
			name:    "Debt without counterpart should fail",
			item:    Item{Details: &Debt{Amount: decimal.NewFromInt(100)}},
			wantErr: ErrMissingArgument,
			errMsg:  "debt counterpart is required",
		},
		{
			name:    "Debt with zero amount should fail",
			item:    Item{Details: &Debt{WithWho: "Ana", Amount: decimal.Zero}},
			wantErr: ErrInvalidArgument,
			errMsg:  "debt amount must be positive",
		},
		{
			name:    "Service with negative cost should fail",
			item:    Item{Details: &Service{Name: "Streaming", Cost: decimal.NewFromInt(-1)}},
			wantErr: ErrInvalidArgument,
			errMsg:  "service cost cannot be negative",
		},
		{
			name: "Service with zero cost should pass",
			item: Item{Details: &Service{Name: "Free tier", Cost: decimal.Zero}},
		},
		{
			name:    "Currency without name should fail",
			item:    Item{Details: &CurrencyView{}},
			wantErr: ErrMissingArgument,
			errMsg:  "currency name is required",
		},
		{
			name: "Investment with zero initial value should pass",
			item: Item{Details: &Investment{Name: "ETF", InitialValue: decimal.Zero}},
		},
		{
			name:    "Investment with negative initial value should fail",
			item:    Item{Details: &Investment{Name: "ETF", InitialValue: decimal.NewFromInt(-5)}},
			wantErr: ErrInvalidArgument,
			errMsg:  "investment initial value cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseItemType(t *testing.T) {
	typ, err := ParseItemType(" Account ")
	assert.NoError(t, err)
	assert.Equal(t, ItemTypeAccount, typ)

	_, err = ParseItemType("wallet")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestItemType_HasTransactions(t *testing.T) {
	assert.True(t, ItemTypeAccount.HasTransactions())
	assert.True(t, ItemTypeDebt.HasTransactions())
	assert.True(t, ItemTypeInvestment.HasTransactions())
	assert.False(t, ItemTypeCurrency.HasTransactions())
	assert.False(t, ItemTypeService.HasTransactions())
}

func TestItem_Accessors(t *testing.T) {
	debt := &Item{Details: &Debt{Description: "Dinner", WithWho: "Rui", Currency: "EUR"}}
	assert.Equal(t, ItemTypeDebt, debt.Type())
	assert.Equal(t, "EUR", debt.Currency())
	assert.Equal(t, "Rui", debt.Person())
	assert.Equal(t, "Dinner", debt.DisplayName())

	noDescription := &Item{Details: &Debt{WithWho: "Rui"}}
	assert.Equal(t, "Rui", noDescription.DisplayName())

	account := &Item{Details: &Account{Name: "Savings", Currency: "USD"}}
	assert.Equal(t, "", account.Person())
	_, ok := account.Debt()
	assert.False(t, ok)
	a, ok := account.Account()
	assert.True(t, ok)
	assert.Equal(t, "Savings", a.Name)

	assert.Equal(t, ItemType(""), (&Item{}).Type())
}

func TestItem_CloneIsDeep(t *testing.T) {
	original := &Item{ID: "1", Details: &Account{Name: "Checking", Balance: decimal.NewFromInt(10)}}

	cp := original.Clone()
	acc, _ := cp.Account()
	acc.Balance = decimal.NewFromInt(99)

	orig, _ := original.Account()
	assert.True(t, orig.Balance.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, original.ID, cp.ID)
}

func TestItemFilter_Matches(t *testing.T) {
	usd := &Item{Details: &Account{Name: "A", Currency: "USD"}}
	archived := &Item{Archived: true, Details: &Account{Name: "B", Currency: "USD"}}
	eurDebt := &Item{Details: &Debt{WithWho: "C", Currency: "EUR"}}

	assert.True(t, ItemFilter{}.Matches(usd))
	assert.False(t, ItemFilter{}.Matches(archived))
	assert.True(t, ItemFilter{IncludeArchived: true}.Matches(archived))
	assert.True(t, ItemFilter{Type: ItemTypeAccount, Currency: "USD"}.Matches(usd))
	assert.False(t, ItemFilter{Type: ItemTypeAccount}.Matches(eurDebt))
	assert.False(t, ItemFilter{Currency: "USD"}.Matches(eurDebt))
}
