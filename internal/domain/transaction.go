package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind discriminates the rows sharing the transaction log
type TransactionKind string

const (
	TransactionKindRegular           TransactionKind = "transaction"
	TransactionKindBalanceAdjustment TransactionKind = "balance_adjustment"
	TransactionKindDebtPayment       TransactionKind = "debt_payment"
	TransactionKindValueUpdate       TransactionKind = "investment_value_update"
)

// AffectsBalance reports whether rows of this kind are signed deltas.
// Value updates carry absolute valuations and never count toward a sum.
func (k TransactionKind) AffectsBalance() bool {
	return k != TransactionKindValueUpdate
}

// Transaction is an append-only entry of the log.
// ItemID is an opaque reference to the owning item.
type Transaction struct {
	ID     string
	ItemID string
	UserID string
	Kind   TransactionKind
	Amount decimal.Decimal // signed delta; absolute value for value updates
	Note   string
	Date   time.Time
}

// Validate ensures the transaction adheres to domain rules
func (t *Transaction) Validate() error {
	if t.ItemID == "" {
		return fmt.Errorf("transaction item id is required: %w", ErrMissingArgument)
	}
	switch t.Kind {
	case TransactionKindRegular, TransactionKindBalanceAdjustment:
		if t.Amount.IsZero() {
			return fmt.Errorf("transaction amount is required: %w", ErrMissingArgument)
		}
	case TransactionKindDebtPayment:
		if !t.Amount.IsPositive() {
			return fmt.Errorf("debt payment amount must be positive: %w", ErrInvalidArgument)
		}
	case TransactionKindValueUpdate:
		if t.Amount.IsNegative() {
			return fmt.Errorf("investment value cannot be negative: %w", ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("unknown transaction kind %q: %w", t.Kind, ErrInvalidArgument)
	}
	return nil
}

// SumAmounts adds the balance-affecting amounts of txs
func SumAmounts(txs []*Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Kind.AffectsBalance() {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// SortOrder selects the date ordering of a listing
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)
