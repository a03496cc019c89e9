package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentValueUpdate is an absolute valuation snapshot of an investment.
// It tracks the real-world value of the position at a point in time, as
// opposed to the initial value that was put in.
// Updates share the transaction log, tagged TransactionKindValueUpdate.
type InvestmentValueUpdate struct {
	ID           string
	InvestmentID string
	UserID       string
	Value        decimal.Decimal
	Note         string
	Date         time.Time
}

// AsTransaction returns the log row that stores the update
func (u *InvestmentValueUpdate) AsTransaction() *Transaction {
	return &Transaction{
		ID:     u.ID,
		ItemID: u.InvestmentID,
		UserID: u.UserID,
		Kind:   TransactionKindValueUpdate,
		Amount: u.Value,
		Note:   u.Note,
		Date:   u.Date,
	}
}

// ValueUpdateFromTransaction reads a value update back from its log row.
// It returns false when the row is not a value update.
func ValueUpdateFromTransaction(tx *Transaction) (*InvestmentValueUpdate, bool) {
	if tx.Kind != TransactionKindValueUpdate {
		return nil, false
	}
	return &InvestmentValueUpdate{
		ID:           tx.ID,
		InvestmentID: tx.ItemID,
		UserID:       tx.UserID,
		Value:        tx.Amount,
		Note:         tx.Note,
		Date:         tx.Date,
	}, true
}

// LatestValueUpdate returns the update with the most recent date.
// Ties keep the last one in slice order.
func LatestValueUpdate(updates []*InvestmentValueUpdate) *InvestmentValueUpdate {
	var latest *InvestmentValueUpdate
	for _, u := range updates {
		if latest == nil || !u.Date.Before(latest.Date) {
			latest = u
		}
	}
	return latest
}

// InvestmentPerformance is the gain or loss of an investment against its initial value
type InvestmentPerformance struct {
	InitialValue    decimal.Decimal
	CurrentValue    decimal.Decimal
	TotalGainLoss   decimal.Decimal
	GainLossPercent decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// ComputePerformance derives gain/loss from the cached current value.
// The percentage is 0 when the initial value is 0.
func ComputePerformance(inv *Investment) InvestmentPerformance {
	gain := inv.CurrentValue.Sub(inv.InitialValue)
	percent := decimal.Zero
	if !inv.InitialValue.IsZero() {
		percent = gain.Div(inv.InitialValue).Mul(hundred).Round(2)
	}
	return InvestmentPerformance{
		InitialValue:    inv.InitialValue,
		CurrentValue:    inv.CurrentValue,
		TotalGainLoss:   gain,
		GainLossPercent: percent,
	}
}
