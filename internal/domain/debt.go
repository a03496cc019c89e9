package domain

import "github.com/shopspring/decimal"

// PaymentStatus is the derived settlement state of a debt
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusPaid          PaymentStatus = "paid"
)

// DebtPaymentStatus summarizes the payments recorded against a debt
type DebtPaymentStatus struct {
	TotalPaid        decimal.Decimal
	RemainingAmount  decimal.Decimal
	PaymentStatus    PaymentStatus
	TransactionCount int
}

// ComputeDebtStatus derives the payment status of a debt from its transactions.
// Logic:
//   - TotalPaid = sum of transaction amounts
//   - RemainingAmount = max(0, Amount - TotalPaid)
//   - unpaid if TotalPaid <= 0, paid if RemainingAmount <= 0, partially_paid otherwise
//
// Overpayment is not rejected: it is reported as paid with RemainingAmount clamped to 0.
func ComputeDebtStatus(debt *Debt, txs []*Transaction) DebtPaymentStatus {
	totalPaid := decimal.Zero
	count := 0
	for _, tx := range txs {
		if !tx.Kind.AffectsBalance() {
			continue
		}
		totalPaid = totalPaid.Add(tx.Amount)
		count++
	}

	remaining := decimal.Max(decimal.Zero, debt.Amount.Sub(totalPaid))

	status := PaymentStatusPartiallyPaid
	switch {
	case totalPaid.LessThanOrEqual(decimal.Zero):
		status = PaymentStatusUnpaid
	case remaining.LessThanOrEqual(decimal.Zero):
		status = PaymentStatusPaid
	}

	return DebtPaymentStatus{
		TotalPaid:        totalPaid,
		RemainingAmount:  remaining,
		PaymentStatus:    status,
		TransactionCount: count,
	}
}
