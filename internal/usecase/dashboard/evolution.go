package dashboard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/fintrack-backend/internal/domain"
)

const (
	// MaxEvolutionPoints is the length of the returned series
	MaxEvolutionPoints = 30
	// TopAccountsPerPoint is how many accounts each point lists
	TopAccountsPerPoint = 3
)

// EvolutionPoint is the state of a currency at the end of one UTC day
type EvolutionPoint struct {
	Date        time.Time // midnight UTC
	Value       decimal.Decimal
	TopAccounts []AccountBalance
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BuildCurrencyEvolution replays the transaction log of accounts from zero.
// Logic:
//  1. Every account starts at 0
//  2. Transactions are grouped by UTC calendar day, oldest first
//  3. After applying a day, emit {date, Σ running balances rounded to 2 places, top accounts}
//  4. Append a point for today built from the cached balances, unless the
//     series already reaches today. Its value is the exact sum, unrounded
//  5. Keep the most recent MaxEvolutionPoints points
//
// Transactions of items not in accounts, and value updates, are ignored.
func BuildCurrencyEvolution(accounts []*domain.Item, txs []*domain.Transaction, now time.Time) []EvolutionPoint {
	points := []EvolutionPoint{}
	if len(accounts) == 0 {
		return points
	}

	running := make([]AccountBalance, len(accounts))
	index := make(map[string]int, len(accounts))
	for i, a := range accounts {
		running[i] = AccountBalance{ID: a.ID, Name: a.DisplayName(), Balance: decimal.Zero}
		index[a.ID] = i
	}

	ordered := make([]*domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if _, ok := index[tx.ItemID]; ok && tx.Kind.AffectsBalance() {
			ordered = append(ordered, tx)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	for i := 0; i < len(ordered); {
		day := utcDay(ordered[i].Date)
		for ; i < len(ordered) && utcDay(ordered[i].Date).Equal(day); i++ {
			pos := index[ordered[i].ItemID]
			running[pos].Balance = running[pos].Balance.Add(ordered[i].Amount)
		}
		points = append(points, snapshot(day, running, true))
	}

	today := utcDay(now)
	if len(points) == 0 || points[len(points)-1].Date.Before(today) {
		current := make([]AccountBalance, len(accounts))
		for i, a := range accounts {
			current[i] = AccountBalance{ID: a.ID, Name: a.DisplayName(), Balance: decimal.Zero}
			if acc, ok := a.Account(); ok {
				current[i].Balance = acc.Balance
			}
		}
		points = append(points, snapshot(today, current, false))
	}

	if len(points) > MaxEvolutionPoints {
		points = points[len(points)-MaxEvolutionPoints:]
	}
	return points
}

// snapshot sums balances into a point. Reconstructed days are rounded to
// cents; the today point must match Σ account.balance exactly.
func snapshot(day time.Time, balances []AccountBalance, round bool) EvolutionPoint {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Balance)
	}
	if round {
		total = total.Round(2)
	}
	return EvolutionPoint{
		Date:        day,
		Value:       total,
		TopAccounts: topAccounts(balances, TopAccountsPerPoint),
	}
}

// topAccounts returns copies of the n balances largest in absolute value.
// Ties are ordered by name, then id.
func topAccounts(balances []AccountBalance, n int) []AccountBalance {
	sorted := make([]AccountBalance, len(balances))
	copy(sorted, balances)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai, aj := sorted[i].Balance.Abs(), sorted[j].Balance.Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
