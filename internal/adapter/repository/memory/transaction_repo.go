package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/simaogato/fintrack-backend/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	s *Store
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	return r.s.run(ctx, "transactions.Create", func(d *data) error {
		if _, exists := d.transactions[tx.ID]; exists {
			return fmt.Errorf("transaction %s already exists: %w", tx.ID, domain.ErrConflict)
		}
		cp := *tx
		d.transactions[tx.ID] = txRow{tx: &cp, seq: d.next()}
		return nil
	})
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var out *domain.Transaction
	err := r.s.run(ctx, "transactions.GetByID", func(d *data) error {
		row, ok := d.transactions[id]
		if !ok {
			return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
		}
		cp := *row.tx
		out = &cp
		return nil
	})
	return out, err
}

func (r *transactionRepository) ListByItem(ctx context.Context, itemID string, order domain.SortOrder) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	err := r.s.run(ctx, "transactions.ListByItem", func(d *data) error {
		out = collect(d, map[string]bool{itemID: true}, order)
		return nil
	})
	return out, err
}

func (r *transactionRepository) ListByItems(ctx context.Context, itemIDs []string) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	err := r.s.run(ctx, "transactions.ListByItems", func(d *data) error {
		wanted := make(map[string]bool, len(itemIDs))
		for _, id := range itemIDs {
			wanted[id] = true
		}
		out = collect(d, wanted, domain.SortAscending)
		return nil
	})
	return out, err
}

func (r *transactionRepository) Delete(ctx context.Context, id string) error {
	return r.s.run(ctx, "transactions.Delete", func(d *data) error {
		if _, ok := d.transactions[id]; !ok {
			return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
		}
		delete(d.transactions, id)
		return nil
	})
}

func (r *transactionRepository) DeleteByItem(ctx context.Context, itemID string) (int64, error) {
	var removed int64
	err := r.s.run(ctx, "transactions.DeleteByItem", func(d *data) error {
		for id, row := range d.transactions {
			if row.tx.ItemID == itemID {
				delete(d.transactions, id)
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// collect returns copies of the rows of the wanted items ordered by date,
// insertion order breaking ties
func collect(d *data, wanted map[string]bool, order domain.SortOrder) []*domain.Transaction {
	rows := make([]txRow, 0)
	for _, row := range d.transactions {
		if wanted[row.tx.ItemID] {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if order == domain.SortDescending {
			a, b = b, a
		}
		if !a.tx.Date.Equal(b.tx.Date) {
			return a.tx.Date.Before(b.tx.Date)
		}
		return a.seq < b.seq
	})
	out := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		cp := *row.tx
		out = append(out, &cp)
	}
	return out
}
