package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/fintrack-backend/internal/domain"
)

// itemRepository implements domain.ItemRepository
type itemRepository struct {
	s *Store
}

func (r *itemRepository) GetByID(ctx context.Context, id, userID string) (*domain.Item, error) {
	var out *domain.Item
	err := r.s.run(ctx, "items.GetByID", func(d *data) error {
		row, ok := d.items[id]
		if !ok || row.item.UserID != userID {
			return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
		}
		out = row.item.Clone()
		return nil
	})
	return out, err
}

func (r *itemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	var out *domain.Item
	err := r.s.run(ctx, "items.FindByID", func(d *data) error {
		row, ok := d.items[id]
		if !ok {
			return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
		}
		out = row.item.Clone()
		return nil
	})
	return out, err
}

func (r *itemRepository) List(ctx context.Context, userID string, filter domain.ItemFilter) ([]*domain.Item, error) {
	var out []*domain.Item
	err := r.s.run(ctx, "items.List", func(d *data) error {
		rows := make([]itemRow, 0)
		for _, row := range d.items {
			if row.item.UserID == userID && filter.Matches(row.item) {
				rows = append(rows, row)
			}
		}
		sort.Slice(rows, func(i, j int) bool {
			if !rows[i].item.CreateDate.Equal(rows[j].item.CreateDate) {
				return rows[i].item.CreateDate.Before(rows[j].item.CreateDate)
			}
			return rows[i].seq < rows[j].seq
		})
		out = make([]*domain.Item, 0, len(rows))
		for _, row := range rows {
			out = append(out, row.item.Clone())
		}
		return nil
	})
	return out, err
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	return r.s.run(ctx, "items.Create", func(d *data) error {
		if _, exists := d.items[item.ID]; exists {
			return fmt.Errorf("item %s already exists: %w", item.ID, domain.ErrConflict)
		}
		d.items[item.ID] = itemRow{item: item.Clone(), seq: d.next()}
		return nil
	})
}

func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	return r.s.run(ctx, "items.Update", func(d *data) error {
		row, ok := d.items[item.ID]
		if !ok || row.item.UserID != item.UserID {
			return fmt.Errorf("item %s: %w", item.ID, domain.ErrNotFound)
		}
		d.items[item.ID] = itemRow{item: item.Clone(), seq: row.seq}
		return nil
	})
}

func (r *itemRepository) Delete(ctx context.Context, id, userID string) error {
	return r.s.run(ctx, "items.Delete", func(d *data) error {
		if row, ok := d.items[id]; ok && row.item.UserID == userID {
			delete(d.items, id)
		}
		return nil
	})
}

// mutate replaces the stored item with a modified clone
func (r *itemRepository) mutate(ctx context.Context, op, id, userID string, fn func(it *domain.Item) error) (*domain.Item, error) {
	var out *domain.Item
	err := r.s.run(ctx, op, func(d *data) error {
		row, ok := d.items[id]
		if !ok || row.item.UserID != userID {
			return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
		}
		updated := row.item.Clone()
		if err := fn(updated); err != nil {
			return err
		}
		d.items[id] = itemRow{item: updated, seq: row.seq}
		out = updated.Clone()
		return nil
	})
	return out, err
}

func (r *itemRepository) AdjustBalance(ctx context.Context, id, userID string, delta decimal.Decimal, editDate time.Time) (*domain.Item, error) {
	return r.mutate(ctx, "items.AdjustBalance", id, userID, func(it *domain.Item) error {
		acc, ok := it.Account()
		if !ok {
			return fmt.Errorf("item %s is not an account: %w", id, domain.ErrInvalidArgument)
		}
		acc.Balance = acc.Balance.Add(delta)
		it.EditDate = editDate
		return nil
	})
}

func (r *itemRepository) SetCurrentValue(ctx context.Context, id, userID string, value decimal.Decimal, editDate time.Time) (*domain.Item, error) {
	return r.mutate(ctx, "items.SetCurrentValue", id, userID, func(it *domain.Item) error {
		inv, ok := it.Investment()
		if !ok {
			return fmt.Errorf("item %s is not an investment: %w", id, domain.ErrInvalidArgument)
		}
		inv.CurrentValue = value
		it.EditDate = editDate
		return nil
	})
}

func (r *itemRepository) SetArchived(ctx context.Context, id, userID string, archived bool, editDate time.Time) (*domain.Item, error) {
	return r.mutate(ctx, "items.SetArchived", id, userID, func(it *domain.Item) error {
		it.Archived = archived
		it.EditDate = editDate
		return nil
	})
}
