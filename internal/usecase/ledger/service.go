package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/fintrack-backend/internal/domain"
	"github.com/simaogato/fintrack-backend/internal/logger"
	"github.com/simaogato/fintrack-backend/internal/usecase/resolver"
)

// OpeningBalanceNote is the note of the transaction that records the
// opening balance of a new account
const OpeningBalanceNote = "Opening balance"

// Options tunes behaviors that callers have disagreed on
type Options struct {
	// TouchOnNoopAdjustment makes UpdateAccountBalance rewrite EditDate even
	// when the requested balance equals the current one.
	TouchOnNoopAdjustment bool
}

// DefaultOptions returns the options matching the historical behavior
func DefaultOptions() Options {
	return Options{TouchOnNoopAdjustment: true}
}

// LedgerService keeps cached balances consistent with the transaction log
type LedgerService struct {
	Store   domain.Store
	Options Options
	Now     func() time.Time
	NewID   func() string
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(store domain.Store, opts Options) *LedgerService {
	return &LedgerService{
		Store:   store,
		Options: opts,
		Now:     time.Now,
		NewID:   uuid.NewString,
	}
}

func (s *LedgerService) now() time.Time {
	return s.Now().UTC()
}

func requireID(what, id string) error {
	if id == "" {
		return fmt.Errorf("%s is required: %w", what, domain.ErrMissingArgument)
	}
	return nil
}

// CreateItem persists a new item for userID
// Logic:
//  1. Validate the draft
//  2. In one atomic unit: resolve the currency and person entities, insert the item
//  3. An account with a non-zero opening balance also gets a balance_adjustment
//     transaction for that amount, so balance == Σ transactions from the start
//  4. An investment starts with CurrentValue = InitialValue
func (s *LedgerService) CreateItem(ctx context.Context, draft *domain.Item, userID string) (*domain.Item, error) {
	if draft == nil {
		return nil, fmt.Errorf("item is required: %w", domain.ErrMissingArgument)
	}
	if err := requireID("user id", userID); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	item := draft.Clone()
	item.ID = s.NewID()
	item.UserID = userID
	item.CreateDate = now
	item.EditDate = now

	var opening *domain.Transaction
	switch d := item.Details.(type) {
	case *domain.Account:
		if !d.Balance.IsZero() {
			opening = &domain.Transaction{
				ID:     s.NewID(),
				ItemID: item.ID,
				UserID: userID,
				Kind:   domain.TransactionKindBalanceAdjustment,
				Amount: d.Balance,
				Note:   OpeningBalanceNote,
				Date:   now,
			}
		}
	case *domain.Investment:
		d.CurrentValue = d.InitialValue
	}

	err := s.Store.Atomic(ctx, func(tx domain.Store) error {
		if err := resolver.AttachEntities(ctx, tx.Entities(), item, nil, now, s.NewID); err != nil {
			return err
		}
		if err := tx.Items().Create(ctx, item); err != nil {
			return err
		}
		if opening != nil {
			return tx.Transactions().Create(ctx, opening)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	logger.FromContext(ctx).Debug("item created", "item_id", item.ID, "type", item.Type())
	return item, nil
}

// UpdateItem overwrites the editable fields of an existing item.
// ID, UserID, CreateDate and the cached Balance/CurrentValue are kept from
// the stored item; the variant type cannot change.
func (s *LedgerService) UpdateItem(ctx context.Context, item *domain.Item, userID string) (*domain.Item, error) {
	if item == nil {
		return nil, fmt.Errorf("item is required: %w", domain.ErrMissingArgument)
	}
	if err := requireID("item id", item.ID); err != nil {
		return nil, err
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	var updated *domain.Item

	err := s.Store.Atomic(ctx, func(tx domain.Store) error {
		existing, err := tx.Items().GetByID(ctx, item.ID, userID)
		if err != nil {
			return err
		}
		if existing.Type() != item.Type() {
			return fmt.Errorf("cannot change item type from %s to %s: %w", existing.Type(), item.Type(), domain.ErrInvalidArgument)
		}

		updated = item.Clone()
		updated.UserID = existing.UserID
		updated.CreateDate = existing.CreateDate
		updated.EditDate = now

		switch d := updated.Details.(type) {
		case *domain.Account:
			prev, _ := existing.Account()
			d.Balance = prev.Balance
		case *domain.Investment:
			prev, _ := existing.Investment()
			d.CurrentValue = prev.CurrentValue
		}

		if err := resolver.AttachEntities(ctx, tx.Entities(), updated, existing, now, s.NewID); err != nil {
			return err
		}
		return tx.Items().Update(ctx, updated)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update item %s: %w", item.ID, err)
	}
	return updated, nil
}

// DeleteItem removes an item. Items that own transactions lose them in the
// same atomic unit. Deleting an item that does not exist succeeds.
func (s *LedgerService) DeleteItem(ctx context.Context, id, userID string) error {
	if err := requireID("item id", id); err != nil {
		return err
	}

	err := s.Store.Atomic(ctx, func(tx domain.Store) error {
		item, err := tx.Items().GetByID(ctx, id, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if item.Type().HasTransactions() {
			removed, err := tx.Transactions().DeleteByItem(ctx, id)
			if err != nil {
				return err
			}
			logger.FromContext(ctx).Debug("item transactions removed", "item_id", id, "count", removed)
		}
		return tx.Items().Delete(ctx, id, userID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	return nil
}

// GetItem retrieves one item of userID
func (s *LedgerService) GetItem(ctx context.Context, id, userID string) (*domain.Item, error) {
	if err := requireID("item id", id); err != nil {
		return nil, err
	}
	return s.Store.Items().GetByID(ctx, id, userID)
}

// ListItems retrieves the items of userID in creation order
func (s *LedgerService) ListItems(ctx context.Context, userID string, filter domain.ItemFilter) ([]*domain.Item, error) {
	if err := requireID("user id", userID); err != nil {
		return nil, err
	}
	return s.Store.Items().List(ctx, userID, filter)
}

// ArchiveItem hides an item without touching balances or transactions
func (s *LedgerService) ArchiveItem(ctx context.Context, id, userID string) (*domain.Item, error) {
	return s.setArchived(ctx, id, userID, true)
}

// UnarchiveItem reverses ArchiveItem
func (s *LedgerService) UnarchiveItem(ctx context.Context, id, userID string) (*domain.Item, error) {
	return s.setArchived(ctx, id, userID, false)
}

func (s *LedgerService) setArchived(ctx context.Context, id, userID string, archived bool) (*domain.Item, error) {
	if err := requireID("item id", id); err != nil {
		return nil, err
	}
	return s.Store.Items().SetArchived(ctx, id, userID, archived, s.now())
}

// UpdateAccountBalanceInput represents the input for a manual balance correction
type UpdateAccountBalanceInput struct {
	ItemID     string
	NewBalance decimal.Decimal
	Note       string
}

// UpdateAccountBalance sets an account balance to an absolute value
// Logic:
//   - difference = NewBalance - current balance
//   - a non-zero difference is recorded as a balance_adjustment transaction
//   - the balance moves by the recorded difference, not to NewBalance, so
//     a concurrent writer cannot leave the cached balance off the log sum
//   - a zero difference only rewrites EditDate, and only when
//     Options.TouchOnNoopAdjustment is set
func (s *LedgerService) UpdateAccountBalance(ctx context.Context, input UpdateAccountBalanceInput, userID string) (*domain.Item, error) {
	if err := requireID("item id", input.ItemID); err != nil {
		return nil, err
	}

	now := s.now()
	var result *domain.Item

	err := s.Store.Atomic(ctx, func(tx domain.Store) error {
		item, err := tx.Items().GetByID(ctx, input.ItemID, userID)
		if err != nil {
			return err
		}
		account, ok := item.Account()
		if !ok {
			return fmt.Errorf("item %s is a %s, not an account: %w", item.ID, item.Type(), domain.ErrInvalidArgument)
		}

		difference := input.NewBalance.Sub(account.Balance)
		if difference.IsZero() {
			if !s.Options.TouchOnNoopAdjustment {
				result = item
				return nil
			}
		} else {
			adjustment := &domain.Transaction{
				ID:     s.NewID(),
				ItemID: item.ID,
				UserID: userID,
				Kind:   domain.TransactionKindBalanceAdjustment,
				Amount: difference,
				Note:   input.Note,
				Date:   now,
			}
			if err := tx.Transactions().Create(ctx, adjustment); err != nil {
				return err
			}
		}

		result, err = tx.Items().AdjustBalance(ctx, item.ID, userID, difference, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update balance of %s: %w", input.ItemID, err)
	}
	return result, nil
}

// CreateTransactionInput represents the input for recording an account movement
type CreateTransactionInput struct {
	ItemID string
	Amount decimal.Decimal // signed: deposits positive, withdrawals negative
	Note   string
}

// CreateTransaction appends a transaction to an account and moves its
// balance by the same amount in one atomic unit
func (s *LedgerService) CreateTransaction(ctx context.Context, input CreateTransactionInput, userID string) (*domain.Transaction, error) {
	if err := requireID("item id", input.ItemID); err != nil {
		return nil, err
	}

	now := s.now()
	record := &domain.Transaction{
		ID:     s.NewID(),
		ItemID: input.ItemID,
		UserID: userID,
		Kind:   domain.TransactionKindRegular,
		Amount: input.Amount,
		Note:   input.Note,
		Date:   now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	err := s.Store.Atomic(ctx, func(tx domain.Store) error {
		item, err := tx.Items().GetByID(ctx, input.ItemID, userID)
		if err != nil {
			return err
		}
		if _, ok := item.Account(); !ok {
			return fmt.Errorf("item %s is a %s, not an account: %w", item.ID, item.Type(), domain.ErrInvalidArgument)
		}

		if err := tx.Transactions().Create(ctx, record); err != nil {
			return err
		}
		_, err = tx.Items().AdjustBalance(ctx, item.ID, userID, record.Amount, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return record, nil
}

// GetTransactions returns the balance-affecting transactions of an item, newest first
func (s *LedgerService) GetTransactions(ctx context.Context, itemID, userID string) ([]*domain.Transaction, error) {
	if err := requireID("item id", itemID); err != nil {
		return nil, err
	}

	if _, err := s.Store.Items().GetByID(ctx, itemID, userID); err != nil {
		return nil, err
	}

	all, err := s.Store.Transactions().ListByItem(ctx, itemID, domain.SortDescending)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions of %s: %w", itemID, err)
	}

	txs := make([]*domain.Transaction, 0, len(all))
	for _, tx := range all {
		if tx.Kind.AffectsBalance() {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

// DeleteTransaction removes a transaction and reverses its effect on the
// parent account balance.
// Ownership is checked through the parent item: a transaction whose item
// belongs to another user yields domain.ErrAccessDenied.
func (s *LedgerService) DeleteTransaction(ctx context.Context, transactionID, userID string) error {
	if err := requireID("transaction id", transactionID); err != nil {
		return err
	}

	now := s.now()
	err := s.Store.Atomic(ctx, func(tx domain.Store) error {
		record, err := tx.Transactions().GetByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if record.Kind == domain.TransactionKindValueUpdate {
			return fmt.Errorf("transaction %s is an investment value update: %w", record.ID, domain.ErrInvalidArgument)
		}

		parent, err := OwnedParent(ctx, tx, record, userID)
		if err != nil {
			return err
		}

		if err := tx.Transactions().Delete(ctx, record.ID); err != nil {
			return err
		}
		if parent == nil || parent.Type() != domain.ItemTypeAccount {
			return nil
		}
		_, err = tx.Items().AdjustBalance(ctx, parent.ID, userID, record.Amount.Neg(), now)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", transactionID, err)
	}
	return nil
}

// OwnedParent loads the item a log row belongs to and checks that userID
// owns it. A row whose item no longer exists is checked against its own
// UserID and yields a nil parent.
func OwnedParent(ctx context.Context, tx domain.Store, record *domain.Transaction, userID string) (*domain.Item, error) {
	parent, err := tx.Items().FindByID(ctx, record.ItemID)
	if errors.Is(err, domain.ErrNotFound) {
		if record.UserID != userID {
			return nil, fmt.Errorf("transaction %s: %w", record.ID, domain.ErrAccessDenied)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if parent.UserID != userID {
		return nil, fmt.Errorf("transaction %s: %w", record.ID, domain.ErrAccessDenied)
	}
	return parent, nil
}

// CreateDebtPaymentInput represents the input for recording a debt payment
type CreateDebtPaymentInput struct {
	DebtID string
	Amount decimal.Decimal
	Note   string
}

// CreateDebtPayment records a payment against a debt.
// The debt has no cached field: its status is always derived from the log.
func (s *LedgerService) CreateDebtPayment(ctx context.Context, input CreateDebtPaymentInput, userID string) (*domain.Transaction, error) {
	if err := requireID("debt id", input.DebtID); err != nil {
		return nil, err
	}
	if input.Amount.IsZero() {
		return nil, fmt.Errorf("payment amount is required: %w", domain.ErrMissingArgument)
	}

	record := &domain.Transaction{
		ID:     s.NewID(),
		ItemID: input.DebtID,
		UserID: userID,
		Kind:   domain.TransactionKindDebtPayment,
		Amount: input.Amount,
		Note:   input.Note,
		Date:   s.now(),
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	err := s.Store.Atomic(ctx, func(tx domain.Store) error {
		item, err := tx.Items().GetByID(ctx, input.DebtID, userID)
		if err != nil {
			return err
		}
		if _, ok := item.Debt(); !ok {
			return fmt.Errorf("item %s is a %s, not a debt: %w", item.ID, item.Type(), domain.ErrInvalidArgument)
		}
		return tx.Transactions().Create(ctx, record)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record debt payment: %w", err)
	}
	return record, nil
}
