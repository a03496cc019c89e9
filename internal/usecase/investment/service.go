package investment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/fintrack-backend/internal/domain"
	"github.com/simaogato/fintrack-backend/internal/usecase/ledger"
)

// InvestmentService handles investment valuation operations
type InvestmentService struct {
	Store domain.Store
	Now   func() time.Time
	NewID func() string
}

// NewInvestmentService creates a new InvestmentService instance
func NewInvestmentService(store domain.Store) *InvestmentService {
	return &InvestmentService{
		Store: store,
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// AddValueUpdateInput represents the input for recording a valuation
type AddValueUpdateInput struct {
	InvestmentID string
	Value        decimal.Decimal
	Note         string
	Date         time.Time // zero means now
}

func getInvestment(ctx context.Context, repo domain.ItemRepository, id, userID string) (*domain.Item, *domain.Investment, error) {
	item, err := repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}
	inv, ok := item.Investment()
	if !ok {
		return nil, nil, fmt.Errorf("item %s is a %s, not an investment: %w", id, item.Type(), domain.ErrInvalidArgument)
	}
	return item, inv, nil
}

// refreshCurrentValue sets CurrentValue to the latest remaining value
// update by date, or to InitialValue when none remain
func refreshCurrentValue(ctx context.Context, tx domain.Store, item *domain.Item, inv *domain.Investment, now time.Time) error {
	rows, err := tx.Transactions().ListByItem(ctx, item.ID, domain.SortAscending)
	if err != nil {
		return err
	}

	updates := make([]*domain.InvestmentValueUpdate, 0, len(rows))
	for _, row := range rows {
		if u, ok := domain.ValueUpdateFromTransaction(row); ok {
			updates = append(updates, u)
		}
	}

	value := inv.InitialValue
	if latest := domain.LatestValueUpdate(updates); latest != nil {
		value = latest.Value
	}

	_, err = tx.Items().SetCurrentValue(ctx, item.ID, item.UserID, value, now)
	return err
}

// AddInvestmentValueUpdate records a new valuation of an investment
// Logic: Insert a value update into the transaction log, then set the
// cached CurrentValue to the latest update by date. A backdated update
// does not override a more recent one.
func (s *InvestmentService) AddInvestmentValueUpdate(ctx context.Context, input AddValueUpdateInput, userID string) (*domain.InvestmentValueUpdate, error) {
	if input.InvestmentID == "" {
		return nil, fmt.Errorf("investment id is required: %w", domain.ErrMissingArgument)
	}
	if input.Value.IsNegative() {
		return nil, fmt.Errorf("investment value cannot be negative: %w", domain.ErrInvalidArgument)
	}

	now := s.Now().UTC()
	date := input.Date.UTC()
	if input.Date.IsZero() {
		date = now
	}

	update := &domain.InvestmentValueUpdate{
		ID:           s.NewID(),
		InvestmentID: input.InvestmentID,
		UserID:       userID,
		Value:        input.Value,
		Note:         input.Note,
		Date:         date,
	}

	err := s.Store.Atomic(ctx, func(tx domain.Store) error {
		item, inv, err := getInvestment(ctx, tx.Items(), input.InvestmentID, userID)
		if err != nil {
			return err
		}
		if err := tx.Transactions().Create(ctx, update.AsTransaction()); err != nil {
			return err
		}
		return refreshCurrentValue(ctx, tx, item, inv, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add value update: %w", err)
	}
	return update, nil
}

// GetInvestmentValueHistory returns the value updates of an investment, oldest first
func (s *InvestmentService) GetInvestmentValueHistory(ctx context.Context, investmentID, userID string) ([]*domain.InvestmentValueUpdate, error) {
	if investmentID == "" {
		return nil, fmt.Errorf("investment id is required: %w", domain.ErrMissingArgument)
	}
	if _, _, err := getInvestment(ctx, s.Store.Items(), investmentID, userID); err != nil {
		return nil, err
	}

	rows, err := s.Store.Transactions().ListByItem(ctx, investmentID, domain.SortAscending)
	if err != nil {
		return nil, fmt.Errorf("failed to list value updates: %w", err)
	}

	history := make([]*domain.InvestmentValueUpdate, 0, len(rows))
	for _, row := range rows {
		if u, ok := domain.ValueUpdateFromTransaction(row); ok {
			history = append(history, u)
		}
	}
	return history, nil
}

// DeleteInvestmentValueUpdate removes a valuation and recomputes the cached
// CurrentValue from what remains, falling back to InitialValue
func (s *InvestmentService) DeleteInvestmentValueUpdate(ctx context.Context, updateID, userID string) error {
	if updateID == "" {
		return fmt.Errorf("value update id is required: %w", domain.ErrMissingArgument)
	}

	now := s.Now().UTC()
	err := s.Store.Atomic(ctx, func(tx domain.Store) error {
		record, err := tx.Transactions().GetByID(ctx, updateID)
		if err != nil {
			return err
		}
		if record.Kind != domain.TransactionKindValueUpdate {
			return fmt.Errorf("transaction %s is not a value update: %w", updateID, domain.ErrInvalidArgument)
		}

		parent, err := ledger.OwnedParent(ctx, tx, record, userID)
		if err != nil {
			return err
		}
		if err := tx.Transactions().Delete(ctx, record.ID); err != nil {
			return err
		}
		if parent == nil {
			return nil
		}

		inv, ok := parent.Investment()
		if !ok {
			return fmt.Errorf("item %s is not an investment: %w", parent.ID, domain.ErrInvalidArgument)
		}
		return refreshCurrentValue(ctx, tx, parent, inv, now)
	})
	if err != nil {
		return fmt.Errorf("failed to delete value update %s: %w", updateID, err)
	}
	return nil
}

// GetInvestmentPerformance calculates the gain or loss of an investment
// Logic: TotalGainLoss = CurrentValue - InitialValue
// GainLossPercent = TotalGainLoss / InitialValue * 100, or 0 when InitialValue is 0
func (s *InvestmentService) GetInvestmentPerformance(ctx context.Context, investmentID, userID string) (domain.InvestmentPerformance, error) {
	if investmentID == "" {
		return domain.InvestmentPerformance{}, fmt.Errorf("investment id is required: %w", domain.ErrMissingArgument)
	}
	_, inv, err := getInvestment(ctx, s.Store.Items(), investmentID, userID)
	if err != nil {
		return domain.InvestmentPerformance{}, err
	}
	return domain.ComputePerformance(inv), nil
}
