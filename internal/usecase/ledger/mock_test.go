package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/fintrack-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockItemRepository is a mock implementation of ItemRepository for testing
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) item(args mock.Arguments) (*domain.Item, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockItemRepository) GetByID(ctx context.Context, id, userID string) (*domain.Item, error) {
	return m.item(m.Called(ctx, id, userID))
}

func (m *MockItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	return m.item(m.Called(ctx, id))
}

func (m *MockItemRepository) List(ctx context.Context, userID string, filter domain.ItemFilter) ([]*domain.Item, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Item), args.Error(1)
}

func (m *MockItemRepository) Create(ctx context.Context, item *domain.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockItemRepository) Update(ctx context.Context, item *domain.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockItemRepository) AdjustBalance(ctx context.Context, id, userID string, delta decimal.Decimal, editDate time.Time) (*domain.Item, error) {
	return m.item(m.Called(ctx, id, userID, delta, editDate))
}

func (m *MockItemRepository) SetCurrentValue(ctx context.Context, id, userID string, value decimal.Decimal, editDate time.Time) (*domain.Item, error) {
	return m.item(m.Called(ctx, id, userID, value, editDate))
}

func (m *MockItemRepository) SetArchived(ctx context.Context, id, userID string, archived bool, editDate time.Time) (*domain.Item, error) {
	return m.item(m.Called(ctx, id, userID, archived, editDate))
}

// MockTransactionRepository is a mock implementation of TransactionRepository for testing
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByItem(ctx context.Context, itemID string, order domain.SortOrder) ([]*domain.Transaction, error) {
	args := m.Called(ctx, itemID, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByItems(ctx context.Context, itemIDs []string) ([]*domain.Transaction, error) {
	args := m.Called(ctx, itemIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTransactionRepository) DeleteByItem(ctx context.Context, itemID string) (int64, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(int64), args.Error(1)
}

// MockStore hands out the mock repositories and runs Atomic blocks inline
type MockStore struct {
	items        *MockItemRepository
	transactions *MockTransactionRepository
}

func newMockStore() *MockStore {
	return &MockStore{items: new(MockItemRepository), transactions: new(MockTransactionRepository)}
}

func (m *MockStore) Items() domain.ItemRepository               { return m.items }
func (m *MockStore) Transactions() domain.TransactionRepository { return m.transactions }
func (m *MockStore) Entities() domain.EntityRepository          { panic("entities are not mocked") }

func (m *MockStore) Atomic(ctx context.Context, fn func(tx domain.Store) error) error {
	return fn(m)
}

func TestCreateTransaction_InsertsThenAdjusts(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	service := NewLedgerService(store, DefaultOptions())
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	service.Now = func() time.Time { return now }
	service.NewID = func() string { return "tx-1" }

	account := &domain.Item{ID: "acc-1", UserID: user, Details: &domain.Account{Name: "A", Balance: decimal.NewFromInt(10)}}
	amount := decimal.NewFromInt(-4)

	store.items.On("GetByID", ctx, "acc-1", user).Return(account, nil)
	store.transactions.On("Create", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.ID == "tx-1" && tx.ItemID == "acc-1" && tx.Amount.Equal(amount) && tx.Date.Equal(now)
	})).Return(nil)
	store.items.On("AdjustBalance", ctx, "acc-1", user, amount, now).Return(account, nil)

	tx, err := service.CreateTransaction(ctx, CreateTransactionInput{ItemID: "acc-1", Amount: amount}, user)

	assert.NoError(t, err)
	assert.Equal(t, "tx-1", tx.ID)
	store.items.AssertExpectations(t)
	store.transactions.AssertExpectations(t)
}

func TestCreateTransaction_InsertFailureSkipsBalance(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	service := NewLedgerService(store, DefaultOptions())

	account := &domain.Item{ID: "acc-1", UserID: user, Details: &domain.Account{Name: "A"}}
	failure := errors.Join(domain.ErrStoreFailure, errors.New("constraint"))

	store.items.On("GetByID", ctx, "acc-1", user).Return(account, nil)
	store.transactions.On("Create", ctx, mock.Anything).Return(failure)

	_, err := service.CreateTransaction(ctx, CreateTransactionInput{ItemID: "acc-1", Amount: decimal.NewFromInt(1)}, user)

	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	store.items.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteTransaction_ReversesSignedAmount(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	service := NewLedgerService(store, DefaultOptions())
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	service.Now = func() time.Time { return now }

	record := &domain.Transaction{ID: "tx-1", ItemID: "acc-1", UserID: user, Kind: domain.TransactionKindRegular, Amount: decimal.NewFromInt(-50)}
	account := &domain.Item{ID: "acc-1", UserID: user, Details: &domain.Account{Name: "A"}}

	store.transactions.On("GetByID", ctx, "tx-1").Return(record, nil)
	store.items.On("FindByID", ctx, "acc-1").Return(account, nil)
	store.transactions.On("Delete", ctx, "tx-1").Return(nil)
	store.items.On("AdjustBalance", ctx, "acc-1", user, decimal.NewFromInt(50), now).Return(account, nil)

	err := service.DeleteTransaction(ctx, "tx-1", user)

	assert.NoError(t, err)
	store.items.AssertExpectations(t)
	store.transactions.AssertExpectations(t)
}

func TestDeleteTransaction_OrphanOfOtherUserIsDenied(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	service := NewLedgerService(store, DefaultOptions())

	record := &domain.Transaction{ID: "tx-1", ItemID: "gone", UserID: "owner", Kind: domain.TransactionKindRegular, Amount: decimal.NewFromInt(1)}

	store.transactions.On("GetByID", ctx, "tx-1").Return(record, nil)
	store.items.On("FindByID", ctx, "gone").Return(nil, domain.ErrNotFound)

	err := service.DeleteTransaction(ctx, "tx-1", user)

	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	store.transactions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteTransaction_RejectsValueUpdates(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	service := NewLedgerService(store, DefaultOptions())

	record := &domain.Transaction{ID: "vu-1", ItemID: "inv-1", UserID: user, Kind: domain.TransactionKindValueUpdate, Amount: decimal.NewFromInt(100)}
	store.transactions.On("GetByID", ctx, "vu-1").Return(record, nil)

	err := service.DeleteTransaction(ctx, "vu-1", user)

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUpdateAccountBalance_StaleReadsKeepLogAndBalanceInStep(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	service := NewLedgerService(store, DefaultOptions())
	now := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	service.Now = func() time.Time { return now }

	// Both calls observe balance 100, as two overlapping requests would
	stale := &domain.Item{ID: "acc-1", UserID: user, Details: &domain.Account{Name: "A", Balance: decimal.NewFromInt(100)}}
	store.items.On("GetByID", ctx, "acc-1", user).Return(stale, nil)

	var logged []decimal.Decimal
	store.transactions.On("Create", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.Kind == domain.TransactionKindBalanceAdjustment
	})).Run(func(args mock.Arguments) {
		logged = append(logged, args.Get(1).(*domain.Transaction).Amount)
	}).Return(nil)

	var applied []decimal.Decimal
	store.items.On("AdjustBalance", ctx, "acc-1", user, mock.Anything, now).Run(func(args mock.Arguments) {
		applied = append(applied, args.Get(3).(decimal.Decimal))
	}).Return(stale, nil)

	_, err := service.UpdateAccountBalance(ctx, UpdateAccountBalanceInput{ItemID: "acc-1", NewBalance: decimal.NewFromInt(130)}, user)
	require.NoError(t, err)
	_, err = service.UpdateAccountBalance(ctx, UpdateAccountBalanceInput{ItemID: "acc-1", NewBalance: decimal.RequireFromString("72.50")}, user)
	require.NoError(t, err)

	require.Len(t, logged, 2)
	require.Len(t, applied, 2)
	for i := range logged {
		assert.True(t, logged[i].Equal(applied[i]), "balance must move by the logged difference")
	}
	assert.True(t, applied[0].Equal(decimal.NewFromInt(30)))
	assert.True(t, applied[1].Equal(decimal.RequireFromString("-27.50")))
}
