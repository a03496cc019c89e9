package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ItemRepository defines the interface for item persistence operations.
// Every method except FindByID is scoped to a user.
type ItemRepository interface {
	// GetByID retrieves an item owned by userID. Returns ErrNotFound otherwise.
	GetByID(ctx context.Context, id, userID string) (*Item, error)

	// FindByID retrieves an item regardless of its owner.
	// Only used for ownership checks on cross-entity lookups.
	FindByID(ctx context.Context, id string) (*Item, error)

	// List retrieves the user's items matching the filter
	List(ctx context.Context, userID string, filter ItemFilter) ([]*Item, error)

	// Create inserts a new item
	Create(ctx context.Context, item *Item) error

	// Update overwrites every column of the item matched by (ID, UserID).
	// Returns ErrNotFound when no row matches.
	Update(ctx context.Context, item *Item) error

	// Delete removes the item. Deleting a missing item is not an error.
	Delete(ctx context.Context, id, userID string) error

	// AdjustBalance adds delta to an account balance in place and returns the updated item
	AdjustBalance(ctx context.Context, id, userID string, delta decimal.Decimal, editDate time.Time) (*Item, error)

	// SetCurrentValue overwrites an investment's cached current value
	SetCurrentValue(ctx context.Context, id, userID string, value decimal.Decimal, editDate time.Time) (*Item, error)

	// SetArchived flips the archived flag
	SetArchived(ctx context.Context, id, userID string, archived bool, editDate time.Time) (*Item, error)
}

// TransactionRepository defines the interface for transaction log persistence operations
type TransactionRepository interface {
	// Create appends a row to the log
	Create(ctx context.Context, tx *Transaction) error

	// GetByID retrieves a row by its ID. Ownership is checked by the caller
	// through the parent item.
	GetByID(ctx context.Context, id string) (*Transaction, error)

	// ListByItem retrieves every row of an item ordered by date
	ListByItem(ctx context.Context, itemID string, order SortOrder) ([]*Transaction, error)

	// ListByItems retrieves every row of the given items ordered by date ascending
	ListByItems(ctx context.Context, itemIDs []string) ([]*Transaction, error)

	// Delete removes a row. Returns ErrNotFound when it does not exist.
	Delete(ctx context.Context, id string) error

	// DeleteByItem removes every row of an item and returns how many were removed
	DeleteByItem(ctx context.Context, itemID string) (int64, error)
}

// EntityRepository defines the interface for currency and person entities
type EntityRepository interface {
	// FindByName retrieves the entity of the given kind named name for userID.
	// Returns ErrNotFound when absent.
	FindByName(ctx context.Context, kind EntityKind, userID, name string) (*Entity, error)

	// Create inserts an entity. Returns ErrConflict when (UserID, Name)
	// already exists for the kind.
	Create(ctx context.Context, entity *Entity) error
}

// Store groups the repositories that share one database session
type Store interface {
	Items() ItemRepository
	Transactions() TransactionRepository
	Entities() EntityRepository

	// Atomic runs fn against a store bound to a single database transaction.
	// The transaction commits when fn returns nil and rolls back otherwise,
	// including when fn panics. Calling Atomic on a store that is already
	// bound to a transaction runs fn in that same transaction.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}
