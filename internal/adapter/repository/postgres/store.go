package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simaogato/fintrack-backend/internal/domain"
)

// Store implements domain.Store on PostgreSQL
type Store struct {
	db   *DB
	conn *conn
	tx   *sql.Tx // non-nil inside Atomic
}

// NewStore creates a store whose repositories run outside any transaction
func NewStore(db *DB) *Store {
	return &Store{db: db, conn: &conn{q: db.DB}}
}

func (s *Store) Items() domain.ItemRepository               { return &itemRepository{c: s.conn} }
func (s *Store) Transactions() domain.TransactionRepository { return &transactionRepository{c: s.conn} }
func (s *Store) Entities() domain.EntityRepository          { return &entityRepository{c: s.conn} }

// Atomic runs fn inside a database transaction. Nested calls join the
// enclosing transaction.
func (s *Store) Atomic(ctx context.Context, fn func(tx domain.Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer dbTx.Rollback()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("atomic block panicked: %v: %w", r, domain.ErrStoreFailure)
		}
	}()

	if err := fn(&Store{db: s.db, conn: &conn{q: dbTx}, tx: dbTx}); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}

// storeErr tags a driver error as a store failure
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreFailure, err)
}

// notFoundOr maps sql.ErrNoRows to domain.ErrNotFound
func notFoundOr(op, what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return storeErr(op, err)
}
