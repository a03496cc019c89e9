// Package memory is an in-process implementation of domain.Store.
// It keeps the same atomic-unit semantics as the Postgres store: an Atomic
// block works on a private copy of the data which replaces the committed
// data only when the block returns nil.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/simaogato/fintrack-backend/internal/domain"
)

type itemRow struct {
	item *domain.Item
	seq  int64
}

type txRow struct {
	tx  *domain.Transaction
	seq int64
}

type data struct {
	seq          int64
	items        map[string]itemRow
	transactions map[string]txRow
	entities     map[domain.EntityKind]map[string]*domain.Entity
}

func newData() *data {
	return &data{
		items:        make(map[string]itemRow),
		transactions: make(map[string]txRow),
		entities: map[domain.EntityKind]map[string]*domain.Entity{
			domain.EntityKindCurrency: {},
			domain.EntityKindPerson:   {},
		},
	}
}

func (d *data) next() int64 {
	d.seq++
	return d.seq
}

// clone copies the maps. Rows are immutable once stored (writers replace
// them), so sharing the row pointers between copies is safe.
func (d *data) clone() *data {
	cp := &data{
		seq:          d.seq,
		items:        make(map[string]itemRow, len(d.items)),
		transactions: make(map[string]txRow, len(d.transactions)),
		entities:     make(map[domain.EntityKind]map[string]*domain.Entity, len(d.entities)),
	}
	for k, v := range d.items {
		cp.items[k] = v
	}
	for k, v := range d.transactions {
		cp.transactions[k] = v
	}
	for kind, byID := range d.entities {
		m := make(map[string]*domain.Entity, len(byID))
		for k, v := range byID {
			m[k] = v
		}
		cp.entities[kind] = m
	}
	return cp
}

type database struct {
	mu       sync.Mutex
	data     *data
	failures map[string]error
}

// Store implements domain.Store in memory
type Store struct {
	db *database
	tx *data // non-nil inside Atomic
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{db: &database{data: newData(), failures: make(map[string]error)}}
}

// FailOn makes the next call of op return err. Ops are named
// "<repository>.<method>", for example "transactions.DeleteByItem".
// It lets callers exercise rollback paths of compound operations.
func (s *Store) FailOn(op string, err error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.failures[op] = err
}

func (s *Store) Items() domain.ItemRepository               { return &itemRepository{s: s} }
func (s *Store) Transactions() domain.TransactionRepository { return &transactionRepository{s: s} }
func (s *Store) Entities() domain.EntityRepository          { return &entityRepository{s: s} }

// Atomic runs fn on a private copy of the data and publishes the copy when
// fn returns nil. Atomic blocks are serialized.
func (s *Store) Atomic(ctx context.Context, fn func(tx domain.Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	work := s.db.data.clone()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("atomic block panicked: %v: %w", r, domain.ErrStoreFailure)
		}
	}()

	if err := fn(&Store{db: s.db, tx: work}); err != nil {
		return err
	}
	s.db.data = work
	return nil
}

// run executes fn against the data visible to this handle. Outside Atomic
// every call takes the lock for its own duration.
func (s *Store) run(ctx context.Context, op string, fn func(d *data) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		if err := s.db.takeFailure(op); err != nil {
			return err
		}
		return fn(s.tx)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailure(op); err != nil {
		return err
	}
	return fn(s.db.data)
}

// takeFailure consumes an injected failure. Inside Atomic the lock is
// already held by the enclosing block.
func (db *database) takeFailure(op string) error {
	err, ok := db.failures[op]
	if !ok {
		return nil
	}
	delete(db.failures, op)
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreFailure, err)
}
