package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/simaogato/fintrack-backend/internal/domain"
)

const transactionColumns = `id, item_id, user_id, kind, amount, note, date`

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	c *conn
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var kind string
	if err := row.Scan(&tx.ID, &tx.ItemID, &tx.UserID, &kind, &tx.Amount, &tx.Note, &tx.Date); err != nil {
		return nil, err
	}
	tx.Kind = domain.TransactionKind(kind)
	tx.Date = tx.Date.UTC()
	return &tx, nil
}

// Create appends a row to the transaction log
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.c.ExecContext(ctx, query,
		tx.ID,
		tx.ItemID,
		tx.UserID,
		string(tx.Kind),
		tx.Amount,
		tx.Note,
		tx.Date,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("transaction %s already exists: %w", tx.ID, domain.ErrConflict)
		}
		return storeErr("failed to insert transaction", err)
	}
	return nil
}

// GetByID retrieves a transaction by its ID
func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(r.c.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr("failed to get transaction", "transaction "+id, err)
	}
	return tx, nil
}

// ListByItem retrieves the log of one item
func (r *transactionRepository) ListByItem(ctx context.Context, itemID string, order domain.SortOrder) ([]*domain.Transaction, error) {
	direction := "ASC"
	if order == domain.SortDescending {
		direction = "DESC"
	}
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE item_id = $1
		ORDER BY date ` + direction + `, seq ` + direction

	return r.list(ctx, query, itemID)
}

// ListByItems retrieves the logs of several items, oldest first
func (r *transactionRepository) ListByItems(ctx context.Context, itemIDs []string) ([]*domain.Transaction, error) {
	if len(itemIDs) == 0 {
		return []*domain.Transaction{}, nil
	}
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE item_id = ANY($1)
		ORDER BY date ASC, seq ASC
	`
	return r.list(ctx, query, pq.Array(itemIDs))
}

func (r *transactionRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("failed to query transactions", err)
	}
	defer rows.Close()

	txs := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, storeErr("failed to scan transaction", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("error iterating transactions", err)
	}
	return txs, nil
}

// Delete removes one row
func (r *transactionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.c.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return storeErr("failed to delete transaction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("failed to delete transaction", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteByItem removes the whole log of an item
func (r *transactionRepository) DeleteByItem(ctx context.Context, itemID string) (int64, error) {
	res, err := r.c.ExecContext(ctx, `DELETE FROM transactions WHERE item_id = $1`, itemID)
	if err != nil {
		return 0, storeErr("failed to delete item transactions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("failed to delete item transactions", err)
	}
	return n, nil
}
