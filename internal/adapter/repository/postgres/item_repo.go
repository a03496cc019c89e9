package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/simaogato/fintrack-backend/internal/domain"
)

const itemColumns = `id, user_id, item_type, currency, currency_entity_id, person_entity_id,
	balance, current_value, attributes, archived, create_date, edit_date`

// itemRepository implements domain.ItemRepository
type itemRepository struct {
	c *conn
}

// itemAttributes holds the variant fields that have no column of their own
type itemAttributes struct {
	Name         string           `json:"name,omitempty"`
	Description  string           `json:"description,omitempty"`
	WithWho      string           `json:"with_who,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	TheyPayMe    bool             `json:"they_pay_me,omitempty"`
	Details      string           `json:"details,omitempty"`
	Cost         *decimal.Decimal `json:"cost,omitempty"`
	IsManual     bool             `json:"is_manual,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	Tag          string           `json:"tag,omitempty"`
	InitialValue *decimal.Decimal `json:"initial_value,omitempty"`
	IsFinished   bool             `json:"is_finished,omitempty"`
}

// itemRecord is the row shape of the items table
type itemRecord struct {
	Balance      decimal.Decimal
	CurrentValue decimal.Decimal
	Attributes   []byte
}

// encodeItem splits the item variant into its columns
func encodeItem(it *domain.Item) (itemRecord, error) {
	rec := itemRecord{Balance: decimal.Zero, CurrentValue: decimal.Zero}
	var attrs itemAttributes

	switch d := it.Details.(type) {
	case *domain.Account:
		attrs.Name = d.Name
		rec.Balance = d.Balance
	case *domain.Debt:
		amount := d.Amount
		attrs.Description = d.Description
		attrs.WithWho = d.WithWho
		attrs.Amount = &amount
		attrs.TheyPayMe = d.TheyPayMe
		attrs.Details = d.Details
	case *domain.Service:
		cost := d.Cost
		attrs.Name = d.Name
		attrs.Cost = &cost
		attrs.IsManual = d.IsManual
		attrs.Notes = d.Notes
	case *domain.CurrencyView:
	case *domain.Investment:
		initial := d.InitialValue
		attrs.Name = d.Name
		attrs.Tag = d.Tag
		attrs.InitialValue = &initial
		attrs.IsFinished = d.IsFinished
		rec.CurrentValue = d.CurrentValue
	default:
		return rec, fmt.Errorf("item %s has no details: %w", it.ID, domain.ErrMissingArgument)
	}

	raw, err := json.Marshal(attrs)
	if err != nil {
		return rec, fmt.Errorf("failed to encode item attributes: %w", err)
	}
	rec.Attributes = raw
	return rec, nil
}

// decodeDetails rebuilds the item variant from its columns
func decodeDetails(itemType domain.ItemType, currency string, rec itemRecord) (domain.ItemDetails, error) {
	var attrs itemAttributes
	if len(rec.Attributes) > 0 {
		if err := json.Unmarshal(rec.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("failed to decode item attributes: %w", err)
		}
	}
	orZero := func(d *decimal.Decimal) decimal.Decimal {
		if d == nil {
			return decimal.Zero
		}
		return *d
	}

	switch itemType {
	case domain.ItemTypeAccount:
		return &domain.Account{Name: attrs.Name, Balance: rec.Balance, Currency: currency}, nil
	case domain.ItemTypeDebt:
		return &domain.Debt{
			Description: attrs.Description,
			WithWho:     attrs.WithWho,
			Amount:      orZero(attrs.Amount),
			Currency:    currency,
			TheyPayMe:   attrs.TheyPayMe,
			Details:     attrs.Details,
		}, nil
	case domain.ItemTypeService:
		return &domain.Service{
			Name:     attrs.Name,
			Cost:     orZero(attrs.Cost),
			Currency: currency,
			IsManual: attrs.IsManual,
			Notes:    attrs.Notes,
		}, nil
	case domain.ItemTypeCurrency:
		return &domain.CurrencyView{Currency: currency}, nil
	case domain.ItemTypeInvestment:
		return &domain.Investment{
			Name:         attrs.Name,
			Tag:          attrs.Tag,
			InitialValue: orZero(attrs.InitialValue),
			CurrentValue: rec.CurrentValue,
			Currency:     currency,
			IsFinished:   attrs.IsFinished,
		}, nil
	default:
		return nil, fmt.Errorf("unknown item type %q stored", itemType)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		it               domain.Item
		itemType         string
		currency         string
		currencyEntityID sql.NullString
		personEntityID   sql.NullString
		rec              itemRecord
	)
	err := row.Scan(
		&it.ID,
		&it.UserID,
		&itemType,
		&currency,
		&currencyEntityID,
		&personEntityID,
		&rec.Balance,
		&rec.CurrentValue,
		&rec.Attributes,
		&it.Archived,
		&it.CreateDate,
		&it.EditDate,
	)
	if err != nil {
		return nil, err
	}

	details, err := decodeDetails(domain.ItemType(itemType), currency, rec)
	if err != nil {
		return nil, err
	}
	it.Details = details
	it.CurrencyEntityID = currencyEntityID.String
	it.PersonEntityID = personEntityID.String
	it.CreateDate = it.CreateDate.UTC()
	it.EditDate = it.EditDate.UTC()
	return &it, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// GetByID retrieves an item owned by userID
func (r *itemRepository) GetByID(ctx context.Context, id, userID string) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 AND user_id = $2`

	it, err := scanItem(r.c.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, notFoundOr("failed to get item by ID", "item "+id, err)
	}
	return it, nil
}

// FindByID retrieves an item whoever owns it
func (r *itemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	it, err := scanItem(r.c.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr("failed to find item", "item "+id, err)
	}
	return it, nil
}

// List retrieves the user's items in creation order
func (r *itemRepository) List(ctx context.Context, userID string, filter domain.ItemFilter) ([]*domain.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE user_id = $1
		  AND ($2 = '' OR item_type = $2)
		  AND ($3 = '' OR currency = $3)
		  AND ($4 OR NOT archived)
		ORDER BY create_date ASC, seq ASC
	`

	rows, err := r.c.QueryContext(ctx, query, userID, string(filter.Type), filter.Currency, filter.IncludeArchived)
	if err != nil {
		return nil, storeErr("failed to query items", err)
	}
	defer rows.Close()

	items := make([]*domain.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, storeErr("failed to scan item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("error iterating items", err)
	}
	return items, nil
}

// Create inserts a new item
func (r *itemRepository) Create(ctx context.Context, it *domain.Item) error {
	rec, err := encodeItem(it)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.c.ExecContext(ctx, query,
		it.ID,
		it.UserID,
		string(it.Type()),
		it.Currency(),
		nullString(it.CurrencyEntityID),
		nullString(it.PersonEntityID),
		rec.Balance,
		rec.CurrentValue,
		rec.Attributes,
		it.Archived,
		it.CreateDate,
		it.EditDate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("item %s already exists: %w", it.ID, domain.ErrConflict)
		}
		return storeErr("failed to create item", err)
	}
	return nil
}

// Update overwrites the mutable columns of an item. create_date is never touched.
func (r *itemRepository) Update(ctx context.Context, it *domain.Item) error {
	rec, err := encodeItem(it)
	if err != nil {
		return err
	}

	query := `
		UPDATE items
		SET item_type = $3, currency = $4, currency_entity_id = $5, person_entity_id = $6,
		    balance = $7, current_value = $8, attributes = $9, archived = $10, edit_date = $11
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.c.ExecContext(ctx, query,
		it.ID,
		it.UserID,
		string(it.Type()),
		it.Currency(),
		nullString(it.CurrencyEntityID),
		nullString(it.PersonEntityID),
		rec.Balance,
		rec.CurrentValue,
		rec.Attributes,
		it.Archived,
		it.EditDate,
	)
	if err != nil {
		return storeErr("failed to update item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("failed to update item", err)
	}
	if n == 0 {
		return fmt.Errorf("item %s: %w", it.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes an item; a missing item is not an error
func (r *itemRepository) Delete(ctx context.Context, id, userID string) error {
	if _, err := r.c.ExecContext(ctx, `DELETE FROM items WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		return storeErr("failed to delete item", err)
	}
	return nil
}

// update runs a single-row UPDATE ... RETURNING restricted to itemType.
// When nothing matches it tells a missing item from a wrong variant.
func (r *itemRepository) update(ctx context.Context, op, set string, id, userID string, itemType domain.ItemType, args ...any) (*domain.Item, error) {
	query := `
		UPDATE items SET ` + set + `
		WHERE id = $1 AND user_id = $2 AND ($3 = '' OR item_type = $3)
		RETURNING ` + itemColumns

	params := append([]any{id, userID, string(itemType)}, args...)
	it, err := scanItem(r.c.QueryRowContext(ctx, query, params...))
	if err == nil {
		return it, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, storeErr(op, err)
	}
	if _, getErr := r.GetByID(ctx, id, userID); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("item %s is not an %s: %w", id, itemType, domain.ErrInvalidArgument)
}

// AdjustBalance adds delta to the stored balance in a single statement
func (r *itemRepository) AdjustBalance(ctx context.Context, id, userID string, delta decimal.Decimal, editDate time.Time) (*domain.Item, error) {
	return r.update(ctx, "failed to adjust balance", `balance = balance + $4, edit_date = $5`,
		id, userID, domain.ItemTypeAccount, delta, editDate)
}

func (r *itemRepository) SetCurrentValue(ctx context.Context, id, userID string, value decimal.Decimal, editDate time.Time) (*domain.Item, error) {
	return r.update(ctx, "failed to set current value", `current_value = $4, edit_date = $5`,
		id, userID, domain.ItemTypeInvestment, value, editDate)
}

func (r *itemRepository) SetArchived(ctx context.Context, id, userID string, archived bool, editDate time.Time) (*domain.Item, error) {
	return r.update(ctx, "failed to set archived", `archived = $4, edit_date = $5`,
		id, userID, "", archived, editDate)
}
