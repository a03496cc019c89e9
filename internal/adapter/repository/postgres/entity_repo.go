package postgres

import (
	"context"
	"fmt"

	"github.com/simaogato/fintrack-backend/internal/domain"
)

// entityRepository implements domain.EntityRepository.
// Each entity kind has its own table with a UNIQUE (user_id, name) index.
type entityRepository struct {
	c *conn
}

func entityTable(kind domain.EntityKind) (string, error) {
	switch kind {
	case domain.EntityKindCurrency:
		return "currencies", nil
	case domain.EntityKindPerson:
		return "persons", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q: %w", kind, domain.ErrInvalidArgument)
	}
}

// FindByName retrieves the entity named name for userID
func (r *entityRepository) FindByName(ctx context.Context, kind domain.EntityKind, userID, name string) (*domain.Entity, error) {
	table, err := entityTable(kind)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, user_id, name, create_date, edit_date FROM ` + table + ` WHERE user_id = $1 AND name = $2`

	e := domain.Entity{Kind: kind}
	err = r.c.QueryRowContext(ctx, query, userID, name).Scan(&e.ID, &e.UserID, &e.Name, &e.CreateDate, &e.EditDate)
	if err != nil {
		return nil, notFoundOr("failed to find "+string(kind), fmt.Sprintf("%s %q", kind, name), err)
	}
	e.CreateDate = e.CreateDate.UTC()
	e.EditDate = e.EditDate.UTC()
	return &e, nil
}

// Create inserts an entity. A concurrent insert of the same name makes
// this return domain.ErrConflict instead of a driver error.
func (r *entityRepository) Create(ctx context.Context, e *domain.Entity) error {
	table, err := entityTable(e.Kind)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ` + table + ` (id, user_id, name, create_date, edit_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, name) DO NOTHING
	`
	res, err := r.c.ExecContext(ctx, query, e.ID, e.UserID, e.Name, e.CreateDate, e.EditDate)
	if err != nil {
		return storeErr("failed to create "+string(e.Kind), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("failed to create "+string(e.Kind), err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q already exists: %w", e.Kind, e.Name, domain.ErrConflict)
	}
	return nil
}
