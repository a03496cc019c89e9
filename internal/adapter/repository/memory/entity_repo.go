package memory

import (
	"context"
	"fmt"

	"github.com/simaogato/fintrack-backend/internal/domain"
)

// entityRepository implements domain.EntityRepository
type entityRepository struct {
	s *Store
}

func (r *entityRepository) FindByName(ctx context.Context, kind domain.EntityKind, userID, name string) (*domain.Entity, error) {
	var out *domain.Entity
	err := r.s.run(ctx, "entities.FindByName", func(d *data) error {
		byID, ok := d.entities[kind]
		if !ok {
			return fmt.Errorf("unknown entity kind %q: %w", kind, domain.ErrInvalidArgument)
		}
		for _, e := range byID {
			if e.UserID == userID && e.Name == name {
				cp := *e
				out = &cp
				return nil
			}
		}
		return fmt.Errorf("%s %q: %w", kind, name, domain.ErrNotFound)
	})
	return out, err
}

func (r *entityRepository) Create(ctx context.Context, entity *domain.Entity) error {
	return r.s.run(ctx, "entities.Create", func(d *data) error {
		byID, ok := d.entities[entity.Kind]
		if !ok {
			return fmt.Errorf("unknown entity kind %q: %w", entity.Kind, domain.ErrInvalidArgument)
		}
		for _, e := range byID {
			if e.UserID == entity.UserID && e.Name == entity.Name {
				return fmt.Errorf("%s %q already exists: %w", entity.Kind, entity.Name, domain.ErrConflict)
			}
		}
		cp := *entity
		byID[entity.ID] = &cp
		return nil
	})
}

// Count returns how many entities of kind userID owns
func (s *Store) Count(kind domain.EntityKind, userID string) int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, e := range s.db.data.entities[kind] {
		if e.UserID == userID {
			n++
		}
	}
	return n
}
