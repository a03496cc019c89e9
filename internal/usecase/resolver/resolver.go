// Package resolver maps free-text currency and person labels to per-user
// entities, creating them on first use.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/simaogato/fintrack-backend/internal/domain"
)

// Resolve returns the user's entity of the given kind named name, creating it when absent.
// Logic:
//  1. Look up (userID, name)
//  2. If absent, insert {id: newID(), name, userID, createDate: now, editDate: now}
//  3. If the insert lost a race against a concurrent resolution, re-read the winner
//
// The repository must be bound to the caller's atomic unit so the entity is
// rolled back together with the item write that needed it.
func Resolve(ctx context.Context, repo domain.EntityRepository, kind domain.EntityKind, userID, name string, now time.Time, newID func() string) (*domain.Entity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%s name is required: %w", kind, domain.ErrMissingArgument)
	}
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrMissingArgument)
	}

	existing, err := repo.FindByName(ctx, kind, userID, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	entity := &domain.Entity{
		ID:         newID(),
		Kind:       kind,
		Name:       name,
		UserID:     userID,
		CreateDate: now,
		EditDate:   now,
	}
	err = repo.Create(ctx, entity)
	if err == nil {
		return entity, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, err
	}

	return repo.FindByName(ctx, kind, userID, name)
}

// AttachEntities resolves the currency and person labels of an item and
// stores the entity ids on it. Labels equal to the ones of previous, whose
// entities are already attached, are not resolved again. previous may be nil.
func AttachEntities(ctx context.Context, repo domain.EntityRepository, it, previous *domain.Item, now time.Time, newID func() string) error {
	if previous != nil {
		it.CurrencyEntityID = previous.CurrencyEntityID
		it.PersonEntityID = previous.PersonEntityID
	} else {
		it.CurrencyEntityID = ""
		it.PersonEntityID = ""
	}

	if currency := strings.TrimSpace(it.Currency()); currency == "" {
		it.CurrencyEntityID = ""
	} else if previous == nil || it.CurrencyEntityID == "" || previous.Currency() != it.Currency() {
		entity, err := Resolve(ctx, repo, domain.EntityKindCurrency, it.UserID, currency, now, newID)
		if err != nil {
			return fmt.Errorf("failed to resolve currency: %w", err)
		}
		it.CurrencyEntityID = entity.ID
	}

	if person := strings.TrimSpace(it.Person()); person == "" {
		it.PersonEntityID = ""
	} else if previous == nil || it.PersonEntityID == "" || previous.Person() != it.Person() {
		entity, err := Resolve(ctx, repo, domain.EntityKindPerson, it.UserID, person, now, newID)
		if err != nil {
			return fmt.Errorf("failed to resolve person: %w", err)
		}
		it.PersonEntityID = entity.ID
	}

	return nil
}
