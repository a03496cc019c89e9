package domain

import "time"

// EntityKind selects the deduplication table an entity lives in
type EntityKind string

const (
	EntityKindCurrency EntityKind = "currency"
	EntityKindPerson   EntityKind = "person"
)

// Entity is the canonical per-user record behind a free-text label.
// (UserID, Name) is unique within a kind.
type Entity struct {
	ID         string
	Kind       EntityKind
	Name       string
	UserID     string
	CreateDate time.Time
	EditDate   time.Time
}
