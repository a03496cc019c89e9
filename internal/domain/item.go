package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ItemType represents the kind of item a user tracks
type ItemType string

const (
	ItemTypeAccount    ItemType = "account"
	ItemTypeDebt       ItemType = "debt"
	ItemTypeService    ItemType = "service"
	ItemTypeCurrency   ItemType = "currency"
	ItemTypeInvestment ItemType = "investment"
)

// ParseItemType converts a raw type string into an ItemType
func ParseItemType(s string) (ItemType, error) {
	switch t := ItemType(strings.ToLower(strings.TrimSpace(s))); t {
	case ItemTypeAccount, ItemTypeDebt, ItemTypeService, ItemTypeCurrency, ItemTypeInvestment:
		return t, nil
	default:
		return "", fmt.Errorf("unknown item type %q: %w", s, ErrInvalidArgument)
	}
}

// HasTransactions reports whether items of this type own rows in the transaction log.
// Currency items are aggregation keys only and never carry transactions.
func (t ItemType) HasTransactions() bool {
	return t == ItemTypeAccount || t == ItemTypeDebt || t == ItemTypeInvestment
}

// Item is the envelope shared by every item variant.
// The variant specific fields live in Details.
type Item struct {
	ID               string
	UserID           string
	CreateDate       time.Time
	EditDate         time.Time
	Archived         bool
	CurrencyEntityID string // resolved currency entity, empty when the variant has no currency
	PersonEntityID   string // resolved person entity, debts only
	Details          ItemDetails
}

// ItemDetails is implemented by every item variant.
type ItemDetails interface {
	Type() ItemType
	validate() error
}

// Account is a balance holder. Balance is a cache of the transaction log.
type Account struct {
	Name     string
	Balance  decimal.Decimal
	Currency string
}

// Debt is money owed to or by another person.
// The remaining amount is always derived from the transaction log.
type Debt struct {
	Description string
	WithWho     string
	Amount      decimal.Decimal // principal owed
	Currency    string
	TheyPayMe   bool
	Details     string
}

// Service is a recurring cost such as a subscription.
type Service struct {
	Name     string
	Cost     decimal.Decimal
	Currency string
	IsManual bool
	Notes    string
}

// CurrencyView groups accounts sharing the same currency label.
type CurrencyView struct {
	Currency string
}

// Investment tracks a position valued by absolute snapshots.
// CurrentValue is a cache of the latest value update.
type Investment struct {
	Name         string
	Tag          string
	InitialValue decimal.Decimal
	CurrentValue decimal.Decimal
	Currency     string
	IsFinished   bool
}

func (*Account) Type() ItemType      { return ItemTypeAccount }
func (*Debt) Type() ItemType         { return ItemTypeDebt }
func (*Service) Type() ItemType      { return ItemTypeService }
func (*CurrencyView) Type() ItemType { return ItemTypeCurrency }
func (*Investment) Type() ItemType   { return ItemTypeInvestment }

func (a *Account) validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("account name is required: %w", ErrMissingArgument)
	}
	return nil
}

func (d *Debt) validate() error {
	if strings.TrimSpace(d.WithWho) == "" {
		return fmt.Errorf("debt counterpart is required: %w", ErrMissingArgument)
	}
	if d.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("debt amount must be positive: %w", ErrInvalidArgument)
	}
	return nil
}

func (s *Service) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("service name is required: %w", ErrMissingArgument)
	}
	if s.Cost.IsNegative() {
		return fmt.Errorf("service cost cannot be negative: %w", ErrInvalidArgument)
	}
	return nil
}

func (c *CurrencyView) validate() error {
	if strings.TrimSpace(c.Currency) == "" {
		return fmt.Errorf("currency name is required: %w", ErrMissingArgument)
	}
	return nil
}

func (i *Investment) validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("investment name is required: %w", ErrMissingArgument)
	}
	if i.InitialValue.IsNegative() {
		return fmt.Errorf("investment initial value cannot be negative: %w", ErrInvalidArgument)
	}
	return nil
}

// Type returns the variant tag of the item, or "" when Details is unset
func (it *Item) Type() ItemType {
	if it.Details == nil {
		return ""
	}
	return it.Details.Type()
}

// Validate ensures the item adheres to domain rules
func (it *Item) Validate() error {
	if it.Details == nil {
		return fmt.Errorf("item details are required: %w", ErrMissingArgument)
	}
	return it.Details.validate()
}

// Currency returns the currency label of the variant, or "" for variants without one
func (it *Item) Currency() string {
	switch d := it.Details.(type) {
	case *Account:
		return d.Currency
	case *Debt:
		return d.Currency
	case *Service:
		return d.Currency
	case *CurrencyView:
		return d.Currency
	case *Investment:
		return d.Currency
	default:
		return ""
	}
}

// Person returns the counterpart label of a debt, or "" for other variants
func (it *Item) Person() string {
	if d, ok := it.Details.(*Debt); ok {
		return d.WithWho
	}
	return ""
}

// DisplayName returns the human label of the item
func (it *Item) DisplayName() string {
	switch d := it.Details.(type) {
	case *Account:
		return d.Name
	case *Debt:
		if d.Description != "" {
			return d.Description
		}
		return d.WithWho
	case *Service:
		return d.Name
	case *CurrencyView:
		return d.Currency
	case *Investment:
		return d.Name
	default:
		return ""
	}
}

// Account returns the account variant of the item
func (it *Item) Account() (*Account, bool) {
	a, ok := it.Details.(*Account)
	return a, ok
}

// Debt returns the debt variant of the item
func (it *Item) Debt() (*Debt, bool) {
	d, ok := it.Details.(*Debt)
	return d, ok
}

// Investment returns the investment variant of the item
func (it *Item) Investment() (*Investment, bool) {
	i, ok := it.Details.(*Investment)
	return i, ok
}

// Clone returns a deep copy of the item, details included
func (it *Item) Clone() *Item {
	cp := *it
	switch d := it.Details.(type) {
	case *Account:
		v := *d
		cp.Details = &v
	case *Debt:
		v := *d
		cp.Details = &v
	case *Service:
		v := *d
		cp.Details = &v
	case *CurrencyView:
		v := *d
		cp.Details = &v
	case *Investment:
		v := *d
		cp.Details = &v
	}
	return &cp
}

// ItemFilter narrows an item listing
type ItemFilter struct {
	Type            ItemType // empty means every type
	Currency        string   // empty means every currency
	IncludeArchived bool
}

// Matches reports whether the item passes the filter
func (f ItemFilter) Matches(it *Item) bool {
	if f.Type != "" && it.Type() != f.Type {
		return false
	}
	if f.Currency != "" && it.Currency() != f.Currency {
		return false
	}
	if !f.IncludeArchived && it.Archived {
		return false
	}
	return true
}
