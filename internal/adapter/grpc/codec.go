package grpc

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/fintrack-backend/internal/domain"
	"github.com/simaogato/fintrack-backend/internal/usecase/dashboard"
)

// dayLayout is the date format of evolution points
const dayLayout = "2006-01-02"

// strictHTMLPolicy removes every tag from free text before it reaches the store
var strictHTMLPolicy = bluemonday.StrictPolicy()

// sanitizeText strips markup and keeps plain characters such as '&' readable
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictHTMLPolicy.Sanitize(s)))
}

// fields reads typed values out of a request payload
type fields map[string]*structpb.Value

func fieldsOf(req *structpb.Struct) fields {
	return fields(req.GetFields())
}

func (f fields) present(key string) bool {
	v, ok := f[key]
	if !ok || v == nil {
		return false
	}
	_, isNull := v.GetKind().(*structpb.Value_NullValue)
	return !isNull
}

// str returns the raw string value, or the number formatted without exponent
func (f fields) str(key string) string {
	if !f.present(key) {
		return ""
	}
	switch v := f[key].GetKind().(type) {
	case *structpb.Value_StringValue:
		return strings.TrimSpace(v.StringValue)
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(v.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(v.BoolValue)
	default:
		return ""
	}
}

// text returns a user supplied label with markup removed
func (f fields) text(key string) string {
	return sanitizeText(f.str(key))
}

func (f fields) boolean(key string) (bool, error) {
	if !f.present(key) {
		return false, nil
	}
	switch v := f[key].GetKind().(type) {
	case *structpb.Value_BoolValue:
		return v.BoolValue, nil
	case *structpb.Value_StringValue:
		b, err := strconv.ParseBool(strings.TrimSpace(v.StringValue))
		if err != nil {
			return false, fmt.Errorf("field %s must be a boolean: %w", key, domain.ErrInvalidArgument)
		}
		return b, nil
	default:
		return false, fmt.Errorf("field %s must be a boolean: %w", key, domain.ErrInvalidArgument)
	}
}

// decimal accepts decimal strings and JSON numbers; an absent field is zero
func (f fields) decimal(key string) (decimal.Decimal, error) {
	if !f.present(key) {
		return decimal.Zero, nil
	}
	switch v := f[key].GetKind().(type) {
	case *structpb.Value_StringValue:
		raw := strings.TrimSpace(v.StringValue)
		if raw == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid %s format %q: %w", key, raw, domain.ErrInvalidArgument)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(v.NumberValue), nil
	default:
		return decimal.Zero, fmt.Errorf("field %s must be a number: %w", key, domain.ErrInvalidArgument)
	}
}

func (f fields) requiredDecimal(key string) (decimal.Decimal, error) {
	if f.str(key) == "" {
		return decimal.Zero, fmt.Errorf("%s is required: %w", key, domain.ErrMissingArgument)
	}
	return f.decimal(key)
}

// date accepts RFC3339 timestamps and bare YYYY-MM-DD days; empty is the zero time
func (f fields) date(key string) (time.Time, error) {
	raw := f.str(key)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dayLayout, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid %s format %q: %w", key, raw, domain.ErrInvalidArgument)
}

// decodeItem builds an item from a payload carrying a "type" discriminator
// and the fields of that variant
func decodeItem(f fields) (*domain.Item, error) {
	itemType, err := domain.ParseItemType(f.str("type"))
	if err != nil {
		return nil, err
	}
	archived, err := f.boolean("archived")
	if err != nil {
		return nil, err
	}
	item := &domain.Item{ID: f.str("_id"), Archived: archived}

	switch itemType {
	case domain.ItemTypeAccount:
		balance, err := f.decimal("balance")
		if err != nil {
			return nil, err
		}
		item.Details = &domain.Account{Name: f.text("name"), Balance: balance, Currency: f.text("currency")}

	case domain.ItemTypeDebt:
		amount, err := f.decimal("amount")
		if err != nil {
			return nil, err
		}
		theyPayMe, err := f.boolean("theyPayMe")
		if err != nil {
			return nil, err
		}
		item.Details = &domain.Debt{
			Description: f.text("description"),
			WithWho:     f.text("withWho"),
			Amount:      amount,
			Currency:    f.text("currency"),
			TheyPayMe:   theyPayMe,
			Details:     f.text("details"),
		}

	case domain.ItemTypeService:
		cost, err := f.decimal("cost")
		if err != nil {
			return nil, err
		}
		isManual, err := f.boolean("isManual")
		if err != nil {
			return nil, err
		}
		item.Details = &domain.Service{
			Name:     f.text("name"),
			Cost:     cost,
			Currency: f.text("currency"),
			IsManual: isManual,
			Notes:    f.text("notes"),
		}

	case domain.ItemTypeCurrency:
		item.Details = &domain.CurrencyView{Currency: f.text("currency")}

	case domain.ItemTypeInvestment:
		initial, err := f.decimal("initialValue")
		if err != nil {
			return nil, err
		}
		current, err := f.decimal("currentValue")
		if err != nil {
			return nil, err
		}
		isFinished, err := f.boolean("isFinished")
		if err != nil {
			return nil, err
		}
		item.Details = &domain.Investment{
			Name:         f.text("name"),
			Tag:          f.text("tag"),
			InitialValue: initial,
			CurrentValue: current,
			Currency:     f.text("currency"),
			IsFinished:   isFinished,
		}
	}
	return item, nil
}

func decodeFilter(f fields) (domain.ItemFilter, error) {
	filter := domain.ItemFilter{Currency: f.text("currency")}
	if raw := f.str("type"); raw != "" {
		t, err := domain.ParseItemType(raw)
		if err != nil {
			return filter, err
		}
		filter.Type = t
	}
	includeArchived, err := f.boolean("includeArchived")
	if err != nil {
		return filter, err
	}
	filter.IncludeArchived = includeArchived
	return filter, nil
}

func isoDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeItem(it *domain.Item) map[string]any {
	m := map[string]any{
		"_id":        it.ID,
		"userId":     it.UserID,
		"type":       string(it.Type()),
		"createDate": isoDate(it.CreateDate),
		"editDate":   isoDate(it.EditDate),
		"archived":   it.Archived,
	}
	if it.CurrencyEntityID != "" {
		m["currencyId"] = it.CurrencyEntityID
	}
	if it.PersonEntityID != "" {
		m["personId"] = it.PersonEntityID
	}

	switch d := it.Details.(type) {
	case *domain.Account:
		m["name"] = d.Name
		m["balance"] = d.Balance.String()
		m["currency"] = d.Currency
	case *domain.Debt:
		m["description"] = d.Description
		m["withWho"] = d.WithWho
		m["amount"] = d.Amount.String()
		m["currency"] = d.Currency
		m["theyPayMe"] = d.TheyPayMe
		m["details"] = d.Details
	case *domain.Service:
		m["name"] = d.Name
		m["cost"] = d.Cost.String()
		m["currency"] = d.Currency
		m["isManual"] = d.IsManual
		m["notes"] = d.Notes
	case *domain.CurrencyView:
		m["currency"] = d.Currency
	case *domain.Investment:
		m["name"] = d.Name
		m["tag"] = d.Tag
		m["initialValue"] = d.InitialValue.String()
		m["currentValue"] = d.CurrentValue.String()
		m["currency"] = d.Currency
		m["isFinished"] = d.IsFinished
	}
	return m
}

func encodeTransaction(tx *domain.Transaction) map[string]any {
	return map[string]any{
		"_id":    tx.ID,
		"itemId": tx.ItemID,
		"userId": tx.UserID,
		"type":   string(tx.Kind),
		"amount": tx.Amount.String(),
		"note":   tx.Note,
		"date":   isoDate(tx.Date),
	}
}

func encodeValueUpdate(u *domain.InvestmentValueUpdate) map[string]any {
	return map[string]any{
		"_id":          u.ID,
		"investmentId": u.InvestmentID,
		"userId":       u.UserID,
		"value":        u.Value.String(),
		"note":         u.Note,
		"date":         isoDate(u.Date),
	}
}

func encodeDebtStatus(st domain.DebtPaymentStatus) map[string]any {
	return map[string]any{
		"totalPaid":        st.TotalPaid.String(),
		"remainingAmount":  st.RemainingAmount.String(),
		"paymentStatus":    string(st.PaymentStatus),
		"transactionCount": st.TransactionCount,
	}
}

func encodePerformance(p domain.InvestmentPerformance) map[string]any {
	return map[string]any{
		"initialValue":    p.InitialValue.String(),
		"currentValue":    p.CurrentValue.String(),
		"totalGainLoss":   p.TotalGainLoss.String(),
		"gainLossPercent": p.GainLossPercent.String(),
	}
}

func encodeSummary(s dashboard.CurrencySummary) map[string]any {
	breakdown := make([]any, 0, len(s.AccountBreakdown))
	for _, a := range s.AccountBreakdown {
		breakdown = append(breakdown, map[string]any{
			"id":      a.ID,
			"name":    a.Name,
			"balance": a.Balance.String(),
		})
	}
	return map[string]any{
		"_id":              s.CurrencyItemID,
		"currency":         s.Currency,
		"value":            s.Value.String(),
		"accountBreakdown": breakdown,
	}
}

func encodeEvolutionPoint(p dashboard.EvolutionPoint) map[string]any {
	top := make([]any, 0, len(p.TopAccounts))
	for _, a := range p.TopAccounts {
		top = append(top, map[string]any{
			"name":    a.Name,
			"balance": a.Balance.String(),
		})
	}
	return map[string]any{
		"date":        p.Date.Format(dayLayout),
		"value":       p.Value.String(),
		"topAccounts": top,
	}
}

// encodeList converts records into the []any shape structpb expects
func encodeList[T any](records []T, encode func(T) map[string]any) []any {
	out := make([]any, 0, len(records))
	for _, r := range records {
		out = append(out, encode(r))
	}
	return out
}
