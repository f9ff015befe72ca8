package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type OptionLeg struct {
	Ticker    string          `json:"ticker"`
	Strike    decimal.Decimal `json:"strike"`
	Type      string          `json:"type"`
	ExpiresAt string          `json:"expires_at"`
}

// Opportunity is one position as returned by the provider. The typed fields
// feed sorting, filtering and the table; Raw and Extra carry the record
// verbatim so raw output never loses provider fields.
type Opportunity struct {
	ID           int64
	Ticker       string
	Strategy     string
	Status       Status
	EntryPrice   decimal.Decimal
	CurrentPrice decimal.Decimal
	Profit       decimal.Decimal
	MaxLoss      decimal.Decimal
	ExpiresAt    string
	CreatedAt    string
	Legs         []OptionLeg

	Raw   json.RawMessage
	Extra map[string]json.RawMessage
}

// aliases lists, per typed field, the keys the provider has used for it.
// The first key present wins.
var aliases = map[string][]string{
	"ticker":   {"ticker"},
	"entry":    {"entry_price", "entry"},
	"current":  {"current_price", "current"},
	"profit":   {"estimated_profit", "profit"},
	"max_loss": {"max_loss"},
}

func (o *Opportunity) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("oportunidade inválida: %w", err)
	}

	*o = Opportunity{Raw: append(json.RawMessage(nil), data...)}

	take := func(key string, dest any) error {
		raw, ok := fields[key]
		if !ok {
			return nil
		}
		delete(fields, key)
		if string(raw) == "null" {
			return nil
		}
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("campo %s: %w", key, err)
		}
		return nil
	}
	takeAlias := func(name string, dest any) error {
		for _, key := range aliases[name] {
			if _, ok := fields[key]; ok {
				return take(key, dest)
			}
		}
		return nil
	}

	var status string
	var legs []struct {
		Option OptionLeg `json:"option"`
	}
	steps := []error{
		take("id", &o.ID),
		takeAlias("ticker", &o.Ticker),
		take("strategy", &o.Strategy),
		take("status", &status),
		takeAlias("entry", &o.EntryPrice),
		takeAlias("current", &o.CurrentPrice),
		takeAlias("profit", &o.Profit),
		takeAlias("max_loss", &o.MaxLoss),
		take("expires_at", &o.ExpiresAt),
		take("created_at", &o.CreatedAt),
		take("operation_legs", &legs),
	}
	for _, err := range steps {
		if err != nil {
			return err
		}
	}
	o.Status = Status(status)

	// The SvelteKit payload nests the ticker under "stock"; the object stays
	// in Extra since only its ticker is mapped.
	if o.Ticker == "" {
		if raw, ok := fields["stock"]; ok {
			var stock struct {
				Ticker string `json:"ticker"`
			}
			if err := json.Unmarshal(raw, &stock); err == nil {
				o.Ticker = stock.Ticker
			}
		}
	}

	for _, leg := range legs {
		o.Legs = append(o.Legs, leg.Option)
	}

	if len(fields) > 0 {
		o.Extra = fields
	}
	return nil
}

// MarshalJSON emits the record exactly as it was received.
func (o Opportunity) MarshalJSON() ([]byte, error) {
	if len(o.Raw) > 0 {
		return o.Raw, nil
	}
	return json.Marshal(map[string]any{
		"id":            o.ID,
		"ticker":        o.Ticker,
		"strategy":      o.Strategy,
		"status":        o.Status,
		"entry_price":   o.EntryPrice,
		"current_price": o.CurrentPrice,
		"profit":        o.Profit,
	})
}

// FirstLeg returns the first option leg, or a zero leg when there is none.
func (o *Opportunity) FirstLeg() OptionLeg {
	if len(o.Legs) == 0 {
		return OptionLeg{}
	}
	return o.Legs[0]
}

// DaysOpen counts whole days between creation and now. Records without a
// parsable creation date report zero.
func (o *Opportunity) DaysOpen(now time.Time) int {
	created, ok := ParseDate(o.CreatedAt)
	if !ok {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(today.Sub(created).Hours() / 24)
}

// ProfitAt projects the profit of one contract lot (100 options) if the
// current price moves to current*multiplier.
func (o *Opportunity) ProfitAt(multiplier decimal.Decimal) decimal.Decimal {
	return o.CurrentPrice.Mul(multiplier).Sub(o.EntryPrice).Mul(decimal.NewFromInt(100))
}

// ParseDate accepts "2006-01-02" optionally followed by a time part.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, "T "); i >= 0 {
		value = value[:i]
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
