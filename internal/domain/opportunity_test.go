package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpportunityUnmarshal(t *testing.T) {
	raw := `{
		"id": 42,
		"stock": {"ticker": "VALE3", "name": "Vale"},
		"strategy": "venda_de_put_semanal",
		"status": "open",
		"entry": "1.25",
		"current_price": 0.8,
		"estimated_profit": 45,
		"max_loss": null,
		"created_at": "2024-01-10T09:00:00",
		"operation_legs": [{"option": {"ticker": "VALEM600", "strike": 60, "type": "put", "expires_at": "2024-01-26"}}],
		"note": "mantida"
	}`

	var op Opportunity
	require.NoError(t, json.Unmarshal([]byte(raw), &op))

	assert.Equal(t, int64(42), op.ID)
	assert.Equal(t, "VALE3", op.Ticker)
	assert.Equal(t, StatusOpen, op.Status)
	assert.True(t, decimal.RequireFromString("1.25").Equal(op.EntryPrice))
	assert.True(t, decimal.RequireFromString("0.8").Equal(op.CurrentPrice))
	assert.True(t, decimal.NewFromInt(45).Equal(op.Profit))
	assert.True(t, op.MaxLoss.IsZero())
	require.Len(t, op.Legs, 1)
	assert.Equal(t, "VALEM600", op.FirstLeg().Ticker)
	assert.True(t, decimal.NewFromInt(60).Equal(op.FirstLeg().Strike))

	assert.Contains(t, op.Extra, "note")
	assert.Contains(t, op.Extra, "stock")
	assert.NotContains(t, op.Extra, "entry")
	assert.NotContains(t, op.Extra, "operation_legs")
}

func TestOpportunityAliasPrecedence(t *testing.T) {
	var op Opportunity
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "entry_price": 2, "entry": 3}`), &op))

	assert.True(t, decimal.NewFromInt(2).Equal(op.EntryPrice))
	assert.Contains(t, op.Extra, "entry")
}

func TestOpportunityUnmarshalErrors(t *testing.T) {
	tests := []string{
		`[1, 2]`,
		`{"id": "abc"}`,
		`{"entry_price": "um real"}`,
		`{"operation_legs": {"option": {}}}`,
	}

	for _, raw := range tests {
		var op Opportunity
		assert.Error(t, json.Unmarshal([]byte(raw), &op), raw)
	}
}

func TestOpportunityMarshalKeepsRaw(t *testing.T) {
	raw := `{"id":7,"ticker":"PETR4","desconhecido":{"a":[1,2]}}`

	var op Opportunity
	require.NoError(t, json.Unmarshal([]byte(raw), &op))

	out, err := json.Marshal(op)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestOpportunityMarshalWithoutRaw(t *testing.T) {
	op := Opportunity{ID: 3, Ticker: "ITUB4", Status: StatusClosed}

	out, err := json.Marshal(op)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"ticker":"ITUB4"`)
}

func TestDaysOpen(t *testing.T) {
	now := time.Date(2024, 1, 20, 18, 30, 0, 0, time.UTC)

	assert.Equal(t, 10, (&Opportunity{CreatedAt: "2024-01-10T09:00:00"}).DaysOpen(now))
	assert.Equal(t, 0, (&Opportunity{CreatedAt: "2024-01-20"}).DaysOpen(now))
	assert.Equal(t, 0, (&Opportunity{}).DaysOpen(now))
	assert.Equal(t, 0, (&Opportunity{CreatedAt: "ontem"}).DaysOpen(now))
}

func TestProfitAt(t *testing.T) {
	op := &Opportunity{
		EntryPrice:   decimal.RequireFromString("1.20"),
		CurrentPrice: decimal.RequireFromString("0.80"),
	}

	assert.Equal(t, "0.00", op.ProfitAt(decimal.RequireFromString("1.5")).StringFixed(2))
	assert.Equal(t, "40.00", op.ProfitAt(decimal.NewFromInt(2)).StringFixed(2))
}

func TestFirstLegEmpty(t *testing.T) {
	assert.Equal(t, OptionLeg{}, (&Opportunity{}).FirstLeg())
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-15", "2024-01-15", true},
		{"2024-01-15T10:00:00Z", "2024-01-15", true},
		{"2024-01-15 10:00:00", "2024-01-15", true},
		{" 2024-01-15 ", "2024-01-15", true},
		{"15/01/2024", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestStatusKnown(t *testing.T) {
	assert.True(t, StatusOpen.Known())
	assert.True(t, StatusClosed.Known())
	assert.True(t, StatusExercised.Known())
	assert.False(t, Status("mystery").Known())
	assert.False(t, Status("").Known())
}

func TestSortColumns(t *testing.T) {
	assert.Len(t, SortColumns, 16)
	assert.True(t, SortProfit50.Numeric())
	assert.False(t, SortTicker.Numeric())
	assert.False(t, SortExpires.Numeric())
}

func TestEffectiveOrder(t *testing.T) {
	assert.Equal(t, OrderDesc, QuerySpec{}.EffectiveOrder())
	assert.Equal(t, OrderAsc, QuerySpec{Order: OrderAsc}.EffectiveOrder())
}

func TestErrorMessages(t *testing.T) {
	apiErr := &APIError{StatusCode: 500, Message: "maintenance"}
	auth := &AuthError{Message: "sessão expirada", Cause: &APIError{StatusCode: 401}}

	assert.Contains(t, apiErr.Error(), "maintenance")
	assert.Contains(t, (&APIError{StatusCode: 502}).Error(), "502")
	assert.Contains(t, NewValidationError("limit", "deve estar entre 1 e %d", MaxLimit).Error(), "limit")
	assert.Contains(t, (&NotFoundError{Ticker: "XPTO3"}).Error(), "XPTO3")

	var target *APIError
	assert.ErrorAs(t, auth, &target)
	assert.Equal(t, 401, target.StatusCode)
}
