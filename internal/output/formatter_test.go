package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/jeovahfialho/rco-cli/internal/domain"
	"github.com/jeovahfialho/rco-cli/internal/service"
)

const opportunitiesJSON = `[
  {"id": 7, "ticker": "VALE3", "strategy": "venda_de_put_semanal", "status": "open",
   "entry_price": 1.2, "current_price": 0.8, "estimated_profit": 40, "max_loss": 120,
   "created_at": "2024-01-10T09:00:00", "expires_at": "2024-01-26",
   "operation_legs": [{"option": {"ticker": "VALEM600", "strike": 60, "type": "put", "expires_at": "2024-01-26"}}],
   "note": "mantida"},
  {"id": 3, "ticker": "PETR4", "strategy": "compra_de_call_longa", "status": "open",
   "entry_price": 0.5, "current_price": 0.75, "estimated_profit": 25}
]`

type FormatterTestSuite struct {
	suite.Suite
	out      *bytes.Buffer
	errOut   *bytes.Buffer
	renderer *Renderer
	list     *service.OpportunityList
}

func TestFormatterSuite(t *testing.T) {
	suite.Run(t, new(FormatterTestSuite))
}

func (s *FormatterTestSuite) SetupTest() {
	s.out = &bytes.Buffer{}
	s.errOut = &bytes.Buffer{}
	s.renderer = NewRenderer(s.out, s.errOut)
	s.renderer.Now = func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }

	var items []domain.Opportunity
	s.Require().NoError(json.Unmarshal([]byte(opportunitiesJSON), &items))
	s.list = &service.OpportunityList{Status: optional.Some(domain.StatusOpen), Items: items, Fetched: len(items)}
}

func (s *FormatterTestSuite) TestOpportunitiesTable() {
	s.Require().NoError(s.renderer.Opportunities(s.list, ModeTable))

	out := s.out.String()
	s.Contains(out, "Opportunities – OPEN (Total: 2)")
	for _, header := range []string{"ID", "Ticker", "Strategy", "Status", "Entry", "Current", "Profit"} {
		s.Contains(out, header)
	}
	s.Contains(out, "Venda de PUT Semanal")
	s.Contains(out, "1.200")
	s.Contains(out, "0.800")
	s.Contains(out, "40.00")
	s.NotContains(out, "Max Loss")
	s.Empty(s.errOut.String())
}

func (s *FormatterTestSuite) TestOpportunitiesKeepGivenOrder() {
	s.Require().NoError(s.renderer.Opportunities(s.list, ModeTable))

	out := s.out.String()
	s.Less(strings.Index(out, "VALE3"), strings.Index(out, "PETR4"))
}

func (s *FormatterTestSuite) TestOpportunitiesWide() {
	s.renderer.Wide = true
	s.Require().NoError(s.renderer.Opportunities(s.list, ModeTable))

	out := s.out.String()
	for _, header := range []string{"Max Loss", "50% Profit", "100% Profit", "Days Open", "Option", "Strike", "Type", "Expires"} {
		s.Contains(out, header)
	}
	s.Contains(out, "VALEM600")
	s.Contains(out, "60.00")
	s.Contains(out, "2024-01-26")
	// (0.8*1.5 - 1.2) * 100
	s.Contains(out, "0.00")
	// (0.8*2 - 1.2) * 100
	s.Contains(out, "40.00")
}

func (s *FormatterTestSuite) TestNumericColumnsAreRightAligned() {
	s.Require().NoError(s.renderer.Opportunities(s.list, ModeTable))

	var rows int
	for _, line := range strings.Split(s.out.String(), "\n") {
		if !strings.Contains(line, "VALE3") && !strings.Contains(line, "PETR4") {
			continue
		}
		cells := strings.Split(line, "│")
		s.Require().Len(cells, 7)
		// ID is narrower than its header, so alignment shows in the padding.
		s.True(strings.HasPrefix(cells[0], "  "), "id cell %q", cells[0])
		s.True(strings.HasPrefix(cells[1], " "+strings.TrimSpace(cells[1])), "ticker cell %q", cells[1])
		rows++
	}
	s.Equal(2, rows)
}

func (s *FormatterTestSuite) TestEmptyList() {
	s.list.Items = nil
	s.Require().NoError(s.renderer.Opportunities(s.list, ModeTable))

	s.Equal("No results match the specified filters.\n", s.out.String())
}

func (s *FormatterTestSuite) TestAllStatusTitle() {
	s.list.Status = optional.None[domain.Status]()
	s.Require().NoError(s.renderer.Opportunities(s.list, ModeTable))

	s.Contains(s.out.String(), "Opportunities – ALL (Total: 2)")
}

func (s *FormatterTestSuite) TestOpportunitiesRawKeepsProviderFields() {
	s.Require().NoError(s.renderer.Opportunities(s.list, ModeRaw))

	var decoded []map[string]any
	s.Require().NoError(json.Unmarshal(s.out.Bytes(), &decoded))
	s.Require().Len(decoded, 2)
	s.Equal("mantida", decoded[0]["note"])
	s.Equal("venda_de_put_semanal", decoded[0]["strategy"])
	s.EqualValues(3, decoded[1]["id"])
}

func (s *FormatterTestSuite) TestOpportunitiesQuietRejected() {
	err := s.renderer.Opportunities(s.list, ModeQuiet)

	var verr *domain.ValidationError
	s.ErrorAs(err, &verr)
	s.Empty(s.out.String())
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, ModeTable, ModeFor(false, false))
	assert.Equal(t, ModeRaw, ModeFor(true, false))
	assert.Equal(t, ModeQuiet, ModeFor(false, true))
	assert.Equal(t, ModeQuiet, ModeFor(true, true))
}

func TestStrategyLabel(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"venda_de_put_semanal", "Venda de PUT Semanal"},
		{"compra_de_call_longa", "Compra de CALL Longa"},
		{"semanal", "Semanal"},
		{"", "—"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, StrategyLabel(tt.key))
		})
	}
}

func priceHistory(t *testing.T) *domain.PriceHistory {
	t.Helper()
	raw := json.RawMessage(`{"dates":[{"date":"2024-01-17","price":10},{"date":"2024-01-16","price":12},{"date":"2024-01-15","price":11}]}`)
	points, err := service.DecodePrices(raw, "VALE3")
	require.NoError(t, err)
	return &domain.PriceHistory{Ticker: "VALE3", Points: points, Raw: raw}
}

func TestPricesTable(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut)
	avg := &domain.Average{Ticker: "VALE3", Window: 3, Used: 3, Value: decimal.RequireFromString("11")}

	require.NoError(t, r.Prices(priceHistory(t), avg, ModeTable))

	text := out.String()
	assert.Contains(t, text, "Price history – VALE3")
	assert.Contains(t, text, "2024-01-17")
	assert.Contains(t, text, "12.00")
	assert.Contains(t, text, "3-day average 11.0000")
	assert.Less(t, strings.Index(text, "2024-01-17"), strings.Index(text, "2024-01-15"))
	assert.Empty(t, errOut.String())
}

func TestPricesTableWithoutAverage(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{})

	require.NoError(t, r.Prices(priceHistory(t), nil, ModeTable))
	assert.NotContains(t, out.String(), "average")
}

func TestPricesQuiet(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut)
	avg := &domain.Average{Ticker: "VALE3", Window: 3, Used: 3, Value: decimal.RequireFromString("11")}

	require.NoError(t, r.Prices(priceHistory(t), avg, ModeQuiet))
	assert.Equal(t, "11.0000\n", out.String())
}

func TestPricesQuietRequiresAverage(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{})

	err := r.Prices(priceHistory(t), nil, ModeQuiet)

	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, out.String())
}

func TestPartialAverageWarnsOnStderr(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut)
	avg := &domain.Average{Ticker: "VALE3", Window: 10, Used: 3, Value: decimal.RequireFromString("11")}

	require.NoError(t, r.Prices(priceHistory(t), avg, ModeQuiet))
	assert.Equal(t, "11.0000\n", out.String())
	assert.Contains(t, errOut.String(), "only 3 of 10")
}

func TestPricesRawIsBodyAsReceived(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut)
	history := priceHistory(t)
	avg := &domain.Average{Ticker: "VALE3", Window: 3, Used: 3, Value: decimal.RequireFromString("11")}

	require.NoError(t, r.Prices(history, avg, ModeRaw))

	assert.JSONEq(t, string(history.Raw), out.String())
	assert.Contains(t, errOut.String(), "3-day average 11.0000")
}
