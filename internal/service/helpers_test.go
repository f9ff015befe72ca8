package service

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/jeovahfialho/rco-cli/internal/domain"
)

type fakeFetcher struct {
	body       string
	err        error
	calls      int
	lastPath   string
	lastParams url.Values
}

func (f *fakeFetcher) Fetch(_ context.Context, path string, params url.Values) (json.RawMessage, error) {
	f.calls++
	f.lastPath = path
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.body), nil
}

const opportunitiesFixture = `[
  {"id": 1, "stock": {"ticker": "VALE3", "name": "Vale"}, "strategy": "venda_de_put_semanal", "status": "open",
   "entry_price": 1.20, "current_price": 0.80, "estimated_profit": 40, "max_loss": -100,
   "expires_at": "2024-02-16T00:00:00Z", "created_at": "2024-01-10T12:00:00Z",
   "operation_legs": [{"option": {"ticker": "VALEN620", "strike": 62.0, "type": "PUT", "expires_at": "2024-02-16"}}],
   "note": "primeira"},
  {"id": 2, "ticker": "PETR4", "strategy": "compra_de_call_longa", "status": "open",
   "entry_price": 0.50, "current_price": 0.75, "estimated_profit": 25, "max_loss": -50,
   "expires_at": "2024-03-15T00:00:00Z", "created_at": "2024-01-05T09:00:00Z",
   "operation_legs": [{"option": {"ticker": "PETRC400", "strike": 40.0, "type": "CALL", "expires_at": "2024-03-15"}}]},
  {"id": 3, "stock": {"ticker": "VALE3"}, "strategy": "venda_de_put_mensal", "status": "closed",
   "entry_price": 2.00, "current_price": 2.10, "estimated_profit": -10, "max_loss": -200,
   "expires_at": "2024-01-19T00:00:00Z", "created_at": "2023-12-20T10:00:00Z"},
  {"id": 4, "ticker": "ITUB4", "strategy": "venda_de_put_semanal", "status": "exercised",
   "entry_price": 0.90, "current_price": 0.30, "estimated_profit": 60, "max_loss": -90,
   "expires_at": "2024-02-02T00:00:00Z", "created_at": "2024-01-15T11:00:00Z"},
  {"id": 5, "ticker": "BBDC4", "strategy": "venda_de_put_semanal", "status": "mystery",
   "entry_price": 1.00, "current_price": 1.00, "estimated_profit": 25, "max_loss": -10,
   "expires_at": "2024-02-09T00:00:00Z", "created_at": "2024-01-12T08:00:00Z"}
]`

func ids(items []domain.Opportunity) []int64 {
	out := make([]int64, len(items))
	for i, op := range items {
		out[i] = op.ID
	}
	return out
}
