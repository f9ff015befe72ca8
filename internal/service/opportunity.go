package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jeovahfialho/rco-cli/internal/domain"
	"github.com/jeovahfialho/rco-cli/internal/svelte"
	"github.com/jeovahfialho/rco-cli/pkg/logger"
	"github.com/jeovahfialho/rco-cli/pkg/metrics"
)

var (
	profit50Multiplier  = decimal.NewFromFloat(1.5)
	profit100Multiplier = decimal.NewFromInt(2)
)

type OpportunityService struct {
	fetcher  Fetcher
	path     string
	validate *validator.Validate
	now      func() time.Time
}

func NewOpportunityService(fetcher Fetcher, path string) *OpportunityService {
	return &OpportunityService{
		fetcher:  fetcher,
		path:     path,
		validate: newValidator(),
		now:      time.Now,
	}
}

// OpportunityList is the shaped result of one query. Fetched counts the
// records the provider returned before local filters.
type OpportunityList struct {
	Status  optional.Option[domain.Status]
	Items   []domain.Opportunity
	Fetched int
}

// List validates q, performs a single request and applies the local
// filters and sort. Validation failures never reach the network.
func (s *OpportunityService) List(ctx context.Context, q domain.QuerySpec) (*OpportunityList, error) {
	if err := s.Validate(q); err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx)
	params := BuildParams(q)
	log.Debug("buscando oportunidades", zap.String("params", params.Encode()))

	body, err := s.fetcher.Fetch(ctx, s.path, params)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar oportunidades: %w", err)
	}

	items, err := DecodeOpportunities(body)
	if err != nil {
		return nil, err
	}
	fetched := len(items)

	items = FilterOpportunities(items, q.FilterTicker, q.FilterStrategy)
	if q.Sort != "" {
		SortOpportunities(items, q.Sort, q.EffectiveOrder(), s.now())
	}

	metrics.RecordReturned("opportunities", len(items))
	log.Debug("oportunidades filtradas",
		zap.Int("recebidas", fetched),
		zap.Int("retornadas", len(items)))

	return &OpportunityList{Status: q.Status, Items: items, Fetched: fetched}, nil
}

func (s *OpportunityService) Validate(q domain.QuerySpec) error {
	if q.Limit.IsSome() {
		if err := s.validate.Var(q.Limit.Unwrap(), fmt.Sprintf("gt=0,lte=%d", domain.MaxLimit)); err != nil {
			return domain.NewValidationError("limit", "deve estar entre 1 e %d (recebido %d)", domain.MaxLimit, q.Limit.Unwrap())
		}
	}
	if q.Status.IsSome() && !q.Status.Unwrap().Known() {
		return domain.NewValidationError("status", "valor %q inválido (válidos: open, closed, exercised)", q.Status.Unwrap())
	}
	for _, strategy := range q.Strategies {
		if strings.TrimSpace(strategy) == "" {
			return domain.NewValidationError("strategy", "estratégia vazia")
		}
	}
	if err := s.validate.Struct(q); err != nil {
		return validationError(err)
	}
	return nil
}

// BuildParams translates the server-side part of q. Strategies are sent as
// a repeated parameter and also in the provider's native filters document.
func BuildParams(q domain.QuerySpec) url.Values {
	params := url.Values{}

	if q.Status.IsSome() {
		params.Set("status", string(q.Status.Unwrap()))
	}
	if q.Limit.IsSome() {
		params.Set("limit", strconv.Itoa(q.Limit.Unwrap()))
	}
	if q.Sort != "" {
		params.Set("sort", string(q.Sort))
		params.Set("order", string(q.EffectiveOrder()))
	}
	if len(q.Strategies) > 0 {
		for _, strategy := range q.Strategies {
			params.Add("strategy", strategy)
		}
		filters, _ := json.Marshal(map[string][]string{"strategies": q.Strategies})
		params.Set("filters", string(filters))
	}

	return params
}

// DecodeOpportunities accepts a bare array of records, an object holding
// them under "operations" or "data", or a SvelteKit __data.json envelope.
func DecodeOpportunities(body []byte) ([]domain.Opportunity, error) {
	records, err := opportunityRecords(body)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Opportunity, 0, len(records))
	for i, record := range records {
		var op domain.Opportunity
		if err := json.Unmarshal(record, &op); err != nil {
			return nil, &domain.DecodeError{What: fmt.Sprintf("oportunidade %d", i), Cause: err}
		}
		items = append(items, op)
	}
	return items, nil
}

func opportunityRecords(body []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	if svelte.IsPayload(body) {
		fields, err := svelte.Unpack(body)
		if err != nil {
			return nil, &domain.DecodeError{What: "payload __data.json", Cause: err}
		}
		records, err := svelte.Records(fields, "operations")
		if err != nil {
			return nil, &domain.DecodeError{What: "payload __data.json", Cause: err}
		}
		return records, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &domain.DecodeError{What: "oportunidades", Cause: err}
	}
	for _, key := range []string{"operations", "data"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, &domain.DecodeError{What: "oportunidades." + key, Cause: err}
		}
		return records, nil
	}

	return nil, &domain.DecodeError{What: "oportunidades", Cause: fmt.Errorf("formato de resposta não reconhecido")}
}

// FilterOpportunities keeps records matching both exact filters; an empty
// filter matches everything. Matching is case-sensitive.
func FilterOpportunities(items []domain.Opportunity, ticker, strategy string) []domain.Opportunity {
	if ticker == "" && strategy == "" {
		return items
	}

	out := make([]domain.Opportunity, 0, len(items))
	droppedTicker, droppedStrategy := 0, 0
	for _, op := range items {
		if ticker != "" && op.Ticker != ticker {
			droppedTicker++
			continue
		}
		if strategy != "" && op.Strategy != strategy {
			droppedStrategy++
			continue
		}
		out = append(out, op)
	}

	metrics.RecordFiltered("ticker", droppedTicker)
	metrics.RecordFiltered("strategy", droppedStrategy)
	return out
}

// SortOpportunities sorts items in place by column. The sort is stable in
// both directions: records with equal keys keep their relative order.
func SortOpportunities(items []domain.Opportunity, column domain.SortColumn, order domain.Order, now time.Time) {
	compare := comparator(column, now)
	slices.SortStableFunc(items, func(a, b domain.Opportunity) int {
		c := compare(&a, &b)
		if order == domain.OrderDesc {
			return -c
		}
		return c
	})
}

func comparator(column domain.SortColumn, now time.Time) func(a, b *domain.Opportunity) int {
	if column.Numeric() {
		key := numericKey(column, now)
		return func(a, b *domain.Opportunity) int {
			return key(a).Cmp(key(b))
		}
	}
	key := textKey(column)
	return func(a, b *domain.Opportunity) int {
		return strings.Compare(key(a), key(b))
	}
}

func numericKey(column domain.SortColumn, now time.Time) func(*domain.Opportunity) decimal.Decimal {
	switch column {
	case domain.SortID:
		return func(o *domain.Opportunity) decimal.Decimal { return decimal.NewFromInt(o.ID) }
	case domain.SortEntry:
		return func(o *domain.Opportunity) decimal.Decimal { return o.EntryPrice }
	case domain.SortCurrent:
		return func(o *domain.Opportunity) decimal.Decimal { return o.CurrentPrice }
	case domain.SortProfit:
		return func(o *domain.Opportunity) decimal.Decimal { return o.Profit }
	case domain.SortLoss:
		return func(o *domain.Opportunity) decimal.Decimal { return o.MaxLoss }
	case domain.SortDaysOpen:
		return func(o *domain.Opportunity) decimal.Decimal { return decimal.NewFromInt(int64(o.DaysOpen(now))) }
	case domain.SortOptionStrike:
		return func(o *domain.Opportunity) decimal.Decimal { return o.FirstLeg().Strike }
	case domain.SortProfit50:
		return func(o *domain.Opportunity) decimal.Decimal { return o.ProfitAt(profit50Multiplier) }
	case domain.SortProfit100:
		return func(o *domain.Opportunity) decimal.Decimal { return o.ProfitAt(profit100Multiplier) }
	}
	return func(*domain.Opportunity) decimal.Decimal { return decimal.Zero }
}

func textKey(column domain.SortColumn) func(*domain.Opportunity) string {
	switch column {
	case domain.SortTicker:
		return func(o *domain.Opportunity) string { return o.Ticker }
	case domain.SortStrategy:
		return func(o *domain.Opportunity) string { return o.Strategy }
	case domain.SortStatus:
		return func(o *domain.Opportunity) string { return string(o.Status) }
	case domain.SortExpires:
		return func(o *domain.Opportunity) string { return o.ExpiresAt }
	case domain.SortCreated:
		return func(o *domain.Opportunity) string { return o.CreatedAt }
	case domain.SortOptionTicker:
		return func(o *domain.Opportunity) string { return o.FirstLeg().Ticker }
	case domain.SortOptionType:
		return func(o *domain.Opportunity) string { return o.FirstLeg().Type }
	}
	return func(*domain.Opportunity) string { return "" }
}

// ProfitAt50 and ProfitAt100 are the projections shown in the wide table.
func ProfitAt50(o *domain.Opportunity) decimal.Decimal  { return o.ProfitAt(profit50Multiplier) }
func ProfitAt100(o *domain.Opportunity) decimal.Decimal { return o.ProfitAt(profit100Multiplier) }
