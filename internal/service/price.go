package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jeovahfialho/rco-cli/internal/domain"
	"github.com/jeovahfialho/rco-cli/pkg/logger"
	"github.com/jeovahfialho/rco-cli/pkg/metrics"
)

type PriceService struct {
	fetcher      Fetcher
	pathTemplate string
	validate     *validator.Validate
}

// NewPriceService builds the price query builder. pathTemplate contains a
// {ticker} placeholder, e.g. "/api/assets/{ticker}/history".
func NewPriceService(fetcher Fetcher, pathTemplate string) *PriceService {
	return &PriceService{
		fetcher:      fetcher,
		pathTemplate: pathTemplate,
		validate:     newValidator(),
	}
}

// GetPrices returns the daily closes for ticker in the order received.
func (s *PriceService) GetPrices(ctx context.Context, ticker string, limit optional.Option[int]) (*domain.PriceHistory, error) {
	ticker = strings.TrimSpace(ticker)
	if err := s.validate.Struct(domain.AverageSpec{Ticker: ticker}); err != nil {
		return nil, validationError(err)
	}
	if limit.IsSome() && limit.Unwrap() <= 0 {
		return nil, domain.NewValidationError("limit", "deve ser positivo (recebido %d)", limit.Unwrap())
	}

	params := url.Values{}
	if limit.IsSome() {
		params.Set("limit", strconv.Itoa(limit.Unwrap()))
	}

	path := strings.ReplaceAll(s.pathTemplate, "{ticker}", url.PathEscape(ticker))
	logger.WithContext(ctx).Debug("buscando cotações",
		zap.String("ticker", ticker),
		zap.String("path", path))

	body, err := s.fetcher.Fetch(ctx, path, params)
	if err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, &domain.NotFoundError{Ticker: ticker}
		}
		return nil, fmt.Errorf("erro ao buscar cotações de %s: %w", ticker, err)
	}

	points, err := DecodePrices(body, ticker)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, &domain.NotFoundError{Ticker: ticker}
	}

	metrics.RecordReturned("prices", len(points))
	return &domain.PriceHistory{Ticker: ticker, Points: points, Raw: body}, nil
}

// Average fetches up to n points and averages the n most recent closes.
// When fewer exist, all of them are used and Average.Used says how many.
func (s *PriceService) Average(ctx context.Context, ticker string, n int) (*domain.Average, *domain.PriceHistory, error) {
	if n <= 0 {
		return nil, nil, domain.NewValidationError("avg", "a janela deve ser positiva (recebido %d)", n)
	}

	history, err := s.GetPrices(ctx, ticker, optional.Some(n))
	if err != nil {
		return nil, nil, err
	}

	avg, err := Mean(history.Ticker, history.Points, n)
	if err != nil {
		return nil, nil, err
	}
	if avg.Partial() {
		metrics.RecordPartialAverage()
		logger.WithContext(ctx).Info("média calculada com menos pontos que o solicitado",
			zap.String("ticker", avg.Ticker),
			zap.Int("janela", avg.Window),
			zap.Int("usados", avg.Used))
	}
	return avg, history, nil
}

// Mean is the unweighted arithmetic mean of the closes of the n most recent
// points, rounded to domain.AveragePrecision fractional digits.
func Mean(ticker string, points []domain.PricePoint, n int) (*domain.Average, error) {
	if n <= 0 {
		return nil, domain.NewValidationError("avg", "a janela deve ser positiva (recebido %d)", n)
	}
	if len(points) == 0 {
		return nil, &domain.NotFoundError{Ticker: ticker}
	}

	recent := slices.Clone(points)
	slices.SortStableFunc(recent, func(a, b domain.PricePoint) int {
		return b.Date.Compare(a.Date)
	})
	if len(recent) > n {
		recent = recent[:n]
	}

	sum := decimal.Zero
	for _, p := range recent {
		sum = sum.Add(p.Close)
	}
	value := sum.DivRound(decimal.NewFromInt(int64(len(recent))), domain.AveragePrecision)

	return &domain.Average{
		Ticker: ticker,
		Window: n,
		Used:   len(recent),
		Value:  value,
	}, nil
}

// DecodePrices accepts a bare array of points or an object holding them
// under "dates", "prices" or "data". Duplicate dates are rejected.
func DecodePrices(body []byte, ticker string) ([]domain.PricePoint, error) {
	var points []domain.PricePoint
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &points); err != nil {
			return nil, &domain.DecodeError{What: "cotações", Cause: err}
		}
	} else {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, &domain.DecodeError{What: "cotações", Cause: err}
		}

		found := false
		for _, key := range []string{"dates", "prices", "data"} {
			raw, ok := envelope[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(raw, &points); err != nil {
				return nil, &domain.DecodeError{What: "cotações." + key, Cause: err}
			}
			found = true
			break
		}
		if !found {
			return nil, &domain.DecodeError{What: "cotações", Cause: fmt.Errorf("formato de resposta não reconhecido")}
		}
	}

	seen := make(map[string]struct{}, len(points))
	for i := range points {
		if points[i].Ticker == "" {
			points[i].Ticker = ticker
		}
		day := points[i].Date.Format("2006-01-02")
		if _, dup := seen[day]; dup {
			return nil, &domain.DecodeError{What: "cotações", Cause: fmt.Errorf("data repetida %s", day)}
		}
		seen[day] = struct{}{}
	}
	return points, nil
}
