package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AveragePrecision is the number of fractional digits every computed
// average is rounded to.
const AveragePrecision = 4

type PricePoint struct {
	Date   time.Time       `json:"date"`
	Ticker string          `json:"ticker"`
	Close  decimal.Decimal `json:"close"`
}

func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var wire struct {
		Date   string           `json:"date"`
		Ticker string           `json:"ticker"`
		Price  *decimal.Decimal `json:"price"`
		Close  *decimal.Decimal `json:"close"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("cotação inválida: %w", err)
	}

	date, ok := ParseDate(wire.Date)
	if !ok {
		return fmt.Errorf("data inválida: %q", wire.Date)
	}

	var closePrice decimal.Decimal
	switch {
	case wire.Close != nil:
		closePrice = *wire.Close
	case wire.Price != nil:
		closePrice = *wire.Price
	default:
		return fmt.Errorf("cotação sem preço em %s", wire.Date)
	}

	*p = PricePoint{Date: date, Ticker: wire.Ticker, Close: closePrice}
	return nil
}

// PriceHistory holds the points in the order the provider sent them, most
// recent first by contract. Raw is the response body as received.
type PriceHistory struct {
	Ticker string
	Points []PricePoint
	Raw    json.RawMessage
}

// Average is the arithmetic mean of the Used most recent closes. Used is
// lower than Window when the provider had fewer points than requested.
type Average struct {
	Ticker string
	Window int
	Used   int
	Value  decimal.Decimal
}

func (a *Average) Partial() bool {
	return a.Used < a.Window
}

// String renders the value with the fixed average precision.
func (a *Average) String() string {
	return a.Value.StringFixed(AveragePrecision)
}
