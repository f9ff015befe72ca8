package domain

import (
	"github.com/moznion/go-optional"
)

// MaxLimit is the largest page the opportunities endpoint accepts.
const MaxLimit = 99

// QuerySpec is a resolved opportunities query. Strategies are OR-matched by
// the server; FilterTicker and FilterStrategy are exact matches applied
// locally on top of whatever the server returned.
type QuerySpec struct {
	Status     optional.Option[Status]
	Strategies []string
	Limit      optional.Option[int]
	Sort       SortColumn `validate:"omitempty,sortcolumn"`
	Order      Order      `validate:"omitempty,oneof=asc desc"`

	FilterTicker   string
	FilterStrategy string
}

// EffectiveOrder defaults to descending.
func (q QuerySpec) EffectiveOrder() Order {
	if q.Order == "" {
		return OrderDesc
	}
	return q.Order
}

type AverageSpec struct {
	Ticker string `validate:"required"`
	Window optional.Option[int]
	Quiet  bool
}
