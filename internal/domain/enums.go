package domain

type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusExercised Status = "exercised"
)

// Known reports whether s is one of the lifecycle states the provider
// documents. Unknown statuses are displayed but never matched by filters.
func (s Status) Known() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusExercised:
		return true
	}
	return false
}

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

type SortColumn string

const (
	SortID           SortColumn = "id"
	SortTicker       SortColumn = "ticker"
	SortStrategy     SortColumn = "strategy"
	SortStatus       SortColumn = "status"
	SortEntry        SortColumn = "entry"
	SortCurrent      SortColumn = "current"
	SortProfit       SortColumn = "profit"
	SortLoss         SortColumn = "loss"
	SortExpires      SortColumn = "expires"
	SortCreated      SortColumn = "created"
	SortDaysOpen     SortColumn = "days_open"
	SortOptionTicker SortColumn = "option_ticker"
	SortOptionStrike SortColumn = "option_strike"
	SortOptionType   SortColumn = "option_type"
	SortProfit50     SortColumn = "profit_50"
	SortProfit100    SortColumn = "profit_100"
)

var SortColumns = []SortColumn{
	SortID, SortTicker, SortStrategy, SortStatus, SortEntry, SortCurrent,
	SortProfit, SortLoss, SortExpires, SortCreated, SortDaysOpen,
	SortOptionTicker, SortOptionStrike, SortOptionType, SortProfit50, SortProfit100,
}

// Numeric reports whether the column compares by value rather than text.
func (c SortColumn) Numeric() bool {
	switch c {
	case SortID, SortEntry, SortCurrent, SortProfit, SortLoss, SortDaysOpen,
		SortOptionStrike, SortProfit50, SortProfit100:
		return true
	}
	return false
}
