// Package output renders query results as aligned tables, raw JSON, or a
// single value for scripts.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jeovahfialho/rco-cli/internal/domain"
	"github.com/jeovahfialho/rco-cli/internal/service"
)

type Mode string

const (
	ModeTable Mode = "table"
	ModeRaw   Mode = "raw"
	ModeQuiet Mode = "quiet"
)

// ModeFor picks the output mode from the command flags. Quiet wins over raw.
func ModeFor(raw, quiet bool) Mode {
	switch {
	case quiet:
		return ModeQuiet
	case raw:
		return ModeRaw
	default:
		return ModeTable
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// Renderer writes results to Out and notices (partial averages, raw-mode
// summaries) to Err so Out stays machine-readable.
type Renderer struct {
	Out  io.Writer
	Err  io.Writer
	Wide bool
	Now  func() time.Time
}

func NewRenderer(out, errOut io.Writer) *Renderer {
	return &Renderer{Out: out, Err: errOut, Now: time.Now}
}

// Opportunities renders list in its final order; sorting already happened
// in the query builder.
func (r *Renderer) Opportunities(list *service.OpportunityList, mode Mode) error {
	switch mode {
	case ModeRaw:
		return r.writeJSON(list.Items)
	case ModeQuiet:
		return domain.NewValidationError("quiet", "disponível apenas para o comando price com --avg")
	}

	if len(list.Items) == 0 {
		_, err := fmt.Fprintln(r.Out, "No results match the specified filters.")
		return err
	}

	status := "ALL"
	if list.Status.IsSome() {
		status = strings.ToUpper(string(list.Status.Unwrap()))
	}
	title := fmt.Sprintf("Opportunities – %s (Total: %d)", status, len(list.Items))

	headers := []string{"ID", "Ticker", "Strategy", "Status", "Entry", "Current", "Profit"}
	numeric := map[int]bool{0: true, 4: true, 5: true, 6: true}
	if r.Wide {
		headers = append(headers, "Max Loss", "50% Profit", "100% Profit", "Days Open", "Option", "Strike", "Type", "Expires")
		for _, col := range []int{7, 8, 9, 10, 12} {
			numeric[col] = true
		}
	}

	now := r.now()
	rows := make([][]string, 0, len(list.Items))
	for i := range list.Items {
		op := &list.Items[i]
		row := []string{
			strconv.FormatInt(op.ID, 10),
			op.Ticker,
			StrategyLabel(op.Strategy),
			string(op.Status),
			op.EntryPrice.StringFixed(3),
			op.CurrentPrice.StringFixed(3),
			op.Profit.StringFixed(2),
		}
		if r.Wide {
			leg := op.FirstLeg()
			row = append(row,
				op.MaxLoss.StringFixed(2),
				service.ProfitAt50(op).StringFixed(2),
				service.ProfitAt100(op).StringFixed(2),
				strconv.Itoa(op.DaysOpen(now)),
				dash(leg.Ticker),
				leg.Strike.StringFixed(2),
				dash(leg.Type),
				dash(shortDate(op.ExpiresAt)),
			)
		}
		rows = append(rows, row)
	}

	return r.writeTable(title, headers, rows, numeric, "")
}

// Prices renders the history in the order received. avg may be nil.
func (r *Renderer) Prices(history *domain.PriceHistory, avg *domain.Average, mode Mode) error {
	if avg != nil && avg.Partial() {
		fmt.Fprintf(r.Err, "⚠️  only %d of %d requested day(s) available; average uses those\n", avg.Used, avg.Window)
	}

	switch mode {
	case ModeQuiet:
		if avg == nil {
			return domain.NewValidationError("quiet", "requer --avg")
		}
		_, err := fmt.Fprintln(r.Out, avg.String())
		return err
	case ModeRaw:
		if err := r.writeIndented(history.Raw); err != nil {
			return err
		}
		if avg != nil {
			fmt.Fprintf(r.Err, "%d-day average %s\n", avg.Used, avg.String())
		}
		return nil
	}

	rows := make([][]string, 0, len(history.Points))
	for _, p := range history.Points {
		rows = append(rows, []string{p.Date.Format("2006-01-02"), p.Ticker, p.Close.StringFixed(2)})
	}

	footer := ""
	if avg != nil {
		footer = fmt.Sprintf("%d-day average %s", avg.Used, avg.String())
	}

	title := fmt.Sprintf("Price history – %s", history.Ticker)
	return r.writeTable(title, []string{"Date", "Ticker", "Close"}, rows, map[int]bool{2: true}, footer)
}

func (r *Renderer) writeTable(title string, headers []string, rows [][]string, numeric map[int]bool, footer string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case numeric[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	if footer != "" {
		b.WriteString(footer)
		b.WriteString("\n")
	}

	_, err := io.WriteString(r.Out, b.String())
	return err
}

func (r *Renderer) writeJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("erro ao serializar: %w", err)
	}
	_, err = fmt.Fprintln(r.Out, string(encoded))
	return err
}

func (r *Renderer) writeIndented(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("erro ao formatar JSON: %w", err)
	}
	_, err := fmt.Fprintln(r.Out, buf.String())
	return err
}

func (r *Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// StrategyLabel turns a machine key like "venda_de_put_semanal" into the
// display name "Venda de PUT Semanal".
func StrategyLabel(key string) string {
	if key == "" {
		return "—"
	}
	words := strings.Split(key, "_")
	for i, w := range words {
		switch w {
		case "put", "call":
			words[i] = strings.ToUpper(w)
		case "de", "da", "do":
		default:
			if w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
	}
	return strings.Join(words, " ")
}

func shortDate(value string) string {
	if t, ok := domain.ParseDate(value); ok {
		return t.Format("2006-01-02")
	}
	return value
}

func dash(value string) string {
	if value == "" {
		return "—"
	}
	return value
}
