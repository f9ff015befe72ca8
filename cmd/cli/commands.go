package main

import (
	"strings"

	"github.com/moznion/go-optional"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeovahfialho/rco-cli/internal/domain"
	"github.com/jeovahfialho/rco-cli/internal/output"
	"github.com/jeovahfialho/rco-cli/pkg/logger"
)

func newOpportunitiesCmd(a *app) *cobra.Command {
	var (
		status         string
		strategies     []string
		limit          int
		sortColumn     string
		order          string
		filterTicker   string
		filterStrategy string
		raw            bool
		wide           bool
	)

	cmd := &cobra.Command{
		Use:     "opportunities",
		Aliases: []string{"opps", "op"},
		Short:   "Lista oportunidades de operações com opções",
		Long: `Lista oportunidades filtradas por status e estratégia.

Os filtros --filter-ticker e --filter-strategy são aplicados localmente,
depois da resposta do servidor, e se somam aos filtros do servidor.
Colunas de ordenação: ` + strings.Join(sortColumnNames(), ", "),
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.WithCommand(cmd.Context(), "opportunities")

			q := domain.QuerySpec{
				Strategies:     strategies,
				Limit:          optional.Some(limit),
				Sort:           domain.SortColumn(strings.ToLower(sortColumn)),
				Order:          domain.Order(strings.ToLower(order)),
				FilterTicker:   filterTicker,
				FilterStrategy: filterStrategy,
			}
			if status != "" && status != "all" {
				q.Status = optional.Some(domain.Status(strings.ToLower(status)))
			}

			list, err := a.opportunities.List(ctx, q)
			if err != nil {
				return err
			}

			logger.WithContext(ctx).Debug("renderizando oportunidades",
				zap.Int("recebidas", list.Fetched),
				zap.Int("exibidas", len(list.Items)))

			a.renderer.Wide = wide
			return a.renderer.Opportunities(list, output.ModeFor(raw, false))
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", string(domain.StatusOpen), "Status: open, closed, exercised ou all")
	cmd.Flags().StringArrayVarP(&strategies, "strategy", "g", nil, "Estratégia no servidor (pode repetir)")
	cmd.Flags().IntVarP(&limit, "limit", "l", domain.MaxLimit, "Máximo de registros (1-99)")
	cmd.Flags().StringVar(&sortColumn, "sort", "", "Coluna de ordenação")
	cmd.Flags().StringVarP(&order, "order", "o", string(domain.OrderDesc), "Ordem: asc ou desc")
	cmd.Flags().StringVarP(&filterTicker, "filter-ticker", "t", "", "Mantém apenas o ticker informado")
	cmd.Flags().StringVarP(&filterStrategy, "filter-strategy", "f", "", "Mantém apenas a estratégia informada")
	cmd.Flags().BoolVar(&raw, "raw", false, "Imprime o JSON recebido")
	cmd.Flags().BoolVar(&wide, "wide", false, "Inclui colunas de perda, lucros-alvo, dias e opção")

	return cmd
}

func newPriceCmd(a *app) *cobra.Command {
	var (
		avg   int
		limit int
		raw   bool
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "price [ticker]",
		Short: "Mostra o histórico de preços de um ativo",
		Long: `Mostra o histórico de fechamentos de um ativo, do mais recente para o
mais antigo. Com --avg N calcula a média dos N fechamentos mais recentes;
com --quiet imprime apenas a média, para uso em scripts.`,
		Args: exactTicker,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.WithCommand(cmd.Context(), "price")

			spec := domain.AverageSpec{Ticker: strings.ToUpper(strings.TrimSpace(args[0])), Quiet: quiet}
			if cmd.Flags().Changed("avg") {
				spec.Window = optional.Some(avg)
			}
			if spec.Quiet && spec.Window.IsNone() {
				return domain.NewValidationError("quiet", "requer --avg")
			}

			mode := output.ModeFor(raw, spec.Quiet)

			if spec.Window.IsSome() {
				if cmd.Flags().Changed("limit") {
					logger.WithContext(ctx).Debug("--limit ignorado com --avg", zap.Int("limit", limit))
				}
				average, history, err := a.prices.Average(ctx, spec.Ticker, spec.Window.Unwrap())
				if err != nil {
					return err
				}
				return a.renderer.Prices(history, average, mode)
			}

			var pageLimit optional.Option[int]
			if cmd.Flags().Changed("limit") {
				pageLimit = optional.Some(limit)
			}
			history, err := a.prices.GetPrices(ctx, spec.Ticker, pageLimit)
			if err != nil {
				return err
			}
			return a.renderer.Prices(history, nil, mode)
		},
	}

	cmd.Flags().IntVarP(&avg, "avg", "a", 0, "Calcula a média dos N fechamentos mais recentes")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Máximo de pontos no histórico")
	cmd.Flags().BoolVar(&raw, "raw", false, "Imprime o JSON recebido")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Imprime apenas a média (requer --avg)")

	return cmd
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return domain.NewValidationError("args", "argumento inesperado %q", args[0])
	}
	return nil
}

func exactTicker(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return domain.NewValidationError("ticker", "informe exatamente um ticker")
	}
	return nil
}

func sortColumnNames() []string {
	names := make([]string, 0, len(domain.SortColumns))
	for _, c := range domain.SortColumns {
		names = append(names, string(c))
	}
	return names
}
