package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeovahfialho/rco-cli/internal/client"
	"github.com/jeovahfialho/rco-cli/internal/config"
	"github.com/jeovahfialho/rco-cli/internal/domain"
	"github.com/jeovahfialho/rco-cli/internal/output"
	"github.com/jeovahfialho/rco-cli/internal/service"
	"github.com/jeovahfialho/rco-cli/pkg/logger"
	"github.com/jeovahfialho/rco-cli/pkg/metrics"
)

// app carries what the commands share once configuration is loaded.
type app struct {
	cfg           *config.Config
	opportunities *service.OpportunityService
	prices        *service.PriceService
	renderer      *output.Renderer
}

func newApp(cfg *config.Config, stdout, stderr io.Writer) *app {
	c := client.New(client.Options{
		BaseURL: cfg.BaseURL,
		Cookie:  cfg.Cookie,
		Timeout: cfg.HTTPTimeout,
	})

	return &app{
		cfg:           cfg,
		opportunities: service.NewOpportunityService(c, cfg.OpportunitiesPath),
		prices:        service.NewPriceService(c, cfg.PricesPath),
		renderer:      output.NewRenderer(stdout, stderr),
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rco",
		Short: "Cliente de linha de comando do Renda com Opções",
		Long: `CLI para consultar oportunidades de opções e históricos de preços
da plataforma Renda com Opções.

A sessão é autenticada pelo cookie em COOKIE_JAR, copiado de um navegador
logado. A URL base pode ser alterada com RCO_BASE_URL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return domain.NewValidationError("flags", "%v", err)
	})
	rootCmd.AddCommand(newOpportunitiesCmd(a), newPriceCmd(a))
	return rootCmd
}

// run executes one invocation and returns the process exit code. Errors are
// written to stderr; stdout only ever carries results.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return exitGeneric
	}

	if err := logger.Init(cfg.LogLevel, cfg.Development(), cfg.LogFormat); err != nil {
		fmt.Fprintf(stderr, "❌ erro ao inicializar logger: %v\n", err)
		return exitGeneric
	}
	defer logger.Close()

	metrics.SetEnabled(cfg.MetricsEnabled)

	rootCmd := newRootCmd(newApp(cfg, stdout, stderr))
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err = rootCmd.ExecuteContext(context.Background())
	flushMetrics(cfg)

	if err != nil {
		code := exitCode(err)
		logger.Debug("comando falhou", zap.Error(err), zap.Int("exit_code", code))
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return code
	}
	return exitOK
}

// flushMetrics never changes the exit code: a failed dump is only logged.
func flushMetrics(cfg *config.Config) {
	if !cfg.MetricsEnabled || cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Warn("métricas não gravadas", zap.Error(err))
	}
}
