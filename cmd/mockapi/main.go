// Command mockapi serves the fixture directory through the same routes the
// provider exposes, so rco can be pointed at it with RCO_BASE_URL.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jeovahfialho/rco-cli/internal/config"
	"github.com/jeovahfialho/rco-cli/internal/mockserver"
	"github.com/jeovahfialho/rco-cli/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Erro ao carregar configuração:", err)
	}

	if err := logger.Init(cfg.LogLevel, cfg.Development(), cfg.LogFormat); err != nil {
		log.Fatal("Erro ao inicializar logger:", err)
	}
	defer logger.Close()

	server := mockserver.New()
	if err := server.LoadFixtures(cfg.MockAPIFixtures); err != nil {
		logger.Fatal("erro ao carregar fixtures", zap.Error(err))
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("encerrando servidor")
		if err := server.Shutdown(); err != nil {
			logger.Error("erro ao encerrar servidor", zap.Error(err))
		}
	}()

	logger.Info("servidor mock iniciado",
		zap.String("addr", cfg.MockAPIAddr),
		zap.String("fixtures", cfg.MockAPIFixtures))

	if err := server.Listen(cfg.MockAPIAddr); err != nil {
		logger.Fatal("erro no servidor", zap.Error(err))
	}
}
