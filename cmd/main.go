package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/effective-security/xlog"

	"github.com/vitormoschetta/go-agent-gateway/internal/config"
	"github.com/vitormoschetta/go-agent-gateway/internal/handler"
	"github.com/vitormoschetta/go-agent-gateway/internal/server"
)

var logger = xlog.NewPackageLogger("github.com/vitormoschetta/go-agent-gateway", "main")

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to an optional YAML config file")
	flag.Parse()

	xlog.SetFormatter(xlog.NewStringFormatter(os.Stdout))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.KV(xlog.ERROR, "reason", "config", "err", err.Error())
		os.Exit(1)
	}
	xlog.SetGlobalLogLevel(cfg.Log.LogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Criar servidor
	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		logger.KV(xlog.ERROR, "reason", "create_server", "err", err.Error())
		os.Exit(1)
	}

	// Criar handlers
	h := handler.NewHandler(srv.Agent, handler.Info{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
	})

	// Configurar rotas com os handlers
	srv.SetupRouter(h.HandleRoot, h.HandleHealth, h.HandleChat, h.HandleChatSimple, h.HandleTools)

	// Iniciar servidor
	if err := srv.Start(ctx); err != nil {
		logger.KV(xlog.ERROR, "reason", "server", "err", err.Error())
		os.Exit(1)
	}
}
