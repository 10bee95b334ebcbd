package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"portfolioBot/internal/app"
	"portfolioBot/internal/config"
	"portfolioBot/internal/logger"
	"portfolioBot/internal/server"
	"portfolioBot/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	lg := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	var webhook http.HandlerFunc
	if cfg.TelegramEnabled() {
		tg, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, a.Service, a.Store, lg)
		if err != nil {
			lg.Fatal().Err(err).Msg("telegram")
		}
		webhook = tg.WebhookHandler()
	} else {
		lg.Warn().Msg("telegram: TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       lg,
		Portfolio: a.Service,
		Positions: a.Store,
		DB:        a.Store,
		Registry:  a.Registry,
		Webhook:   webhook,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("shutdown")
	}
}
