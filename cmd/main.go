package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/KotFed0t/finvault_portfolio/config"
	"github.com/KotFed0t/finvault_portfolio/data"
	"github.com/KotFed0t/finvault_portfolio/data/cache"
	"github.com/KotFed0t/finvault_portfolio/data/repository/postgres"
	"github.com/KotFed0t/finvault_portfolio/internal/externalApi/cmcApi"
	"github.com/KotFed0t/finvault_portfolio/internal/externalApi/fxApi"
	"github.com/KotFed0t/finvault_portfolio/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/finvault_portfolio/internal/scheduler"
	"github.com/KotFed0t/finvault_portfolio/internal/service/assetSyncService"
	"github.com/KotFed0t/finvault_portfolio/internal/service/fxRateService"
	"github.com/KotFed0t/finvault_portfolio/internal/service/historyService"
	"github.com/KotFed0t/finvault_portfolio/internal/service/portfolioService"
	"github.com/KotFed0t/finvault_portfolio/internal/transport/httpApi"
	"github.com/shopspring/decimal"
)

type symbolCache interface {
	portfolioService.SymbolCache
	assetSyncService.SymbolCache
}

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(pgClient)

	symbols, closeCache := newSymbolCache(cfg)
	defer closeCache()

	cmcApiClient := cmcApi.New(cfg)
	fxApiClient := fxApi.New(cfg)

	fxRateSrv := fxRateService.New(cfg, pgRepo, fxApiClient)
	assetSyncSrv := assetSyncService.New(cfg, cmcApiClient, fxRateSrv, pgRepo, symbols)
	portfolioSrv := portfolioService.New(cfg, pgRepo, symbols, cmcApiClient)
	historySrv := historyService.New(pgRepo, portfolioSrv, xslsxGenerator.New())

	sched := scheduler.New()
	mustRegister(sched.RegisterCronTask("refresh fx rate", cfg.Jobs.RefreshFxCrontab, fxRateSrv.RefreshRate, cfg.Jobs.StartImmediately))
	mustRegister(sched.RegisterCronTask("sync assets", cfg.Jobs.SyncAssetsCrontab, assetSyncSrv.SyncAssets, cfg.Jobs.StartImmediately))
	mustRegister(sched.RegisterTask("portfolio history snapshot", cfg.Jobs.SnapshotInterval, historySrv.SnapshotJob, false))
	sched.Start()
	defer sched.Stop()

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpApi.NewRouter(httpApi.NewHandler(portfolioSrv, historySrv), cfg.Auth.JWTSecret),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	go func() {
		slog.Info("http server started", slog.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	// Waiting interruption signal
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", slog.String("err", err.Error()))
	}
	slog.Info("http server stopped")
}

func newSymbolCache(cfg *config.Config) (symbolCache, func()) {
	switch cfg.Cache.Backend {
	case "redis":
		redisClient := data.NewRedisClient(cfg)
		return cache.NewRedisCache(redisClient, cfg.Cache.SymbolsExpiration), func() {
			if err := redisClient.Close(); err != nil {
				slog.Error("redis close error", slog.String("err", err.Error()))
			}
		}
	default:
		return cache.NewMemoryCache(cfg.Cache.SymbolsExpiration), func() {}
	}
}

func mustRegister(err error) {
	if err != nil {
		panic(err.Error())
	}
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
