package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/access"
	"server/internal/adapter/repo"
	"server/internal/credential"
	"server/internal/http/handlers"
	httpapi "server/internal/http"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/membership"
	"server/internal/middleware"
	"server/internal/providers/chat"
	"server/internal/quota"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	lessons := repo.NewLessonRepository(dbpool)

	var ledger *quota.Ledger
	if cfg.RedisURL != "" {
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect counter store")
		}
		defer func() {
			_ = client.Close()
		}()
		ledger, err = quota.NewRedisLedger(client, cfg.TierLimits, cfg.QuotaDayLocation, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build quota ledger")
		}
	} else {
		// Non-production only; LoadConfig rejects a missing REDIS_URL in
		// production. The in-process counter is not durable and not
		// shared across processes.
		logger.Warn().Msg("no counter store configured, using in-process quota counters")
		ledger, err = quota.NewMemoryLedger(cfg.TierLimits, cfg.QuotaDayLocation, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build quota ledger")
		}
	}

	creds, err := credential.NewManager(credential.Config{
		Secret:   cfg.CredentialSecret,
		Issuer:   cfg.CredentialIssuer,
		Audience: cfg.CredentialAud,
		TTL:      cfg.CredentialTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build credential manager")
	}

	policy, err := access.NewPolicy(cfg.SectionFloors, cfg.DefaultFloor)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build access policy")
	}

	var completer chat.Completer
	if cfg.OpenAIAPIKey != "" {
		completer, err = chat.NewClient(chat.Options{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build chat client")
		}
	} else {
		logger.Warn().Msg("no chat provider configured, lesson chat will report unavailable")
		completer = chat.Disabled()
	}

	var countryLookup middleware.CountryLookup
	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, locale falls back to headers")
	} else if geo != nil {
		defer func() {
			_ = geo.Close()
		}()
		countryLookup = geo.CountryCode
	}

	app := &handlers.App{
		Logger:     logger,
		Resolver:   membership.NewResolver(creds, cfg.IsProduction(), logger),
		Policy:     policy,
		Ledger:     ledger,
		Lessons:    lessons,
		Chat:       completer,
		Production: cfg.IsProduction(),
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		Production:      cfg.IsProduction(),
		AllowedOrigins:  cfg.AllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   countryLookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("API listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
