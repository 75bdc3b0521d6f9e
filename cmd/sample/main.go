// Command sample runs an actors service on the negotiate framework.
//
// Run:
//
//	go run ./cmd/sample
//
// Configuration is read from the environment:
//
//	SAMPLE_ADDR        listen address (default ":8080")
//	SAMPLE_LOG_LEVEL   debug, info, warn or error (default "info")
//	SAMPLE_RATE_LIMIT  requests per second per client (default 50)
//	SAMPLE_RATE_BURST  burst size (default 100)
//	SAMPLE_TIMEOUT     per-request timeout (default 5s)
//	SAMPLE_MAX_BODY    request body limit in bytes (default 1048576)
//
// Then explore, varying the Accept header:
//
//	curl localhost:8080/actors
//	curl -H 'Accept: application/xml' localhost:8080/actors/1
//	curl -H 'Accept: application/yaml' localhost:8080/actors/1
//	curl -H 'Accept: text/csv' localhost:8080/actors/1
//	curl -X POST -d '{"name":"Jim","age":42}' localhost:8080/actors
//	curl localhost:8080/actors/export
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/bjaus/negotiate"
)

type config struct {
	Addr      string        `env:"ADDR" envDefault:":8080"`
	LogLevel  slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	RateLimit float64       `env:"RATE_LIMIT" envDefault:"50"`
	RateBurst int           `env:"RATE_BURST" envDefault:"100"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"5s"`
	MaxBody   int64         `env:"MAX_BODY" envDefault:"1048576"`
}

func main() {
	cfg, err := loadConfig(nil)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	r := newRouter(cfg, logger, newActorStore())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("starting server", "addr", cfg.Addr, "routes", r.Routes())

	if err := r.ListenAndServe(ctx, cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// loadConfig reads the SAMPLE_ variables from environ, or from the process
// environment when environ is nil.
func loadConfig(environ map[string]string) (config, error) {
	return env.ParseAsWithOptions[config](env.Options{Prefix: "SAMPLE_", Environment: environ})
}

func newRouter(cfg config, logger *slog.Logger, store *actorStore) *negotiate.Router {
	r := negotiate.New(
		negotiate.WithLogger(logger),
		negotiate.WithNegotiator(csvNegotiator{}),
	)

	negotiate.RegisterValidator[Actor](r, negotiate.ValidatorFunc[Actor](validateActor))

	r.Use(negotiate.RequestID())
	r.Use(negotiate.Logger(logger))
	r.Use(r.Recovery())
	r.Use(r.RateLimit(negotiate.RateLimitConfig{Rate: cfg.RateLimit, Burst: cfg.RateBurst}))
	r.Use(negotiate.Timeout(cfg.Timeout))
	r.Use(negotiate.BodyLimit(cfg.MaxBody))
	r.Use(negotiate.Compress())
	r.Use(negotiate.ETag())

	r.Mount("/actors", &actorsModule{router: r, store: store})

	return r
}
