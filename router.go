package negotiate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Router is the central type that holds routes, middleware, negotiators and
// configuration. It implements http.Handler.
type Router struct {
	mux        *http.ServeMux
	middleware []Middleware
	routes     []string

	negotiators *Registry
	decoders    *decoderRegistry

	validator    Validator
	validators   *validatorLocator
	errorHandler ErrorHandler
	logger       *slog.Logger

	mu sync.Mutex
}

// RouterOption configures a Router.
type RouterOption func(*routerConfig)

type routerConfig struct {
	negotiators  []Negotiator
	defaults     []DefaultNegotiator
	noBuiltins   bool
	decoders     []Decoder
	validator    Validator
	errorHandler ErrorHandler
	logger       *slog.Logger
}

// WithNegotiator registers a response negotiator. Negotiators are consulted
// in the order they are registered, ahead of the built-in XML and YAML
// negotiators.
func WithNegotiator(n ...Negotiator) RouterOption {
	return func(c *routerConfig) {
		c.negotiators = append(c.negotiators, n...)
	}
}

// WithDefaultNegotiator replaces the built-in JSON fallback. It may be given
// at most once.
func WithDefaultNegotiator(n DefaultNegotiator) RouterOption {
	return func(c *routerConfig) {
		c.defaults = append(c.defaults, n)
	}
}

// WithoutBuiltinNegotiators disables the built-in XML and YAML negotiators.
// The JSON default stays unless replaced with WithDefaultNegotiator.
func WithoutBuiltinNegotiators() RouterOption {
	return func(c *routerConfig) {
		c.noBuiltins = true
	}
}

// WithDecoder registers an additional request body decoder.
func WithDecoder(dec Decoder) RouterOption {
	return func(c *routerConfig) {
		c.decoders = append(c.decoders, dec)
	}
}

// WithValidator sets a global request validator.
func WithValidator(v Validator) RouterOption {
	return func(c *routerConfig) {
		c.validator = v
	}
}

// ErrorHandler is a custom error response writer.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// WithErrorHandler sets a custom error handler for the router.
func WithErrorHandler(h ErrorHandler) RouterOption {
	return func(c *routerConfig) {
		c.errorHandler = h
	}
}

// WithLogger sets the logger used by the router. Defaults to slog.Default().
func WithLogger(l *slog.Logger) RouterOption {
	return func(c *routerConfig) {
		c.logger = l
	}
}

// New creates a new Router with the given options. It panics if the
// negotiator configuration is invalid, e.g. two default negotiators or a
// nil negotiator.
func New(opts ...RouterOption) *Router {
	var cfg routerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		panic(fmt.Sprintf("negotiate: invalid negotiator configuration: %v", err))
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{
		mux:          http.NewServeMux(),
		negotiators:  reg,
		decoders:     newDecoderRegistry(cfg.decoders),
		validator:    cfg.validator,
		validators:   &validatorLocator{},
		errorHandler: cfg.errorHandler,
		logger:       logger,
	}
}

func buildRegistry(cfg routerConfig) (*Registry, error) {
	reg := &Registry{}
	for _, def := range cfg.defaults {
		if err := reg.RegisterDefault(def); err != nil {
			return nil, err
		}
	}
	if len(cfg.defaults) == 0 {
		if err := reg.RegisterDefault(JSON()); err != nil {
			return nil, err
		}
	}

	negotiators := cfg.negotiators
	if !cfg.noBuiltins {
		negotiators = append(negotiators, XML(), YAML())
	}
	for _, n := range negotiators {
		if err := reg.Register(n); err != nil {
			return nil, err
		}
	}

	return reg, reg.Validate()
}

// Negotiators returns the router's negotiator registry.
func (r *Router) Negotiators() *Registry { return r.negotiators }

// Logger returns the router's logger.
func (r *Router) Logger() *slog.Logger { return r.logger }

// Routes returns the registered routes as "METHOD /pattern" in registration
// order.
func (r *Router) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

// Use adds middleware to the router. Middleware is applied in the order added.
func (r *Router) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(r.mux)
	for i := len(r.middleware) - 1; i >= 0; i-- {
		handler = r.middleware[i](handler)
	}
	handler.ServeHTTP(w, req)
}

// ListenAndServe starts an HTTP server on the given address.
// It blocks until the context is cancelled, then shuts down gracefully.
func (r *Router) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	r.logger.InfoContext(ctx, "listening", slog.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// addRoute registers a routeInfo with the router's mux. Global middleware
// is applied in ServeHTTP, not here; only module middleware is baked into
// ri.handler.
func (r *Router) addRoute(ri routeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.mux.Handle(ri.method+" "+ri.pattern, ri.handler)
	r.routes = append(r.routes, ri.method+" "+ri.pattern)
}
