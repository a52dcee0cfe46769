package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/debrief"
	"github.com/aretw0/debrief/internal/config"
	"github.com/aretw0/debrief/pkg/adapters/file"
	"github.com/aretw0/debrief/pkg/adapters/langchain"
	"github.com/aretw0/debrief/pkg/adapters/memory"
	"github.com/aretw0/debrief/pkg/adapters/redis"
	"github.com/aretw0/debrief/pkg/adapters/scripted"
	"github.com/aretw0/debrief/pkg/adapters/sqlite"
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/aretw0/debrief/pkg/observability"
	"github.com/aretw0/debrief/pkg/persistence/middleware"
	"github.com/aretw0/debrief/pkg/ports"
)

// App bundles a configured coach with the resources it owns.
type App struct {
	Coach   *debrief.Coach
	Metrics *observability.Metrics
	Store   ports.StateStore
	Logger  *slog.Logger

	closers []func() error
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// NewApp wires the gateway, store, summary sink and hooks described by cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Logger: logger, Metrics: observability.NewMetrics()}

	script, err := config.LoadScript(cfg.Script.Path)
	if err != nil {
		return nil, err
	}

	gateway, err := NewGateway(cfg.Model, logger)
	if err != nil {
		return nil, err
	}

	stack, err := newBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if stack.close != nil {
		app.closers = append(app.closers, stack.close)
	}
	store, err := protectStore(stack.store, cfg.Store)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	opts := []debrief.Option{
		debrief.WithScript(script),
		debrief.WithStore(store),
		debrief.WithSummarySink(stack.sink),
		debrief.WithLogger(logger),
		debrief.WithLifecycleHooks(observability.Chain(
			observability.LoggingHooks(logger),
			app.Metrics.Hooks(),
		)),
	}
	if stack.locker != nil {
		opts = append(opts, debrief.WithLocker(stack.locker, cfg.Store.LockTTL))
	}

	coach, err := debrief.New(gateway, opts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Coach = coach
	return app, nil
}

// NewGateway builds the model gateway for the configured provider.
func NewGateway(cfg config.ModelConfig, logger *slog.Logger) (ports.ModelGateway, error) {
	if strings.EqualFold(cfg.Provider, config.ProviderScripted) {
		return scripted.New(), nil
	}

	model, err := langchain.NewModel(langchain.ProviderConfig{
		Provider: cfg.Provider,
		Model:    cfg.Name,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	opts := []langchain.Option{
		langchain.WithTimeout(cfg.Timeout),
		langchain.WithTemperature(cfg.Temperature),
		langchain.WithLogger(logger),
	}
	if cfg.ExampleFlow != "" {
		flow, err := langchain.LoadExampleFlow(cfg.ExampleFlow)
		if err != nil {
			return nil, err
		}
		opts = append(opts, langchain.WithExampleFlow(flow))
	}
	return langchain.New(model, opts...), nil
}

// Built-in redaction patterns, selectable by name in store.redact.
var redactAliases = map[string]string{
	"email": middleware.EmailPattern,
	"phone": middleware.PhonePattern,
}

// protectStore applies redaction, then encryption, to states written to store.
func protectStore(store ports.StateStore, cfg config.StoreConfig) (ports.StateStore, error) {
	var mws []middleware.Middleware

	if len(cfg.Redact) > 0 {
		patterns := make([]string, len(cfg.Redact))
		for i, p := range cfg.Redact {
			if alias, ok := redactAliases[strings.ToLower(p)]; ok {
				p = alias
			}
			patterns[i] = p
		}
		pii, err := middleware.NewPIIMiddleware(patterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}

	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}

	return middleware.Chain(store, mws...), nil
}

type backend struct {
	store  ports.StateStore
	sink   ports.SummarySink
	locker ports.DistributedLocker
	close  func() error
}

func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	switch strings.ToLower(cfg.Store.Driver) {
	case config.DriverRedis:
		client, err := redis.NewClient(cfg.Store.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Debug("using redis store", "prefix", cfg.Store.Prefix)
		return &backend{
			store:  redis.NewFromClient(client, redis.WithPrefix(cfg.Store.Prefix), redis.WithTTL(cfg.Store.TTL)),
			sink:   redis.NewSummarySink(client, cfg.Store.Prefix),
			locker: redis.NewLocker(client, cfg.Store.Prefix),
			close:  client.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Debug("using sqlite store", "path", cfg.Store.SQLitePath)
		return &backend{store: db, sink: db, close: db.Close}, nil

	case config.DriverMemory:
		return &backend{store: memory.NewStore(), sink: summarySink(cfg.Summary)}, nil
	}

	logger.Debug("using file store", "dir", cfg.Store.Dir)
	return &backend{store: file.New(cfg.Store.Dir), sink: summarySink(cfg.Summary)}, nil
}

// summarySink returns the file based sink for the memory and file drivers.
// The single-file sink is mirrored in memory so the summary can be shown after the session ends.
func summarySink(cfg config.SummaryConfig) ports.SummarySink {
	if cfg.PerSession {
		return file.NewSummaryDir(cfg.Dir)
	}
	return &mirroredSink{primary: file.NewSummaryFile(cfg.Path), SummarySink: memory.NewSummarySink()}
}

type mirroredSink struct {
	primary ports.SummarySink
	*memory.SummarySink
}

func (s *mirroredSink) Persist(ctx context.Context, sessionID string, summary domain.Summary) error {
	if err := s.primary.Persist(ctx, sessionID, summary); err != nil {
		return err
	}
	return s.SummarySink.Persist(ctx, sessionID, summary)
}
