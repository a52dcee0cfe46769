package debrief

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/debrief/internal/logging"
	"github.com/aretw0/debrief/internal/runtime"
	"github.com/aretw0/debrief/pkg/adapters/memory"
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/aretw0/debrief/pkg/ports"
	"github.com/aretw0/debrief/pkg/session"
	"github.com/google/uuid"
)

// View is the presentation projection of a session.
type View = domain.View

// ErrSummaryUnavailable is returned by Summary when the configured sink cannot read summaries back.
var ErrSummaryUnavailable = errors.New("summary sink is write-only")

// Coach is the high-level entry point of the library.
// It hosts any number of sessions addressed by ID; each call runs one turn under the session lock.
type Coach struct {
	engine   *runtime.Engine
	sessions *session.Manager

	script  domain.Script
	store   ports.StateStore
	sink    ports.SummarySink
	locker  ports.DistributedLocker
	lockTTL time.Duration
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

var _ ports.Conversation = (*Coach)(nil)

// Option defines a functional option for configuring the Coach.
type Option func(*Coach)

// WithScript replaces the built-in reflection script.
func WithScript(script domain.Script) Option {
	return func(c *Coach) {
		c.script = script
	}
}

// WithStore sets where session states are kept (default: in memory).
func WithStore(store ports.StateStore) Option {
	return func(c *Coach) {
		c.store = store
	}
}

// WithSummarySink sets where session summaries are persisted (default: in memory).
func WithSummarySink(sink ports.SummarySink) Option {
	return func(c *Coach) {
		c.sink = sink
	}
}

// WithLocker enables distributed session locking, for several replicas sharing a store.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(c *Coach) {
		c.locker = locker
		c.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coach) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Coach) {
		c.hooks = hooks
	}
}

// New initializes a Coach driven by the given model gateway.
func New(gateway ports.ModelGateway, opts ...Option) (*Coach, error) {
	if gateway == nil {
		return nil, fmt.Errorf("a model gateway is required")
	}

	c := &Coach{script: domain.DefaultScript()}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.script.Validate(); err != nil {
		return nil, err
	}
	if c.store == nil {
		c.store = memory.NewStore()
	}
	if c.sink == nil {
		c.sink = memory.NewSummarySink()
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}

	c.engine = runtime.NewEngine(gateway, c.sink,
		runtime.WithScript(c.script),
		runtime.WithLogger(c.logger),
		runtime.WithLifecycleHooks(c.hooks),
	)

	managerOpts := []session.Option{session.WithLogger(c.logger)}
	if c.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(c.locker), session.WithLockTTL(c.lockTTL))
	}
	c.sessions = session.NewManager(c.store, managerOpts...)

	return c, nil
}

// Script returns the script driving the sessions.
func (c *Coach) Script() domain.Script {
	return c.script
}

// Open loads a session or creates it with its first question. An empty ID gets a generated one.
func (c *Coach) Open(ctx context.Context, sessionID string) (*View, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	state, err := c.sessions.LoadOrCreate(ctx, sessionID, func(ctx context.Context, s *domain.State) *domain.State {
		c.logger.InfoContext(ctx, "session opened", "session_id", sessionID)
		return c.engine.Start(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	if len(state.Transcript) == 0 {
		// Created by another writer without its first question.
		return c.turn(ctx, sessionID, func(ctx context.Context, s *domain.State) (*domain.State, error) {
			return c.engine.Start(ctx, s), nil
		})
	}
	return c.engine.View(state), nil
}

// Send submits a free-text user message.
func (c *Coach) Send(ctx context.Context, sessionID, text string) (*View, error) {
	return c.turn(ctx, sessionID, func(ctx context.Context, s *domain.State) (*domain.State, error) {
		return c.engine.Submit(ctx, s, text)
	})
}

// Answer submits a yes/no button click.
func (c *Coach) Answer(ctx context.Context, sessionID string, yes bool) (*View, error) {
	return c.turn(ctx, sessionID, func(ctx context.Context, s *domain.State) (*domain.State, error) {
		return c.engine.SubmitYesNo(ctx, s, yes)
	})
}

// Retry re-runs a turn whose model call failed.
func (c *Coach) Retry(ctx context.Context, sessionID string) (*View, error) {
	return c.turn(ctx, sessionID, c.engine.Retry)
}

// End terminates the session and persists its summary.
func (c *Coach) End(ctx context.Context, sessionID string) (*View, error) {
	return c.turn(ctx, sessionID, c.engine.End)
}

// Get returns the current view of a session.
func (c *Coach) Get(ctx context.Context, sessionID string) (*View, error) {
	state, err := c.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return c.engine.View(state), nil
}

// Sessions lists the stored session IDs.
func (c *Coach) Sessions(ctx context.Context) ([]string, error) {
	return c.sessions.List(ctx)
}

// Delete removes a session.
func (c *Coach) Delete(ctx context.Context, sessionID string) error {
	return c.sessions.Delete(ctx, sessionID)
}

// Summary returns the persisted summary of an ended session.
func (c *Coach) Summary(ctx context.Context, sessionID string) (domain.Summary, error) {
	reader, ok := c.sink.(ports.SummaryReader)
	if !ok {
		return domain.Summary{}, ErrSummaryUnavailable
	}
	return reader.Summary(ctx, sessionID)
}

// turn runs one engine operation under the session lock. The resulting state is
// saved even when the operation fails, and its view is returned alongside the error.
func (c *Coach) turn(ctx context.Context, sessionID string, op func(context.Context, *domain.State) (*domain.State, error)) (*View, error) {
	state, err := c.sessions.Update(ctx, sessionID, func(ctx context.Context, s *domain.State) (*domain.State, error) {
		if err := s.Validate(c.script.Len()); err != nil {
			return nil, fmt.Errorf("session %s: %w", sessionID, err)
		}
		return op(ctx, s)
	})
	if state == nil {
		return nil, err
	}
	if err != nil {
		c.logger.WarnContext(ctx, "turn failed", "session_id", sessionID, "err", err)
	}
	return c.engine.View(state), err
}
