// Package app is the composition root: it binds the stage, frame clock,
// updateable registry, event channel and state orchestrator into the public
// application surface.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/gamey/internal/clock"
	"github.com/Faultbox/gamey/internal/config"
	"github.com/Faultbox/gamey/internal/event"
	"github.com/Faultbox/gamey/internal/features"
	"github.com/Faultbox/gamey/internal/frame"
	"github.com/Faultbox/gamey/internal/metrics"
	"github.com/Faultbox/gamey/internal/scene"
	"github.com/Faultbox/gamey/internal/states"
)

// App is the application instance. The embedded dispatcher provides On,
// Once, Off, Has, Dispatch and ClearHandlers.
type App struct {
	*event.Dispatcher

	cfg     *config.Config
	logger  *zap.Logger
	stage   *scene.Stage
	view    *scene.Container
	ticker  *clock.Ticker
	reg     *frame.Registry
	driver  *frame.Driver
	fsm     *states.Orchestrator[features.Game]
	metrics *metrics.Collector
	debug   atomic.Bool

	// frames is held by every frame pass and by each state step, so the
	// clock goroutine never updates features mid-transition.
	frames sync.Mutex
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithMetrics reports transitions and frames to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(a *App) { a.metrics = c }
}

// New builds an application from cfg and the feature factory map. The app
// starts in the incept state; call Lobby to bring up the first feature.
func New(cfg *config.Config, factories states.Factories[features.Game], opts ...Option) (*App, error) {
	a := &App{
		Dispatcher: event.NewDispatcher(),
		cfg:        cfg,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.debug.Store(cfg.App.Debug)

	a.stage = scene.NewStage(cfg.App.Width, cfg.App.Height, a.logger.Named("scene"))
	a.view = scene.NewContainer("app")
	a.stage.Root.AddChild(a.view)

	a.ticker = clock.New(cfg.App.FrameRate)
	a.reg = frame.NewRegistry()

	var driverOpts []frame.DriverOption
	if a.metrics != nil {
		driverOpts = append(driverOpts, frame.WithObserver(a.metrics))
		a.On(event.StateChange, a.metrics.Observe)
	}
	a.driver = frame.NewDriver(a.stage, a.reg, driverOpts...)

	fsm, err := states.New[features.Game](a, factories,
		states.WithLogger(a.logger.Named("states")),
		states.WithNotifier(a.Dispatcher),
		states.WithFrameLock(&a.frames),
	)
	if err != nil {
		return nil, fmt.Errorf("create state machine: %w", err)
	}
	a.fsm = fsm

	a.logger.Info("app created",
		zap.String("title", cfg.App.Title),
		zap.Int("width", cfg.App.Width),
		zap.Int("height", cfg.App.Height),
		zap.Int("fps", cfg.App.FrameRate))
	return a, nil
}

// StateName returns the current run-state name.
func (a *App) StateName() string {
	return a.fsm.StateName()
}

// State returns the current run-state.
func (a *App) State() states.State {
	return a.fsm.Current()
}

// Lobby transitions to the lobby.
func (a *App) Lobby(ctx context.Context, data any) error {
	return a.transition(ctx, states.TransitionLobby, data)
}

// Init transitions to initializing without continuing into playing.
func (a *App) Init(ctx context.Context, data any) error {
	return a.transition(ctx, states.TransitionInit, data)
}

// Play starts or resumes the game.
func (a *App) Play(ctx context.Context, data any) error {
	return a.transition(ctx, states.TransitionPlay, data)
}

// Pause pauses a running game.
func (a *App) Pause(ctx context.Context, data any) error {
	return a.transition(ctx, states.TransitionPause, data)
}

// Unpause resumes a paused game.
func (a *App) Unpause(ctx context.Context, data any) error {
	return a.transition(ctx, states.TransitionUnpause, data)
}

// End finishes the game.
func (a *App) End(ctx context.Context, data any) error {
	return a.transition(ctx, states.TransitionEnd, data)
}

// Transition fires a transition by name.
func (a *App) Transition(ctx context.Context, name string, data any) error {
	t, err := states.ParseTransition(name)
	if err != nil {
		return err
	}
	return a.transition(ctx, t, data)
}

// SetState moves straight to s, bypassing the transition table.
func (a *App) SetState(ctx context.Context, s states.State, data any) error {
	ctx, cancel := a.queueContext(ctx)
	defer cancel()
	return a.fsm.SetState(ctx, s, data)
}

func (a *App) transition(ctx context.Context, t states.Transition, data any) error {
	ctx, cancel := a.queueContext(ctx)
	defer cancel()
	return a.fsm.Transition(ctx, t, data)
}

// queueContext bounds how long a caller waits behind an in-flight
// transition. The transition itself is never cut short.
func (a *App) queueContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := a.cfg.Transitions.QueueTimeout; d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return ctx, func() {}
}

// Feature returns the live feature for s.
func (a *App) Feature(s states.State) (states.Feature, bool) {
	return a.fsm.Feature(s)
}

// AddUpdateable registers u for per-frame updates.
func (a *App) AddUpdateable(u frame.Updateable) {
	a.reg.Add(u)
	a.observeUpdateables()
}

// RemoveUpdateable unregisters u.
func (a *App) RemoveUpdateable(u frame.Updateable) {
	a.reg.Remove(u)
	a.observeUpdateables()
}

func (a *App) observeUpdateables() {
	if a.metrics != nil {
		a.metrics.SetUpdateables(a.reg.Count())
	}
}

// NumUpdateables returns the number of registered updateables.
func (a *App) NumUpdateables() int {
	return a.reg.Count()
}

// Update runs one frame: redraw, then every updateable. It waits for an
// in-flight state step, so features must not call it from Enter or Exit.
func (a *App) Update() {
	a.frames.Lock()
	defer a.frames.Unlock()
	a.driver.OnFrame()
}

// HandleTick is the frame clock handler features subscribe with.
func (a *App) HandleTick(clock.Tick) {
	a.Update()
}

// Resize changes the canvas size, lets live features reposition, and
// redraws immediately.
func (a *App) Resize(width, height int) {
	a.frames.Lock()
	defer a.frames.Unlock()

	a.stage.Resize(width, height)

	a.fsm.Each(func(s states.State, f states.Feature) {
		if l, ok := f.(states.Liquifier); ok {
			l.Liquify()
			return
		}
		f.View().Liquify()
	})
	a.driver.OnFrame()
}

// SetDebug toggles debug output.
func (a *App) SetDebug(on bool) {
	a.debug.Store(on)
}

// Debug reports whether debug output is on.
func (a *App) Debug() bool {
	return a.debug.Load()
}

// View returns the container features attach their assets to.
func (a *App) View() *scene.Container {
	return a.view
}

// Stage returns the scene root.
func (a *App) Stage() *scene.Stage {
	return a.stage
}

// Clock returns the frame clock.
func (a *App) Clock() *clock.Ticker {
	return a.ticker
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Run drives the frame clock until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("frame clock started", zap.Duration("interval", a.ticker.Interval()))
	err := a.ticker.Run(ctx)
	a.logger.Info("frame clock stopped")
	return err
}

// Close tears down every live feature and drops remaining handlers. Like a
// transition, it waits at most transitions.queue_timeout for the pipeline.
func (a *App) Close(ctx context.Context) error {
	ctx, cancel := a.queueContext(ctx)
	defer cancel()

	err := a.fsm.Shutdown(ctx)
	if n := a.reg.Count(); n > 0 {
		a.logger.Warn("updateables left registered after shutdown", zap.Int("count", n))
	}
	a.ClearHandlers()
	a.logger.Info("app closed", zap.Uint64("frames", a.stage.Frames()))
	if err != nil {
		return fmt.Errorf("shutdown features: %w", err)
	}
	return nil
}
