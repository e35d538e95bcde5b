package states

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Faultbox/gamey/internal/event"
)

var (
	ErrUnknownState      = errors.New("unknown state")
	ErrUnknownTransition = errors.New("unknown transition")
	ErrNoFactory         = errors.New("no factory registered")
	ErrFeatureLive       = errors.New("feature already live")
	ErrNestedTransition  = errors.New("transition requested from inside a transition")
)

func missingFactory(s State) error {
	return fmt.Errorf("%w for state %s", ErrNoFactory, s)
}

const tracerName = "github.com/Faultbox/gamey/internal/states"

// Change is the Data of a stateChange event.
type Change struct {
	From State
	To   State
	Data any
}

// Notifier receives lifecycle events. *event.Dispatcher implements it.
type Notifier interface {
	Dispatch(e event.Event)
}

type options struct {
	logger         *zap.Logger
	notifier       Notifier
	tracerProvider trace.TracerProvider
	frames         sync.Locker
}

// Option configures an Orchestrator.
type Option func(*options)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithNotifier sets where stateChange events are dispatched.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithFrameLock sets the lock the frame driver holds while updating. Each
// exit -> swap -> enter step and Shutdown hold it too, so no frame runs in
// the middle of a step.
func WithFrameLock(l sync.Locker) Option {
	return func(o *options) { o.frames = l }
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

// pipelineKey marks contexts handed to features while a transition runs.
type pipelineKey struct{}

// Orchestrator owns the current state and the live feature of every state.
//
// Transitions are serialized: a call made while another transition runs
// waits its turn (or gives up when its context ends) and is then resolved
// against the state the earlier one left behind. Once a transition starts it
// runs to completion; features get a context that is never cancelled.
//
// stateChange events are dispatched once the pipeline is released, one per
// completed swap and in swap order, so a handler may call the next
// transition directly. While another caller is delivering (a handler's own
// nested call included) a call returns before its events are dispatched;
// the delivering caller dispatches them next.
type Orchestrator[H any] struct {
	host      H
	factories Factories[H]
	notifier  Notifier
	logger    *zap.Logger
	tracer    trace.Tracer
	pipeline  *semaphore.Weighted
	frames    sync.Locker

	mu      sync.RWMutex
	current State
	live    map[State]Feature

	outMu      sync.Mutex
	outbox     []Change
	delivering bool
}

// New creates an orchestrator in the Incept state. It fails with
// ErrNoFactory unless every managed state has both builders.
func New[H any](host H, factories Factories[H], opts ...Option) (*Orchestrator[H], error) {
	if err := factories.Validate(); err != nil {
		return nil, err
	}

	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.frames == nil {
		cfg.frames = noLock{}
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = otel.GetTracerProvider()
	}

	owned := make(Factories[H], len(factories))
	for s, f := range factories {
		owned[s] = f
	}

	return &Orchestrator[H]{
		host:      host,
		factories: owned,
		notifier:  cfg.notifier,
		logger:    cfg.logger,
		tracer:    cfg.tracerProvider.Tracer(tracerName),
		pipeline:  semaphore.NewWeighted(1),
		frames:    cfg.frames,
		current:   Incept,
		live:      make(map[State]Feature),
	}, nil
}

// Current returns the current state.
func (o *Orchestrator[H]) Current() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}

// StateName returns the current state's name.
func (o *Orchestrator[H]) StateName() string {
	return o.Current().String()
}

// Feature returns the live feature registered for s.
func (o *Orchestrator[H]) Feature(s State) (Feature, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	f, ok := o.live[s]
	return f, ok
}

// Live returns the states that currently hold a feature.
func (o *Orchestrator[H]) Live() []State {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var out []State
	for _, s := range Managed {
		if _, ok := o.live[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Each calls fn for every live feature.
func (o *Orchestrator[H]) Each(fn func(State, Feature)) {
	for _, s := range o.Live() {
		if f, ok := o.Feature(s); ok {
			fn(s, f)
		}
	}
}

// Lobby fires the lobby transition.
func (o *Orchestrator[H]) Lobby(ctx context.Context, data any) error {
	return o.Transition(ctx, TransitionLobby, data)
}

// Init fires the init transition, stopping in initializing.
func (o *Orchestrator[H]) Init(ctx context.Context, data any) error {
	return o.Transition(ctx, TransitionInit, data)
}

// Play fires the play transition. From lobby or end it passes through
// initializing and returns once playing has been entered.
func (o *Orchestrator[H]) Play(ctx context.Context, data any) error {
	return o.Transition(ctx, TransitionPlay, data)
}

// Pause fires the pause transition.
func (o *Orchestrator[H]) Pause(ctx context.Context, data any) error {
	return o.Transition(ctx, TransitionPause, data)
}

// Unpause fires the unpause transition.
func (o *Orchestrator[H]) Unpause(ctx context.Context, data any) error {
	return o.Transition(ctx, TransitionUnpause, data)
}

// End fires the end transition.
func (o *Orchestrator[H]) End(ctx context.Context, data any) error {
	return o.Transition(ctx, TransitionEnd, data)
}

// Transition fires name from the current state. When the current state has
// no handler for name it returns nil without side effects. Otherwise it
// returns after the outgoing feature has exited and the incoming one (and
// any chained state) has entered. The stateChange events for those swaps
// are dispatched before it returns unless another caller is delivering.
func (o *Orchestrator[H]) Transition(ctx context.Context, name Transition, data any) error {
	if _, err := ParseTransition(string(name)); err != nil {
		return err
	}

	return o.pipelined(ctx, string(name), func(ctx context.Context) ([]Change, error) {
		var changes []Change
		for name != "" {
			from := o.Current()
			r, ok := table[edge{from, name}]
			if !ok {
				o.logger.Debug("transition ignored",
					zap.Stringer("state", from),
					zap.String("transition", string(name)))
				break
			}
			if err := o.setState(ctx, name, r.to, data); err != nil {
				return changes, err
			}
			changes = append(changes, Change{From: from, To: r.to, Data: data})
			name = r.chain
		}
		return changes, nil
	})
}

// SetState moves straight to the given state, bypassing the transition
// table: exit of the current state settles, the pointer is swapped, then
// the target is entered.
func (o *Orchestrator[H]) SetState(ctx context.Context, to State, data any) error {
	if to <= Incept || to > End {
		return fmt.Errorf("%w: cannot enter %s", ErrUnknownState, to)
	}

	return o.pipelined(ctx, "setState", func(ctx context.Context) ([]Change, error) {
		from := o.Current()
		if err := o.setState(ctx, "", to, data); err != nil {
			return nil, err
		}
		return []Change{{From: from, To: to, Data: data}}, nil
	})
}

// pipelined runs fn while holding the pipeline, then delivers the swaps it
// completed. Handlers run after the pipeline is released, so they may start
// the next transition themselves.
func (o *Orchestrator[H]) pipelined(ctx context.Context, what string, fn func(context.Context) ([]Change, error)) error {
	err := o.hold(ctx, what, fn)
	o.deliver()
	return err
}

// hold queues the completed swaps before releasing the pipeline, so the
// outbox is always in swap order.
func (o *Orchestrator[H]) hold(ctx context.Context, what string, fn func(context.Context) ([]Change, error)) error {
	ctx, release, err := o.acquire(ctx, what)
	if err != nil {
		return err
	}
	defer release()

	changes, err := fn(ctx)
	if o.notifier != nil && len(changes) > 0 {
		o.outMu.Lock()
		o.outbox = append(o.outbox, changes...)
		o.outMu.Unlock()
	}
	return err
}

func (o *Orchestrator[H]) acquire(ctx context.Context, what string) (context.Context, func(), error) {
	if ctx.Value(pipelineKey{}) == any(o) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNestedTransition, what)
	}
	if err := o.pipeline.Acquire(ctx, 1); err != nil {
		return nil, nil, fmt.Errorf("waiting for %s: %w", what, err)
	}
	ctx = context.WithValue(context.WithoutCancel(ctx), pipelineKey{}, any(o))
	return ctx, func() { o.pipeline.Release(1) }, nil
}

// deliver dispatches queued stateChange events until the outbox is empty.
// Only one caller delivers at a time; a transition started by a handler
// leaves its events to the caller already delivering, which keeps the
// overall order.
func (o *Orchestrator[H]) deliver() {
	o.outMu.Lock()
	if o.delivering {
		o.outMu.Unlock()
		return
	}
	o.delivering = true
	for len(o.outbox) > 0 {
		ch := o.outbox[0]
		o.outbox = o.outbox[1:]
		o.outMu.Unlock()

		o.notifier.Dispatch(event.Event{
			Type:   event.StateChange,
			Target: o,
			Data:   ch,
		})

		o.outMu.Lock()
	}
	o.delivering = false
	o.outMu.Unlock()
}

// setState is the exit -> swap -> enter sequence. The caller holds the
// pipeline; frames are held off for the whole step.
func (o *Orchestrator[H]) setState(ctx context.Context, name Transition, to State, data any) (err error) {
	from := o.Current()

	ctx, span := o.tracer.Start(ctx, "states.SetState", trace.WithAttributes(
		attribute.String("state.from", from.String()),
		attribute.String("state.to", to.String()),
		attribute.String("state.transition", string(name)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	o.frames.Lock()
	defer o.frames.Unlock()

	if err := o.exit(ctx, from, to); err != nil {
		o.logger.Error("exit failed", zap.Stringer("state", from), zap.Error(err))
		return fmt.Errorf("exit %s: %w", from, err)
	}

	o.mu.Lock()
	o.current = to
	o.mu.Unlock()

	if err := o.enter(ctx, to, from, data); err != nil {
		// the pointer stays on to; rollback is left to the caller
		o.logger.Error("enter failed", zap.Stringer("state", to), zap.Error(err))
		return fmt.Errorf("enter %s: %w", to, err)
	}

	o.logger.Info("state changed",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("transition", string(name)))
	return nil
}

// exit releases what from owns before moving to to. Playing survives a
// pause; it is torn down by whichever of playing or paused ends the game.
func (o *Orchestrator[H]) exit(ctx context.Context, from, to State) error {
	switch from {
	case Playing:
		if to == Paused {
			return o.suspend(ctx, Playing)
		}
		return o.unmount(ctx, Playing)
	case Paused:
		if err := o.unmount(ctx, Paused); err != nil {
			return err
		}
		if to != Playing {
			return o.unmount(ctx, Playing)
		}
		return nil
	default:
		return o.unmount(ctx, from)
	}
}

// enter brings up the feature for to.
func (o *Orchestrator[H]) enter(ctx context.Context, to, from State, data any) error {
	if to == Playing && from == Paused {
		if _, ok := o.Feature(Playing); ok {
			return o.resume(ctx, Playing)
		}
	}
	return o.mount(ctx, to, data)
}

// mount builds the view and feature for s, registers it, then enters it.
func (o *Orchestrator[H]) mount(ctx context.Context, s State, data any) error {
	fac, ok := o.factories[s]
	if !ok {
		return missingFactory(s)
	}
	if _, live := o.Feature(s); live {
		return fmt.Errorf("%w: %s", ErrFeatureLive, s)
	}

	view := fac.View(o.host)
	feature := fac.Feature(view, o.host, data)
	if feature == nil {
		return fmt.Errorf("factory for %s returned no feature", s)
	}

	o.mu.Lock()
	o.live[s] = feature
	o.mu.Unlock()

	o.logger.Debug("feature created", zap.Stringer("state", s))
	return feature.Enter(ctx)
}

// unmount exits, destroys and unregisters the feature for s, in that order.
// A state without a feature exits trivially.
func (o *Orchestrator[H]) unmount(ctx context.Context, s State) error {
	feature, ok := o.Feature(s)
	if !ok {
		return nil
	}

	if err := feature.Exit(ctx); err != nil {
		return err
	}
	feature.Destroy()

	o.mu.Lock()
	delete(o.live, s)
	o.mu.Unlock()

	o.logger.Debug("feature destroyed", zap.Stringer("state", s))
	return nil
}

func (o *Orchestrator[H]) suspend(ctx context.Context, s State) error {
	feature, ok := o.Feature(s)
	if !ok {
		return nil
	}
	if p, ok := feature.(Pausable); ok {
		return p.Pause(ctx)
	}
	return nil
}

func (o *Orchestrator[H]) resume(ctx context.Context, s State) error {
	feature, _ := o.Feature(s)
	if p, ok := feature.(Pausable); ok {
		return p.Resume(ctx)
	}
	return nil
}

// Shutdown exits and destroys every live feature, newest state first, and
// resets to Incept. Features are destroyed even when Exit fails; all errors
// are returned together.
func (o *Orchestrator[H]) Shutdown(ctx context.Context) error {
	ctx, release, err := o.acquire(ctx, "shutdown")
	if err != nil {
		return err
	}
	defer release()

	o.frames.Lock()
	defer o.frames.Unlock()

	live := o.Live()
	var errs error
	for i := len(live) - 1; i >= 0; i-- {
		s := live[i]
		feature, _ := o.Feature(s)
		if err := feature.Exit(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("exit %s: %w", s, err))
		}
		feature.Destroy()

		o.mu.Lock()
		delete(o.live, s)
		o.mu.Unlock()
	}

	o.mu.Lock()
	o.current = Incept
	o.mu.Unlock()

	o.logger.Info("orchestrator shut down", zap.Int("features", len(live)))
	return errs
}
