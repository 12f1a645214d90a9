package loadable

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rshade/fetchview/internal/logging"
)

// tracerName is the instrumentation scope for fetch spans.
const tracerName = "github.com/rshade/fetchview/internal/loadable"

// defaultLoaderName is used when WithName is not given.
const defaultLoaderName = "default"

// FetchFunc is the injected asynchronous operation. It should honor ctx
// cancellation; returning context.Canceled is treated as "no transition".
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Ticket identifies one fetch attempt between Begin and Complete.
type Ticket struct {
	Generation uint64
	Trigger    Trigger
	TraceID    string

	started time.Time
}

// Option configures a Loader.
type Option func(*options)

type options struct {
	name     string
	observer Observer
	tracer   trace.Tracer
	logger   *zerolog.Logger
	now      func() time.Time
}

// WithName sets the loader name used in logs, spans and metric labels.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithObserver registers an observer for fetch and transition events.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithTracer sets the tracer used for fetch spans. The default is the
// global otel tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithLogger pins the loader to a logger instead of the one carried by each
// call's context.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

// WithClock overrides time.Now for elapsed-time measurement.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Loader owns a lifecycle state slot and drives its transitions.
//
// All transitions are applied under the loader's mutex, so each one is a
// single atomic replacement of the slot and transitions are totally ordered.
// Every Begin takes a new generation; a completion whose generation is no
// longer the latest is dropped, so the most recently issued fetch wins.
type Loader[T any] struct {
	fetch   FetchFunc[T]
	binding Binding[T]
	opts    options

	mu         sync.Mutex
	generation uint64
	closed     bool
}

// New creates a Loader around fetch. A nil binding gets a fresh Slot holding Idle.
func New[T any](fetch FetchFunc[T], binding Binding[T], opts ...Option) (*Loader[T], error) {
	if fetch == nil {
		return nil, ErrNilFetch
	}
	if binding == nil {
		binding = NewSlot(Idle[T]())
	}

	o := options{
		name:     defaultLoaderName,
		observer: NopObserver{},
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Loader[T]{
		fetch:   fetch,
		binding: binding,
		opts:    o,
	}, nil
}

// Name returns the loader name.
func (l *Loader[T]) Name() string {
	return l.opts.name
}

// Binding returns the slot the loader writes to.
func (l *Loader[T]) Binding() Binding[T] {
	return l.binding
}

// Snapshot returns the current state.
func (l *Loader[T]) Snapshot() State[T] {
	return l.binding.Get()
}

// InitialLoad fetches only if the current state is Idle, showing Loading
// first. It returns false without invoking the fetch otherwise.
func (l *Loader[T]) InitialLoad(ctx context.Context) bool {
	_, started := l.run(ctx, TriggerInitial)
	return started
}

// Retry fetches unconditionally, showing Loading first.
func (l *Loader[T]) Retry(ctx context.Context) {
	l.run(ctx, TriggerRetry)
}

// Refresh fetches unconditionally, leaving the current state visible until
// the fetch resolves.
func (l *Loader[T]) Refresh(ctx context.Context) {
	l.run(ctx, TriggerRefresh)
}

// Perform runs one fetch cycle. When showLoading is true the state moves to
// Loading before the fetch is invoked. It blocks until the fetch returns and
// reports the resulting state and whether the outcome was applied. Fetch
// errors are never returned; they become the Failed state.
func (l *Loader[T]) Perform(ctx context.Context, showLoading bool) (State[T], bool) {
	trigger := TriggerRefresh
	if showLoading {
		trigger = TriggerRetry
	}
	return l.run(ctx, trigger)
}

func (l *Loader[T]) run(ctx context.Context, trigger Trigger) (State[T], bool) {
	ticket, ok := l.Begin(ctx, trigger)
	if !ok {
		return l.binding.Get(), false
	}
	value, err := l.Fetch(ctx, ticket)
	applied := l.Complete(ctx, ticket, value, err)
	return l.binding.Get(), applied
}

// Begin starts a fetch attempt: it checks the trigger's guard, takes a new
// generation and, for triggers that show loading, applies Loading before
// returning. It returns false if the loader is closed or the initial-load
// guard rejects the call. Event-loop hosts call Begin on their loop, run
// Fetch elsewhere and hand the result back to Complete on the loop.
func (l *Loader[T]) Begin(ctx context.Context, trigger Trigger) (Ticket, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	log := l.log(ctx)
	if l.closed {
		log.Debug().Ctx(ctx).Str("loader", l.opts.name).Str("trigger", trigger.String()).
			Msg("trigger ignored, loader closed")
		return Ticket{}, false
	}

	current := l.binding.Get()
	if trigger == TriggerInitial && !current.IsIdle() {
		log.Debug().Ctx(ctx).Str("loader", l.opts.name).Str("state", current.TypeName()).
			Msg("initial load skipped, state is not idle")
		return Ticket{}, false
	}

	l.generation++
	ticket := Ticket{
		Generation: l.generation,
		Trigger:    trigger,
		TraceID:    logging.GetOrGenerateTraceID(ctx),
		started:    l.opts.now(),
	}

	l.opts.observer.FetchStarted(l.opts.name, trigger)
	if trigger.ShowsLoading() {
		l.transitionLocked(ctx, ticket, Loading[T]())
	}

	log.Debug().Ctx(ctx).
		Str("loader", l.opts.name).
		Str("trigger", trigger.String()).
		Uint64("generation", ticket.Generation).
		Str("fetch_trace_id", ticket.TraceID).
		Msg("fetch started")

	return ticket, true
}

// Fetch invokes the injected operation for ticket inside a trace span.
// A panic in the operation is recovered and reported as ErrFetchPanicked.
func (l *Loader[T]) Fetch(ctx context.Context, ticket Ticket) (value T, err error) {
	ctx = logging.ContextWithTraceID(ctx, ticket.TraceID)
	ctx, span := l.opts.tracer.Start(ctx, "loadable.fetch",
		trace.WithAttributes(
			attribute.String("loader.name", l.opts.name),
			attribute.String("loader.trigger", ticket.Trigger.String()),
			attribute.Int64("loader.generation", int64(ticket.Generation)), //nolint:gosec // Generation counts fetches.
		),
	)
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = fmt.Errorf("%w: %v", ErrFetchPanicked, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	return l.fetch(ctx)
}

// Complete applies the outcome of the fetch started with ticket. The outcome
// is dropped, and false returned, when the loader is closed, when ctx is done
// or the fetch reported context.Canceled, or when a newer Begin has superseded
// ticket. Otherwise the state becomes Loaded(value) or Failed(err).
func (l *Loader[T]) Complete(ctx context.Context, ticket Ticket, value T, err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := l.opts.now().Sub(ticket.started)
	outcome := l.classifyLocked(ctx, ticket, err)
	defer l.opts.observer.FetchFinished(l.opts.name, ticket.Trigger, outcome, elapsed)

	log := l.log(ctx)
	switch outcome {
	case OutcomeSuccess:
		l.transitionLocked(ctx, ticket, Loaded(value))
		log.Debug().Ctx(ctx).Str("loader", l.opts.name).Dur("elapsed", elapsed).
			Str("fetch_trace_id", ticket.TraceID).Msg("fetch succeeded")
		return true
	case OutcomeFailure:
		l.transitionLocked(ctx, ticket, Failed[T](err))
		log.Warn().Ctx(ctx).Str("loader", l.opts.name).Dur("elapsed", elapsed).
			Str("fetch_trace_id", ticket.TraceID).Err(err).Msg("fetch failed")
		return true
	case OutcomeCancelled, OutcomeSuperseded, OutcomeClosed:
		log.Debug().Ctx(ctx).Str("loader", l.opts.name).Str("outcome", string(outcome)).
			Uint64("generation", ticket.Generation).Uint64("latest", l.generation).
			Str("fetch_trace_id", ticket.TraceID).Msg("fetch result dropped")
		return false
	default:
		return false
	}
}

func (l *Loader[T]) classifyLocked(ctx context.Context, ticket Ticket, err error) Outcome {
	switch {
	case l.closed:
		return OutcomeClosed
	case isCancellation(ctx, err):
		return OutcomeCancelled
	case ticket.Generation != l.generation:
		return OutcomeSuperseded
	case err != nil:
		return OutcomeFailure
	default:
		return OutcomeSuccess
	}
}

// transitionLocked replaces the slot value. Must be called with l.mu held.
func (l *Loader[T]) transitionLocked(ctx context.Context, ticket Ticket, next State[T]) {
	from := l.binding.Get().Kind()
	l.binding.Set(next)
	l.opts.observer.Transitioned(l.opts.name, from, next.Kind())
	l.log(ctx).Debug().Ctx(ctx).
		Str("loader", l.opts.name).
		Str("from", from.String()).
		Str("to", next.TypeName()).
		Uint64("generation", ticket.Generation).
		Msg("state transition")
}

// Close disposes the loader. Later triggers are refused and results of
// fetches still in flight are dropped. Close is idempotent.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// Closed reports whether Close has been called.
func (l *Loader[T]) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loader[T]) log(ctx context.Context) *zerolog.Logger {
	if l.opts.logger != nil {
		return l.opts.logger
	}
	return logging.FromContext(ctx)
}
