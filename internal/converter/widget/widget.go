package widget

import (
	"context"
	"github.com/langowen/converter/internal/converter/metrics"
	"github.com/langowen/converter/internal/entities"
	"github.com/pkg/errors"
	"log/slog"
	"sync"
	"time"
)

// RateFetcher loads the full rate table quoted against base.
type RateFetcher interface {
	Latest(ctx context.Context, base string) (*entities.RateTable, error)
}

type Options struct {
	DefaultFrom  string
	DefaultTo    string
	FetchTimeout time.Duration
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// Widget is one mounted currency converter. Inputs may be changed while a
// fetch is in flight; only the most recently started fetch may write the
// rate table or the error.
type Widget struct {
	fetcher RateFetcher
	timeout time.Duration
	metrics *metrics.Metrics
	log     *slog.Logger

	mu      sync.Mutex
	base    context.Context
	mounted bool
	closed  bool

	amount string
	from   string
	to     string
	state  fetchState
	result *entities.Conversion

	generation uint64
	cancel     context.CancelFunc
	pending    int
	settled    chan struct{}
}

func New(fetcher RateFetcher, opts Options) *Widget {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	settled := make(chan struct{})
	close(settled)

	return &Widget{
		fetcher: fetcher,
		timeout: opts.FetchTimeout,
		metrics: opts.Metrics,
		log:     logger,
		from:    NormalizeCode(opts.DefaultFrom),
		to:      NormalizeCode(opts.DefaultTo),
		state:   idle(),
		settled: settled,
	}
}

// Mount starts the initial fetch for the default source code. ctx bounds
// every fetch the widget makes; canceling it aborts them.
func (w *Widget) Mount(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return entities.ErrSessionClosed
	}
	if w.mounted {
		return nil
	}

	w.base = ctx
	w.mounted = true
	w.startFetchLocked()

	return nil
}

// Close unmounts the widget and aborts any fetch in flight.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	w.generation++
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *Widget) SetAmount(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return entities.ErrSessionClosed
	}
	w.amount = text
	return nil
}

func (w *Widget) SetTo(code string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return entities.ErrSessionClosed
	}
	w.to = NormalizeCode(code)
	return nil
}

// SetFrom changes the source code and, when it actually changed, starts
// exactly one new fetch. It reports whether a fetch was started.
func (w *Widget) SetFrom(code string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false, entities.ErrSessionClosed
	}

	code = NormalizeCode(code)
	if code == w.from {
		return false, nil
	}
	w.from = code

	if !w.mounted {
		return false, nil
	}
	w.startFetchLocked()

	return true, nil
}

// Refresh refetches the table for the current source code.
func (w *Widget) Refresh() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return entities.ErrSessionClosed
	}
	if !w.mounted {
		return nil
	}
	w.startFetchLocked()

	return nil
}

// Convert computes amount × rate for the current inputs. Rejections leave the
// stored result untouched and never trigger a fetch.
func (w *Widget) Convert() (entities.Conversion, error) {
	const op = "widget.Convert"

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return entities.Conversion{}, entities.ErrSessionClosed
	}

	amount, err := ParseAmount(w.amount)
	if err != nil {
		w.metrics.Conversion("invalid_amount")
		return entities.Conversion{}, errors.Wrap(err, op)
	}

	if w.state.phase == PhaseLoading {
		w.metrics.Conversion("rate_unavailable")
		return entities.Conversion{}, entities.NewError(
			entities.KindRateUnavailable, "Exchange rates are still loading.", entities.ErrRateUnavailable,
		)
	}

	conv, err := Convert(amount, w.state.table, w.to)
	if err != nil {
		outcome := "rate_unavailable"
		if entities.KindOf(err) == entities.KindValidation {
			outcome = "invalid_amount"
		}
		w.metrics.Conversion(outcome)
		return entities.Conversion{}, errors.Wrap(err, op)
	}

	w.result = &conv
	w.metrics.Conversion("ok")

	return conv, nil
}

func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		Amount:    w.amount,
		From:      w.from,
		To:        w.to,
		Phase:     w.state.phase,
		RateTable: w.state.table,
	}
	if w.result != nil {
		res := *w.result
		snap.Result = &res
	}
	if w.state.err != nil {
		snap.ErrorMessage = entities.UserMessage(w.state.err)
		snap.ErrorKind = entities.KindOf(w.state.err)
	}

	return snap
}

// Wait blocks until no fetch is in flight or ctx is done.
func (w *Widget) Wait(ctx context.Context) error {
	w.mu.Lock()
	settled := w.settled
	w.mu.Unlock()

	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startFetchLocked supersedes any fetch in flight. Must hold w.mu.
func (w *Widget) startFetchLocked() {
	if w.cancel != nil {
		w.cancel()
	}

	w.generation++
	gen := w.generation
	from := w.from

	var kept *entities.RateTable
	if w.state.table != nil && w.state.table.Base == from {
		kept = w.state.table
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if w.timeout > 0 {
		ctx, cancel = context.WithTimeout(w.base, w.timeout)
	} else {
		ctx, cancel = context.WithCancel(w.base)
	}
	w.cancel = cancel

	w.state = loading()
	w.result = nil

	if w.pending == 0 {
		w.settled = make(chan struct{})
	}
	w.pending++

	w.log.Debug("fetching rates", "from", from, "generation", gen)

	go w.fetch(ctx, cancel, gen, from, kept)
}

func (w *Widget) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, from string, kept *entities.RateTable) {
	const op = "widget.fetch"

	defer cancel()

	started := time.Now()
	table, err := w.fetcher.Latest(ctx, from)

	w.mu.Lock()
	defer w.mu.Unlock()

	defer func() {
		w.pending--
		if w.pending == 0 {
			close(w.settled)
		}
	}()

	if w.closed {
		return
	}
	if gen != w.generation {
		w.metrics.StaleResponse()
		w.log.Debug("discarding stale rates", "from", from, "generation", gen, "current", w.generation)
		return
	}
	w.cancel = nil

	if err == nil && table.Len() == 0 {
		err = entities.NewError(entities.KindMalformedResponse, "Invalid response format.", entities.ErrMalformedResponse)
	}

	if err != nil {
		w.metrics.ObserveFetch("error", started)
		w.log.Warn("rate fetch failed", "op", op, "from", from, "error", err)
		w.state = failed(err, kept)
		return
	}

	w.metrics.ObserveFetch("ok", started)
	w.log.Debug("rates loaded", "from", from, "count", table.Len())
	w.state = loaded(table)
}
