package widget

import (
	"context"
	"github.com/google/uuid"
	"github.com/langowen/converter/internal/entities"
	"log/slog"
	"sync"
	"time"
)

type session struct {
	widget   *Widget
	lastSeen time.Time
}

// Registry keeps one widget per browser session.
type Registry struct {
	ctx     context.Context
	fetcher RateFetcher
	opts    Options
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// NewRegistry creates a registry whose widgets fetch under ctx.
func NewRegistry(ctx context.Context, fetcher RateFetcher, opts Options, ttl time.Duration) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Registry{
		ctx:      ctx,
		fetcher:  fetcher,
		opts:     opts,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*session),
	}
}

// Mount creates a widget and starts its initial fetch.
func (r *Registry) Mount() (uuid.UUID, *Widget, error) {
	id := uuid.New()

	opts := r.opts
	opts.Logger = r.opts.Logger.With("session", id.String())
	w := New(r.fetcher, opts)

	if err := w.Mount(r.ctx); err != nil {
		return uuid.Nil, nil, err
	}

	r.mu.Lock()
	r.sessions[id] = &session{widget: w, lastSeen: r.now()}
	r.mu.Unlock()

	r.opts.Metrics.SessionMounted()
	opts.Logger.Debug("session mounted")

	return id, w, nil
}

func (r *Registry) Get(id uuid.UUID) (*Widget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, entities.ErrSessionNotFound
	}
	s.lastSeen = r.now()

	return s.widget, nil
}

func (r *Registry) Unmount(id uuid.UUID) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return entities.ErrSessionNotFound
	}

	s.widget.Close()
	r.opts.Metrics.SessionUnmounted(false)
	r.opts.Logger.Debug("session unmounted", "session", id.String())

	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// Sweep unmounts sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}

	cutoff := r.now().Add(-r.ttl)

	var expired []*Widget
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			expired = append(expired, s.widget)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, w := range expired {
		w.Close()
		r.opts.Metrics.SessionUnmounted(true)
	}

	return len(expired)
}

// Run sweeps idle sessions until ctx is done, then unmounts everything.
func (r *Registry) Run(ctx context.Context) {
	interval := r.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.opts.Logger.Info("expired idle sessions", "count", n)
			}
		case <-ctx.Done():
			r.closeAll()
			return
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.widget.Close()
		r.opts.Metrics.SessionUnmounted(false)
	}
}
