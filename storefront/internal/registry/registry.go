package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/storage"
	"github.com/Alturino/storefront/storefront/internal/service"
)

// Registry holds the live storefront of every session. Sessions are
// rehydrated from storage on first use and dropped from memory once idle;
// their state stays in storage.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*service.Storefront
	base        storage.Storage
	deps        service.Dependencies
	idleTimeout time.Duration
	now         func() time.Time
}

func New(base storage.Storage, deps service.Dependencies, idleTimeout time.Duration) *Registry {
	return &Registry{
		sessions:    map[string]*service.Storefront{},
		base:        base,
		deps:        deps,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Get returns the storefront of id, rehydrating it from storage outside the
// registry lock. When two requests race to rehydrate the same session the
// first one stored wins and the other copy is closed.
func (r *Registry) Get(c context.Context, id string) *service.Storefront {
	r.mu.Lock()
	sf, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		sf.Touch(r.now())
		return sf
	}

	zerolog.Ctx(c).Debug().Str(log.KeyTag, "Registry Get").Str(log.KeySessionID, id).Msg("rehydrating session")
	fresh := service.NewStorefront(c, id, storage.Scoped(r.base, id), r.deps)

	r.mu.Lock()
	sf, ok = r.sessions[id]
	if !ok {
		sf = fresh
		r.sessions[id] = sf
		if r.deps.Metrics != nil {
			r.deps.Metrics.SessionsActive.Set(float64(len(r.sessions)))
		}
	}
	r.mu.Unlock()
	if ok {
		fresh.Close()
	}
	sf.Touch(r.now())
	return sf
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict drops sessions idle for longer than the idle timeout and returns how
// many were dropped.
func (r *Registry) Evict(c context.Context) int {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Registry Evict").
		Str(log.KeyProcess, "evicting idle sessions").
		Logger()

	r.mu.Lock()
	now := r.now()
	evicted := []*service.Storefront{}
	for id, sf := range r.sessions {
		if sf.IdleSince(now) > r.idleTimeout {
			evicted = append(evicted, sf)
			delete(r.sessions, id)
		}
	}
	remaining := len(r.sessions)
	r.mu.Unlock()

	for _, sf := range evicted {
		sf.Close()
	}
	if r.deps.Metrics != nil {
		r.deps.Metrics.SessionsActive.Set(float64(remaining))
		r.deps.Metrics.SessionsEvicted.Add(float64(len(evicted)))
	}
	if len(evicted) > 0 {
		logger.Debug().Int("evicted", len(evicted)).Int("remaining", remaining).Msg("evicted idle sessions")
	}
	return len(evicted)
}

// Run evicts idle sessions every interval until c is done.
func (r *Registry) Run(c context.Context, interval time.Duration, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Registry Run").
		Str(log.KeyAppName, constants.AppStorefrontJanitor).
		Str(log.KeyProcess, "evicting idle sessions").
		Logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("started janitor")
	for {
		select {
		case <-c.Done():
			logger.Info().Msg("stopped janitor")
			return
		case <-ticker.C:
			requestID := uuid.NewString()
			tickLogger := logger.With().Str(log.KeyRequestID, requestID).Logger()
			tc := log.AttachRequestIDToContext(tickLogger.WithContext(c), requestID)
			r.Evict(tc)
		}
	}
}

// Close drops every session from memory.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = map[string]*service.Storefront{}
	r.mu.Unlock()
	for _, sf := range sessions {
		sf.Close()
	}
}
