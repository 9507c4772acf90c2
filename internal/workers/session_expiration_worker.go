// Package workers provides background jobs for the storefront service.
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultSweepInterval is the default interval between idle session sweeps
	DefaultSweepInterval = 5 * time.Minute

	// DefaultIdleTimeout is how long a browser session may go unused
	DefaultIdleTimeout = 30 * time.Minute
)

// SessionStore is a collection of browser sessions that can drop idle ones
type SessionStore interface {
	EvictIdle(maxIdle time.Duration) int
	Len() int
}

// SessionExpirationWorker periodically drops idle browser sessions together
// with their cart and review mirrors.
type SessionExpirationWorker struct {
	store       SessionStore
	interval    time.Duration
	idleTimeout time.Duration
	logger      *logrus.Entry
	stopChan    chan struct{}
	doneChan    chan struct{}
	mu          sync.Mutex
	running     bool
	stats       ExpirationStats
}

// ExpirationStats tracks sweep statistics
type ExpirationStats struct {
	SessionsEvicted int64     `json:"sessionsEvicted"`
	LiveSessions    int       `json:"liveSessions"`
	LastRunAt       time.Time `json:"lastRunAt,omitempty"`
	LastRunDuration string    `json:"lastRunDuration,omitempty"`
	Runs            int64     `json:"runs"`
}

// NewSessionExpirationWorker creates a new session expiration worker
func NewSessionExpirationWorker(store SessionStore, interval, idleTimeout time.Duration, logger *logrus.Logger) *SessionExpirationWorker {
	if interval == 0 {
		interval = DefaultSweepInterval
	}
	if idleTimeout == 0 {
		idleTimeout = DefaultIdleTimeout
	}

	return &SessionExpirationWorker{
		store:       store,
		interval:    interval,
		idleTimeout: idleTimeout,
		logger:      logger.WithField("component", "session-expiration-worker"),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start begins the sweep loop
func (w *SessionExpirationWorker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run()
	w.logger.WithFields(logrus.Fields{
		"interval":     w.interval.String(),
		"idle_timeout": w.idleTimeout.String(),
	}).Info("Session expiration worker started")
}

// Stop stops the sweep loop and waits for it to exit
func (w *SessionExpirationWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	<-w.doneChan
	w.logger.Info("Session expiration worker stopped")
}

// ForceRun triggers an immediate sweep
func (w *SessionExpirationWorker) ForceRun(ctx context.Context) int {
	return w.sweep(ctx)
}

// IsRunning returns whether the worker is running
func (w *SessionExpirationWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Stats returns the current sweep statistics
func (w *SessionExpirationWorker) Stats() ExpirationStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *SessionExpirationWorker) run() {
	defer close(w.doneChan)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.sweep(context.Background())
		}
	}
}

func (w *SessionExpirationWorker) sweep(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	start := time.Now()
	evicted := w.store.EvictIdle(w.idleTimeout)
	live := w.store.Len()
	duration := time.Since(start)

	w.mu.Lock()
	w.stats.SessionsEvicted += int64(evicted)
	w.stats.LiveSessions = live
	w.stats.LastRunAt = start
	w.stats.LastRunDuration = duration.String()
	w.stats.Runs++
	w.mu.Unlock()

	if evicted > 0 {
		w.logger.WithFields(logrus.Fields{
			"evicted": evicted,
			"live":    live,
		}).Info("Evicted idle sessions")
	}
	return evicted
}
