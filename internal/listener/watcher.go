/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"legal-fee-tracker-go/internal/models"

	"go.uber.org/zap"
)

// DashboardSource loads the caller's engagements.
type DashboardSource interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
}

// WatcherConfig contains configuration for Watcher
type WatcherConfig struct {
	Source          DashboardSource
	Handler         func(Event)
	LookbackWindow  time.Duration
	PollingInterval time.Duration
	CleanupInterval time.Duration
}

// Watcher polls the caller's engagements and reports activity that has not
// been reported before.
type Watcher struct {
	source  DashboardSource
	handler func(Event)

	// Last poll each event key was observed in
	seen            map[string]time.Time
	lastSuccess     time.Time
	mutex           sync.RWMutex
	lookbackWindow  time.Duration
	pollingInterval time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	stopChan    chan struct{}
	doneChan    chan struct{}
	cleanupDone chan struct{}
	stopOnce    sync.Once
}

func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("watcher source cannot be nil")
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("watcher handler cannot be nil")
	}
	if cfg.PollingInterval <= 0 {
		return nil, fmt.Errorf("polling interval must be positive, got %v", cfg.PollingInterval)
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = cfg.PollingInterval * 10
	}
	if cfg.CleanupInterval < cfg.PollingInterval {
		return nil, fmt.Errorf("cleanup interval %v is shorter than polling interval %v",
			cfg.CleanupInterval, cfg.PollingInterval)
	}

	return &Watcher{
		source:          cfg.Source,
		handler:         cfg.Handler,
		seen:            make(map[string]time.Time),
		lookbackWindow:  cfg.LookbackWindow,
		pollingInterval: cfg.PollingInterval,
		cleanupInterval: cfg.CleanupInterval,
		now:             time.Now,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
		cleanupDone:     make(chan struct{}),
	}, nil
}

// Start records the current activity, reporting only what happened within
// the lookback window, then polls in the background until Stop or ctx ends.
func (w *Watcher) Start(ctx context.Context) error {
	zap.L().Info("Starting engagement watcher")

	if err := w.performStartupRecovery(ctx); err != nil {
		return fmt.Errorf("startup recovery failed: %w", err)
	}

	go w.pollLoop(ctx)
	go w.cleanupLoop(ctx)

	zap.L().Info("Engagement watcher started",
		zap.Duration("polling_interval", w.pollingInterval),
		zap.Duration("lookback_window", w.lookbackWindow))
	return nil
}

// Stop halts polling and waits for both loops to exit. It must only be
// called after a successful Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		zap.L().Info("Stopping engagement watcher")
		close(w.stopChan)
	})
	<-w.doneChan
	<-w.cleanupDone
}

// Done is closed once the poll loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneChan
}

func (w *Watcher) pollLoop(ctx context.Context) {
	defer close(w.doneChan)

	ticker := time.NewTicker(w.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.poll(ctx); err != nil {
				zap.L().Error("Failed to poll engagements", zap.Error(err))
			}
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// poll reports every event not seen before.
func (w *Watcher) poll(ctx context.Context) error {
	d, err := w.source.Dashboard(ctx)
	if err != nil {
		return err
	}

	now := w.now()
	reported := 0
	for _, e := range d.Engagements {
		for _, ev := range engagementEvents(d.Principal, e) {
			if w.observe(ev.Key, now) {
				w.handler(ev)
				reported++
			}
		}
	}
	w.markSuccess(now)

	zap.L().Debug("Engagements polled",
		zap.Int("engagements", len(d.Engagements)),
		zap.Int("events", reported))
	return nil
}

func (w *Watcher) performStartupRecovery(ctx context.Context) error {
	d, err := w.source.Dashboard(ctx)
	if err != nil {
		return err
	}

	now := w.now()
	since := now.Add(-w.lookbackWindow).UnixNano()
	recovered := 0
	for _, e := range d.Engagements {
		for _, ev := range engagementEvents(d.Principal, e) {
			w.observe(ev.Key, now)
			if w.lookbackWindow > 0 && ev.Timestamp >= since {
				w.handler(ev)
				recovered++
			}
		}
	}
	w.markSuccess(now)

	zap.L().Info("Startup recovery completed",
		zap.Int("engagements", len(d.Engagements)),
		zap.Int("events_recovered", recovered))
	return nil
}

// observe refreshes key and reports whether it was new.
func (w *Watcher) observe(key string, at time.Time) bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	_, exists := w.seen[key]
	w.seen[key] = at
	return !exists
}

func (w *Watcher) markSuccess(at time.Time) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.lastSuccess = at
}

func (w *Watcher) cleanupLoop(ctx context.Context) {
	defer close(w.cleanupDone)

	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.cleanupSeen()
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// cleanupSeen forgets keys that have not been observed for a full cleanup
// interval, e.g. entries of an engagement that is no longer listed. Keys
// seen in the last successful poll are always kept, so a backend outage
// does not make old activity look new again.
func (w *Watcher) cleanupSeen() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	cutoff := w.now().Add(-w.cleanupInterval)
	if w.lastSuccess.Before(cutoff) {
		cutoff = w.lastSuccess
	}
	cleaned := 0
	for key, at := range w.seen {
		if at.Before(cutoff) {
			delete(w.seen, key)
			cleaned++
		}
	}

	if cleaned > 0 {
		zap.L().Debug("Cleaned up stale activity keys",
			zap.Int("cleaned", cleaned),
			zap.Int("remaining", len(w.seen)))
	}
}
