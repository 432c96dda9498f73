package steamvr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"trackerlink/internal/telemetry"
)

const (
	// FileName is the settings file SteamVR writes tracker roles into.
	FileName = "steamvr.vrsettings"

	// DefaultReloadInterval is how often the file is re-read without a change notification.
	DefaultReloadInterval = 5 * time.Second

	changeDebounce = 100 * time.Millisecond
)

// Generation is one immutable snapshot of role assignments. Number 0 means
// nothing has been loaded yet.
type Generation struct {
	Number uint64
	Roles  map[string]telemetry.Role
}

// Settings holds the current role generation and reloads it in the background.
// Readers never block: each reload builds a new Generation and swaps it in.
type Settings struct {
	path     string
	interval time.Duration
	clk      clock.Clock
	logger   *zap.SugaredLogger

	current atomic.Pointer[Generation]
	applyMu sync.Mutex

	// closeMu orders debounced reloads, which run outside wg, against Close.
	closeMu sync.RWMutex
	closed  bool

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	watcher *fsnotify.Watcher
}

// NewSettings creates Settings for the file at path. Nothing is read until
// Reload or Start is called.
func NewSettings(path string, interval time.Duration, clk clock.Clock, logger *zap.SugaredLogger) *Settings {
	if interval <= 0 {
		interval = DefaultReloadInterval
	}
	s := &Settings{
		path:     path,
		interval: interval,
		clk:      clk,
		logger:   logger,
	}
	s.current.Store(&Generation{Roles: map[string]telemetry.Role{}})
	return s
}

// Path returns the watched file.
func (s *Settings) Path() string {
	return s.path
}

// Generation returns the current snapshot. Callers must not modify it.
func (s *Settings) Generation() *Generation {
	return s.current.Load()
}

// Role returns the assigned role for a hardware id, or RoleNone.
func (s *Settings) Role(hardwareID string) telemetry.Role {
	return s.current.Load().Roles[hardwareID]
}

// Roles returns a copy of the current assignments.
func (s *Settings) Roles() map[string]telemetry.Role {
	roles := s.current.Load().Roles
	out := make(map[string]telemetry.Role, len(roles))
	for id, role := range roles {
		out[id] = role
	}
	return out
}

// Reload reads and applies the file. On any read or parse error the current
// generation is kept and the error is returned.
func (s *Settings) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return err
	}
	s.Apply(doc)
	return nil
}

// Apply replaces the current generation with the roles declared in doc.
// Entries with an unknown role are dropped and logged.
func (s *Settings) Apply(doc Document) *Generation {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	old := s.current.Load()
	next := &Generation{
		Number: old.Number + 1,
		Roles:  make(map[string]telemetry.Role, len(doc.Trackers)),
	}
	for id, raw := range doc.Trackers {
		role, err := ParseRole(raw)
		if err != nil {
			s.logger.Errorf("Unsupported tracker role bound for %s: %q", id, raw)
			continue
		}
		next.Roles[id] = role
		if prev, ok := old.Roles[id]; !ok || prev != role {
			s.logger.Debugf("Detected tracker %s as %s.", id, role)
		}
	}
	s.current.Store(next)
	return next
}

// Start loads the file once and then keeps it fresh: on a timer and on change
// notifications for the file's directory. Failing to watch the directory is
// logged and the timer keeps running.
func (s *Settings) Start(ctx context.Context) {
	if err := s.Reload(); err != nil {
		s.logger.Debugw("initial settings load failed", "path", s.path, "error", err)
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.reloadLoop(ctx)

	if err := s.watch(ctx); err != nil {
		s.logger.Warnw("watching SteamVR settings failed, falling back to periodic reload", "path", s.path, "error", err)
	}
}

// Close stops background reloading.
func (s *Settings) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.closeMu.Lock()
	s.closed = true
	s.closeMu.Unlock()

	var err error
	if s.watcher != nil {
		err = s.watcher.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Settings) reloadLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := s.clk.Ticker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Partial writes are expected; the next tick retries.
			_ = s.Reload()
		}
	}
}

// reloadOnChange reloads after a debounced change notification. It does
// nothing once Close has started.
func (s *Settings) reloadOnChange(ctx context.Context) {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed || ctx.Err() != nil {
		return
	}
	_ = s.Reload()
}

func (s *Settings) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	s.watcher = watcher

	debounced := debounce.New(changeDebounce)
	name := filepath.Base(s.path)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				debounced(func() { s.reloadOnChange(ctx) })
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Debugw("settings watcher error", "error", err)
			}
		}
	}()
	return nil
}
