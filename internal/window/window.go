// Package window abstracts the native window. Creating and presenting a real
// window belongs to the platform layer; the engine only needs to show it
// once configuration has completed.
package window

import (
	"sync"

	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/config"
)

// Window is the engine's view of the native window. Configure is called
// once with the final settings before the first Show.
type Window interface {
	Configure(cfg config.WindowConfig)
	Show() error
	Shown() bool
	Close() error
}

// Headless is a Window with no surface. It records Show calls and logs them.
type Headless struct {
	cfg config.WindowConfig
	log *zap.Logger

	mu     sync.Mutex
	shown  int
	closed bool
}

func NewHeadless(cfg config.WindowConfig, log *zap.Logger) *Headless {
	return &Headless{cfg: cfg, log: log}
}

func (w *Headless) Configure(cfg config.WindowConfig) {
	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()
}

// Config returns the settings the window was last configured with.
func (w *Headless) Config() config.WindowConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

func (w *Headless) Show() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shown++
	w.log.Info("window shown",
		zap.String("title", w.cfg.Title),
		zap.Int("width", w.cfg.Width),
		zap.Int("height", w.cfg.Height),
		zap.Bool("fullscreen", w.cfg.Fullscreen),
		zap.Bool("hidden", w.cfg.Hidden),
	)
	return nil
}

func (w *Headless) Shown() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shown > 0
}

// ShowCount returns how many times Show was called.
func (w *Headless) ShowCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shown
}

func (w *Headless) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}
