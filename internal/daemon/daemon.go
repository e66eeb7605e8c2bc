package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"pixelframe/internal/config"
	"pixelframe/internal/display"
	"pixelframe/internal/logging"
	"pixelframe/internal/player"
	"pixelframe/internal/playlist"
	"pixelframe/internal/settings"
)

// Daemon owns the panel, the player, and the control API, and enforces
// single-instance execution through a file lock.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	panel  display.Panel
	store  *settings.Store
	player *player.Player
	api    *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool          `json:"running"`
	LockFilePath string        `json:"lock_file_path"`
	SettingsPath string        `json:"settings_path"`
	PanelWidth   int           `json:"panel_width"`
	PanelHeight  int           `json:"panel_height"`
	PixelFormat  string        `json:"pixel_format"`
	BufferCount  int           `json:"buffer_count"`
	Playback     player.Status `json:"playback"`
}

// New constructs a daemon. The config must already be validated.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires a config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.StateDir, "pixelframed.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the lock, opens the hardware and state, and begins
// playback and API serving.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another pixelframe daemon instance is already running")
	}

	ctx, d.cancel = context.WithCancel(ctx)

	cleanup := func() {
		d.cancel()
		if d.store != nil {
			_ = d.store.Close()
			d.store = nil
		}
		if d.panel != nil {
			_ = d.panel.Close()
			d.panel = nil
		}
		_ = d.lock.Unlock()
	}

	d.store, err = settings.Open(d.cfg.Paths.StateDir)
	if err != nil {
		cleanup()
		return fmt.Errorf("open settings store: %w", err)
	}

	d.panel, err = display.Open(d.cfg.Display)
	if err != nil {
		cleanup()
		return fmt.Errorf("open display: %w", err)
	}
	d.logger.Info("panel ready",
		"device", d.cfg.Display.Device,
		"resolution", fmt.Sprintf("%dx%d", d.panel.Width(), d.panel.Height()),
		"format", d.panel.Format().String(),
		"buffers", d.panel.BufferCount())

	dir, entries, err := playlist.Scan(d.cfg.Paths.AssetsRoot)
	if err != nil {
		cleanup()
		return fmt.Errorf("scan assets: %w", err)
	}

	d.player = player.New(d.logger, d.panel, playlist.New(dir, entries), d.store, d.cfg.Playback)
	if err := d.player.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("start player: %w", err)
	}

	d.api = newAPIServer(d.cfg, d, d.logger)
	if d.api != nil {
		if err := d.api.start(ctx); err != nil {
			d.player.Stop()
			cleanup()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("pixelframe daemon started", "lock", d.lockPath)
	return nil
}

// Stop halts playback, the API, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
		d.api = nil
	}
	if d.player != nil {
		d.player.Stop()
		d.player = nil
	}
	if d.panel != nil {
		_ = d.panel.Close()
		d.panel = nil
	}
	if d.store != nil {
		_ = d.store.Close()
		d.store = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", "error", err)
	}
	d.running.Store(false)
	d.logger.Info("pixelframe daemon stopped")
}

// Status reports runtime information for the API and CLI.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
	}
	if d.store != nil {
		status.SettingsPath = d.store.Path()
	}
	if d.panel != nil {
		status.PanelWidth = d.panel.Width()
		status.PanelHeight = d.panel.Height()
		status.PixelFormat = d.panel.Format().String()
		status.BufferCount = d.panel.BufferCount()
	}
	if d.player != nil {
		status.Playback = d.player.Status()
	}
	return status
}

// Player exposes the playback controls to the API layer.
func (d *Daemon) Player() *player.Player { return d.player }
