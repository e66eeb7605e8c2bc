package player

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"pixelframe/internal/config"
	"pixelframe/internal/display"
	"pixelframe/internal/logging"
	"pixelframe/internal/playlist"
	"pixelframe/internal/scale"
)

// State store keys.
const (
	stateKeyLastAsset = "last_asset"
	stateKeyPaused    = "paused"
)

// StateStore persists small playback facts across restarts. The sqlite
// settings store satisfies it; a nil store disables persistence.
type StateStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Status is a snapshot of playback state for the control API and CLI.
type Status struct {
	Asset         string `json:"asset"`
	Index         int    `json:"index"`
	PlaylistCount int    `json:"playlist_count"`
	PlaylistDir   string `json:"playlist_dir"`
	Paused        bool   `json:"paused"`
	Format        string `json:"format"`
	SourceWidth   int    `json:"source_width"`
	SourceHeight  int    `json:"source_height"`
	FrameCount    int    `json:"frame_count"`
	Unthrottled   bool   `json:"unthrottled"`
}

type loadRequest struct {
	step   int
	random bool
}

// Player drives the playback pipeline against one panel.
type Player struct {
	logger   *slog.Logger
	panel    display.Panel
	engine   *scale.Engine
	playlist *playlist.Playlist
	store    StateStore
	playback config.Playback

	mu            sync.Mutex
	front         *animationBuffer
	back          *animationBuffer
	swapRequested bool
	loaderBusy    bool
	paused        bool

	loadRequests chan loadRequest
	autoTimer    *time.Timer

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New assembles a player. The panel and playlist must be ready; store may
// be nil.
func New(logger *slog.Logger, panel display.Panel, pl *playlist.Playlist, store StateStore, playback config.Playback) *Player {
	return &Player{
		logger:       logging.WithComponent(logger, "player"),
		panel:        panel,
		engine:       scale.NewEngine(logger),
		playlist:     pl,
		store:        store,
		playback:     playback,
		loadRequests: make(chan loadRequest, 1),
	}
}

// Start positions the playlist, launches the loader and render goroutines,
// and queues the initial load.
func (p *Player) Start(ctx context.Context) error {
	if p.started {
		return errors.New("player: already started")
	}
	if p.playlist.Len() == 0 {
		return errors.New("player: empty playlist")
	}
	p.started = true

	p.restoreState()

	ctx, p.cancel = context.WithCancel(ctx)
	p.engine.Start()

	p.mu.Lock()
	p.loaderBusy = true
	p.mu.Unlock()
	p.loadRequests <- loadRequest{step: 0}

	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		p.loaderLoop(ctx)
	}()
	go func() {
		defer p.wg.Done()
		p.renderLoop(ctx)
	}()

	if p.playback.AutoCycleSeconds > 0 {
		interval := time.Duration(p.playback.AutoCycleSeconds) * time.Second
		p.autoTimer = time.AfterFunc(interval, func() { p.CycleRandom() })
	}

	p.logger.Info("playback started",
		"playlist_dir", p.playlist.Dir(),
		"entries", p.playlist.Len(),
		"asset", filepath.Base(p.playlist.Current()))
	return nil
}

// restoreState picks the starting playlist position: the persisted asset
// when resume is enabled and it still exists, a random entry otherwise.
func (p *Player) restoreState() {
	restored := false
	if p.playback.ResumeLast && p.store != nil {
		if name, ok, err := p.store.Get(stateKeyLastAsset); err == nil && ok {
			restored = p.playlist.FindByName(name)
		}
		if value, ok, err := p.store.Get(stateKeyPaused); err == nil && ok {
			if paused, err := strconv.ParseBool(value); err == nil {
				p.mu.Lock()
				p.paused = paused
				p.mu.Unlock()
			}
		}
	}
	if !restored {
		p.playlist.JumpRandom()
	}
}

// Stop tears the pipeline down and releases the buffers.
func (p *Player) Stop() {
	if !p.started {
		return
	}
	p.started = false
	if p.autoTimer != nil {
		p.autoTimer.Stop()
	}
	p.cancel()
	p.wg.Wait()
	p.engine.Stop()

	p.mu.Lock()
	p.front.close()
	p.back.close()
	p.front, p.back = nil, nil
	p.mu.Unlock()
	p.logger.Info("playback stopped")
}

// Cycle switches to the playlist neighbor in the given direction: +1
// forward, -1 backward. The request is dropped when a load or swap is
// already in flight; the return value reports acceptance.
func (p *Player) Cycle(step int) bool {
	return p.requestLoad(loadRequest{step: step})
}

// CycleRandom switches to a random playlist entry, avoiding the current one
// when possible.
func (p *Player) CycleRandom() bool {
	return p.requestLoad(loadRequest{random: true})
}

func (p *Player) requestLoad(req loadRequest) bool {
	p.mu.Lock()
	if p.swapRequested || p.loaderBusy || (p.back != nil && p.back.prefetchPending) {
		p.mu.Unlock()
		p.logger.Debug("cycle request dropped", "reason", "load in flight")
		return false
	}
	p.loaderBusy = true
	p.mu.Unlock()

	p.resetAutoCycle()

	select {
	case p.loadRequests <- req:
		return true
	default:
		p.mu.Lock()
		p.loaderBusy = false
		p.mu.Unlock()
		return false
	}
}

func (p *Player) resetAutoCycle() {
	if p.autoTimer != nil && p.playback.AutoCycleSeconds > 0 {
		p.autoTimer.Reset(time.Duration(p.playback.AutoCycleSeconds) * time.Second)
	}
}

// SetPaused freezes or resumes frame advancement. The panel keeps showing
// the last presented frame while paused.
func (p *Player) SetPaused(paused bool) {
	p.mu.Lock()
	changed := p.paused != paused
	p.paused = paused
	p.mu.Unlock()
	if !changed {
		return
	}
	p.resetAutoCycle()
	p.persist(stateKeyPaused, strconv.FormatBool(paused))
	p.logger.Info("pause state changed", "paused", paused)
}

// TogglePause flips the pause state and returns the new value.
func (p *Player) TogglePause() bool {
	p.mu.Lock()
	p.paused = !p.paused
	paused := p.paused
	p.mu.Unlock()
	p.resetAutoCycle()
	p.persist(stateKeyPaused, strconv.FormatBool(paused))
	p.logger.Info("pause state changed", "paused", paused)
	return paused
}

// IsPaused reports whether frame advancement is frozen.
func (p *Player) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Status snapshots the playback state.
func (p *Player) Status() Status {
	p.mu.Lock()
	front := p.front
	paused := p.paused
	p.mu.Unlock()

	status := Status{
		PlaylistCount: p.playlist.Len(),
		PlaylistDir:   p.playlist.Dir(),
		Paused:        paused,
		Unthrottled:   p.playback.Unthrottled,
	}
	if front != nil {
		// The index is the buffer's load-time snapshot; the live playlist
		// position may already point at an asset still being loaded.
		status.Asset = filepath.Base(front.path)
		status.Index = front.index
		status.Format = front.info.Format.String()
		status.SourceWidth = front.info.Width
		status.SourceHeight = front.info.Height
		status.FrameCount = front.info.FrameCount
	}
	return status
}

func (p *Player) persist(key, value string) {
	if p.store == nil {
		return
	}
	if err := p.store.Set(key, value); err != nil {
		p.logger.Warn("state persistence failed", "key", key, "error", err)
	}
}

// loaderLoop serves load requests one at a time.
func (p *Player) loaderLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-p.loadRequests:
			p.loadNext(req)
		}
	}
}

// loadNext opens the requested asset into a fresh back buffer. A failing
// asset is skipped in the direction of travel until one opens or a full
// playlist revolution has been tried.
func (p *Player) loadNext(req loadRequest) {
	var path string
	switch {
	case req.random:
		path = p.playlist.JumpRandom()
	case req.step == 0:
		path = p.playlist.Current()
	default:
		path = p.playlist.Advance(req.step)
	}

	direction := 1
	if req.step < 0 {
		direction = -1
	}

	var buf *animationBuffer
	attempts := p.playlist.Len()
	for i := 0; i < attempts; i++ {
		b, err := openBuffer(path, p.playlist.Index(), p.panel.Width(), p.panel.Height(), p.panel.Stride())
		if err == nil {
			buf = b
			break
		}
		p.logger.Warn("asset failed to open, skipping",
			logging.FieldAsset, filepath.Base(path), "error", err)
		path = p.playlist.Advance(direction)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaderBusy = false
	if buf == nil {
		p.logger.Error("no playable asset in playlist", "entries", attempts)
		return
	}
	p.back.close()
	p.back = buf
	p.back.prefetchPending = true
	p.swapRequested = true
	p.logger.Debug("back buffer loaded",
		logging.FieldAsset, filepath.Base(buf.path),
		"frames", buf.info.FrameCount,
		"size", strconv.Itoa(buf.info.Width)+"x"+strconv.Itoa(buf.info.Height))
}
