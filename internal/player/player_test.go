package player

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pixelframe/internal/config"
	"pixelframe/internal/display"
	"pixelframe/internal/logging"
	"pixelframe/internal/playlist"
)

type mapStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMapStore() *mapStore {
	return &mapStore{values: map[string]string{}}
}

func (s *mapStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *mapStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func writeGIF(t *testing.T, dir, name string, frames int, c color.RGBA) string {
	t.Helper()
	anim := &gif.GIF{Config: image.Config{Width: 4, Height: 4}}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{c})
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 1) // 10ms
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write gif: %v", err)
	}
	return path
}

// writeTruncatedJPEG produces a file whose header parses but whose pixel
// data is missing, so open succeeds and every frame decode fails.
func writeTruncatedJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	data := buf.Bytes()
	sos := bytes.Index(data, []byte{0xFF, 0xDA})
	if sos < 0 {
		t.Fatal("no start-of-scan marker")
	}
	// Keep the marker's two length bytes: DecodeConfig reads them before
	// returning at start-of-scan, so cutting earlier makes open fail too.
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data[:sos+4], 0o644); err != nil {
		t.Fatalf("write jpeg: %v", err)
	}
	return path
}

func newTestPanel(t *testing.T) *display.MemoryPanel {
	t.Helper()
	panel, err := display.NewMemoryPanel(8, 8, display.RGB565, 2)
	if err != nil {
		t.Fatalf("memory panel: %v", err)
	}
	return panel
}

func startPlayer(t *testing.T, dir string, store StateStore, playback config.Playback) (*Player, *display.MemoryPanel) {
	t.Helper()
	scanned, entries, err := playlist.Scan(dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	panel := newTestPanel(t)
	p := New(logging.NewNop(), panel, playlist.New(scanned, entries), store, playback)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(p.Stop)
	return p, panel
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPlayerPresentsFrames(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, dir, "only.gif", 3, color.RGBA{R: 255, A: 255})

	p, panel := startPlayer(t, dir, nil, config.Playback{})

	waitFor(t, "frames presented", func() bool { return panel.Presents() >= 5 })

	status := p.Status()
	if status.Asset != "only.gif" {
		t.Fatalf("asset = %q", status.Asset)
	}
	if status.Format != "gif" || status.FrameCount != 3 {
		t.Fatalf("status = %+v", status)
	}
	if panel.Visible() < 0 {
		t.Fatal("nothing visible")
	}
}

func TestResumeLastAndCycleOrder(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, dir, "a.gif", 2, color.RGBA{R: 255, A: 255})
	writeGIF(t, dir, "b.gif", 2, color.RGBA{G: 255, A: 255})
	writeGIF(t, dir, "c.gif", 2, color.RGBA{B: 255, A: 255})

	store := newMapStore()
	store.Set("last_asset", "b.gif")
	p, _ := startPlayer(t, dir, store, config.Playback{ResumeLast: true})

	waitFor(t, "resume of b.gif", func() bool { return p.Status().Asset == "b.gif" })

	waitFor(t, "cycle accepted", func() bool { return p.Cycle(1) })
	waitFor(t, "advance to c.gif", func() bool { return p.Status().Asset == "c.gif" })

	waitFor(t, "cycle back accepted", func() bool { return p.Cycle(-1) })
	waitFor(t, "return to b.gif", func() bool { return p.Status().Asset == "b.gif" })

	// The swap persisted the asset for the next start.
	if v, ok, _ := store.Get("last_asset"); !ok || v != "b.gif" {
		t.Fatalf("persisted asset = %q", v)
	}
}

func TestCycleRequestsSingleFlight(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, dir, "a.gif", 2, color.RGBA{R: 255, A: 255})
	writeGIF(t, dir, "b.gif", 2, color.RGBA{G: 255, A: 255})

	scanned, entries, err := playlist.Scan(dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	panel := newTestPanel(t)
	p := New(logging.NewNop(), panel, playlist.New(scanned, entries), nil, config.Playback{})

	p.mu.Lock()
	p.loaderBusy = true
	p.mu.Unlock()
	if p.Cycle(1) {
		t.Fatal("cycle must be dropped while the loader is busy")
	}

	p.mu.Lock()
	p.loaderBusy = false
	p.swapRequested = true
	p.mu.Unlock()
	if p.Cycle(1) {
		t.Fatal("cycle must be dropped while a swap is pending")
	}

	p.mu.Lock()
	p.swapRequested = false
	p.back = &animationBuffer{prefetchPending: true}
	p.mu.Unlock()
	if p.CycleRandom() {
		t.Fatal("cycle must be dropped while a prefetch is pending")
	}
}

func TestCorruptAssetSkipped(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.gif"), []byte("not a gif"), 0o644); err != nil {
		t.Fatalf("write corrupt asset: %v", err)
	}
	writeGIF(t, dir, "b.gif", 2, color.RGBA{G: 255, A: 255})

	store := newMapStore()
	store.Set("last_asset", "a.gif")
	p, _ := startPlayer(t, dir, store, config.Playback{ResumeLast: true})

	waitFor(t, "skip to playable asset", func() bool { return p.Status().Asset == "b.gif" })
}

func TestPrefetchFailureStillSwaps(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, dir, "a.gif", 2, color.RGBA{R: 255, A: 255})
	writeTruncatedJPEG(t, dir, "b.jpg")

	store := newMapStore()
	store.Set("last_asset", "a.gif")
	p, _ := startPlayer(t, dir, store, config.Playback{ResumeLast: true})
	waitFor(t, "initial asset", func() bool { return p.Status().Asset == "a.gif" })

	waitFor(t, "cycle accepted", func() bool { return p.Cycle(1) })
	waitFor(t, "swap despite failed prefetch", func() bool { return p.Status().Asset == "b.jpg" })

	// The broken asset stays in front; the player does not advance on its
	// own.
	time.Sleep(150 * time.Millisecond)
	if got := p.Status().Asset; got != "b.jpg" {
		t.Fatalf("asset = %q, want b.jpg", got)
	}
}

func TestPrefetchStaysOffPanelUntilSwap(t *testing.T) {
	dir := t.TempDir()
	path := writeGIF(t, dir, "a.gif", 2, color.RGBA{R: 255, A: 255})

	scanned, entries, err := playlist.Scan(dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	panel, err := display.NewMemoryPanel(4, 4, display.RGB565, 1)
	if err != nil {
		t.Fatalf("memory panel: %v", err)
	}
	p := New(logging.NewNop(), panel, playlist.New(scanned, entries), nil, config.Playback{})
	p.engine.Start()
	defer p.engine.Stop()

	buf, err := openBuffer(path, 0, panel.Width(), panel.Height(), panel.Stride())
	if err != nil {
		t.Fatalf("open buffer: %v", err)
	}
	defer buf.close()
	if err := p.prefetch(buf); err != nil {
		t.Fatalf("prefetch: %v", err)
	}

	// A single-buffer panel is visible the whole time; the prefetched frame
	// must land in the buffer's own device frame, not on the panel.
	for i, b := range panel.Buffer(0) {
		if b != 0 {
			t.Fatalf("panel byte %d written before swap: %#x", i, b)
		}
	}
	written := false
	for _, b := range buf.prefetched {
		if b != 0 {
			written = true
			break
		}
	}
	if !written {
		t.Fatal("prefetched device frame is empty")
	}
}

func TestStatusIndexMatchesAsset(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, dir, "a.gif", 2, color.RGBA{R: 255, A: 255})
	writeGIF(t, dir, "b.gif", 2, color.RGBA{G: 255, A: 255})
	writeGIF(t, dir, "c.gif", 2, color.RGBA{B: 255, A: 255})

	store := newMapStore()
	store.Set("last_asset", "c.gif")
	p, _ := startPlayer(t, dir, store, config.Playback{ResumeLast: true})

	waitFor(t, "resume of c.gif", func() bool { return p.Status().Asset == "c.gif" })
	if got := p.Status().Index; got != 2 {
		t.Fatalf("index = %d, want 2", got)
	}

	waitFor(t, "cycle accepted", func() bool { return p.Cycle(-1) })
	waitFor(t, "index follows the front buffer", func() bool {
		s := p.Status()
		return s.Asset == "b.gif" && s.Index == 1
	})
}

func TestPauseKeepsRepresenting(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, dir, "only.gif", 3, color.RGBA{B: 255, A: 255})

	p, panel := startPlayer(t, dir, nil, config.Playback{})
	waitFor(t, "playback", func() bool { return panel.Presents() >= 2 })

	p.SetPaused(true)
	if !p.IsPaused() {
		t.Fatal("expected paused")
	}
	before := panel.Presents()
	waitFor(t, "paused re-present", func() bool { return panel.Presents() > before })

	if paused := p.TogglePause(); paused {
		t.Fatal("toggle should resume")
	}
	if p.Status().Paused {
		t.Fatal("status should report resumed")
	}
}

func TestPausePersisted(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, dir, "only.gif", 2, color.RGBA{R: 255, A: 255})

	store := newMapStore()
	p, _ := startPlayer(t, dir, store, config.Playback{ResumeLast: true})
	p.SetPaused(true)

	if v, ok, _ := store.Get("paused"); !ok || v != "true" {
		t.Fatalf("paused not persisted: %q", v)
	}
}

func TestStartEmptyPlaylistFails(t *testing.T) {
	panel := newTestPanel(t)
	p := New(logging.NewNop(), panel, playlist.New("/nowhere", nil), nil, config.Playback{})
	if err := p.Start(context.Background()); err == nil {
		t.Fatal("expected error for empty playlist")
	}
}
