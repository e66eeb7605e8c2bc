package player

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"pixelframe/internal/decode"
	"pixelframe/internal/logging"
	"pixelframe/internal/scale"
)

// pausedPresentInterval is how often the last frame is re-presented while
// playback is paused, keeping panels alive that fade without refreshes.
const pausedPresentInterval = 50 * time.Millisecond

// idleRetryInterval backs the loop off after a failure or while no front
// buffer exists yet.
const idleRetryInterval = 50 * time.Millisecond

// renderLoop is the heart of the player: swap in freshly loaded assets,
// decode and upscale the next frame, pace to the previous frame's delay,
// present.
func (p *Player) renderLoop(ctx context.Context) {
	lastPresented := -1
	var prevDelay time.Duration

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		start := time.Now()

		if p.trySwap(&lastPresented, &prevDelay) {
			continue
		}

		p.mu.Lock()
		paused := p.paused
		front := p.front
		p.mu.Unlock()

		if front == nil {
			p.sleep(ctx, idleRetryInterval)
			continue
		}
		if paused {
			if lastPresented >= 0 {
				if err := p.panel.Present(lastPresented); err != nil {
					p.logger.Error("paused re-present failed", "error", err)
				}
			}
			p.sleep(ctx, pausedPresentInterval)
			continue
		}

		if err := p.decodeNext(front); err != nil {
			p.logger.Warn("frame decode failed, skipping",
				logging.FieldAsset, filepath.Base(front.path), "error", err)
			p.sleep(ctx, idleRetryInterval)
			continue
		}

		target := p.nextBufferIndex(lastPresented)
		if err := p.convert(front, target); err != nil {
			p.logger.Error("frame conversion failed",
				logging.FieldAsset, filepath.Base(front.path), "error", err)
			p.sleep(ctx, idleRetryInterval)
			continue
		}

		// The previous frame's delay elapses between presents; decode and
		// upscale time of this frame counts toward it.
		if !p.playback.Unthrottled && prevDelay > 0 {
			if residual := prevDelay - time.Since(start); residual > 0 {
				p.sleep(ctx, residual)
			}
		}

		if err := p.panel.Present(target); err != nil {
			p.logger.Error("present failed", "buffer", target, "error", err)
			p.sleep(ctx, idleRetryInterval)
			continue
		}
		p.waitRefresh()
		lastPresented = target
		prevDelay = front.dec.Delay()
	}
}

// trySwap performs a pending buffer swap. The back buffer's first frame is
// prefetched into its own device-resolution frame here, on the render
// goroutine, and only copied into a panel buffer once the swap commits. A
// failed prefetch still swaps; the steady-state decode path deals with the
// broken asset afterwards.
func (p *Player) trySwap(lastPresented *int, prevDelay *time.Duration) bool {
	p.mu.Lock()
	back := p.back
	pending := p.swapRequested && back != nil && back.prefetchPending
	p.mu.Unlock()
	if !pending {
		return false
	}

	prefetched := true
	if err := p.prefetch(back); err != nil {
		prefetched = false
		p.logger.Warn("first frame prefetch failed",
			logging.FieldAsset, filepath.Base(back.path), "error", err)
	}

	p.mu.Lock()
	old := p.front
	p.front = back
	p.back = old
	back.prefetchPending = false
	p.swapRequested = false
	p.mu.Unlock()

	if prefetched {
		target := p.nextBufferIndex(*lastPresented)
		if dst := p.panel.Buffer(target); dst != nil {
			copy(dst, back.prefetched)
		}
		if err := p.panel.Present(target); err != nil {
			p.logger.Error("present failed after swap", "buffer", target, "error", err)
		} else {
			*lastPresented = target
		}
		p.waitRefresh()
		*prevDelay = back.prefetchDelay
	} else {
		*prevDelay = 0
	}

	p.persist(stateKeyLastAsset, filepath.Base(back.path))
	p.logger.Info("now playing",
		logging.FieldAsset, filepath.Base(back.path),
		"format", back.info.Format.String(),
		"frames", back.info.FrameCount,
		"index", back.index)
	return true
}

// prefetch decodes and upscales the first frame into the buffer's own
// device frame, leaving the panel untouched.
func (p *Player) prefetch(buf *animationBuffer) error {
	dst := buf.spareFrame()
	if err := buf.dec.DecodeNext(dst); err != nil {
		return err
	}
	buf.flip()
	buf.prefetchDelay = buf.dec.Delay()
	return p.engine.Convert(p.scaleJob(buf, buf.prefetched))
}

// decodeNext pulls the next frame into the spare scratch frame, looping the
// sequence at its end. Other failures get one reset-and-retry before the
// frame is given up on.
func (p *Player) decodeNext(buf *animationBuffer) error {
	dst := buf.spareFrame()
	err := buf.dec.DecodeNext(dst)
	if errors.Is(err, decode.ErrEndOfSequence) {
		if err = buf.dec.Reset(); err != nil {
			return err
		}
		err = buf.dec.DecodeNext(dst)
	}
	if err != nil {
		if resetErr := buf.dec.Reset(); resetErr != nil {
			return err
		}
		if retryErr := buf.dec.DecodeNext(dst); retryErr != nil {
			return err
		}
	}
	buf.flip()
	return nil
}

func (p *Player) convert(buf *animationBuffer, target int) error {
	dst := p.panel.Buffer(target)
	if dst == nil {
		return fmt.Errorf("player: no panel buffer %d", target)
	}
	return p.engine.Convert(p.scaleJob(buf, dst))
}

func (p *Player) scaleJob(buf *animationBuffer, dst []byte) *scale.Job {
	return &scale.Job{
		Src:       buf.currentFrame(),
		SrcWidth:  buf.info.Width,
		SrcHeight: buf.info.Height,
		Dst:       dst,
		DstWidth:  p.panel.Width(),
		DstHeight: p.panel.Height(),
		DstStride: p.panel.Stride(),
		Format:    p.panel.Format(),
		XLookup:   buf.xlut,
		YLookup:   buf.ylut,
	}
}

// nextBufferIndex picks the off-screen buffer to draw into.
func (p *Player) nextBufferIndex(lastPresented int) int {
	count := p.panel.BufferCount()
	if count <= 1 || lastPresented < 0 {
		return 0
	}
	return (lastPresented + 1) % count
}

// waitRefresh blocks for the scanout only on genuinely double-buffered
// panels; with a single buffer there is nothing to tear against.
func (p *Player) waitRefresh() {
	if p.panel.BufferCount() > 1 {
		if err := p.panel.WaitVSync(); err != nil {
			p.logger.Debug("vsync wait failed", "error", err)
		}
	}
}

func (p *Player) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
