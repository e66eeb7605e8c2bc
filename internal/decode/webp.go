package decode

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"golang.org/x/image/webp"
)

// webpDecoder plays animated WebP files frame by frame, compositing each
// ANMF frame onto a carried canvas. Still WebP files degrade to endless
// one-frame sequences the same way PNG and JPEG do: the frame is re-emitted
// on every DecodeNext and the sequence never ends.
type webpDecoder struct {
	info     Info
	frames   []webpFrame
	still    []byte // original file bytes for non-animated input
	stillPix []byte // cached RGBA of the decoded still frame
	canvas   []byte
	index    int
	delay    time.Duration
}

func openWebP(path string) (Decoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read webp: %w", err)
	}

	container, err := parseWebPContainer(data)
	if err != nil {
		return nil, err
	}

	if !container.Animated {
		cfg, err := webp.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		if !validDimensions(cfg.Width, cfg.Height) {
			return nil, fmt.Errorf("%w: %dx%d", ErrBadDimensions, cfg.Width, cfg.Height)
		}
		return &webpDecoder{
			info: Info{
				Format:          FormatWebP,
				Width:           cfg.Width,
				Height:          cfg.Height,
				FrameCount:      1,
				HasTransparency: container.HasAlpha,
			},
			still: data,
		}, nil
	}

	if !validDimensions(container.Width, container.Height) {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadDimensions, container.Width, container.Height)
	}

	return &webpDecoder{
		info: Info{
			Format:          FormatWebP,
			Width:           container.Width,
			Height:          container.Height,
			FrameCount:      len(container.Frames),
			HasTransparency: container.HasAlpha,
		},
		frames: container.Frames,
		canvas: make([]byte, frameBufferSize(container.Width, container.Height)),
	}, nil
}

func (d *webpDecoder) Info() Info { return d.info }

func (d *webpDecoder) DecodeNext(dst []byte) error {
	need := frameBufferSize(d.info.Width, d.info.Height)
	if len(dst) < need {
		return fmt.Errorf("decode: destination too small: %d < %d", len(dst), need)
	}

	if d.still != nil || d.stillPix != nil {
		if d.stillPix == nil {
			img, err := webp.Decode(bytes.NewReader(d.still))
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUnsupported, err)
			}
			d.stillPix = toRGBA(img).Pix
			d.still = nil
		}
		copy(dst, d.stillPix[:need])
		d.delay = StillFrameDelay
		return nil
	}

	if d.index >= len(d.frames) {
		return ErrEndOfSequence
	}

	// Apply the previous frame's disposal before drawing the next one.
	if d.index > 0 {
		prev := d.frames[d.index-1]
		if prev.DisposeToBackground {
			d.clearRect(prev.X, prev.Y, prev.Width, prev.Height)
		}
	}

	frame := d.frames[d.index]
	img, err := webp.Decode(bytes.NewReader(frame.Payload))
	if err != nil {
		return fmt.Errorf("%w: frame %d: %v", ErrUnsupported, d.index, err)
	}
	d.compositeFrame(frame, toRGBA(img).Pix)

	copy(dst, d.canvas[:need])
	d.delay = clampDelay(frame.Duration)
	d.index++
	return nil
}

// compositeFrame draws the frame's RGBA pixels onto the canvas at the frame
// offset, either replacing pixels outright or alpha blending over what is
// already there.
func (d *webpDecoder) compositeFrame(frame webpFrame, pix []byte) {
	for row := 0; row < frame.Height; row++ {
		y := frame.Y + row
		if y >= d.info.Height {
			break
		}
		srcOff := row * frame.Width * 4
		dstOff := (y*d.info.Width + frame.X) * 4
		for col := 0; col < frame.Width; col++ {
			x := frame.X + col
			if x >= d.info.Width {
				break
			}
			src := pix[srcOff+col*4 : srcOff+col*4+4]
			out := d.canvas[dstOff+col*4 : dstOff+col*4+4]
			if frame.Blend {
				blendPixel(out, src)
			} else {
				copy(out, src)
			}
		}
	}
}

// blendPixel composites src over dst. Both are alpha-premultiplied RGBA,
// so src-over is the same multiply-add on every channel.
func blendPixel(dst, src []byte) {
	sa := uint32(src[3])
	if sa == 255 {
		copy(dst, src)
		return
	}
	if sa == 0 {
		return
	}
	inv := 255 - sa
	for i := 0; i < 4; i++ {
		dst[i] = byte(uint32(src[i]) + uint32(dst[i])*inv/255)
	}
}

func (d *webpDecoder) clearRect(x, y, width, height int) {
	for row := 0; row < height; row++ {
		cy := y + row
		if cy >= d.info.Height {
			break
		}
		start := (cy*d.info.Width + x) * 4
		end := start + width*4
		if limit := (cy + 1) * d.info.Width * 4; end > limit {
			end = limit
		}
		clearBytes(d.canvas[start:end])
	}
}

func (d *webpDecoder) Delay() time.Duration { return d.delay }

func (d *webpDecoder) Reset() error {
	d.index = 0
	d.delay = 0
	if d.canvas != nil {
		clearBytes(d.canvas)
	}
	return nil
}

func (d *webpDecoder) Close() error {
	d.frames = nil
	d.still = nil
	d.stillPix = nil
	d.canvas = nil
	return nil
}
