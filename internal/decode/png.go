package decode

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"time"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// pngDecoder presents a still PNG as an endless one-frame sequence: every
// DecodeNext re-emits the same frame and the sequence never ends. The image
// is normalized to RGBA once at open; DecodeNext only copies.
type pngDecoder struct {
	info Info
	pix  []byte
}

func openPNG(path string) (Decoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read png: %w", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		return nil, ErrBadSignature
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	bounds := img.Bounds()
	if !validDimensions(bounds.Dx(), bounds.Dy()) {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadDimensions, bounds.Dx(), bounds.Dy())
	}

	rgba := toRGBA(img)
	transparent := false
	if op, ok := img.(interface{ Opaque() bool }); ok {
		transparent = !op.Opaque()
	}

	return &pngDecoder{
		info: Info{
			Format:          FormatPNG,
			Width:           bounds.Dx(),
			Height:          bounds.Dy(),
			FrameCount:      1,
			HasTransparency: transparent,
		},
		pix: rgba.Pix,
	}, nil
}

func (d *pngDecoder) Info() Info { return d.info }

func (d *pngDecoder) DecodeNext(dst []byte) error {
	need := frameBufferSize(d.info.Width, d.info.Height)
	if len(dst) < need {
		return fmt.Errorf("decode: destination too small: %d < %d", len(dst), need)
	}
	copy(dst, d.pix[:need])
	return nil
}

func (d *pngDecoder) Delay() time.Duration { return StillFrameDelay }

func (d *pngDecoder) Reset() error { return nil }

func (d *pngDecoder) Close() error {
	d.pix = nil
	return nil
}

// toRGBA redraws any image type into a tightly packed RGBA buffer anchored
// at the origin.
func toRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
