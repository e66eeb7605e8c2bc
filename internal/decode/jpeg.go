package decode

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"time"
)

var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

// jpegDecoder presents a still JPEG as an endless one-frame sequence. Only
// the header is parsed at open; the full decode and RGBA conversion happen
// on the first DecodeNext and the result is cached, so later calls re-emit
// the same frame with a plain copy. The sequence never ends.
type jpegDecoder struct {
	info Info
	data []byte
	pix  []byte
}

func openJPEG(path string) (Decoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jpeg: %w", err)
	}
	if !bytes.HasPrefix(data, jpegMagic) {
		return nil, ErrBadSignature
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if !validDimensions(cfg.Width, cfg.Height) {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadDimensions, cfg.Width, cfg.Height)
	}

	return &jpegDecoder{
		info: Info{
			Format:          FormatJPEG,
			Width:           cfg.Width,
			Height:          cfg.Height,
			FrameCount:      1,
			HasTransparency: false,
		},
		data: data,
	}, nil
}

func (d *jpegDecoder) Info() Info { return d.info }

func (d *jpegDecoder) DecodeNext(dst []byte) error {
	need := frameBufferSize(d.info.Width, d.info.Height)
	if len(dst) < need {
		return fmt.Errorf("decode: destination too small: %d < %d", len(dst), need)
	}

	if d.pix == nil {
		img, err := jpeg.Decode(bytes.NewReader(d.data))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		d.pix = toRGBA(img).Pix
		d.data = nil
	}
	copy(dst, d.pix[:need])
	return nil
}

func (d *jpegDecoder) Delay() time.Duration { return StillFrameDelay }

func (d *jpegDecoder) Reset() error { return nil }

func (d *jpegDecoder) Close() error {
	d.data = nil
	d.pix = nil
	return nil
}
