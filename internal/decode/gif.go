package decode

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"time"
)

var gifMagic = [][]byte{[]byte("GIF87a"), []byte("GIF89a")}

// gifDecoder plays a GIF as a sequence of composited full-canvas frames.
// The whole file is decoded once at open to learn the frame count; the
// paletted frames stay resident and compositing happens per DecodeNext.
type gifDecoder struct {
	info   Info
	frames []*image.Paletted
	delays []int // centiseconds, parallel to frames
	index  int
	delay  time.Duration
	canvas []byte // RGBA state carried between frames
}

func openGIF(path string) (Decoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gif: %w", err)
	}
	if !hasGIFMagic(data) {
		return nil, ErrBadSignature
	}

	img, err := gif.DecodeAll(bufio.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	width := img.Config.Width
	height := img.Config.Height
	if width == 0 || height == 0 {
		if len(img.Image) > 0 {
			bounds := img.Image[0].Bounds()
			width, height = bounds.Dx(), bounds.Dy()
		}
	}
	if !validDimensions(width, height) {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadDimensions, width, height)
	}
	if len(img.Image) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrUnsupported)
	}

	d := &gifDecoder{
		info: Info{
			Format:     FormatGIF,
			Width:      width,
			Height:     height,
			FrameCount: len(img.Image),
			// The palette may mark any index transparent mid-sequence,
			// so transparency is always assumed.
			HasTransparency: true,
		},
		frames: img.Image,
		delays: img.Delay,
		canvas: make([]byte, frameBufferSize(width, height)),
	}
	return d, nil
}

func hasGIFMagic(data []byte) bool {
	for _, magic := range gifMagic {
		if bytes.HasPrefix(data, magic) {
			return true
		}
	}
	return false
}

func (d *gifDecoder) Info() Info { return d.info }

func (d *gifDecoder) DecodeNext(dst []byte) error {
	if d.index >= len(d.frames) {
		return ErrEndOfSequence
	}
	need := frameBufferSize(d.info.Width, d.info.Height)
	if len(dst) < need {
		return fmt.Errorf("decode: destination too small: %d < %d", len(dst), need)
	}

	frame := d.frames[d.index]
	d.compositeFrame(frame)

	copy(dst, d.canvas[:need])

	centisec := 0
	if d.index < len(d.delays) {
		centisec = d.delays[d.index]
	}
	d.delay = clampDelay(time.Duration(centisec) * 10 * time.Millisecond)
	d.index++
	return nil
}

// compositeFrame draws the paletted frame rect over the carried canvas.
// Transparent pixels keep whatever the previous composited frame showed;
// pixels outside the frame rect are untouched.
func (d *gifDecoder) compositeFrame(frame *image.Paletted) {
	bounds := frame.Bounds().Intersect(image.Rect(0, 0, d.info.Width, d.info.Height))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := d.canvas[y*d.info.Width*4:]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			idx := frame.ColorIndexAt(x, y)
			c := frame.Palette[idx]
			if isTransparent(c) {
				continue
			}
			r, g, b, a := c.RGBA()
			off := x * 4
			row[off+0] = byte(r >> 8)
			row[off+1] = byte(g >> 8)
			row[off+2] = byte(b >> 8)
			row[off+3] = byte(a >> 8)
		}
	}
}

func isTransparent(c color.Color) bool {
	_, _, _, a := c.RGBA()
	return a == 0
}

func (d *gifDecoder) Delay() time.Duration { return d.delay }

func (d *gifDecoder) Reset() error {
	d.index = 0
	d.delay = 0
	clearBytes(d.canvas)
	return nil
}

func (d *gifDecoder) Close() error {
	d.frames = nil
	d.delays = nil
	d.canvas = nil
	return nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
