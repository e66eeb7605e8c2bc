package display

import (
	"errors"
	"fmt"
	"strings"

	"pixelframe/internal/config"
)

// PixelFormat is the byte encoding of panel pixels.
type PixelFormat int

const (
	// RGB565 packs a pixel into two little-endian bytes.
	RGB565 PixelFormat = iota
	// BGR888 stores three bytes per pixel in blue, green, red order.
	BGR888
)

func (f PixelFormat) String() string {
	switch f {
	case RGB565:
		return "rgb565"
	case BGR888:
		return "bgr888"
	default:
		return fmt.Sprintf("pixelformat(%d)", int(f))
	}
}

// BytesPerPixel reports the storage size of one pixel.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case BGR888:
		return 3
	default:
		return 2
	}
}

// ParsePixelFormat maps a config string to a PixelFormat.
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rgb565":
		return RGB565, nil
	case "bgr888":
		return BGR888, nil
	default:
		return 0, fmt.Errorf("display: unknown pixel format %q", s)
	}
}

// ErrBufferIndex is returned by Present for an out-of-range buffer.
var ErrBufferIndex = errors.New("display: buffer index out of range")

// Panel is a displayable surface with one or more buffers. Buffer contents
// may be written at any time; Present makes a buffer visible. Panels are
// used from the render loop only and need not be concurrency safe.
type Panel interface {
	// Width and Height report the visible resolution in pixels.
	Width() int
	Height() int
	// Format reports the pixel encoding of the buffers.
	Format() PixelFormat
	// Stride reports the length in bytes of one buffer row. It can exceed
	// Width*BytesPerPixel when the device pads lines.
	Stride() int
	// BufferCount reports how many presentable buffers exist.
	BufferCount() int
	// Buffer returns the writable bytes of one buffer.
	Buffer(index int) []byte
	// Present makes the buffer visible.
	Present(index int) error
	// WaitVSync blocks until the current presentation has been scanned
	// out, where the device supports that.
	WaitVSync() error
	// Close releases the device.
	Close() error
}

// Open builds the panel described by the display config. The device name
// "memory" selects the in-memory panel; anything else is treated as a
// framebuffer device path.
func Open(cfg config.Display) (Panel, error) {
	if strings.EqualFold(strings.TrimSpace(cfg.Device), "memory") {
		format, err := ParsePixelFormat(cfg.PixelFormat)
		if err != nil {
			return nil, err
		}
		return NewMemoryPanel(cfg.Width, cfg.Height, format, cfg.Buffers)
	}
	return openFramebuffer(cfg.Device)
}
