package decode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Sentinel errors shared by every decoder implementation.
var (
	// ErrBadSignature means the file does not start with the magic bytes
	// its extension promises.
	ErrBadSignature = errors.New("decode: bad file signature")
	// ErrBadDimensions means the canvas is empty or larger than MaxDimension.
	ErrBadDimensions = errors.New("decode: bad canvas dimensions")
	// ErrUnsupported means the container variant cannot be played.
	ErrUnsupported = errors.New("decode: unsupported format")
	// ErrEndOfSequence is returned by DecodeNext after the last frame.
	ErrEndOfSequence = errors.New("decode: end of sequence")
)

// MaxDimension bounds the source canvas on either axis. Assets are upscaled
// to the panel, so sources larger than this are pointless and would only
// inflate decode buffers.
const MaxDimension = 4096

// StillFrameDelay is the nominal delay reported for single-frame assets.
const StillFrameDelay = 100 * time.Millisecond

// MinFrameDelay is the floor applied to every reported frame delay.
const MinFrameDelay = time.Millisecond

// Format identifies the container of an asset.
type Format int

const (
	FormatUnknown Format = iota
	FormatWebP
	FormatGIF
	FormatPNG
	FormatJPEG
)

func (f Format) String() string {
	switch f {
	case FormatWebP:
		return "webp"
	case FormatGIF:
		return "gif"
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	default:
		return "unknown"
	}
}

// Info describes a decoded asset.
type Info struct {
	Format          Format
	Width           int
	Height          int
	FrameCount      int
	HasTransparency bool
}

// Decoder yields the frames of one asset in order. Implementations are not
// safe for concurrent use; the player serializes access per buffer.
type Decoder interface {
	// Info reports static properties of the sequence.
	Info() Info
	// DecodeNext writes the next frame into dst as tightly packed RGBA.
	// dst must hold at least Width*Height*4 bytes. After the final frame
	// it returns ErrEndOfSequence.
	DecodeNext(dst []byte) error
	// Delay reports the display duration of the most recently decoded
	// frame, never below MinFrameDelay.
	Delay() time.Duration
	// Reset rewinds the sequence to the first frame.
	Reset() error
	// Close releases decoder resources.
	Close() error
}

// FormatForPath maps a filename to its container format by extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		return FormatWebP
	case ".gif":
		return FormatGIF
	case ".png":
		return FormatPNG
	case ".jpg", ".jpeg":
		return FormatJPEG
	default:
		return FormatUnknown
	}
}

// Supported reports whether the file extension maps to a playable format.
func Supported(path string) bool {
	return FormatForPath(path) != FormatUnknown
}

// Open constructs the decoder matching the file's extension.
func Open(path string) (Decoder, error) {
	switch FormatForPath(path) {
	case FormatWebP:
		return openWebP(path)
	case FormatGIF:
		return openGIF(path)
	case FormatPNG:
		return openPNG(path)
	case FormatJPEG:
		return openJPEG(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
}

func validDimensions(width, height int) bool {
	return width > 0 && height > 0 && width <= MaxDimension && height <= MaxDimension
}

func clampDelay(d time.Duration) time.Duration {
	if d < MinFrameDelay {
		return MinFrameDelay
	}
	return d
}

func frameBufferSize(width, height int) int {
	return width * height * 4
}
