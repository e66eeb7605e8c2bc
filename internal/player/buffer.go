package player

import (
	"fmt"
	"time"

	"pixelframe/internal/decode"
	"pixelframe/internal/scale"
)

// animationBuffer owns everything needed to play one asset: the open
// decoder, the decode scratch frames, the upscaled first frame, and the
// lookup tables for the panel. Two of these exist at a time, front and
// back.
type animationBuffer struct {
	path  string
	index int // playlist position at load time
	dec   decode.Decoder
	info  decode.Info

	// frames are two ping-pong RGBA decode targets; cur indexes the one
	// holding the most recently decoded frame.
	frames [2][]byte
	cur    int

	// prefetched holds the asset's first frame already upscaled to device
	// resolution, copied into a panel buffer at swap time so the incoming
	// asset never touches the panel before the swap commits.
	prefetched []byte

	// xlut and ylut map panel coordinates to source coordinates for this
	// asset's dimensions.
	xlut []uint16
	ylut []uint16

	// prefetchPending marks a freshly loaded back buffer whose first frame
	// the render loop still has to decode and upscale before swapping.
	prefetchPending bool
	// prefetchDelay is the display delay of the prefetched first frame.
	prefetchDelay time.Duration
}

// openBuffer opens an asset and prepares the decode and upscale state for a
// panel of the given dimensions and row stride.
func openBuffer(path string, index, panelWidth, panelHeight, panelStride int) (*animationBuffer, error) {
	dec, err := decode.Open(path)
	if err != nil {
		return nil, err
	}
	info := dec.Info()
	if info.Width <= 0 || info.Height <= 0 {
		dec.Close()
		return nil, fmt.Errorf("player: decoder reported empty canvas for %s", path)
	}
	size := info.Width * info.Height * 4
	return &animationBuffer{
		path:       path,
		index:      index,
		dec:        dec,
		info:       info,
		frames:     [2][]byte{make([]byte, size), make([]byte, size)},
		prefetched: make([]byte, panelHeight*panelStride),
		xlut:       scale.BuildLookup(info.Width, panelWidth),
		ylut:       scale.BuildLookup(info.Height, panelHeight),
	}, nil
}

// currentFrame is the most recently decoded scratch frame.
func (b *animationBuffer) currentFrame() []byte { return b.frames[b.cur] }

// spareFrame is the scratch frame the next decode should target.
func (b *animationBuffer) spareFrame() []byte { return b.frames[b.cur^1] }

// flip marks the spare frame as current after a successful decode.
func (b *animationBuffer) flip() { b.cur ^= 1 }

func (b *animationBuffer) close() {
	if b == nil || b.dec == nil {
		return
	}
	b.dec.Close()
	b.dec = nil
}
