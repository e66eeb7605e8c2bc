package display

import (
	"fmt"
	"sync"
)

// MemoryPanel backs the Panel interface with plain byte slices. It is the
// development and test double for real hardware; Visible records which
// buffer was presented last. A mutex guards the presentation counters so
// tests can poll them while the render loop runs.
type MemoryPanel struct {
	width, height int
	format        PixelFormat
	buffers       [][]byte

	mu       sync.Mutex
	visible  int
	presents int
	closed   bool
}

// NewMemoryPanel allocates an in-memory panel. bufferCount below 1 is
// raised to 1.
func NewMemoryPanel(width, height int, format PixelFormat, bufferCount int) (*MemoryPanel, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("display: bad memory panel size %dx%d", width, height)
	}
	if bufferCount < 1 {
		bufferCount = 1
	}
	size := width * height * format.BytesPerPixel()
	buffers := make([][]byte, bufferCount)
	for i := range buffers {
		buffers[i] = make([]byte, size)
	}
	return &MemoryPanel{
		width:   width,
		height:  height,
		format:  format,
		buffers: buffers,
		visible: -1,
	}, nil
}

func (p *MemoryPanel) Width() int          { return p.width }
func (p *MemoryPanel) Height() int         { return p.height }
func (p *MemoryPanel) Format() PixelFormat { return p.format }
func (p *MemoryPanel) Stride() int         { return p.width * p.format.BytesPerPixel() }
func (p *MemoryPanel) BufferCount() int    { return len(p.buffers) }

func (p *MemoryPanel) Buffer(index int) []byte {
	if index < 0 || index >= len(p.buffers) {
		return nil
	}
	return p.buffers[index]
}

func (p *MemoryPanel) Present(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("display: present on closed panel")
	}
	if index < 0 || index >= len(p.buffers) {
		return ErrBufferIndex
	}
	p.visible = index
	p.presents++
	return nil
}

func (p *MemoryPanel) WaitVSync() error { return nil }

func (p *MemoryPanel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Visible reports the index of the last presented buffer, -1 before the
// first Present.
func (p *MemoryPanel) Visible() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Presents reports how many Present calls have happened.
func (p *MemoryPanel) Presents() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.presents
}
