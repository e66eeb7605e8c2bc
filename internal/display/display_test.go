package display

import (
	"errors"
	"testing"

	"pixelframe/internal/config"
)

func TestParsePixelFormat(t *testing.T) {
	if f, err := ParsePixelFormat("RGB565"); err != nil || f != RGB565 {
		t.Fatalf("rgb565: %v %v", f, err)
	}
	if f, err := ParsePixelFormat(" bgr888 "); err != nil || f != BGR888 {
		t.Fatalf("bgr888: %v %v", f, err)
	}
	if _, err := ParsePixelFormat("argb"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestBytesPerPixel(t *testing.T) {
	if RGB565.BytesPerPixel() != 2 {
		t.Fatal("rgb565 is two bytes")
	}
	if BGR888.BytesPerPixel() != 3 {
		t.Fatal("bgr888 is three bytes")
	}
}

func TestMemoryPanel(t *testing.T) {
	p, err := NewMemoryPanel(4, 4, RGB565, 2)
	if err != nil {
		t.Fatalf("NewMemoryPanel: %v", err)
	}
	defer p.Close()

	if p.BufferCount() != 2 {
		t.Fatalf("buffer count = %d", p.BufferCount())
	}
	if p.Stride() != 8 {
		t.Fatalf("stride = %d", p.Stride())
	}
	if len(p.Buffer(0)) != 4*4*2 {
		t.Fatalf("buffer size = %d", len(p.Buffer(0)))
	}
	if p.Visible() != -1 {
		t.Fatal("nothing should be visible yet")
	}

	if err := p.Present(1); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if p.Visible() != 1 {
		t.Fatalf("visible = %d", p.Visible())
	}
	if err := p.Present(5); !errors.Is(err, ErrBufferIndex) {
		t.Fatalf("expected ErrBufferIndex, got %v", err)
	}
	if err := p.WaitVSync(); err != nil {
		t.Fatalf("WaitVSync: %v", err)
	}
}

func TestOpenMemoryDevice(t *testing.T) {
	panel, err := Open(config.Display{
		Device:      "memory",
		PixelFormat: "bgr888",
		Width:       8,
		Height:      8,
		Buffers:     1,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer panel.Close()
	if panel.Format() != BGR888 {
		t.Fatalf("format = %v", panel.Format())
	}
	if panel.BufferCount() != 1 {
		t.Fatalf("buffers = %d", panel.BufferCount())
	}
}
