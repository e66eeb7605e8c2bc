//go:build linux

package display

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Framebuffer ioctl requests from linux/fb.h.
const (
	fbioGetVScreenInfo = 0x4600
	fbioPutVScreenInfo = 0x4601
	fbioGetFScreenInfo = 0x4602
	fbioPanDisplay     = 0x4606
	fbioWaitForVSync   = 0x40044620
)

type fbBitfield struct {
	Offset   uint32
	Length   uint32
	MSBRight uint32
}

type fbVarScreenInfo struct {
	XRes         uint32
	YRes         uint32
	XResVirtual  uint32
	YResVirtual  uint32
	XOffset      uint32
	YOffset      uint32
	BitsPerPixel uint32
	Grayscale    uint32
	Red          fbBitfield
	Green        fbBitfield
	Blue         fbBitfield
	Transp       fbBitfield
	NonStd       uint32
	Activate     uint32
	Height       uint32
	Width        uint32
	AccelFlags   uint32
	PixClock     uint32
	LeftMargin   uint32
	RightMargin  uint32
	UpperMargin  uint32
	LowerMargin  uint32
	HSyncLen     uint32
	VSyncLen     uint32
	Sync         uint32
	VMode        uint32
	Rotate       uint32
	Colorspace   uint32
	Reserved     [4]uint32
}

type fbFixScreenInfo struct {
	ID           [16]byte
	SmemStart    uintptr
	SmemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	XPanStep     uint16
	YPanStep     uint16
	YWrapStep    uint16
	LineLength   uint32
	MmioStart    uintptr
	MmioLen      uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

// framebufferPanel drives a Linux fbdev device. Multiple buffers exist when
// the virtual y resolution is a multiple of the visible one; Present flips
// between them by panning.
type framebufferPanel struct {
	file    *os.File
	mem     []byte
	varInfo fbVarScreenInfo
	stride  int
	format  PixelFormat
	buffers [][]byte
}

func openFramebuffer(device string) (Panel, error) {
	file, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open framebuffer: %w", err)
	}

	p := &framebufferPanel{file: file}
	if err := p.ioctl(fbioGetVScreenInfo, unsafe.Pointer(&p.varInfo)); err != nil {
		file.Close()
		return nil, fmt.Errorf("framebuffer var info: %w", err)
	}

	var fixInfo fbFixScreenInfo
	if err := p.ioctl(fbioGetFScreenInfo, unsafe.Pointer(&fixInfo)); err != nil {
		file.Close()
		return nil, fmt.Errorf("framebuffer fix info: %w", err)
	}

	switch p.varInfo.BitsPerPixel {
	case 16:
		p.format = RGB565
	case 24:
		p.format = BGR888
	default:
		file.Close()
		return nil, fmt.Errorf("display: unsupported framebuffer depth %d bpp", p.varInfo.BitsPerPixel)
	}

	p.stride = int(fixInfo.LineLength)
	mem, err := unix.Mmap(int(file.Fd()), 0, int(fixInfo.SmemLen), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mmap framebuffer: %w", err)
	}
	p.mem = mem

	bufferSize := int(p.varInfo.YRes) * p.stride
	count := 1
	if p.varInfo.YResVirtual >= p.varInfo.YRes {
		count = int(p.varInfo.YResVirtual / p.varInfo.YRes)
	}
	for i := 0; i < count; i++ {
		start := i * bufferSize
		if start+bufferSize > len(mem) {
			break
		}
		p.buffers = append(p.buffers, mem[start:start+bufferSize])
	}
	if len(p.buffers) == 0 {
		p.Close()
		return nil, fmt.Errorf("display: framebuffer smaller than one screen")
	}
	return p, nil
}

func (p *framebufferPanel) ioctl(request uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, p.file.Fd(), request, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func (p *framebufferPanel) Width() int          { return int(p.varInfo.XRes) }
func (p *framebufferPanel) Height() int         { return int(p.varInfo.YRes) }
func (p *framebufferPanel) Format() PixelFormat { return p.format }
func (p *framebufferPanel) Stride() int         { return p.stride }
func (p *framebufferPanel) BufferCount() int    { return len(p.buffers) }

func (p *framebufferPanel) Buffer(index int) []byte {
	if index < 0 || index >= len(p.buffers) {
		return nil
	}
	return p.buffers[index]
}

func (p *framebufferPanel) Present(index int) error {
	if index < 0 || index >= len(p.buffers) {
		return ErrBufferIndex
	}
	if len(p.buffers) == 1 {
		return nil // single buffer is always visible
	}
	info := p.varInfo
	info.YOffset = uint32(index) * p.varInfo.YRes
	if err := p.ioctl(fbioPanDisplay, unsafe.Pointer(&info)); err != nil {
		return fmt.Errorf("framebuffer pan: %w", err)
	}
	p.varInfo.YOffset = info.YOffset
	return nil
}

func (p *framebufferPanel) WaitVSync() error {
	var arg uint32
	err := p.ioctl(fbioWaitForVSync, unsafe.Pointer(&arg))
	if err == unix.ENOTTY || err == unix.EINVAL {
		return nil // device has no vsync notion
	}
	return err
}

func (p *framebufferPanel) Close() error {
	var firstErr error
	if p.mem != nil {
		if err := unix.Munmap(p.mem); err != nil {
			firstErr = err
		}
		p.mem = nil
		p.buffers = nil
	}
	if p.file != nil {
		if err := p.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.file = nil
	}
	return firstErr
}
