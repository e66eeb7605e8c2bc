package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Extended-format feature flags carried by the VP8X chunk.
const (
	vp8xFlagAlpha     = 0x10
	vp8xFlagAnimation = 0x02
)

// ANMF frame flags.
const (
	anmfFlagDisposeBackground = 0x01
	anmfFlagNoBlend           = 0x02
)

// webpFrame is one animation frame demuxed from an ANMF chunk. Payload is a
// standalone RIFF container holding just this frame's bitstream so the
// actual pixel decode can be delegated to the image decoder.
type webpFrame struct {
	X, Y                int
	Width, Height       int
	Duration            time.Duration
	DisposeToBackground bool
	Blend               bool
	Payload             []byte
}

// webpContainer is the demuxed shape of a WebP file.
type webpContainer struct {
	Width, Height int
	Animated      bool
	HasAlpha      bool
	LoopCount     int
	Frames        []webpFrame
}

// parseWebPContainer walks the RIFF chunks of a WebP file. For animated
// files it collects every ANMF frame; still files report Animated false and
// callers decode the original bytes directly.
func parseWebPContainer(data []byte) (*webpContainer, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WEBP")) {
		return nil, ErrBadSignature
	}
	riffLen := int(binary.LittleEndian.Uint32(data[4:8]))
	if riffLen+8 < len(data) {
		data = data[:riffLen+8]
	}

	c := &webpContainer{LoopCount: 0}
	sawVP8X := false

	offset := 12
	for offset+8 <= len(data) {
		fourCC := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := data[offset+8:]
		if size > len(body) {
			return nil, fmt.Errorf("%w: truncated %s chunk", ErrUnsupported, fourCC)
		}
		body = body[:size]

		switch fourCC {
		case "VP8X":
			if size < 10 {
				return nil, fmt.Errorf("%w: short VP8X chunk", ErrUnsupported)
			}
			sawVP8X = true
			flags := body[0]
			c.HasAlpha = flags&vp8xFlagAlpha != 0
			c.Animated = flags&vp8xFlagAnimation != 0
			c.Width = int(readUint24(body[4:])) + 1
			c.Height = int(readUint24(body[7:])) + 1
		case "ANIM":
			if size >= 6 {
				c.LoopCount = int(binary.LittleEndian.Uint16(body[4:6]))
			}
		case "ANMF":
			frame, err := parseANMF(body)
			if err != nil {
				return nil, err
			}
			c.Frames = append(c.Frames, frame)
		}

		offset += 8 + size
		if size%2 == 1 {
			offset++ // chunks are padded to even sizes
		}
	}

	if c.Animated && len(c.Frames) == 0 {
		return nil, fmt.Errorf("%w: animation without frames", ErrUnsupported)
	}
	if !sawVP8X || !c.Animated {
		c.Animated = false
		c.Frames = nil
	}
	return c, nil
}

func parseANMF(body []byte) (webpFrame, error) {
	if len(body) < 16 {
		return webpFrame{}, fmt.Errorf("%w: short ANMF chunk", ErrUnsupported)
	}
	flags := body[15]
	frame := webpFrame{
		X:                   2 * int(readUint24(body[0:])),
		Y:                   2 * int(readUint24(body[3:])),
		Width:               int(readUint24(body[6:])) + 1,
		Height:              int(readUint24(body[9:])) + 1,
		Duration:            time.Duration(readUint24(body[12:])) * time.Millisecond,
		DisposeToBackground: flags&anmfFlagDisposeBackground != 0,
		Blend:               flags&anmfFlagNoBlend == 0,
	}

	payload, err := buildFrameBitstream(frame.Width, frame.Height, body[16:])
	if err != nil {
		return webpFrame{}, err
	}
	frame.Payload = payload
	return frame, nil
}

// buildFrameBitstream wraps the sub-chunks of an ANMF frame (optional ALPH
// plus VP8 or VP8L) into a minimal standalone WebP container.
func buildFrameBitstream(width, height int, body []byte) ([]byte, error) {
	var alph, image []byte
	var imageFourCC string

	offset := 0
	for offset+8 <= len(body) {
		fourCC := string(body[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(body[offset+4 : offset+8]))
		chunk := body[offset+8:]
		if size > len(chunk) {
			return nil, fmt.Errorf("%w: truncated %s chunk in frame", ErrUnsupported, fourCC)
		}
		chunk = chunk[:size]

		switch fourCC {
		case "ALPH":
			alph = body[offset : offset+8+size]
		case "VP8 ", "VP8L":
			image = body[offset : offset+8+size]
			imageFourCC = fourCC
		}

		offset += 8 + size
		if size%2 == 1 {
			offset++
		}
	}

	if image == nil {
		return nil, fmt.Errorf("%w: frame without image data", ErrUnsupported)
	}

	var payload bytes.Buffer
	if alph != nil && imageFourCC == "VP8 " {
		// A lossy frame with a separate alpha plane needs a VP8X header so
		// the decoder knows to expect the ALPH chunk.
		vp8x := make([]byte, 10)
		vp8x[0] = vp8xFlagAlpha
		writeUint24(vp8x[4:], uint32(width-1))
		writeUint24(vp8x[7:], uint32(height-1))
		writeChunk(&payload, "VP8X", vp8x)
		payload.Write(padChunk(alph))
	}
	payload.Write(padChunk(image))

	out := make([]byte, 0, 12+payload.Len())
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(4+payload.Len()))
	out = append(out, "WEBP"...)
	out = append(out, payload.Bytes()...)
	return out, nil
}

func writeChunk(buf *bytes.Buffer, fourCC string, body []byte) {
	buf.WriteString(fourCC)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(body)))
	buf.Write(size[:])
	buf.Write(body)
	if len(body)%2 == 1 {
		buf.WriteByte(0)
	}
}

// padChunk returns the raw chunk bytes with the trailing pad byte chunks of
// odd size require.
func padChunk(raw []byte) []byte {
	if len(raw)%2 == 1 {
		padded := make([]byte, len(raw)+1)
		copy(padded, raw)
		return padded
	}
	return raw
}

func readUint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func writeUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}
