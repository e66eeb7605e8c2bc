package scale

import "pixelframe/internal/display"

// Job describes one frame conversion. Src holds tightly packed RGBA; Dst is
// the panel buffer, addressed through DstStride because devices may pad
// rows beyond DstWidth pixels.
type Job struct {
	Src       []byte
	SrcWidth  int
	SrcHeight int

	Dst       []byte
	DstWidth  int
	DstHeight int
	DstStride int
	Format    display.PixelFormat

	// XLookup and YLookup map destination coordinates to source
	// coordinates, as built by BuildLookup.
	XLookup []uint16
	YLookup []uint16
}

// scaleRows converts destination rows [rowStart, rowEnd) of the job.
func scaleRows(job *Job, rowStart, rowEnd int) {
	switch job.Format {
	case display.BGR888:
		scaleRowsBGR888(job, rowStart, rowEnd)
	default:
		scaleRowsRGB565(job, rowStart, rowEnd)
	}
}

func scaleRowsRGB565(job *Job, rowStart, rowEnd int) {
	for y := rowStart; y < rowEnd; y++ {
		srcRow := job.Src[int(job.YLookup[y])*job.SrcWidth*4:]
		dstRow := job.Dst[y*job.DstStride:]
		for x := 0; x < job.DstWidth; x++ {
			src := srcRow[int(job.XLookup[x])*4:]
			r, g, b := uint16(src[0]), uint16(src[1]), uint16(src[2])
			pixel := (r&0xF8)<<8 | (g&0xFC)<<3 | b>>3
			dstRow[x*2] = byte(pixel)
			dstRow[x*2+1] = byte(pixel >> 8)
		}
	}
}

func scaleRowsBGR888(job *Job, rowStart, rowEnd int) {
	for y := rowStart; y < rowEnd; y++ {
		srcRow := job.Src[int(job.YLookup[y])*job.SrcWidth*4:]
		dstRow := job.Dst[y*job.DstStride:]
		for x := 0; x < job.DstWidth; x++ {
			src := srcRow[int(job.XLookup[x])*4:]
			off := x * 3
			dstRow[off] = src[2]
			dstRow[off+1] = src[1]
			dstRow[off+2] = src[0]
		}
	}
}
