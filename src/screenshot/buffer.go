package screenshot

import (
	"image"
	"image/color"
	"sync/atomic"
)

// PixelBuffer is a captured width x height grid of 32-bit ARGB pixels.
// Pixels that were outside every display stay 0 (fully transparent).
//
// A buffer is owned by whoever holds it until Deliver hands it to a sink;
// after that it is consumed and cannot be delivered again.
type PixelBuffer struct {
	width, height int
	pix           []uint32
	consumed      atomic.Bool
}

// NewPixelBuffer allocates a transparent buffer.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		width:  width,
		height: height,
		pix:    make([]uint32, width*height),
	}
}

func (b *PixelBuffer) Width() int  { return b.width }
func (b *PixelBuffer) Height() int { return b.height }

// ARGB returns the pixel at (x, y) as 0xAARRGGBB.
func (b *PixelBuffer) ARGB(x, y int) uint32 {
	return b.pix[y*b.width+x]
}

func (b *PixelBuffer) SetARGB(x, y int, v uint32) {
	b.pix[y*b.width+x] = v
}

// Consumed reports whether the buffer has already been delivered.
func (b *PixelBuffer) Consumed() bool { return b.consumed.Load() }

func (b *PixelBuffer) consume() bool { return b.consumed.CompareAndSwap(false, true) }

// blit copies src into the buffer with its top-left corner at (dx, dy).
// Pixels falling outside the buffer are dropped.
func (b *PixelBuffer) blit(src *image.RGBA, dx, dy int) {
	sb := src.Bounds()
	for y := 0; y < sb.Dy(); y++ {
		ty := y + dy
		if ty < 0 || ty >= b.height {
			continue
		}
		for x := 0; x < sb.Dx(); x++ {
			tx := x + dx
			if tx < 0 || tx >= b.width {
				continue
			}
			c := src.RGBAAt(sb.Min.X+x, sb.Min.Y+y)
			b.pix[ty*b.width+tx] = uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
		}
	}
}

// Image returns an RGBA copy of the buffer for encoders.
func (b *PixelBuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			v := b.pix[y*b.width+x]
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(v >> 16),
				G: uint8(v >> 8),
				B: uint8(v),
				A: uint8(v >> 24),
			})
		}
	}
	return img
}
