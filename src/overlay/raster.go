package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"voice-screen-capture/src/window"
)

var (
	veilColor   = color.NRGBA{R: 128, G: 128, B: 128, A: 128}
	borderColor = color.RGBA{R: 255, A: 255}
	textColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Rasterize paints f over the backdrop, a snapshot of the screen taken before
// the overlay appeared. A nil backdrop paints the veil over black.
func Rasterize(f Frame, backdrop image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	if backdrop != nil {
		draw.Draw(dst, dst.Bounds(), backdrop, backdrop.Bounds().Min, draw.Src)
	} else {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(veilColor), image.Point{}, draw.Over)

	if f.HasHighlight {
		drawBorder(dst, f.Highlight, f.BorderWidth)
	}
	if f.Text != "" {
		drawText(dst, f.Text, f.TextTop)
	}
	return dst
}

// drawBorder strokes r with a pen of the given width centred on its edges.
func drawBorder(dst draw.Image, r window.Rect, width int) {
	if width <= 0 {
		return
	}
	half := width / 2
	outer := image.Rect(r.Left-half, r.Top-half, r.Right+half, r.Bottom+half)
	inner := image.Rect(outer.Min.X+width, outer.Min.Y+width, outer.Max.X-width, outer.Max.Y-width)
	src := image.NewUniform(borderColor)

	if inner.Empty() {
		draw.Draw(dst, outer, src, image.Point{}, draw.Src)
		return
	}
	for _, band := range []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y), // top
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y), // bottom
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y), // left
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y), // right
	} {
		draw.Draw(dst, band, src, image.Point{}, draw.Src)
	}
}

// drawText renders s horizontally centred with its top at y. The second pass
// one pixel to the right gives the bitmap font a bold weight.
func drawText(dst *image.RGBA, s string, y int) {
	face := basicfont.Face7x13
	at := textBounds(s, dst.Bounds().Dx(), y)
	baseline := y + face.Metrics().Ascent.Ceil()

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(textColor), Face: face}
	for _, dx := range []int{0, 1} {
		d.Dot = fixed.P(at.Min.X+dx, baseline)
		d.DrawString(s)
	}
}

// textBounds returns the box drawText covers on an overlay of the given width.
func textBounds(s string, overlayWidth, y int) image.Rectangle {
	face := basicfont.Face7x13
	width := font.MeasureString(face, s).Ceil() + 1
	x := (overlayWidth - width) / 2
	m := face.Metrics()
	return image.Rect(x, y, x+width, y+(m.Ascent+m.Descent).Ceil())
}
