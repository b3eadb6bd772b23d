package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"runtime"
)

const iconSize = 16

// Icon returns the tray icon in the format systray expects on this
// platform: ICO on Windows, PNG elsewhere.
func Icon() []byte {
	pngData := iconPNG()
	if runtime.GOOS == "windows" {
		return wrapICO(pngData, iconSize)
	}
	return pngData
}

// iconPNG draws a small camera: a dark body with a blue lens.
func iconPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	body := color.RGBA{0x33, 0x33, 0x33, 0xff}
	lens := color.RGBA{0x00, 0x78, 0xd4, 0xff}

	draw.Draw(img, image.Rect(1, 4, 15, 14), &image.Uniform{body}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(4, 2, 9, 4), &image.Uniform{body}, image.Point{}, draw.Src)
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := x-8, y-9
			if dx*dx+dy*dy <= 9 {
				img.Set(x, y, lens)
			}
		}
	}

	var buf bytes.Buffer
	// Encoding an in-memory RGBA cannot fail.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// wrapICO wraps a PNG in a single-entry ICO container.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	_ = binary.Write(&buf, le, [3]uint16{0, 1, 1}) // reserved, type icon, count
	_ = binary.Write(&buf, le, struct {
		W, H, Colors, Reserved uint8
		Planes, BPP            uint16
		Size, Offset           uint32
	}{uint8(size), uint8(size), 0, 0, 1, 32, uint32(len(pngData)), 6 + 16})
	buf.Write(pngData)
	return buf.Bytes()
}
