package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

func sample(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	return img
}

// PNGBytes returns an encoded w x h PNG.
func PNGBytes(w, h int) []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, sample(w, h))
	return buf.Bytes()
}

// JPEGBytes returns an encoded w x h JPEG.
func JPEGBytes(w, h int) []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, sample(w, h), &jpeg.Options{Quality: 80})
	return buf.Bytes()
}
