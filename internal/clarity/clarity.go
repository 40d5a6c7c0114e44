// Package clarity scores how much usable detail an uploaded photo carries.
//
// The score is the variance of the photo's grayscale intensities normalized by
// 255². Flat or heavily blurred photos score close to zero; the value is not
// clamped and only thresholds react to it.
package clarity

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MinimumScore is the hard gate below which a submission is denied before classification.
const MinimumScore = 0.15

const maxIntensity = 255.0

// Assess decodes data and returns its clarity score. Undecodable or empty
// images score 0.
func Assess(data []byte) float64 {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0
	}

	levels := grayscale(img)
	if len(levels) == 0 {
		return 0
	}

	var sum float64
	for _, v := range levels {
		sum += float64(v)
	}
	mean := sum / float64(len(levels))

	var sq float64
	for _, v := range levels {
		d := float64(v) - mean
		sq += d * d
	}
	variance := sq / float64(len(levels))

	return variance / (maxIntensity * maxIntensity)
}

// Acceptable reports whether score passes the hard gate.
func Acceptable(score float64) bool {
	return score >= MinimumScore
}

func grayscale(img image.Image) []uint8 {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	if g, ok := img.(*image.Gray); ok {
		out := make([]uint8, 0, b.Dx()*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := g.PixOffset(b.Min.X, y)
			out = append(out, g.Pix[off:off+b.Dx()]...)
		}
		return out
	}

	out := make([]uint8, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, luma(img.At(x, y)))
		}
	}
	return out
}

// luma applies the ITU-R 601-2 transform on non-premultiplied 8-bit channels.
func luma(c color.Color) uint8 {
	if g, ok := c.(color.Gray); ok {
		return g.Y
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return uint8((uint32(n.R)*19595 + uint32(n.G)*38470 + uint32(n.B)*7471 + 1<<15) >> 16)
}
