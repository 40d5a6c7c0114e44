package onnx

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Preprocess decodes data, resizes it to width x height and returns NHWC
// float32 RGB values scaled to [0, 1].
func Preprocess(data []byte, width, height int) ([]float32, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := make([]float32, 0, width*height*3)
	for i := 0; i < len(dst.Pix); i += 4 {
		out = append(out,
			float32(dst.Pix[i])/255,
			float32(dst.Pix[i+1])/255,
			float32(dst.Pix[i+2])/255,
		)
	}
	return out, nil
}
