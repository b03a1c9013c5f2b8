package vision

import (
	"bytes"
	"image"
	"image/png"

	_ "image/jpeg" // decode jpeg screenshots from the channel

	"golang.org/x/image/draw"
)

// maxScreenshotWidth caps the screenshot sent to a vision provider. Wider
// captures are downscaled to keep the image token cost bounded.
const maxScreenshotWidth = 1536

// downscaleScreenshot resizes a screenshot to at most maxScreenshotWidth,
// preserving aspect ratio, and re-encodes as PNG. On any decode failure the
// original bytes are returned unchanged so a vision call is never blocked by
// an unexpected image format.
func downscaleScreenshot(data []byte) []byte {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxScreenshotWidth {
		return data
	}

	scale := float64(maxScreenshotWidth) / float64(w)
	dst := image.NewRGBA(image.Rect(0, 0, maxScreenshotWidth, int(float64(h)*scale)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return data
	}
	return buf.Bytes()
}
