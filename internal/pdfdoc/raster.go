package pdfdoc

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// toPNG decodes an extracted image and re-encodes it as PNG.
func toPNG(r io.Reader, fileType string, maxDim int) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	switch fileType {
	case "png":
		img, err = png.Decode(r)
	case "jpg", "jpeg":
		img, err = jpeg.Decode(r)
	case "tif", "tiff":
		img, err = tiff.Decode(r)
	default:
		return nil, fmt.Errorf("unsupported image type %q", fileType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", fileType, err)
	}

	img = Thumbnail(img, maxDim)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Thumbnail scales img so that its longer side is at most maxDim, keeping
// the aspect ratio. Images already small enough, and maxDim <= 0, are
// returned unchanged.
func Thumbnail(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	nw, nh := maxDim, maxDim
	if w > h {
		nh = max(1, h*maxDim/w)
	} else {
		nw = max(1, w*maxDim/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
