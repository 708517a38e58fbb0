// Package media prepares images for the gateway and renders QR codes for the
// terminal.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Group photo limits.
const (
	MaxUploadBytes = 10 << 20
	MaxSide        = 640
	MinSide        = 64
	JPEGQuality    = 80
)

// Formats accepted for group photos, as reported by image.Decode.
var acceptedFormats = map[string]bool{"jpeg": true, "png": true, "gif": true, "webp": true}

// ErrTooLarge rejects uploads over MaxUploadBytes.
var ErrTooLarge = errors.New("image is larger than 10MB")

// FitSize scales w x h so neither side exceeds MaxSide, enlarging images
// whose sides are both under MinSide first. Aspect ratio is kept.
func FitSize(w, h int) (int, int) {
	fw, fh := float64(w), float64(h)
	if w < MinSide && h < MinSide {
		scale := MinSide / math.Max(fw, fh)
		fw, fh = fw*scale, fh*scale
	}
	if fw > MaxSide || fh > MaxSide {
		if fw > fh {
			fh = fh * MaxSide / fw
			fw = MaxSide
		} else {
			fw = fw * MaxSide / fh
			fh = MaxSide
		}
	}
	return max(1, int(math.Round(fw))), max(1, int(math.Round(fh)))
}

// PrepareGroupPhoto decodes a JPEG, PNG, GIF or WebP image, fits it with
// FitSize, flattens transparency onto white and encodes it as JPEG.
func PrepareGroupPhoto(data []byte) ([]byte, error) {
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if !acceptedFormats[format] {
		return nil, fmt.Errorf("unsupported image format %q", format)
	}

	b := src.Bounds()
	w, h := FitSize(b.Dx(), b.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}
