package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h   int
		ww, wh int
	}{
		{100, 50, 100, 50},
		{1280, 640, 640, 320},
		{640, 1280, 320, 640},
		{2000, 2000, 640, 640},
		{32, 16, 64, 32},
		{10, 100, 10, 100},
		{640, 640, 640, 640},
	}
	for _, tt := range tests {
		w, h := FitSize(tt.w, tt.h)
		assert.Equal(t, []int{tt.ww, tt.wh}, []int{w, h}, "FitSize(%d, %d)", tt.w, tt.h)
	}
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareGroupPhotoDownscales(t *testing.T) {
	out, err := PrepareGroupPhoto(pngBytes(t, 1280, 960, color.NRGBA{R: 200, A: 255}))
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
}

func TestPrepareGroupPhotoFlattensOnWhite(t *testing.T) {
	out, err := PrepareGroupPhoto(pngBytes(t, 100, 100, color.NRGBA{}))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	r, g, b, _ := img.At(50, 50).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}

func TestPrepareGroupPhotoRejects(t *testing.T) {
	_, err := PrepareGroupPhoto(make([]byte, MaxUploadBytes+1))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = PrepareGroupPhoto([]byte("not an image"))
	assert.Error(t, err)
}

func TestDataURLRoundTrip(t *testing.T) {
	url := JPEGDataURL([]byte{0xff, 0xd8, 0xff})
	assert.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))

	mime, data, err := ParseDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)

	_, _, err = ParseDataURL("https://example.com/a.png")
	assert.ErrorIs(t, err, ErrNotDataURL)
}

func TestModulesFromGatewayPNG(t *testing.T) {
	qr, err := qrcode.New("2@pairing-ref,key,identity,adv", qrcode.Medium)
	require.NoError(t, err)
	qr.DisableBorder = true
	want := qr.Bitmap()

	raw, err := qr.PNG(256)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	got, err := ModulesFromImage(img)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestQRDataURLText(t *testing.T) {
	raw, err := qrcode.Encode("hello", qrcode.Low, 200)
	require.NoError(t, err)
	text, err := QRDataURLText(DataURL("image/png", raw))
	require.NoError(t, err)
	assert.Contains(t, text, "█")

	_, err = QRDataURLText(DataURL("image/png", pngBytes(t, 50, 50, color.White)))
	assert.Error(t, err)
}

func TestHalfBlocks(t *testing.T) {
	got := HalfBlocks([][]bool{
		{true, false, true, false},
		{true, true, false, false},
	})
	assert.Equal(t, "  █▄▀ \n", got)
}

func TestQRText(t *testing.T) {
	text, err := QRText("https://chat.whatsapp.com/AbC123")
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}
