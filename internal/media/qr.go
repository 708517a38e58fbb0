package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QRText renders content (an invite link, say) as a half-block QR.
func QRText(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("generate QR: %w", err)
	}
	qr.DisableBorder = false
	return HalfBlocks(qr.Bitmap()), nil
}

// QRDataURLText renders the PNG QR the gateway returns for pairing.
func QRDataURLText(dataURL string) (string, error) {
	_, data, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode QR image: %w", err)
	}
	grid, err := ModulesFromImage(img)
	if err != nil {
		return "", err
	}
	return HalfBlocks(withQuietZone(grid, 2)), nil
}

var errNoQR = errors.New("no QR code found in image")

func dark(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return (r+g+b)/3 < 0x8000
}

// ModulesFromImage samples a rendered QR code back into its module grid.
// The module size is measured on the top-left finder pattern, which is
// seven modules wide.
func ModulesFromImage(img image.Image) ([][]bool, error) {
	b := img.Bounds()
	x0, y0 := -1, -1
	for y := b.Min.Y; y < b.Max.Y && x0 < 0; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if dark(img, x, y) {
				x0, y0 = x, y
				break
			}
		}
	}
	if x0 < 0 {
		return nil, errNoQR
	}

	run := 0
	for x := x0; x < b.Max.X && dark(img, x, y0); x++ {
		run++
	}
	module := float64(run) / 7
	if module < 1 {
		return nil, errNoQR
	}

	xr := x0
	for x := b.Max.X - 1; x >= x0; x-- {
		if dark(img, x, y0) {
			xr = x
			break
		}
	}
	n := int(math.Round(float64(xr-x0+1) / module))
	if n < 21 {
		return nil, errNoQR
	}
	module = float64(xr-x0+1) / float64(n)

	grid := make([][]bool, n)
	for row := range grid {
		grid[row] = make([]bool, n)
		py := y0 + int((float64(row)+0.5)*module)
		for col := range grid[row] {
			px := x0 + int((float64(col)+0.5)*module)
			if px < b.Max.X && py < b.Max.Y {
				grid[row][col] = dark(img, px, py)
			}
		}
	}
	return grid, nil
}

func withQuietZone(grid [][]bool, border int) [][]bool {
	n := len(grid)
	out := make([][]bool, n+2*border)
	for i := range out {
		out[i] = make([]bool, n+2*border)
	}
	for y, row := range grid {
		copy(out[y+border][border:], row)
	}
	return out
}

// HalfBlocks draws a bitmap two rows per line using Unicode half blocks.
func HalfBlocks(bitmap [][]bool) string {
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bot := false
			if y+1 < rows {
				bot = bitmap[y+1][x]
			}
			switch {
			case top && bot:
				sb.WriteRune('\u2588') // █
			case top && !bot:
				sb.WriteRune('\u2580') // ▀
			case !top && bot:
				sb.WriteRune('\u2584') // ▄
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
