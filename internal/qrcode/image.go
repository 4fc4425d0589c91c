package qrcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const (
	// DefaultSize is the printed label width in pixels
	DefaultSize = 400
	// quietZone is the white border in modules
	quietZone = 4
)

// PNG renders a token at error-correction level H with a white quiet zone
func PNG(token string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}

	code, err := qr.Encode(token, qr.H, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qrcode: render: %w", err)
	}

	modules := code.Bounds().Dx()
	total := modules + 2*quietZone
	scale := size / total
	if scale < 1 {
		return nil, fmt.Errorf("qrcode: size %d too small for %d modules", size, total)
	}

	inner := modules * scale
	scaled, err := barcode.Scale(code, inner, inner)
	if err != nil {
		return nil, fmt.Errorf("qrcode: scale: %w", err)
	}

	canvas := image.NewGray(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	offset := (size - inner) / 2
	draw.Draw(canvas, image.Rect(offset, offset, offset+inner, offset+inner), scaled, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURL returns the PNG as an inline image for the dashboard
func DataURL(token string, size int) (string, error) {
	data, err := PNG(token, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
