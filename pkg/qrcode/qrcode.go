// Package qrcode renders review page links as PNG data URLs for print.
package qrcode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"

	goqrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultSize   = 256
	DefaultMargin = 2 // quiet zone, in modules
)

var ErrEmptyContent = errors.New("qr code content is empty")

// PNG encodes content as a black on white square of size pixels
func PNG(content string, size, margin int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	q, err := goqrcode.New(content, goqrcode.Medium)
	if err != nil {
		return nil, err
	}
	q.DisableBorder = true
	modules := q.Bitmap()

	img := render(modules, size, margin)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURL returns the PNG as a data:image/png;base64 URL
func DataURL(content string) (string, error) {
	data, err := PNG(content, DefaultSize, DefaultMargin)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func render(modules [][]bool, size, margin int) *image.Paletted {
	palette := color.Palette{color.White, color.Black}
	img := image.NewPaletted(image.Rect(0, 0, size, size), palette)

	total := len(modules) + 2*margin
	if total == 0 {
		return img
	}

	// nearest module for every pixel keeps the output exactly size x size
	for y := 0; y < size; y++ {
		row := y*total/size - margin
		if row < 0 || row >= len(modules) {
			continue
		}
		for x := 0; x < size; x++ {
			col := x*total/size - margin
			if col < 0 || col >= len(modules[row]) {
				continue
			}
			if modules[row][col] {
				img.SetColorIndex(x, y, 1)
			}
		}
	}
	return img
}
