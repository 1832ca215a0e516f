package qrcode

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	goqrcode "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNG_Dimensions(t *testing.T) {
	data, err := PNG("https://joes-cafe.blooreview.app", DefaultSize, DefaultMargin)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
	assert.Equal(t, DefaultSize, img.Bounds().Dy())

	// corners sit in the quiet zone
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r&g&b)

	// centre of the top-left finder pattern, module (3,3) past the margin
	q, err := goqrcode.New("https://joes-cafe.blooreview.app", goqrcode.Medium)
	require.NoError(t, err)
	q.DisableBorder = true
	total := len(q.Bitmap()) + 2*DefaultMargin
	p := ((3+DefaultMargin)*DefaultSize + total - 1) / total
	r, _, _, _ = img.At(p, p).RGBA()
	assert.Equal(t, uint32(0), r)
}

func TestPNG_Empty(t *testing.T) {
	_, err := PNG("", DefaultSize, DefaultMargin)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestDataURL(t *testing.T) {
	url, err := DataURL("https://example.com")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}
