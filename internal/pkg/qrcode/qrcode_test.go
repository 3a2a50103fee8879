package qrcode

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInURL(t *testing.T) {
	g := NewGenerator("https://mentorhub.app/check-in?src=qr", 256)
	got, err := g.CheckInURL("abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://mentorhub.app/check-in?src=qr&token=abc123", got)
}

func TestPNG(t *testing.T) {
	g := NewGenerator("http://localhost:3000/check-in", 128)
	data, err := g.PNG("deadbeef")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}
