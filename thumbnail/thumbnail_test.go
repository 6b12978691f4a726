package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
)

func encodedPNG(t *testing.T, width, height int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestThumbnailFitsBox(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		width, height int
		expected      image.Point
	}{
		{400, 200, image.Pt(40, 20)},
		{100, 100, image.Pt(40, 40)},
		{30, 60, image.Pt(20, 40)},
		// smaller images keep their size
		{16, 16, image.Pt(16, 16)},
	}
	for _, tc := range cases {
		thumbnail, err := New().Thumbnail(encodedPNG(t, tc.width, tc.height), "profile_pics/me.png")
		if !assert.NoError(err) {
			continue
		}
		img, err := imaging.Decode(bytes.NewReader(thumbnail))
		if !assert.NoError(err) {
			continue
		}
		assert.Equal(tc.expected, img.Bounds().Size(), tc)
	}
}

func TestThumbnailKeepsFormat(t *testing.T) {
	assert := assert.New(t)

	thumbnail, err := New().Thumbnail(encodedPNG(t, 80, 80), "me.jpg")
	if !assert.NoError(err) {
		return
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(thumbnail))
	if assert.NoError(err) {
		assert.Equal("jpeg", format)
	}
}

func TestThumbnailRejectsCorruptImage(t *testing.T) {
	assert := assert.New(t)

	_, err := New().Thumbnail([]byte("definitely not a png"), "me.png")
	assert.Error(err)

	_, err = New().Thumbnail(encodedPNG(t, 10, 10), "me.heic")
	assert.Error(err)
}
