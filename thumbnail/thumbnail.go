// Package thumbnail derives small previews of uploaded profile images.
package thumbnail

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	DefaultWidth  = 40
	DefaultHeight = 40
)

// Deriver scales images down to fit in a Width x Height box keeping the
// aspect ratio. Images already smaller than the box are only re-encoded.
type Deriver struct {
	Width  int
	Height int
}

func New() Deriver {
	return Deriver{Width: DefaultWidth, Height: DefaultHeight}
}

// Thumbnail decodes src and encodes the thumbnail in the format implied by
// the extension of filename.
func (d Deriver) Thumbnail(src []byte, filename string) ([]byte, error) {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return nil, fmt.Errorf("thumbnail format: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumbnail := imaging.Fit(img, d.Width, d.Height, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, format); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
