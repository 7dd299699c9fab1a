// Package background provides the collage backdrop: a built-in default
// plus decoding of user-supplied replacements. All validation and
// decoding happens here, so the composition engine only ever sees
// finished rasters.
package background

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	"github.com/micahKingVinciworks/pdf-marketing-image-app/filetype"
)

//go:embed assets/default.png
var defaultPNG []byte

var (
	defaultOnce sync.Once
	defaultImg  image.Image
)

// Default returns the built-in backdrop. The asset is compiled into
// the binary; a decode failure here means a broken build, so it panics
// rather than returning an error nobody can act on.
func Default() image.Image {
	defaultOnce.Do(func() {
		img, err := imaging.Decode(bytes.NewReader(defaultPNG))
		if err != nil {
			panic(fmt.Sprintf("embedded default background corrupt: %v", err))
		}
		defaultImg = img
	})
	return defaultImg
}

// FromBytes validates that data carries a JPEG or PNG payload and
// decodes it, honoring EXIF orientation so photos come in upright.
func FromBytes(data []byte) (image.Image, error) {
	info, err := filetype.RequireImage(data)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s background: %w", info.Kind, err)
	}

	log.Debug().
		Str("mime", info.MIMEType).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("background decoded")

	return img, nil
}
