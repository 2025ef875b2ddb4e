package codec

import (
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

type FontSource string

const (
	FontConfigured FontSource = "configured"
	FontEmbedded   FontSource = "embedded"
	FontBasic      FontSource = "basic"
)

var (
	embeddedOnce sync.Once
	embeddedFont *truetype.Font
	embeddedErr  error
)

// FontFace resolves a face of the given size. A configured TrueType file is
// tried first, then the embedded Go Regular font, then the fixed 7x13 bitmap
// face. It never fails.
func FontFace(path string, points float64) (font.Face, FontSource) {
	if points <= 0 {
		points = 12
	}

	if strings.TrimSpace(path) != "" {
		if face, err := gg.LoadFontFace(path, points); err == nil {
			return face, FontConfigured
		}
	}

	embeddedOnce.Do(func() {
		embeddedFont, embeddedErr = truetype.Parse(goregular.TTF)
	})
	if embeddedErr == nil {
		return truetype.NewFace(embeddedFont, &truetype.Options{Size: points}), FontEmbedded
	}

	return basicfont.Face7x13, FontBasic
}
