package transform

import (
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/zhuangyq008/s3-image-process/internal/codec"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
	"github.com/zhuangyq008/s3-image-process/internal/geometry"
)

const minAutoFontSize = 8

type Watermarker struct {
	FontPath string
}

// Apply draws white text at the gravity anchor, or tiles it across the image
// when Fill is set. The result is opaque and always encoded as JPEG.
func (m Watermarker) Apply(buf *codec.Buffer, p domain.WatermarkParams) error {
	w, h := buf.Width(), buf.Height()

	size := float64(p.Size)
	if size <= 0 {
		size = max(float64(min(w, h))/30, minAutoFontSize)
	}
	face, _ := codec.FontFace(m.FontPath, size)

	dc := gg.NewContextForImage(buf.Image)
	dc.SetFontFace(face)

	mw, mh := dc.MeasureString(p.Text)
	tw, th := int(math.Ceil(mw)), int(math.Ceil(mh))
	alpha := TextAlpha(p.Transparency)

	var origins []image.Point
	if p.Fill {
		// Tiles only; the anchored copy is not drawn on top of them.
		origins = geometry.TilePositions(w, h, tw, th, p.PadX, p.PadY)
	} else {
		origins = []image.Point{geometry.WatermarkOrigin(w, h, tw, th, p.Gravity, p.X, p.Y, p.VOffset)}
	}

	for _, o := range origins {
		x, y := float64(o.X), float64(o.Y)
		if p.Background {
			pad := size / 4
			dc.SetRGBA255(0, 0, 0, int(alpha)/2)
			dc.DrawRectangle(x-pad, y-pad, mw+2*pad, mh+2*pad)
			dc.Fill()
		}
		dc.SetRGBA255(255, 255, 255, int(alpha))
		dc.DrawStringAnchored(p.Text, x, y, 0, 1)
	}

	buf.Replace(codec.Flatten(dc.Image()))
	buf.Format = domain.FormatJPEG
	return nil
}

// TextAlpha maps transparency 0..100 linearly onto 0..255.
func TextAlpha(t int) uint8 {
	return uint8(math.Round(float64(t) * 2.55))
}
