package transform

import (
	"github.com/disintegration/imaging"

	"github.com/zhuangyq008/s3-image-process/internal/codec"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
	"github.com/zhuangyq008/s3-image-process/internal/geometry"
)

// Crop cuts a box out of the buffer and optionally scales it. Like Resize it
// drops the stored EXIF orientation.
func Crop(buf *codec.Buffer, p domain.CropParams) error {
	w, h := buf.Width(), buf.Height()

	cw, ch := w, h
	if p.Width > 0 {
		cw = p.Width
	}
	if p.Height > 0 {
		ch = p.Height
	}

	box := geometry.CropBoxFor(w, h, cw, ch, p.Gravity, p.X, p.Y)
	cropped := imaging.Crop(buf.Image, box.Rect().Add(buf.Image.Bounds().Min))

	if p.Percent > 0 && p.Percent != 100 {
		sw, sh := scaled(box.Width(), p.Percent), scaled(box.Height(), p.Percent)
		if err := codec.CheckPixels(sw, sh); err != nil {
			return err
		}
		cropped = imaging.Resize(cropped, sw, sh, imaging.Lanczos)
	}
	buf.Replace(cropped)
	buf.Orientation = 1
	return nil
}
