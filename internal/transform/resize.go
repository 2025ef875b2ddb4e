package transform

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/zhuangyq008/s3-image-process/internal/codec"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

var padColor = color.NRGBA{R: 255, G: 255, B: 255, A: 0}

// Resize scales the buffer. Any stored EXIF orientation is dropped, so a later
// auto-orient sees an upright image.
func Resize(buf *codec.Buffer, p domain.ResizeParams) error {
	w, h := buf.Width(), buf.Height()

	if p.Percent > 0 {
		sw, sh := scaled(w, p.Percent), scaled(h, p.Percent)
		if err := codec.CheckPixels(sw, sh); err != nil {
			return err
		}
		buf.Replace(imaging.Resize(buf.Image, sw, sh, imaging.Lanczos))
		buf.Orientation = 1
		return nil
	}

	tw, th := w, h
	if p.Width > 0 {
		tw = p.Width
	}
	if p.Height > 0 {
		th = p.Height
	}
	if err := codec.CheckPixels(tw, th); err != nil {
		return err
	}

	switch p.Mode {
	case domain.ResizeMfit, domain.ResizeFixed:
		buf.Replace(imaging.Resize(buf.Image, tw, th, imaging.Lanczos))
	case domain.ResizeFill:
		buf.Replace(imaging.Fill(buf.Image, tw, th, imaging.Center, imaging.Lanczos))
	case domain.ResizePad:
		fitted := imaging.Fit(buf.Image, tw, th, imaging.Lanczos)
		fb := fitted.Bounds()
		canvas := imaging.New(tw, th, padColor)
		buf.Replace(imaging.Paste(canvas, fitted, image.Pt((tw-fb.Dx())/2, (th-fb.Dy())/2)))
	default:
		buf.Replace(imaging.Fit(buf.Image, tw, th, imaging.Lanczos))
	}
	buf.Orientation = 1
	return nil
}

// scaled applies a percentage with truncation, never going below one pixel.
func scaled(n, percent int) int {
	return max(1, n*percent/100)
}
