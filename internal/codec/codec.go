// Package codec decodes source bytes into a Buffer and encodes a Buffer back
// into bytes. Pixel work is delegated to imaging; WebP output goes through
// libvips when built with the govips tag.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/zhuangyq008/s3-image-process/internal/apperror"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

const (
	DefaultQuality = 85
	// MaxPixels guards against decompression bombs.
	MaxPixels = 80_000_000
)

var (
	ErrTooLarge       = errors.New("image exceeds pixel limit")
	ErrUnknownFormat  = errors.New("unrecognized image format")
	ErrWebPNotEnabled = errors.New("webp encoding requires the govips build")
)

// Buffer is the single decoded image a pipeline run owns.
type Buffer struct {
	Image image.Image

	// Format is the encode target. It starts as SourceFormat.
	Format       domain.Format
	SourceFormat domain.Format

	// Quality is the encode quality; zero selects DefaultQuality.
	Quality int
	// SourceQuality is the estimated quality of a JPEG source, zero if unknown.
	SourceQuality int

	// Orientation is the EXIF orientation tag, 1 when absent.
	Orientation int
}

func (b *Buffer) Width() int  { return b.Image.Bounds().Dx() }
func (b *Buffer) Height() int { return b.Image.Bounds().Dy() }

func (b *Buffer) HasAlpha() bool {
	if o, ok := b.Image.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}

// Replace swaps in the output of a transform.
func (b *Buffer) Replace(img image.Image) {
	b.Image = img
}

// EncodeQuality is the quality the encoder will use.
func (b *Buffer) EncodeQuality() int {
	if b.Quality > 0 {
		return b.Quality
	}
	return DefaultQuality
}

// CheckPixels rejects an output size above MaxPixels before any pixels are
// allocated for it.
func CheckPixels(w, h int) error {
	if int64(w)*int64(h) > MaxPixels {
		return apperror.Validation("size", "output %dx%d exceeds %d pixels", w, h, MaxPixels)
	}
	return nil
}

func Decode(data []byte) (*Buffer, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.Codec("decode image", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, apperror.Codec("decode image", fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height))
	}
	format, ok := domain.ParseFormat(name)
	if !ok {
		return nil, apperror.Codec("decode image", fmt.Errorf("%w: %s", ErrUnknownFormat, name))
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.Codec("decode image", err)
	}

	buf := &Buffer{
		Image:        img,
		Format:       format,
		SourceFormat: format,
		Orientation:  1,
	}
	if format == domain.FormatJPEG {
		buf.Orientation = ReadOrientation(data)
		buf.SourceQuality = EstimateJPEGQuality(data)
		buf.Quality = buf.SourceQuality
	}
	return buf, nil
}

func Encode(b *Buffer) ([]byte, error) {
	var (
		out bytes.Buffer
		err error
	)
	switch b.Format {
	case domain.FormatJPEG:
		err = imaging.Encode(&out, Flatten(b.Image), imaging.JPEG, imaging.JPEGQuality(b.EncodeQuality()))
	case domain.FormatPNG:
		err = imaging.Encode(&out, b.Image, imaging.PNG)
	case domain.FormatGIF:
		err = imaging.Encode(&out, b.Image, imaging.GIF)
	case domain.FormatBMP:
		err = imaging.Encode(&out, b.Image, imaging.BMP)
	case domain.FormatTIFF:
		err = imaging.Encode(&out, b.Image, imaging.TIFF)
	case domain.FormatWEBP:
		var data []byte
		data, err = encodeWebP(b.Image, b.EncodeQuality())
		out.Write(data)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, b.Format)
	}
	if err != nil {
		return nil, apperror.Codec("encode "+string(b.Format), err)
	}
	return out.Bytes(), nil
}

// Flatten composites img over opaque white so transparent pixels become
// white rather than black.
func Flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	bounds := img.Bounds()
	bg := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
