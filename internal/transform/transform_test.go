package transform

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhuangyq008/s3-image-process/internal/apperror"
	"github.com/zhuangyq008/s3-image-process/internal/codec"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
	"github.com/zhuangyq008/s3-image-process/internal/geometry"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// halves is red on the left half and blue on the right half.
func halves(w, h int) *image.NRGBA {
	img := solid(w, h, red)
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			img.SetNRGBA(x, y, blue)
		}
	}
	return img
}

func newBuffer(img image.Image, format domain.Format) *codec.Buffer {
	return &codec.Buffer{Image: img, Format: format, SourceFormat: format, Orientation: 1}
}

func rgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(img.Bounds().Min.X+x, img.Bounds().Min.Y+y)).(color.NRGBA)
}

func TestResizePercent(t *testing.T) {
	buf := newBuffer(solid(200, 120, red), domain.FormatPNG)
	require.NoError(t, Resize(buf, domain.ResizeParams{Percent: 100}))
	assert.Equal(t, 200, buf.Width())
	assert.Equal(t, 120, buf.Height())

	require.NoError(t, Resize(buf, domain.ResizeParams{Percent: 50}))
	assert.Equal(t, 100, buf.Width())
	assert.Equal(t, 60, buf.Height())

	require.NoError(t, Resize(buf, domain.ResizeParams{Percent: 250, Width: 10, Height: 10}))
	assert.Equal(t, 250, buf.Width())
	assert.Equal(t, 150, buf.Height())

	tiny := newBuffer(solid(3, 3, red), domain.FormatPNG)
	require.NoError(t, Resize(tiny, domain.ResizeParams{Percent: 1}))
	assert.Equal(t, 1, tiny.Width())
}

func TestResizeModes(t *testing.T) {
	tests := []struct {
		name  string
		srcW  int
		srcH  int
		p     domain.ResizeParams
		wantW int
		wantH int
	}{
		{"lfit shrinks to box", 400, 200, domain.ResizeParams{Width: 100, Height: 100, Mode: domain.ResizeLfit}, 100, 50},
		{"lfit never enlarges", 80, 40, domain.ResizeParams{Width: 300, Height: 300, Mode: domain.ResizeLfit}, 80, 40},
		{"lfit width only", 400, 200, domain.ResizeParams{Width: 200, Mode: domain.ResizeLfit}, 200, 100},
		{"mfit exact", 400, 200, domain.ResizeParams{Width: 90, Height: 300, Mode: domain.ResizeMfit}, 90, 300},
		{"fixed exact", 400, 200, domain.ResizeParams{Width: 50, Height: 50, Mode: domain.ResizeFixed}, 50, 50},
		{"fixed height only", 400, 200, domain.ResizeParams{Height: 50, Mode: domain.ResizeFixed}, 400, 50},
		{"fill exact", 400, 200, domain.ResizeParams{Width: 120, Height: 120, Mode: domain.ResizeFill}, 120, 120},
		{"pad exact wide", 400, 200, domain.ResizeParams{Width: 150, Height: 150, Mode: domain.ResizePad}, 150, 150},
		{"pad exact tall", 100, 300, domain.ResizeParams{Width: 150, Height: 90, Mode: domain.ResizePad}, 150, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := newBuffer(solid(tt.srcW, tt.srcH, red), domain.FormatPNG)
			require.NoError(t, Resize(buf, tt.p))
			assert.Equal(t, tt.wantW, buf.Width())
			assert.Equal(t, tt.wantH, buf.Height())
		})
	}
}

func TestResizeRejectsOversizedOutput(t *testing.T) {
	src := solid(2900, 2900, red)
	buf := newBuffer(src, domain.FormatPNG)
	err := Resize(buf, domain.ResizeParams{Percent: 1000})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Same(t, src, buf.Image)

	for _, mode := range []domain.ResizeMode{domain.ResizeMfit, domain.ResizeFixed, domain.ResizeFill, domain.ResizePad, domain.ResizeLfit} {
		small := newBuffer(solid(10, 10, red), domain.FormatPNG)
		err := Resize(small, domain.ResizeParams{Width: 16384, Height: 16384, Mode: mode})
		require.Error(t, err, mode)
		assert.True(t, apperror.Is(err, apperror.KindValidation), mode)
		assert.Equal(t, 10, small.Width())
	}
}

func TestResizeLfitPreservesAspect(t *testing.T) {
	buf := newBuffer(solid(997, 601, red), domain.FormatPNG)
	require.NoError(t, Resize(buf, domain.ResizeParams{Width: 300, Height: 300, Mode: domain.ResizeLfit}))

	assert.LessOrEqual(t, buf.Width(), 300)
	assert.LessOrEqual(t, buf.Height(), 300)
	expectedH := float64(buf.Width()) * 601 / 997
	assert.InDelta(t, expectedH, float64(buf.Height()), 1)
}

func TestResizePadLeavesTransparentBorders(t *testing.T) {
	buf := newBuffer(solid(200, 100, red), domain.FormatPNG)
	require.NoError(t, Resize(buf, domain.ResizeParams{Width: 100, Height: 100, Mode: domain.ResizePad}))

	assert.Equal(t, uint8(0), rgbaAt(buf.Image, 50, 5).A)
	center := rgbaAt(buf.Image, 50, 50)
	assert.Equal(t, uint8(255), center.A)
	assert.Greater(t, center.R, uint8(250))
	assert.True(t, buf.HasAlpha())
}

func TestCropGravityAndContent(t *testing.T) {
	buf := newBuffer(halves(100, 80), domain.FormatPNG)
	require.NoError(t, Crop(buf, domain.CropParams{Width: 40, Height: 40, Gravity: geometry.East, Percent: 100}))

	assert.Equal(t, 40, buf.Width())
	assert.Equal(t, 40, buf.Height())
	assert.Equal(t, blue, rgbaAt(buf.Image, 0, 0))
	assert.Equal(t, blue, rgbaAt(buf.Image, 39, 39))

	buf = newBuffer(halves(100, 80), domain.FormatPNG)
	require.NoError(t, Crop(buf, domain.CropParams{Width: 40, Height: 40, Gravity: geometry.NorthWest, Percent: 100}))
	assert.Equal(t, red, rgbaAt(buf.Image, 39, 0))
}

func TestCropDefaultsAndClamp(t *testing.T) {
	buf := newBuffer(solid(60, 30, red), domain.FormatPNG)
	require.NoError(t, Crop(buf, domain.CropParams{Percent: 100}))
	assert.Equal(t, 60, buf.Width())
	assert.Equal(t, 30, buf.Height())

	require.NoError(t, Crop(buf, domain.CropParams{Width: 500, Height: 500, X: 20, Y: 20, Percent: 100}))
	assert.Equal(t, 60, buf.Width())
	assert.Equal(t, 30, buf.Height())
}

func TestCropScalesResult(t *testing.T) {
	buf := newBuffer(solid(200, 200, red), domain.FormatPNG)
	require.NoError(t, Crop(buf, domain.CropParams{Width: 100, Height: 60, Percent: 150}))
	assert.Equal(t, 150, buf.Width())
	assert.Equal(t, 90, buf.Height())
}

func TestFormatFlattensTransparencyForJPEG(t *testing.T) {
	buf := newBuffer(solid(10, 10, color.NRGBA{}), domain.FormatPNG)
	require.NoError(t, Format(buf, domain.FormatParams{Format: domain.FormatJPEG, Quality: 70}))

	assert.Equal(t, domain.FormatJPEG, buf.Format)
	assert.Equal(t, 70, buf.Quality)
	assert.False(t, buf.HasAlpha())
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, rgbaAt(buf.Image, 3, 3))
}

func TestFormatKeepsAlphaForPNG(t *testing.T) {
	buf := newBuffer(solid(4, 4, color.NRGBA{R: 10, A: 100}), domain.FormatJPEG)
	require.NoError(t, Format(buf, domain.FormatParams{Format: domain.FormatPNG, Quality: 85}))
	assert.True(t, buf.HasAlpha())
	assert.Equal(t, domain.FormatPNG, buf.Format)
}

func TestQuality(t *testing.T) {
	buf := newBuffer(solid(4, 4, red), domain.FormatJPEG)
	buf.SourceQuality = 60

	require.NoError(t, Quality(buf, domain.QualityParams{Relative: 90}))
	assert.Equal(t, 90, buf.Quality)

	require.NoError(t, Quality(buf, domain.QualityParams{Absolute: 80}))
	assert.Equal(t, 60, buf.Quality)

	require.NoError(t, Quality(buf, domain.QualityParams{Absolute: 40}))
	assert.Equal(t, 40, buf.Quality)

	unknown := newBuffer(solid(4, 4, red), domain.FormatWEBP)
	require.NoError(t, Quality(unknown, domain.QualityParams{Absolute: 55}))
	assert.Equal(t, 55, unknown.Quality)
}

func TestQualityRejectsLosslessFormats(t *testing.T) {
	for _, f := range []domain.Format{domain.FormatPNG, domain.FormatGIF, domain.FormatBMP, domain.FormatTIFF} {
		err := Quality(newBuffer(solid(2, 2, red), f), domain.QualityParams{Relative: 50})
		require.Error(t, err, f)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	}
}

func TestAutoOrient(t *testing.T) {
	src := solid(4, 2, blue)
	src.SetNRGBA(0, 0, red)

	tests := []struct {
		orientation int
		wantW       int
		wantH       int
		redAt       image.Point
	}{
		{2, 4, 2, image.Pt(3, 0)},
		{3, 4, 2, image.Pt(3, 1)},
		{4, 4, 2, image.Pt(0, 1)},
		{5, 2, 4, image.Pt(0, 0)},
		{6, 2, 4, image.Pt(1, 0)},
		{7, 2, 4, image.Pt(1, 3)},
		{8, 2, 4, image.Pt(0, 3)},
	}

	for _, tt := range tests {
		buf := newBuffer(src, domain.FormatJPEG)
		buf.Orientation = tt.orientation
		require.NoError(t, AutoOrient(buf, domain.AutoOrientParams{Enabled: true}))

		assert.Equal(t, tt.wantW, buf.Width(), "orientation %d", tt.orientation)
		assert.Equal(t, tt.wantH, buf.Height(), "orientation %d", tt.orientation)
		assert.Equal(t, red, rgbaAt(buf.Image, tt.redAt.X, tt.redAt.Y), "orientation %d", tt.orientation)
		assert.Equal(t, 1, buf.Orientation)
	}
}

func TestAutoOrientNoopCases(t *testing.T) {
	src := solid(4, 2, blue)

	buf := newBuffer(src, domain.FormatJPEG)
	require.NoError(t, AutoOrient(buf, domain.AutoOrientParams{Enabled: true}))
	assert.Same(t, src, buf.Image)

	buf = newBuffer(src, domain.FormatJPEG)
	buf.Orientation = 6
	require.NoError(t, AutoOrient(buf, domain.AutoOrientParams{Enabled: false}))
	assert.Same(t, src, buf.Image)
	assert.Equal(t, 6, buf.Orientation)
}

func TestGeometryDropsOrientation(t *testing.T) {
	buf := newBuffer(solid(100, 60, red), domain.FormatJPEG)
	buf.Orientation = 6
	require.NoError(t, Crop(buf, domain.CropParams{Width: 50, Height: 40, Percent: 100}))
	assert.Equal(t, 1, buf.Orientation)
	require.NoError(t, AutoOrient(buf, domain.AutoOrientParams{Enabled: true}))
	assert.Equal(t, 50, buf.Width())
	assert.Equal(t, 40, buf.Height())

	buf = newBuffer(solid(100, 60, red), domain.FormatJPEG)
	buf.Orientation = 8
	require.NoError(t, Resize(buf, domain.ResizeParams{Percent: 50}))
	require.NoError(t, AutoOrient(buf, domain.AutoOrientParams{Enabled: true}))
	assert.Equal(t, 50, buf.Width())
	assert.Equal(t, 30, buf.Height())
}

func TestTextAlpha(t *testing.T) {
	assert.Equal(t, uint8(0), TextAlpha(0))
	assert.Equal(t, uint8(128), TextAlpha(50))
	assert.Equal(t, uint8(255), TextAlpha(100))
}

func TestWatermarkForcesOpaqueJPEG(t *testing.T) {
	src := solid(300, 200, color.NRGBA{A: 80})
	buf := newBuffer(src, domain.FormatPNG)

	err := Watermarker{}.Apply(buf, domain.WatermarkParams{
		Text:         "Copyright",
		Transparency: 100,
		Gravity:      geometry.SouthEast,
		X:            10,
		Y:            10,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.FormatJPEG, buf.Format)
	assert.False(t, buf.HasAlpha())
	assert.Equal(t, 300, buf.Width())
	assert.Equal(t, 200, buf.Height())
}

func TestWatermarkDrawsAtGravity(t *testing.T) {
	params := domain.WatermarkParams{Text: "WWWWWW", Transparency: 100, Gravity: geometry.NorthWest, Size: 24}

	buf := newBuffer(solid(240, 160, color.NRGBA{A: 255}), domain.FormatPNG)
	require.NoError(t, Watermarker{}.Apply(buf, params))

	assert.Greater(t, brightPixels(buf.Image, image.Rect(0, 0, 120, 60)), 0)
	assert.Zero(t, brightPixels(buf.Image, image.Rect(120, 80, 240, 160)))
}

func TestWatermarkFillCoversImage(t *testing.T) {
	single := newBuffer(solid(240, 160, color.NRGBA{A: 255}), domain.FormatPNG)
	params := domain.WatermarkParams{Text: "tile", Transparency: 100, Gravity: geometry.NorthWest, Size: 16}
	require.NoError(t, Watermarker{}.Apply(single, params))

	tiled := newBuffer(solid(240, 160, color.NRGBA{A: 255}), domain.FormatPNG)
	params.Fill = true
	params.PadX, params.PadY = 4, 4
	require.NoError(t, Watermarker{}.Apply(tiled, params))

	assert.Greater(t, brightPixels(tiled.Image, image.Rect(120, 80, 240, 160)), 0)
	assert.Greater(t, brightPixels(tiled.Image, tiled.Image.Bounds()), 4*brightPixels(single.Image, single.Image.Bounds()))
}

func TestWatermarkFillIgnoresAnchor(t *testing.T) {
	base := domain.WatermarkParams{Text: "tile", Transparency: 100, Size: 16, Fill: true, PadX: 10, PadY: 10}

	northWest := newBuffer(solid(200, 120, color.NRGBA{A: 255}), domain.FormatPNG)
	base.Gravity = geometry.NorthWest
	require.NoError(t, Watermarker{}.Apply(northWest, base))

	southEast := newBuffer(solid(200, 120, color.NRGBA{A: 255}), domain.FormatPNG)
	base.Gravity, base.X, base.Y = geometry.SouthEast, 30, 20
	require.NoError(t, Watermarker{}.Apply(southEast, base))

	assert.Equal(t, imaging.Clone(northWest.Image).Pix, imaging.Clone(southEast.Image).Pix)
}

func TestWatermarkFullyTransparentTextLeavesPixels(t *testing.T) {
	src := halves(120, 80)
	buf := newBuffer(src, domain.FormatPNG)
	require.NoError(t, Watermarker{}.Apply(buf, domain.WatermarkParams{Text: "hidden", Gravity: geometry.Center, Background: true}))

	for _, pt := range []image.Point{{5, 5}, {60, 40}, {115, 75}} {
		assert.Equal(t, rgbaAt(src, pt.X, pt.Y), rgbaAt(buf.Image, pt.X, pt.Y))
	}
}

func TestWatermarkBackgroundBox(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	params := domain.WatermarkParams{Text: "label", Transparency: 100, Gravity: geometry.NorthWest, X: 10, Y: 10, Size: 24}

	plain := newBuffer(solid(240, 160, white), domain.FormatPNG)
	require.NoError(t, Watermarker{}.Apply(plain, params))

	boxed := newBuffer(solid(240, 160, white), domain.FormatPNG)
	params.Background = true
	require.NoError(t, Watermarker{}.Apply(boxed, params))

	region := image.Rect(0, 0, 120, 60)
	assert.Zero(t, darkPixels(plain.Image, region))
	assert.Greater(t, darkPixels(boxed.Image, region), 0)
	assert.Zero(t, darkPixels(boxed.Image, image.Rect(160, 100, 240, 160)))
}

func darkPixels(img image.Image, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if rgbaAt(img, x, y).R < 200 {
				n++
			}
		}
	}
	return n
}

func brightPixels(img image.Image, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := rgbaAt(img, x, y)
			if math.Min(float64(c.R), math.Min(float64(c.G), float64(c.B))) > 128 {
				n++
			}
		}
	}
	return n
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(Options{})
	buf := newBuffer(solid(20, 20, red), domain.FormatPNG)

	require.NoError(t, reg.Apply(buf, domain.Operation{Kind: domain.OpResize, Params: domain.ResizeParams{Percent: 50}}))
	assert.Equal(t, 10, buf.Width())

	err := reg.Apply(buf, domain.Operation{Kind: "sharpen"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindUnsupportedOperation))

	err = reg.Apply(buf, domain.Operation{Kind: domain.OpCrop, Params: domain.ResizeParams{Percent: 50}})
	assert.ErrorIs(t, err, ErrParamsMismatch)

	for _, kind := range domain.KnownOps {
		_, ok := reg.Get(kind)
		assert.True(t, ok, kind)
	}
}
