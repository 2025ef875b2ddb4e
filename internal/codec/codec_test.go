package codec

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhuangyq008/s3-image-process/internal/apperror"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

func buildTestPNG(t *testing.T, w, h int, fill color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func buildTestJPEG(t *testing.T, w, h, quality int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

// withOrientation splices a big-endian EXIF APP1 segment after SOI.
func withOrientation(t *testing.T, jpg []byte, orientation uint16) []byte {
	t.Helper()
	require.True(t, len(jpg) > 2 && jpg[0] == 0xFF && jpg[1] == 0xD8)

	var tiff bytes.Buffer
	tiff.WriteString("MM")
	_ = binary.Write(&tiff, binary.BigEndian, uint16(42))
	_ = binary.Write(&tiff, binary.BigEndian, uint32(8))
	_ = binary.Write(&tiff, binary.BigEndian, uint16(1))
	_ = binary.Write(&tiff, binary.BigEndian, uint16(tagOrientation))
	_ = binary.Write(&tiff, binary.BigEndian, uint16(typeShort))
	_ = binary.Write(&tiff, binary.BigEndian, uint32(1))
	_ = binary.Write(&tiff, binary.BigEndian, orientation)
	_ = binary.Write(&tiff, binary.BigEndian, uint16(0))
	_ = binary.Write(&tiff, binary.BigEndian, uint32(0))

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var out bytes.Buffer
	out.Write(jpg[:2])
	out.Write([]byte{0xFF, markerAPP1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(jpg[2:])
	return out.Bytes()
}

func TestDecodePNG(t *testing.T) {
	buf, err := Decode(buildTestPNG(t, 40, 30, color.NRGBA{R: 255, A: 128}))
	require.NoError(t, err)

	assert.Equal(t, domain.FormatPNG, buf.Format)
	assert.Equal(t, domain.FormatPNG, buf.SourceFormat)
	assert.Equal(t, 40, buf.Width())
	assert.Equal(t, 30, buf.Height())
	assert.Equal(t, 1, buf.Orientation)
	assert.Zero(t, buf.SourceQuality)
	assert.True(t, buf.HasAlpha())
}

func TestDecodeJPEGReadsQualityAndOrientation(t *testing.T) {
	data := withOrientation(t, buildTestJPEG(t, 64, 48, 75), 6)

	buf, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatJPEG, buf.Format)
	assert.Equal(t, 6, buf.Orientation)
	assert.Equal(t, 75, buf.SourceQuality)
	assert.Equal(t, 75, buf.Quality)
	assert.False(t, buf.HasAlpha())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindCodec))
}

func TestCheckPixels(t *testing.T) {
	require.NoError(t, CheckPixels(8000, 10000))
	require.NoError(t, CheckPixels(1, 1))

	for _, size := range [][2]int{{10000, 10000}, {16384, 16384}, {MaxPixels, 2}} {
		err := CheckPixels(size[0], size[1])
		require.Error(t, err, size)
		assert.True(t, apperror.Is(err, apperror.KindValidation), size)
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, "size", appErr.Field)
	}
}

func TestEstimateJPEGQuality(t *testing.T) {
	for _, q := range []int{30, 60, 75, 90, 100} {
		assert.Equal(t, q, EstimateJPEGQuality(buildTestJPEG(t, 16, 16, q)), "quality %d", q)
	}
	assert.Zero(t, EstimateJPEGQuality(buildTestPNG(t, 4, 4, color.White)))
}

func TestReadOrientation(t *testing.T) {
	base := buildTestJPEG(t, 8, 8, 80)
	assert.Equal(t, 1, ReadOrientation(base))
	for o := uint16(1); o <= 8; o++ {
		assert.Equal(t, int(o), ReadOrientation(withOrientation(t, base, o)))
	}
	assert.Equal(t, 1, ReadOrientation(withOrientation(t, base, 42)))
	assert.Equal(t, 1, ReadOrientation([]byte{0xFF, 0xD8, 0xFF}))
	assert.Equal(t, 1, ReadOrientation(nil))
}

func TestEncodeJPEGFlattensTransparency(t *testing.T) {
	buf, err := Decode(buildTestPNG(t, 10, 10, color.NRGBA{}))
	require.NoError(t, err)
	buf.Format = domain.FormatJPEG

	out, err := Encode(buf)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestEncodeRoundTripsFormats(t *testing.T) {
	for _, f := range []domain.Format{domain.FormatPNG, domain.FormatGIF, domain.FormatBMP, domain.FormatTIFF} {
		buf, err := Decode(buildTestPNG(t, 12, 7, color.NRGBA{G: 200, A: 255}))
		require.NoError(t, err)
		buf.Format = f

		out, err := Encode(buf)
		require.NoError(t, err, f)

		cfg, name, err := image.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err, f)
		assert.Equal(t, string(f), name)
		assert.Equal(t, 12, cfg.Width)
		assert.Equal(t, 7, cfg.Height)
	}
}

func TestFlattenKeepsOpaqueImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	assert.Same(t, img, Flatten(img))
}

func TestFontFaceFallsBack(t *testing.T) {
	face, src := FontFace("/nonexistent/font.ttf", 24)
	require.NotNil(t, face)
	assert.Equal(t, FontEmbedded, src)
	assert.Greater(t, face.Metrics().Height.Ceil(), 13)
}
