package domain

import (
	"path"
	"strings"
)

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWEBP Format = "webp"
	FormatBMP  Format = "bmp"
	FormatGIF  Format = "gif"
	FormatTIFF Format = "tiff"
)

const DefaultContentType = "image/jpeg"

// ParseFormat accepts the names allowed in a format operation.
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "jpg", "jpeg":
		return FormatJPEG, true
	case "png":
		return FormatPNG, true
	case "webp":
		return FormatWEBP, true
	case "bmp":
		return FormatBMP, true
	case "gif":
		return FormatGIF, true
	case "tiff":
		return FormatTIFF, true
	default:
		return "", false
	}
}

// FormatFromKey infers a format from an object key's extension.
func FormatFromKey(key string) (Format, bool) {
	ext := strings.TrimPrefix(path.Ext(key), ".")
	if strings.EqualFold(ext, "tif") {
		return FormatTIFF, true
	}
	return ParseFormat(ext)
}

func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWEBP:
		return "image/webp"
	case FormatBMP:
		return "image/bmp"
	case FormatGIF:
		return "image/gif"
	case FormatTIFF:
		return "image/tiff"
	default:
		return DefaultContentType
	}
}

// Lossy reports whether the encoder honours a quality setting.
func (f Format) Lossy() bool {
	return f == FormatJPEG || f == FormatWEBP
}

// SupportsAlpha is false for formats that must be flattened before encoding.
func (f Format) SupportsAlpha() bool {
	return f != FormatJPEG
}

func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}
