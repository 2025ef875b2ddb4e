package domain

import "github.com/zhuangyq008/s3-image-process/internal/geometry"

type OpKind string

const (
	OpAutoOrient OpKind = "auto-orient"
	OpResize     OpKind = "resize"
	OpCrop       OpKind = "crop"
	OpWatermark  OpKind = "watermark"
	OpFormat     OpKind = "format"
	OpQuality    OpKind = "quality"
)

var KnownOps = []OpKind{OpAutoOrient, OpResize, OpCrop, OpWatermark, OpFormat, OpQuality}

func (k OpKind) Known() bool {
	for _, op := range KnownOps {
		if op == k {
			return true
		}
	}
	return false
}

// Params is the typed parameter record of one operation.
type Params interface {
	Op() OpKind
}

// Operation is one parsed chain segment. Params is nil when Kind is not a
// recognized operation; the executor rejects such entries.
type Operation struct {
	Kind   OpKind
	Params Params
}

// Chain is applied in order. An empty chain passes the image through.
type Chain []Operation

type ResizeMode string

const (
	ResizeLfit  ResizeMode = "lfit"
	ResizeMfit  ResizeMode = "mfit"
	ResizeFill  ResizeMode = "fill"
	ResizePad   ResizeMode = "pad"
	ResizeFixed ResizeMode = "fixed"
)

func ParseResizeMode(s string) (ResizeMode, bool) {
	switch m := ResizeMode(s); m {
	case ResizeLfit, ResizeMfit, ResizeFill, ResizePad, ResizeFixed:
		return m, true
	default:
		return "", false
	}
}

// ResizeParams: Percent wins when non-zero. Zero Width or Height keeps the
// current size on that axis.
type ResizeParams struct {
	Percent int
	Width   int
	Height  int
	Mode    ResizeMode
}

func (ResizeParams) Op() OpKind { return OpResize }

// CropParams: zero Width or Height selects the full image on that axis.
type CropParams struct {
	Width   int
	Height  int
	X       int
	Y       int
	Gravity geometry.Gravity
	Percent int
}

func (CropParams) Op() OpKind { return OpCrop }

type WatermarkParams struct {
	Text         string
	Transparency int
	Gravity      geometry.Gravity
	X            int
	Y            int
	VOffset      int
	Fill         bool
	PadX         int
	PadY         int
	// Size is the font size in points; zero derives it from the image.
	Size       int
	Background bool
}

func (WatermarkParams) Op() OpKind { return OpWatermark }

type FormatParams struct {
	Format  Format
	Quality int
}

func (FormatParams) Op() OpKind { return OpFormat }

// QualityParams holds exactly one of Relative or Absolute.
type QualityParams struct {
	Relative int
	Absolute int
}

func (QualityParams) Op() OpKind { return OpQuality }

func (p QualityParams) IsRelative() bool { return p.Relative > 0 }

type AutoOrientParams struct {
	Enabled bool
}

func (AutoOrientParams) Op() OpKind { return OpAutoOrient }
