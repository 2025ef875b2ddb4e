package chain

import (
	"errors"
	"strings"

	"github.com/zhuangyq008/s3-image-process/internal/domain"
	"github.com/zhuangyq008/s3-image-process/internal/geometry"
)

const (
	// MaxDimension bounds requested output sizes.
	MaxDimension = 16384
	// MaxOffset bounds watermark offsets and tile padding.
	MaxOffset = 4096

	DefaultFormatQuality = 85
)

// ParamKeys lists the parameter keys each operation reads.
var ParamKeys = map[domain.OpKind][]string{
	domain.OpAutoOrient: {"auto"},
	domain.OpResize:     {"p", "w", "h", "m"},
	domain.OpCrop:       {"w", "h", "x", "y", "g", "p"},
	domain.OpWatermark:  {"text", "t", "g", "x", "y", "voffset", "fill", "padx", "pady", "size", "bg"},
	domain.OpFormat:     {"f", "q"},
	domain.OpQuality:    {"q", "Q"},
}

func buildAutoOrient(p params) (domain.Params, error) {
	enabled, err := p.intIn(autoKey, 1, 0, 1)
	if err != nil {
		return nil, p.invalid(autoKey, "must be 0 or 1")
	}
	return domain.AutoOrientParams{Enabled: enabled == 1}, nil
}

func buildResize(p params) (domain.Params, error) {
	var (
		out domain.ResizeParams
		err error
	)
	if out.Percent, err = p.intIn("p", 0, 1, 1000); err != nil {
		return nil, err
	}
	if out.Width, err = p.intIn("w", 0, 1, MaxDimension); err != nil {
		return nil, err
	}
	if out.Height, err = p.intIn("h", 0, 1, MaxDimension); err != nil {
		return nil, err
	}
	if out.Percent == 0 && out.Width == 0 && out.Height == 0 {
		return nil, p.invalid("p", "or w or h is required")
	}

	mode, ok := domain.ParseResizeMode(p.str("m", string(domain.ResizeLfit)))
	if !ok {
		return nil, p.invalid("m", "must be one of lfit, mfit, fill, pad, fixed, got %q", p.str("m", ""))
	}
	out.Mode = mode
	return out, nil
}

func buildCrop(p params) (domain.Params, error) {
	var (
		out domain.CropParams
		err error
	)
	if out.Width, err = p.intIn("w", 0, 1, MaxDimension); err != nil {
		return nil, err
	}
	if out.Height, err = p.intIn("h", 0, 1, MaxDimension); err != nil {
		return nil, err
	}
	if out.X, err = p.intIn("x", 0, 0, MaxDimension); err != nil {
		return nil, err
	}
	if out.Y, err = p.intIn("y", 0, 0, MaxDimension); err != nil {
		return nil, err
	}
	if out.Percent, err = p.intIn("p", 100, 1, 200); err != nil {
		return nil, err
	}
	if out.Gravity, err = gravity(p, geometry.NorthWest); err != nil {
		return nil, err
	}
	return out, nil
}

func buildWatermark(p params) (domain.Params, error) {
	out := domain.WatermarkParams{
		Text: strings.TrimSpace(p.str("text", "")),
	}
	if out.Text == "" {
		return nil, p.invalid("text", "is required")
	}

	var err error
	if out.Transparency, err = p.intIn("t", 100, 0, 100); err != nil {
		return nil, err
	}
	if out.Gravity, err = gravity(p, geometry.SouthEast); err != nil {
		return nil, err
	}
	if out.X, err = p.intIn("x", 10, 0, MaxOffset); err != nil {
		return nil, err
	}
	if out.Y, err = p.intIn("y", 10, 0, MaxOffset); err != nil {
		return nil, err
	}
	if out.VOffset, err = p.intIn("voffset", 0, -1000, 1000); err != nil {
		return nil, err
	}
	if out.Fill, err = p.flag("fill", false); err != nil {
		return nil, err
	}
	if out.PadX, err = p.intIn("padx", 0, 0, MaxOffset); err != nil {
		return nil, err
	}
	if out.PadY, err = p.intIn("pady", 0, 0, MaxOffset); err != nil {
		return nil, err
	}
	if out.Size, err = p.intIn("size", 0, 1, 512); err != nil {
		return nil, err
	}
	if out.Background, err = p.flag("bg", false); err != nil {
		return nil, err
	}
	return out, nil
}

func buildFormat(p params) (domain.Params, error) {
	name := p.str(formatKey, "jpg")
	format, ok := domain.ParseFormat(name)
	if !ok {
		return nil, p.invalid(formatKey, "must be one of jpg, jpeg, png, webp, bmp, gif, tiff, got %q", name)
	}

	quality, err := p.intIn("q", DefaultFormatQuality, 1, 100)
	if err != nil {
		return nil, err
	}
	return domain.FormatParams{Format: format, Quality: quality}, nil
}

func buildQuality(p params) (domain.Params, error) {
	hasRelative, hasAbsolute := p.has("q"), p.has("Q")
	switch {
	case hasRelative && hasAbsolute:
		return nil, p.invalid("q", "and Q are mutually exclusive")
	case !hasRelative && !hasAbsolute:
		return nil, p.invalid("q", "or Q is required")
	}

	var (
		out domain.QualityParams
		err error
	)
	if hasRelative {
		out.Relative, err = p.intIn("q", 0, 1, 100)
	} else {
		out.Absolute, err = p.intIn("Q", 0, 1, 100)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func gravity(p params, fallback geometry.Gravity) (geometry.Gravity, error) {
	if !p.has("g") {
		return fallback, nil
	}
	raw := p.str("g", "")
	g, err := geometry.ParseGravity(raw)
	switch {
	case errors.Is(err, geometry.ErrUnsupportedGravity):
		return 0, p.invalid("g", "%q is not supported", raw)
	case err != nil:
		return 0, p.invalid("g", "must be one of nw, north, ne, west, center, east, sw, south, se, got %q", raw)
	}
	return g, nil
}
