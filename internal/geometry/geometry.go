package geometry

import "image"

// CropBox is a half-open pixel rectangle inside the source image.
type CropBox struct {
	X1, Y1, X2, Y2 int
}

func (b CropBox) Width() int  { return b.X2 - b.X1 }
func (b CropBox) Height() int { return b.Y2 - b.Y1 }

func (b CropBox) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// CropBoxFor places a cw x ch box on a w x h image. The size is clamped to
// the image and the offset is clamped so the box never leaves the image.
func CropBoxFor(w, h, cw, ch int, g Gravity, x, y int) CropBox {
	cw = min(cw, w)
	ch = min(ch, h)

	ha, va := g.anchors()

	var baseX, baseY int
	switch ha {
	case anchorHCenter:
		baseX = floorDiv(w-cw, 2)
	case anchorRight:
		baseX = w - cw
	}
	switch va {
	case anchorMiddle:
		baseY = floorDiv(h-ch, 2)
	case anchorBottom:
		baseY = h - ch
	}

	x1 := clamp(baseX+x, 0, w-cw)
	y1 := clamp(baseY+y, 0, h-ch)
	return CropBox{X1: x1, Y1: y1, X2: x1 + cw, Y2: y1 + ch}
}

// WatermarkOrigin returns the top-left point for a tw x th text block.
// Offsets push inward from the anchored edge; the result is not clamped.
func WatermarkOrigin(w, h, tw, th int, g Gravity, x, y, voffset int) image.Point {
	ha, va := g.anchors()

	var pt image.Point
	switch ha {
	case anchorLeft:
		pt.X = x
	case anchorHCenter:
		pt.X = floorDiv(w-tw, 2)
	case anchorRight:
		pt.X = w - tw - x
	}
	switch va {
	case anchorTop:
		pt.Y = y
	case anchorMiddle:
		pt.Y = floorDiv(h-th, 2) + voffset
	case anchorBottom:
		pt.Y = h - th - y
	}
	return pt
}

// TilePositions lays a grid from (0,0) with step (tw+padx, th+pady) until
// the image bounds are covered.
func TilePositions(w, h, tw, th, padx, pady int) []image.Point {
	stepX := max(1, tw+padx)
	stepY := max(1, th+pady)

	var out []image.Point
	for px := 0; px < w; px += stepX {
		for py := 0; py < h; py += stepY {
			out = append(out, image.Pt(px, py))
		}
	}
	return out
}

// floorDiv rounds toward negative infinity, unlike Go's / operator.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
