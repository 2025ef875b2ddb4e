package transform

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/zhuangyq008/s3-image-process/internal/codec"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

type orientation struct {
	mirror bool
	// degrees counter-clockwise
	rotate int
}

var orientations = map[int]orientation{
	1: {false, 0},
	2: {true, 0},
	3: {false, 180},
	4: {true, 180},
	5: {true, 90},
	6: {false, -90},
	7: {true, -90},
	8: {false, 90},
}

// AutoOrient bakes the EXIF orientation into the pixels. Missing or
// unknown orientation leaves the image untouched.
func AutoOrient(buf *codec.Buffer, p domain.AutoOrientParams) error {
	if !p.Enabled {
		return nil
	}
	o, ok := orientations[buf.Orientation]
	if !ok || (!o.mirror && o.rotate == 0) {
		return nil
	}

	img := buf.Image
	if o.mirror {
		img = imaging.FlipH(img)
	}
	img = rotate(img, o.rotate)

	buf.Replace(img)
	buf.Orientation = 1
	return nil
}

func rotate(img image.Image, degrees int) image.Image {
	switch degrees {
	case 90:
		return imaging.Rotate90(img)
	case -90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	default:
		return img
	}
}
