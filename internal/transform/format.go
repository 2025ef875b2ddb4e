package transform

import (
	"github.com/zhuangyq008/s3-image-process/internal/codec"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

// Format retargets the encoder. Transparent pixels are composited over
// white when the target has no alpha channel.
func Format(buf *codec.Buffer, p domain.FormatParams) error {
	if !p.Format.SupportsAlpha() && buf.HasAlpha() {
		buf.Replace(codec.Flatten(buf.Image))
	}
	buf.Format = p.Format
	buf.Quality = p.Quality
	return nil
}
