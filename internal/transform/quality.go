package transform

import (
	"github.com/zhuangyq008/s3-image-process/internal/apperror"
	"github.com/zhuangyq008/s3-image-process/internal/codec"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

// Quality sets the lossy encode quality. An absolute target never exceeds
// the estimated quality of the source.
func Quality(buf *codec.Buffer, p domain.QualityParams) error {
	if !buf.Format.Lossy() {
		return apperror.Validation("format", "quality adjustment supports jpeg and webp only, got %s", buf.Format)
	}

	if p.IsRelative() {
		buf.Quality = p.Relative
		return nil
	}

	buf.Quality = p.Absolute
	if buf.SourceQuality > 0 {
		buf.Quality = min(buf.SourceQuality, p.Absolute)
	}
	return nil
}
