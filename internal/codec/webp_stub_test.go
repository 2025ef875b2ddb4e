//go:build !govips || !cgo

package codec

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhuangyq008/s3-image-process/internal/apperror"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

func TestEncodeWebPWithoutGovips(t *testing.T) {
	buf, err := Decode(buildTestPNG(t, 4, 4, color.White))
	require.NoError(t, err)
	buf.Format = domain.FormatWEBP

	_, err = Encode(buf)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindCodec))
	assert.True(t, errors.Is(err, ErrWebPNotEnabled))
	assert.False(t, WebPEnabled())
}
