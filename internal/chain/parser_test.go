package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhuangyq008/s3-image-process/internal/apperror"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
	"github.com/zhuangyq008/s3-image-process/internal/geometry"
)

func TestTokenize(t *testing.T) {
	segs, err := Tokenize("resize,p_50//crop,w_200,h_abc/format,png/watermark,text_hello_world")
	require.NoError(t, err)
	require.Len(t, segs, 4)

	assert.Equal(t, "resize", segs[0].Name)
	assert.Equal(t, Value{Raw: "50", Int: 50, IsInt: true}, segs[0].Params["p"])

	assert.Equal(t, "crop", segs[1].Name)
	assert.True(t, segs[1].Params["w"].IsInt)
	assert.Equal(t, Value{Raw: "abc"}, segs[1].Params["h"])

	assert.Equal(t, "png", segs[2].Params["f"].Raw)
	assert.Equal(t, "hello_world", segs[3].Params["text"].Raw)
}

func TestTokenizeAutoOrient(t *testing.T) {
	segs, err := Tokenize("auto-orient,0")
	require.NoError(t, err)
	assert.Equal(t, 0, segs[0].Params["auto"].Int)

	_, err = Tokenize("auto-orient,yes")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "/", "///"} {
		ops, err := Parse(in)
		require.NoError(t, err)
		assert.Empty(t, ops)
	}
}

func TestParseKeepsOrderAndUnknownOps(t *testing.T) {
	ops, err := Parse("resize,p_50/sharpen,a_1/crop,g_center,w_200,h_200/format,png")
	require.NoError(t, err)
	require.Len(t, ops, 4)

	assert.Equal(t, domain.OpResize, ops[0].Kind)
	assert.Equal(t, domain.OpKind("sharpen"), ops[1].Kind)
	assert.Nil(t, ops[1].Params)
	assert.Equal(t, domain.CropParams{Width: 200, Height: 200, Gravity: geometry.Center, Percent: 100}, ops[2].Params)
	assert.Equal(t, domain.FormatParams{Format: domain.FormatPNG, Quality: 85}, ops[3].Params)
}

func TestParseDefaults(t *testing.T) {
	ops, err := Parse("auto-orient/watermark,text_Copyright/format/resize,w_300")
	require.NoError(t, err)
	require.Len(t, ops, 4)

	assert.Equal(t, domain.AutoOrientParams{Enabled: true}, ops[0].Params)
	assert.Equal(t, domain.WatermarkParams{
		Text:         "Copyright",
		Transparency: 100,
		Gravity:      geometry.SouthEast,
		X:            10,
		Y:            10,
	}, ops[1].Params)
	assert.Equal(t, domain.FormatParams{Format: domain.FormatJPEG, Quality: 85}, ops[2].Params)
	assert.Equal(t, domain.ResizeParams{Width: 300, Mode: domain.ResizeLfit}, ops[3].Params)
}

func TestParseQuality(t *testing.T) {
	ops, err := Parse("quality,q_70")
	require.NoError(t, err)
	assert.Equal(t, domain.QualityParams{Relative: 70}, ops[0].Params)

	ops, err = Parse("quality,Q_40")
	require.NoError(t, err)
	assert.Equal(t, domain.QualityParams{Absolute: 40}, ops[0].Params)

	_, bothErr := Parse("quality,q_70,Q_40")
	_, neitherErr := Parse("quality")
	require.Error(t, bothErr)
	require.Error(t, neitherErr)
	assert.NotEqual(t, bothErr.Error(), neitherErr.Error())
}

func TestParseValidationErrors(t *testing.T) {
	tests := []struct {
		chain string
		field string
	}{
		{"resize,p_0", "p"},
		{"resize,p_1001", "p"},
		{"resize,m_lfit", "p"},
		{"resize,w_100,m_stretch", "m"},
		{"resize,w_-5", "w"},
		{"crop,w_0", "w"},
		{"crop,h_-1", "h"},
		{"crop,x_-1", "x"},
		{"crop,p_201", "p"},
		{"crop,g_face", "g"},
		{"crop,g_auto", "g"},
		{"crop,g_middle", "g"},
		{"watermark,t_50", "text"},
		{"watermark,text_hi,t_101", "t"},
		{"watermark,text_hi,g_left", "g"},
		{"watermark,text_hi,voffset_1001", "voffset"},
		{"watermark,text_hi,fill_2", "fill"},
		{"watermark,text_hi,x_5000", "x"},
		{"format,f_svg", "f"},
		{"format,png,q_0", "q"},
		{"quality,q_101", "q"},
		{"quality,Q_abc", "Q"},
		{"auto-orient,2", "auto"},
		{"auto-orient,auto_x", "auto"},
	}

	for _, tt := range tests {
		t.Run(tt.chain, func(t *testing.T) {
			_, err := Parse(tt.chain)
			require.Error(t, err)

			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.KindValidation, appErr.Kind)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestParseIgnoresUnknownKeys(t *testing.T) {
	ops, err := Parse("crop,w_10,h_10,zoom_3,bogus")
	require.NoError(t, err)
	assert.Equal(t, domain.CropParams{Width: 10, Height: 10, Percent: 100}, ops[0].Params)
}

func TestNewSegmentFromQueryValues(t *testing.T) {
	seg := NewSegment("crop", map[string]string{"w": "40", "h": " 30 ", "g": "center", "x": ""})
	assert.Equal(t, "crop,g_center,h_30,w_40", seg.String())

	op, err := Build(seg)
	require.NoError(t, err)
	p := op.Params.(domain.CropParams)
	assert.Equal(t, 40, p.Width)
	assert.Equal(t, 30, p.Height)
	assert.Equal(t, geometry.Center, p.Gravity)

	_, err = Build(NewSegment("resize", map[string]string{"w": "wide"}))
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}
