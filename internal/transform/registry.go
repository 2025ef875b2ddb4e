// Package transform holds the per-operation units that mutate a decoded
// codec.Buffer. Each unit reads only its own typed parameters.
package transform

import (
	"errors"
	"fmt"

	"github.com/zhuangyq008/s3-image-process/internal/apperror"
	"github.com/zhuangyq008/s3-image-process/internal/codec"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

var ErrParamsMismatch = errors.New("operation parameters do not match kind")

// Unit applies one operation to the buffer in place.
type Unit func(buf *codec.Buffer, params domain.Params) error

type Options struct {
	// FontPath is an optional TrueType file for watermark text.
	FontPath string
}

type Registry struct {
	units map[domain.OpKind]Unit
}

func NewRegistry(opts Options) *Registry {
	r := &Registry{units: make(map[domain.OpKind]Unit)}
	r.Register(domain.OpAutoOrient, unit(AutoOrient))
	r.Register(domain.OpResize, unit(Resize))
	r.Register(domain.OpCrop, unit(Crop))
	r.Register(domain.OpWatermark, unit(Watermarker{FontPath: opts.FontPath}.Apply))
	r.Register(domain.OpFormat, unit(Format))
	r.Register(domain.OpQuality, unit(Quality))
	return r
}

func (r *Registry) Register(kind domain.OpKind, u Unit) {
	r.units[kind] = u
}

func (r *Registry) Get(kind domain.OpKind) (Unit, bool) {
	u, ok := r.units[kind]
	return u, ok
}

// Apply dispatches op to its unit. Unregistered kinds and operations
// without parameters are unsupported.
func (r *Registry) Apply(buf *codec.Buffer, op domain.Operation) error {
	u, ok := r.units[op.Kind]
	if !ok || op.Params == nil {
		return apperror.UnsupportedOperation(string(op.Kind))
	}
	return u(buf, op.Params)
}

func unit[P domain.Params](fn func(*codec.Buffer, P) error) Unit {
	return func(buf *codec.Buffer, params domain.Params) error {
		typed, ok := params.(P)
		if !ok {
			return fmt.Errorf("%w: %T", ErrParamsMismatch, params)
		}
		return fn(buf, typed)
	}
}
