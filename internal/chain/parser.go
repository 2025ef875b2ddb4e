// Package chain parses the compact operation syntax
// "op,k_v,k_v/op,k_v/..." into typed operations.
package chain

import (
	"sort"
	"strconv"
	"strings"

	"github.com/zhuangyq008/s3-image-process/internal/apperror"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

const (
	segmentSep = "/"
	tokenSep   = ","
	kvSep      = "_"

	autoKey   = "auto"
	formatKey = "f"
)

// Value is one parameter value. Integer-looking text is coerced.
type Value struct {
	Raw   string
	Int   int
	IsInt bool
}

func newValue(raw string) Value {
	v := Value{Raw: raw}
	if n, err := strconv.Atoi(raw); err == nil {
		v.Int = n
		v.IsInt = true
	}
	return v
}

// Segment is a tokenized chain segment before typing.
type Segment struct {
	Name   string
	Params map[string]Value
}

// NewSegment builds a segment from already separated key/value pairs, such
// as query parameters. Blank values are dropped.
func NewSegment(name string, values map[string]string) Segment {
	seg := Segment{Name: name, Params: make(map[string]Value, len(values))}
	for k, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		seg.Params[k] = newValue(v)
	}
	return seg
}

// String renders the segment in chain syntax with keys sorted.
func (s Segment) String() string {
	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(s.Name)
	for _, k := range keys {
		b.WriteString(tokenSep)
		b.WriteString(k)
		b.WriteString(kvSep)
		b.WriteString(s.Params[k].Raw)
	}
	return b.String()
}

// Tokenize splits a chain into raw segments. Empty segments are skipped.
func Tokenize(s string) ([]Segment, error) {
	var out []Segment
	for _, raw := range strings.Split(s, segmentSep) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		seg, err := tokenizeSegment(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, nil
}

func tokenizeSegment(raw string) (Segment, error) {
	tokens := strings.Split(raw, tokenSep)
	seg := Segment{
		Name:   strings.TrimSpace(tokens[0]),
		Params: make(map[string]Value, len(tokens)-1),
	}
	op := domain.OpKind(seg.Name)

	for _, tok := range tokens[1:] {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		key, value, hasKV := strings.Cut(tok, kvSep)
		switch {
		case op == domain.OpAutoOrient && !hasKV:
			v := newValue(tok)
			if !v.IsInt {
				return Segment{}, apperror.Validation(autoKey, "auto-orient value must be 0 or 1, got %q", tok)
			}
			seg.Params[autoKey] = v
		case hasKV:
			seg.Params[key] = newValue(value)
		case op == domain.OpFormat:
			seg.Params[formatKey] = newValue(tok)
		}
	}
	return seg, nil
}

// Parse tokenizes and types a whole chain. Unknown operation names are kept
// with nil Params so that dispatch can report them.
func Parse(s string) (domain.Chain, error) {
	segments, err := Tokenize(s)
	if err != nil {
		return nil, err
	}

	out := make(domain.Chain, 0, len(segments))
	for _, seg := range segments {
		op, err := Build(seg)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, nil
}

// Build converts one raw segment into a typed operation, validating every
// parameter the operation reads.
func Build(seg Segment) (domain.Operation, error) {
	kind := domain.OpKind(seg.Name)
	p := params{op: kind, values: seg.Params}

	var (
		out domain.Params
		err error
	)
	switch kind {
	case domain.OpAutoOrient:
		out, err = buildAutoOrient(p)
	case domain.OpResize:
		out, err = buildResize(p)
	case domain.OpCrop:
		out, err = buildCrop(p)
	case domain.OpWatermark:
		out, err = buildWatermark(p)
	case domain.OpFormat:
		out, err = buildFormat(p)
	case domain.OpQuality:
		out, err = buildQuality(p)
	default:
		return domain.Operation{Kind: kind}, nil
	}
	if err != nil {
		return domain.Operation{}, err
	}
	return domain.Operation{Kind: kind, Params: out}, nil
}

type params struct {
	op     domain.OpKind
	values map[string]Value
}

func (p params) has(key string) bool {
	_, ok := p.values[key]
	return ok
}

func (p params) str(key, fallback string) string {
	v, ok := p.values[key]
	if !ok {
		return fallback
	}
	return v.Raw
}

// intIn reads an integer in [lo, hi], or fallback when the key is absent.
func (p params) intIn(key string, fallback, lo, hi int) (int, error) {
	v, ok := p.values[key]
	if !ok {
		return fallback, nil
	}
	if !v.IsInt {
		return 0, p.invalid(key, "must be an integer, got %q", v.Raw)
	}
	if v.Int < lo || v.Int > hi {
		return 0, p.invalid(key, "must be between %d and %d, got %d", lo, hi, v.Int)
	}
	return v.Int, nil
}

func (p params) flag(key string, fallback bool) (bool, error) {
	def := 0
	if fallback {
		def = 1
	}
	n, err := p.intIn(key, def, 0, 1)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (p params) invalid(key, format string, args ...any) error {
	err := apperror.Validation(key, format, args...)
	err.Message = string(p.op) + ": " + key + " " + err.Message
	return err
}
