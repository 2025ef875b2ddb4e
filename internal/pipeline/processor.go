// Package pipeline runs an operation chain against a source image:
// fetch, decode, apply each operation in order, encode.
package pipeline

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zhuangyq008/s3-image-process/internal/apperror"
	"github.com/zhuangyq008/s3-image-process/internal/chain"
	"github.com/zhuangyq008/s3-image-process/internal/codec"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
	"github.com/zhuangyq008/s3-image-process/internal/transform"
)

const tracerName = "github.com/zhuangyq008/s3-image-process/internal/pipeline"

// Request names a source image and the chain to run against it. A non-nil
// Chain is used as is; otherwise Operations is parsed.
type Request struct {
	Key        string
	Operations string
	Chain      domain.Chain
}

type Result struct {
	Data        []byte
	ContentType string
	ETag        string
	Format      domain.Format
	Width       int
	Height      int
	SourceBytes int
	Pixels      int64
}

// Fetcher reads source bytes by key. Missing keys surface as
// apperror.KindNotFound.
type Fetcher interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

type Processor struct {
	fetcher  Fetcher
	executor *Executor
}

func NewProcessor(fetcher Fetcher, executor *Executor) *Processor {
	return &Processor{fetcher: fetcher, executor: executor}
}

// Process validates the chain before touching the store, then fetches and
// executes it.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return Result{}, apperror.Validation("key", "image key is required")
	}

	ops := req.Chain
	if ops == nil {
		parsed, err := chain.Parse(req.Operations)
		if err != nil {
			return Result{}, fmt.Errorf("parse stage: %w", err)
		}
		ops = parsed
	}

	source, err := p.fetcher.Get(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("fetch stage key=%s: %w", key, err)
	}

	return p.executor.Run(ctx, key, source, ops)
}

type Executor struct {
	registry *transform.Registry
	metrics  *Metrics
	tracer   trace.Tracer
	logger   zerolog.Logger
}

type Option func(*Executor)

func WithMetrics(m *Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) { e.tracer = t }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

func NewExecutor(registry *transform.Registry, opts ...Option) *Executor {
	e := &Executor{
		registry: registry,
		tracer:   otel.Tracer(tracerName),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run decodes source, applies ops strictly in order and encodes the result.
// The first failing operation aborts the run. An empty chain returns the
// source bytes untouched.
func (e *Executor) Run(ctx context.Context, key string, source []byte, ops domain.Chain) (Result, error) {
	log := e.log(ctx)

	if len(ops) == 0 {
		return e.passthrough(key, source), nil
	}

	buf, err := codec.Decode(source)
	if err != nil {
		return Result{}, fmt.Errorf("decode stage: %w", err)
	}
	pixels := int64(buf.Width()) * int64(buf.Height())

	explicit := false
	for i, op := range ops {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		if err := e.apply(ctx, buf, i, op); err != nil {
			log.Debug().Int("index", i).Str("op", string(op.Kind)).Err(err).Msg("operation failed")
			return Result{}, fmt.Errorf("transform stage index=%d op=%s: %w", i, op.Kind, err)
		}
		if op.Kind == domain.OpFormat || op.Kind == domain.OpWatermark {
			explicit = true
		}
	}

	data, err := codec.Encode(buf)
	if err != nil {
		return Result{}, fmt.Errorf("encode stage: %w", err)
	}

	e.metrics.observeOutput(len(data), pixels)
	out := e.result(key, data, buf.Format, explicit, buf.Width(), buf.Height(), len(source), pixels)
	log.Info().
		Str("key", key).
		Int("ops", len(ops)).
		Str("format", string(out.Format)).
		Int("width", out.Width).
		Int("height", out.Height).
		Int("bytes", len(data)).
		Msg("pipeline complete")
	return out, nil
}

func (e *Executor) apply(ctx context.Context, buf *codec.Buffer, index int, op domain.Operation) error {
	_, span := e.tracer.Start(ctx, "pipeline.op."+string(op.Kind))
	defer span.End()
	span.SetAttributes(
		attribute.Int("pipeline.op.index", index),
		attribute.String("pipeline.op.kind", string(op.Kind)),
		attribute.Int("image.width", buf.Width()),
		attribute.Int("image.height", buf.Height()),
	)

	start := time.Now()
	err := e.registry.Apply(buf, op)
	elapsed := time.Since(start)

	label := string(op.Kind)
	if !op.Kind.Known() {
		label = "unknown"
	}
	e.metrics.observeOp(label, err == nil, elapsed.Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	e.log(ctx).Debug().
		Int("index", index).
		Str("op", string(op.Kind)).
		Int64("duration_ms", elapsed.Milliseconds()).
		Int("width", buf.Width()).
		Int("height", buf.Height()).
		Msg("operation applied")
	return nil
}

// result picks the content type: an explicit target format wins, then the
// key's extension, then the encoded format itself.
func (e *Executor) result(key string, data []byte, format domain.Format, explicit bool, w, h, sourceBytes int, pixels int64) Result {
	contentType := format.ContentType()
	if !explicit {
		if keyFormat, ok := domain.FormatFromKey(key); ok {
			contentType = keyFormat.ContentType()
		}
	}
	return Result{
		Data:        data,
		ContentType: contentType,
		ETag:        Fingerprint(data),
		Format:      format,
		Width:       w,
		Height:      h,
		SourceBytes: sourceBytes,
		Pixels:      pixels,
	}
}

// passthrough serves the source untouched. Without a usable key extension
// the content type is sniffed from the bytes.
func (e *Executor) passthrough(key string, source []byte) Result {
	format, ok := domain.FormatFromKey(key)
	out := e.result(key, source, format, false, 0, 0, len(source), 0)
	if !ok {
		if mt := mimetype.Detect(source); strings.HasPrefix(mt.String(), "image/") {
			out.ContentType = mt.String()
		}
	}
	return out
}

func (e *Executor) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &e.logger
}

// Fingerprint is the hex MD5 of data, used as the ETag.
func Fingerprint(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
