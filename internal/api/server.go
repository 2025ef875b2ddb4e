// Package api serves transformed images over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/zhuangyq008/s3-image-process/internal/apperror"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
	"github.com/zhuangyq008/s3-image-process/internal/pipeline"
	"github.com/zhuangyq008/s3-image-process/internal/storage"
	"github.com/zhuangyq008/s3-image-process/internal/store"
)

const (
	defaultMaxUploadBytes = 20 << 20
	defaultCacheMaxAge    = time.Hour
)

type Options struct {
	Logger         zerolog.Logger
	Processor      *pipeline.Processor
	Store          storage.Store
	Usage          store.UsageStore
	RateLimiter    RateLimiter
	Tracer         trace.Tracer
	Metrics        *Metrics
	MaxUploadBytes int64
	CacheMaxAge    time.Duration
}

type Server struct {
	logger      zerolog.Logger
	processor   *pipeline.Processor
	store       storage.Store
	usage       store.UsageStore
	rateLimiter RateLimiter
	tracer      trace.Tracer
	metrics     *Metrics
	maxUpload   int64
	cacheMaxAge time.Duration
	mux         *http.ServeMux
}

func NewServer(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.CacheMaxAge <= 0 {
		opts.CacheMaxAge = defaultCacheMaxAge
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Usage == nil {
		opts.Usage = store.NewMemoryUsageStore(0)
	}

	s := &Server{
		logger:      opts.Logger,
		processor:   opts.Processor,
		store:       opts.Store,
		usage:       opts.Usage,
		rateLimiter: opts.RateLimiter,
		tracer:      opts.Tracer,
		metrics:     opts.Metrics,
		maxUpload:   opts.MaxUploadBytes,
		cacheMaxAge: opts.CacheMaxAge,
		mux:         http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.withRateLimit(h)
	h = s.metrics.withHTTPMetrics(h)
	h = s.withTracing(h)
	return s.withRequestContext(h)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /favicon.ico", s.handleFavicon)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
	s.mux.HandleFunc("GET /usage", s.handleUsage)
	s.mux.HandleFunc("GET /image/{key...}", s.handleImage)
	s.mux.HandleFunc("PUT /image/{key...}", s.handleUpload)
	for _, kind := range domain.KnownOps {
		s.mux.HandleFunc("GET /"+string(kind)+"/{key...}", s.handleConvenience(kind))
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	ops := r.URL.Query().Get("operations")
	s.serve(w, r, pipeline.Request{Operations: ops}, ops)
}

func (s *Server) handleConvenience(kind domain.OpKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ops, desc, err := convenienceChain(kind, r.URL.Query())
		if err != nil {
			apperror.WriteJSON(w, r, err)
			return
		}
		s.serve(w, r, pipeline.Request{Chain: ops}, desc)
	}
}

// serve runs req against the path key and writes the image with cache
// validators. A matching If-None-Match yields 304 without a body.
func (s *Server) serve(w http.ResponseWriter, r *http.Request, req pipeline.Request, desc string) {
	key, err := storage.CleanKey(r.PathValue("key"))
	if err != nil {
		apperror.WriteJSON(w, r, err)
		return
	}
	req.Key = key

	start := time.Now()
	res, err := s.processor.Process(r.Context(), req)
	if err != nil {
		apperror.WriteJSON(w, r, err)
		return
	}
	s.recordUsage(r.Context(), key, desc, res, time.Since(start))

	etag := strconv.Quote(res.ETag)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.cacheMaxAge.Seconds())))
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(res.Data)
	}
}

func (s *Server) recordUsage(ctx context.Context, key, ops string, res pipeline.Result, elapsed time.Duration) {
	entry := domain.UsageLog{
		RequestID:       RequestIDFrom(ctx),
		ImageKey:        key,
		Operations:      ops,
		SourceBytes:     int64(res.SourceBytes),
		OutputBytes:     int64(len(res.Data)),
		PixelsProcessed: res.Pixels,
		ComputeTimeMS:   elapsed.Milliseconds(),
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.usage.Record(ctx, entry); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("record usage failed")
	}
}

// etagMatches implements the weak comparison used for If-None-Match.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
