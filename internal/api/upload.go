package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/zhuangyq008/s3-image-process/internal/apperror"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
	"github.com/zhuangyq008/s3-image-process/internal/storage"
)

type uploadResponse struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Bytes       int    `json:"bytes"`
}

// handleUpload stores a source image under the path key. The body must sniff
// as one of the decodable image formats.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	key, err := storage.CleanKey(r.PathValue("key"))
	if err != nil {
		apperror.WriteJSON(w, r, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apperror.WriteJSON(w, r, apperror.Validation("body", "upload exceeds %d bytes", s.maxUpload))
			return
		}
		apperror.WriteJSON(w, r, apperror.Validation("body", "read upload: %v", err))
		return
	}
	if len(data) == 0 {
		apperror.WriteJSON(w, r, apperror.Validation("body", "upload is empty"))
		return
	}

	mt := mimetype.Detect(data)
	format, ok := domain.ParseFormat(strings.TrimPrefix(mt.Extension(), "."))
	if !ok {
		apperror.WriteJSON(w, r, apperror.Validation("body", "unsupported image type %s", mt.String()))
		return
	}

	if err := s.store.Put(r.Context(), key, data, format.ContentType()); err != nil {
		apperror.WriteJSON(w, r, err)
		return
	}

	s.metrics.uploadBytes.Observe(float64(len(data)))
	zerolog.Ctx(r.Context()).Info().Str("key", key).Int("bytes", len(data)).Msg("source image stored")

	writeJSON(w, http.StatusCreated, uploadResponse{
		Key:         key,
		ContentType: format.ContentType(),
		Bytes:       len(data),
	})
}
