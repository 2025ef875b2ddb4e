package apperror

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, r *http.Request, err error) {
	log := zerolog.Ctx(r.Context())
	status := StatusCode(err)

	resp := ErrorResponse{
		Error:   string(KindOf(err)),
		Message: SafeMessage(err),
	}
	if appErr, ok := As(err); ok {
		resp.Field = appErr.Field
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", resp.Error).Int("status", status).Msg("request failed")
	} else {
		log.Warn().Err(err).Str("code", resp.Error).Int("status", status).Msg("request rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
