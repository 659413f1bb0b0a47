// Package handlers provides the HTTP handlers and middleware of the toi
// API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/theogognf/toi/pkg/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent.
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to encode JSON response")
	}
}

// respondError writes err with the status of its kind.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := types.KindOf(err)
	status := kind.HTTPStatus()
	message := types.MessageOf(err)
	if kind == types.KindInternal {
		log.Ctx(r.Context()).Error().Stack().Err(err).Msg("request failed")
		message = "internal server error"
	} else {
		log.Ctx(r.Context()).Debug().Err(err).Str("kind", kind.String()).Msg("request rejected")
	}
	writeError(w, status, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Code:    status,
		Message: message,
	})
}

// decodeJSON decodes the request body into dst and validates it. An empty
// body validates the zero value, so search routes accept it and create
// routes reject it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body != nil {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return types.Validation("invalid JSON body: %v", err)
		}
	}
	return validate(dst)
}

type validator interface {
	Validate() error
}

func validate(v any) error {
	if val, ok := v.(validator); ok {
		return val.Validate()
	}
	return nil
}
