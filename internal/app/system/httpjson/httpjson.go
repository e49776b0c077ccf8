// Package httpjson writes JSON responses and maps apperr kinds to HTTP
// status codes.
package httpjson

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/limits"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrorBody is the envelope for every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidState:
		return http.StatusConflict
	case apperr.KindInvalidOperation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an ErrorBody. Internal errors are logged with their
// cause and reported to the client with a generic message.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)
	if status == http.StatusInternalServerError && log != nil {
		log.Error("request failed", zap.Error(err))
	}
	Write(w, status, ErrorBody{Error: ErrorDetail{Kind: kind, Message: apperr.Message(err)}})
}

// Decode reads a JSON request body into v. Unknown fields are rejected.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("invalid JSON body: %v", err)
	}
	return nil
}

// PathID parses the chi URL parameter name as an ObjectID. A malformed value
// is a Validation error naming what.
func PathID(r *http.Request, name, what string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid %s id %q", what, raw)
	}
	return id, nil
}
