package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/verify"
)

// ── Response ─────────────────────────────────────────────────────────────────

// Response wraps http.ResponseWriter with Laravel-style helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// Created sends 201 JSON: {"data": v}
func (res *Response) Created(v any) {
	res.JSON(http.StatusCreated, envelope{"data": v})
}

// NoContent sends 204 with no body.
func (res *Response) NoContent() {
	res.w.WriteHeader(http.StatusNoContent)
}

// Error sends a JSON error response.
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

func (res *Response) Unauthorized(message ...string) {
	res.Error(http.StatusUnauthorized, first(message, "Unauthenticated."))
}

func (res *Response) NotFound(message ...string) {
	res.Error(http.StatusNotFound, first(message, "Not found."))
}

func (res *Response) ServerError(message ...string) {
	res.Error(http.StatusInternalServerError, first(message, "Server Error."))
}

// ValidationError sends 422 with the Laravel error bag:
// {"message": "...", "errors": {"field": ["msg"]}}
func (res *Response) ValidationError(proof verify.Proof) {
	msg := "The given data was invalid."
	if v, ok := proof.First(); ok {
		msg = v.Message
	}
	res.JSON(http.StatusUnprocessableEntity, envelope{
		"message": msg,
		"errors":  proof.Messages(),
	})
}

// Failure reports a resolution error. Misconfigured config-bound parameters
// are 503; everything else the container returns is a 500. Error text is
// only sent when debug is set.
func (res *Response) Failure(err error, debug bool) {
	status := http.StatusInternalServerError
	var cfgErr *container.ConfigError
	if errors.As(err, &cfgErr) {
		status = http.StatusServiceUnavailable
	}
	if !debug {
		res.Error(status, http.StatusText(status))
		return
	}
	res.JSON(status, envelope{
		"message":   http.StatusText(status),
		"exception": err.Error(),
	})
}

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
