// Package errors define el formato único de error del API.
//
// Los errores de dominio se traducen acá, una sola vez, en el borde HTTP:
// ningún detalle interno (stack traces, códigos del store) cruza esta capa.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// AppError define la estructura estándar para errores de la aplicación.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"` // solo 429
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa original, solo para logs
}

// Error implementa la interfaz error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail agrega detalle. Devuelve una COPIA para no mutar los globales.
func (e *AppError) WithDetail(detail string) *AppError {
	n := *e
	n.Detail = detail
	return &n
}

// WithCause adjunta la causa original (no se serializa).
func (e *AppError) WithCause(err error) *AppError {
	n := *e
	n.Err = err
	return &n
}

// WithRetryAfter fija el hint de reintento en segundos (redondeado hacia
// arriba: nunca le decimos al cliente que reintente antes de tiempo).
func (e *AppError) WithRetryAfter(seconds int) *AppError {
	n := *e
	if seconds < 1 {
		seconds = 1
	}
	n.RetryAfter = seconds
	return &n
}

// FromError convierte un error genérico en AppError. Si no lo es, devuelve
// un 500 genérico conservando la causa para logs.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

type errorResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
}

// WriteError escribe la respuesta HTTP para el error dado.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(appErr.RetryAfter))
	}
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:       appErr.Code,
		Message:    appErr.Message,
		Detail:     appErr.Detail,
		RetryAfter: appErr.RetryAfter,
	})
}
