package jwt

import "errors"

// Taxonomía de fallas de verificación. Todas se traducen al mismo 401
// genérico hacia afuera, pero se loguean con su motivo específico.
var (
	// ErrExpired indica que el token venció (expiry estricto, sin tolerancia).
	ErrExpired = errors.New("token expired")

	// ErrMalformed indica que el token no es un JWT parseable.
	ErrMalformed = errors.New("token malformed")

	// ErrSignatureInvalid indica firma inválida o algoritmo inesperado.
	ErrSignatureInvalid = errors.New("token signature invalid")

	// ErrWrongAudience indica que el token es válido pero para otra audiencia
	// (ej: un refresh token presentado como access token).
	ErrWrongAudience = errors.New("token audience mismatch")
)
