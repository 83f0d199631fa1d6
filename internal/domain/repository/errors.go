package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto (ej: email duplicado, constraint violation).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indica que los datos de entrada son inválidos.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTokenExpired indica que el token existe pero ya expiró o fue usado.
	ErrTokenExpired = errors.New("token expired")

	// ErrVersionMismatch indica que el compare-and-swap sobre la versión de
	// credenciales falló (otra operación concurrente ganó la carrera).
	ErrVersionMismatch = errors.New("credential version mismatch")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
