// Package email envía las notificaciones del core de auth (verificación de
// email, password reset). El core no espera la entrega: el orchestrator
// dispara el envío y sigue.
package email

import (
	"context"
	"errors"
)

var (
	ErrSendFailed   = errors.New("email: send failed")
	ErrInvalidInput = errors.New("email: invalid input")
)

// Sender entrega un email ya renderizado.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}
