package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Flows construye y envía los emails de los flujos de auth. Los links llevan
// el token en claro (solo viaja por acá y por el request de consumo; en DB
// queda únicamente el digest).
type Flows struct {
	Sender  Sender
	BaseURL string
}

// SendVerification envía el link de verificación de email.
func (f *Flows) SendVerification(ctx context.Context, to, token string, ttl time.Duration) error {
	link := f.link("/auth/verify-email", token)
	subject := "Verificá tu email"
	text := fmt.Sprintf(
		"Hola,\n\nPara verificar tu email abrí este link (vence en %s):\n\n%s\n\nSi no creaste esta cuenta, ignorá este mensaje.\n",
		humanTTL(ttl), link)
	html := fmt.Sprintf(
		`<p>Hola,</p><p>Para verificar tu email hacé click acá (vence en %s):</p><p><a href="%s">Verificar email</a></p><p>Si no creaste esta cuenta, ignorá este mensaje.</p>`,
		humanTTL(ttl), link)
	return f.Sender.Send(ctx, to, subject, html, text)
}

// SendPasswordReset envía el link de reset de password.
func (f *Flows) SendPasswordReset(ctx context.Context, to, token string, ttl time.Duration) error {
	link := f.link("/auth/reset-password", token)
	subject := "Restablecer tu password"
	text := fmt.Sprintf(
		"Hola,\n\nPediste restablecer tu password. Abrí este link (vence en %s):\n\n%s\n\nSi no fuiste vos, ignorá este mensaje: tu password sigue igual.\n",
		humanTTL(ttl), link)
	html := fmt.Sprintf(
		`<p>Hola,</p><p>Pediste restablecer tu password. Hacé click acá (vence en %s):</p><p><a href="%s">Restablecer password</a></p><p>Si no fuiste vos, ignorá este mensaje: tu password sigue igual.</p>`,
		humanTTL(ttl), link)
	return f.Sender.Send(ctx, to, subject, html, text)
}

func (f *Flows) link(path, token string) string {
	base := strings.TrimRight(f.BaseURL, "/")
	return base + path + "?token=" + url.QueryEscape(token)
}

func humanTTL(d time.Duration) string {
	if d >= time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
