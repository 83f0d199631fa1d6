// Package jwt emite y verifica los tokens firmados del servicio (access y
// refresh) con un secreto simétrico del servidor.
//
// Access y refresh usan audiencias disjuntas: un refresh token filtrado no
// sirve como access token ni al revés.
package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Audiencias de los tokens. Disjuntas a propósito.
const (
	AudienceAccess  = "authcore/access"
	AudienceRefresh = "authcore/refresh"
)

// Claims es el contenido verificado de un token.
type Claims struct {
	Subject  string
	Role     string
	TokenID  string // jti, usado por la denylist de revocación
	IssuedAt time.Time
	Expiry   time.Time
}

// Issuer firma tokens con el secreto del servidor.
type Issuer struct {
	Iss        string
	Secret     []byte
	AccessTTL  time.Duration // ej: 15m
	RefreshTTL time.Duration // ej: 720h
}

// NewIssuer crea un Issuer con TTLs por defecto (15m access, 30d refresh).
func NewIssuer(iss string, secret []byte) *Issuer {
	return &Issuer{
		Iss:        iss,
		Secret:     secret,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
	}
}

// IssueAccess emite un access token de corta vida con subject y rol.
func (i *Issuer) IssueAccess(sub, role string) (string, time.Time, error) {
	return i.sign(sub, role, AudienceAccess, i.AccessTTL)
}

// IssueRefresh emite un refresh token. No lleva rol: el rol se resuelve
// desde el store al refrescar, así un cambio de rol no sobrevive en
// refresh tokens viejos.
func (i *Issuer) IssueRefresh(sub string) (string, time.Time, error) {
	return i.sign(sub, "", AudienceRefresh, i.RefreshTTL)
}

func (i *Issuer) sign(sub, role, aud string, ttl time.Duration) (string, time.Time, error) {
	if len(i.Secret) == 0 {
		return "", time.Time{}, errors.New("jwt: empty signing secret")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)

	claims := jwtv5.MapClaims{
		"iss": i.Iss,
		"sub": sub,
		"aud": aud,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
		"jti": uuid.NewString(),
	}
	if role != "" {
		claims["role"] = role
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
