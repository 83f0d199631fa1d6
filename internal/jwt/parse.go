package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Parse valida firma (HS256), issuer, expiry y audiencia, y devuelve los
// claims tipados. La tolerancia de clock-skew es cero: un token vencido
// hace un segundo ya no verifica.
func (i *Issuer) Parse(token, expectedAud string) (*Claims, error) {
	tk, err := jwtv5.Parse(token,
		func(t *jwtv5.Token) (any, error) { return i.Secret, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		return nil, mapParseError(err)
	}
	if !tk.Valid {
		return nil, ErrSignatureInvalid
	}

	mc, ok := tk.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}

	// Audiencia: chequeo propio (estricto, string exacto) para distinguir
	// WrongAudience del resto de la taxonomía.
	if aud, _ := mc["aud"].(string); aud != expectedAud {
		return nil, ErrWrongAudience
	}

	c := &Claims{}
	c.Subject, _ = mc["sub"].(string)
	c.Role, _ = mc["role"].(string)
	c.TokenID, _ = mc["jti"].(string)
	if iat, ok := mc["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := mc["exp"].(float64); ok {
		c.Expiry = time.Unix(int64(exp), 0).UTC()
	}
	if c.Subject == "" {
		return nil, ErrMalformed
	}
	return c, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwtv5.ErrTokenExpired), errors.Is(err, jwtv5.ErrTokenNotValidYet):
		return ErrExpired
	case errors.Is(err, jwtv5.ErrTokenSignatureInvalid), errors.Is(err, jwtv5.ErrTokenUnverifiable):
		return ErrSignatureInvalid
	case errors.Is(err, jwtv5.ErrTokenInvalidIssuer), errors.Is(err, jwtv5.ErrTokenInvalidClaims):
		// issuer ajeno u otros claims inválidos: tratado como firma inválida,
		// no revelamos más detalle.
		return ErrSignatureInvalid
	case errors.Is(err, jwtv5.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrMalformed
	}
}
