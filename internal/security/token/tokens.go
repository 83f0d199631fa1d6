// Package tokens genera los valores opacos de un solo uso (verificación de
// email, password reset) y sus digests. Los tokens ya son de alta entropía,
// así que el digest usa SHA-256 directo: argon2 acá no agrega seguridad y
// haría lenta la verificación.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// DefaultBytes es la entropía por defecto de un token opaco (256 bits).
const DefaultBytes = 32

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = DefaultBytes
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding
// (forma canónica para guardar en DB).
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
