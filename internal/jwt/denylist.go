package jwt

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Revoker permite revocar tokens por jti antes de su expiry natural.
// El logout por defecto es stateless (el cliente descarta los tokens);
// cuando hay revocación configurada, logout y rotación de refresh pasan
// el jti por acá.
type Revoker interface {
	// Revoke marca el jti como revocado hasta su expiry.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	// IsRevoked consulta la denylist. Ante error del backend el caller
	// debe fallar cerrado (denegar).
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NoopRevoker es la implementación stateless: nada se revoca.
type NoopRevoker struct{}

func (NoopRevoker) Revoke(context.Context, string, time.Time) error { return nil }
func (NoopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// RedisDenylist guarda jtis revocados en redis con TTL hasta el expiry del
// token: la key desaparece sola cuando revocar ya no tiene sentido.
type RedisDenylist struct {
	Client *rdb.Client
	Prefix string
}

func NewRedisDenylist(client *rdb.Client, prefix string) *RedisDenylist {
	if prefix == "" {
		prefix = "deny:"
	}
	return &RedisDenylist{Client: client, Prefix: prefix}
}

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil // ya venció, no hay nada que revocar
	}
	return d.Client.Set(ctx, d.Prefix+jti, "1", ttl).Err()
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.Client.Exists(ctx, d.Prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
