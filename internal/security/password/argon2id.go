package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// Params define el work factor de argon2id.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
}

// Default son los parámetros recomendados para producción.
var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32}

var (
	// ErrEmptyPassword indica input vacío (error de programación del caller,
	// la policy debería haberlo rechazado antes).
	ErrEmptyPassword = errors.New("empty password")

	errInvalidPHC = errors.New("invalid PHC string")
)

// Hasher calcula y verifica digests argon2id en formato PHC:
//
//	$argon2id$v=19$m=...,t=...,p=...$<saltB64>$<dkB64>
//
// El hashing es CPU/memory-hard, así que las llamadas pasan por un semáforo
// acotado: bajo carga, el costo de argon2 no bloquea el resto de los
// requests del proceso (solo espera el que está hasheando).
type Hasher struct {
	params Params
	sem    *semaphore.Weighted
}

// NewHasher crea un Hasher con los parámetros dados. maxConcurrent limita
// cuántos hashes corren en paralelo; 0 usa GOMAXPROCS.
func NewHasher(p Params, maxConcurrent int64) *Hasher {
	if p.Memory == 0 {
		p = Default
	}
	if maxConcurrent <= 0 {
		maxConcurrent = int64(runtime.GOMAXPROCS(0))
	}
	return &Hasher{params: p, sem: semaphore.NewWeighted(maxConcurrent)}
}

// Hash devuelve el PHC string para plain. Falla si el contexto se cancela
// mientras espera un slot del pool.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := argon2.IDKey([]byte(plain), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Verify compara plain contra un PHC string en tiempo constante.
// Un password incorrecto es un resultado negativo normal (false, nil);
// un PHC ilegible es un error (digest corrupto en el store).
func (h *Hasher) Verify(ctx context.Context, plain, phc string) (bool, error) {
	p, salt, dk, err := parsePHC(phc)
	if err != nil {
		return false, err
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	key := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, uint32(len(dk)))
	return subtle.ConstantTimeCompare(key, dk) == 1, nil
}

// NeedsRehash retorna true si el digest fue calculado con un work factor
// menor al configurado (upgrade transparente en el próximo login exitoso).
func (h *Hasher) NeedsRehash(phc string) bool {
	p, _, dk, err := parsePHC(phc)
	if err != nil {
		return true
	}
	return p.Memory < h.params.Memory ||
		p.Time < h.params.Time ||
		p.Parallelism < h.params.Parallelism ||
		uint32(len(dk)) != h.params.KeyLen
}

func parsePHC(phc string) (Params, []byte, []byte, error) {
	parts := strings.Split(phc, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, errInvalidPHC
	}
	var v int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &v); err != nil || v != argon2.Version {
		return Params{}, nil, nil, errInvalidPHC
	}
	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Parallelism); err != nil {
		return Params{}, nil, nil, errInvalidPHC
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < 8 {
		return Params{}, nil, nil, errInvalidPHC
	}
	dk, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(dk) == 0 {
		return Params{}, nil, nil, errInvalidPHC
	}
	return p, salt, dk, nil
}
