// Package app arma el grafo de dependencias del servicio a partir del
// config: store (postgres o memoria), backends de admisión (redis o
// memoria), sender de email, servicios, controllers y server HTTP.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/authcore/internal/config"
	"github.com/dropDatabas3/authcore/internal/domain/repository"
	"github.com/dropDatabas3/authcore/internal/email"
	httpx "github.com/dropDatabas3/authcore/internal/http"
	adminctrl "github.com/dropDatabas3/authcore/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/authcore/internal/http/controllers/auth"
	adminsvc "github.com/dropDatabas3/authcore/internal/http/services/admin"
	authsvc "github.com/dropDatabas3/authcore/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/authcore/internal/jwt"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
	"github.com/dropDatabas3/authcore/internal/rate"
	"github.com/dropDatabas3/authcore/internal/security/password"
	"github.com/dropDatabas3/authcore/internal/store/memory"
	"github.com/dropDatabas3/authcore/internal/store/pg"
)

// App es el grafo armado, listo para correr.
type App struct {
	Server *httpx.Server
	Tokens repository.SecretTokenRepository

	// PG queda expuesto para migraciones en el arranque; nil con store de memoria.
	PG *pg.Store

	redis *rdb.Client
}

// Build construye el App completo. Falla temprano: un backend inalcanzable
// en el arranque es un error, no una degradación silenciosa.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{}

	// Paso 1: store
	var users repository.UserRepository
	var tokens repository.SecretTokenRepository
	if cfg.Storage.DSN != "" {
		store, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.PG = store
		users = store.Users()
		tokens = store.SecretTokens()
	} else {
		// sin DSN: store de memoria, solo para dev
		logger.L().Warn("no storage.dsn, using in-memory store")
		mem := memory.New()
		users = mem.Users()
		tokens = mem.SecretTokens()
	}
	a.Tokens = tokens

	// Paso 2: backends de admisión
	var (
		guard   rate.Guard
		limiter rate.Limiter
		revoker jwtx.Revoker = jwtx.NoopRevoker{}
	)
	lockWindow := config.Dur(cfg.Auth.Lockout.Window)
	rateWindow := config.Dur(cfg.Rate.Window)
	if cfg.Cache.Kind == "redis" {
		client := rdb.NewClient(&rdb.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = client
		prefix := cfg.Cache.Redis.Prefix
		guard = rate.NewRedisGuard(client, prefix+"lo:", cfg.Auth.Lockout.Threshold, lockWindow)
		revoker = jwtx.NewRedisDenylist(client, prefix+"deny:")
		if cfg.Rate.Enabled {
			limiter = rate.NewRedisLimiter(client, prefix+"rl:", cfg.Rate.MaxRequests, rateWindow)
		}
	} else {
		guard = rate.NewMemoryGuard(cfg.Auth.Lockout.Threshold, lockWindow)
		if cfg.Rate.Enabled {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, rateWindow)
		}
	}

	// Paso 3: crypto
	hasher := password.NewHasher(password.Params{
		Memory:      uint32(cfg.Password.Argon2.MemoryKB),
		Time:        uint32(cfg.Password.Argon2.Time),
		Parallelism: uint8(cfg.Password.Argon2.Parallelism),
		KeyLen:      uint32(cfg.Password.Argon2.KeyLen),
	}, int64(cfg.Password.MaxConcurrentHashes))
	policy := password.Policy{
		MinLength:     cfg.Password.Policy.MinLength,
		RequireUpper:  cfg.Password.Policy.RequireUpper,
		RequireLower:  cfg.Password.Policy.RequireLower,
		RequireDigit:  cfg.Password.Policy.RequireDigit,
		RequireSymbol: cfg.Password.Policy.RequireSymbol,
	}
	issuer := jwtx.NewIssuer(cfg.JWT.Issuer, []byte(cfg.JWT.Secret))
	if d := config.Dur(cfg.JWT.AccessTTL); d > 0 {
		issuer.AccessTTL = d
	}
	if d := config.Dur(cfg.JWT.RefreshTTL); d > 0 {
		issuer.RefreshTTL = d
	}

	// Paso 4: email
	var sender email.Sender
	if cfg.Email.Mode == "smtp" {
		smtp := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		if cfg.SMTP.TLS != "" {
			smtp.TLSMode = cfg.SMTP.TLS
		}
		smtp.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
		sender = smtp
	} else {
		sender = email.ConsoleSender{}
	}
	flows := &email.Flows{Sender: sender, BaseURL: cfg.Email.BaseURL}

	// Paso 5: servicios y controllers
	svc := authsvc.New(authsvc.Deps{
		Users:           users,
		Tokens:          tokens,
		Hasher:          hasher,
		Policy:          policy,
		Issuer:          issuer,
		Guard:           guard,
		Revoker:         revoker,
		Flows:           flows,
		VerifyTTL:       config.Dur(cfg.Auth.Verify.TTL),
		ResetTTL:        config.Dur(cfg.Auth.Reset.TTL),
		RefreshRotation: cfg.JWT.RefreshRotation,
	})
	admin := adminsvc.New(adminsvc.Deps{Users: users, Tokens: tokens})

	metricsHandler, err := httpx.RegisterMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	router := httpx.NewRouter(httpx.RouterDeps{
		Auth:    authctrl.New(svc),
		Admin:   adminctrl.New(admin),
		Issuer:  issuer,
		Revoker: revoker,
		Limiter: limiter,
		Metrics: metricsHandler,
		Ready:   a.ready,
	})
	a.Server = httpx.NewServer(cfg.Server.Addr, router)
	return a, nil
}

// ready chequea los backends de los que depende servir tráfico.
func (a *App) ready(ctx context.Context) error {
	if a.PG != nil {
		if err := a.PG.Pool().Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close libera conexiones. Seguro de llamar sobre un App a medio armar.
func (a *App) Close() {
	if a.PG != nil {
		a.PG.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
