// Package config carga la configuración del servicio: YAML + overrides por
// variables de entorno (las env vars pisan al archivo).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	// Cache respalda el estado de admisión (lockout, rate windows) y la
	// denylist de refresh. "redis" es obligatorio con más de una instancia;
	// "memory" solo sirve para una instancia (dev/tests).
	Cache struct {
		Kind  string `yaml:"kind"` // redis | memory
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		Issuer          string `yaml:"issuer"`
		Secret          string `yaml:"secret"`
		AccessTTL       string `yaml:"access_ttl"`
		RefreshTTL      string `yaml:"refresh_ttl"`
		RefreshRotation bool   `yaml:"refresh_rotation"`
	} `yaml:"jwt"`

	Auth struct {
		Lockout struct {
			Threshold int    `yaml:"threshold"`
			Window    string `yaml:"window"`
		} `yaml:"lockout"`
		Reset struct {
			TTL string `yaml:"ttl"`
		} `yaml:"reset"`
		Verify struct {
			TTL string `yaml:"ttl"`
		} `yaml:"verify"`
	} `yaml:"auth"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		MaxRequests int    `yaml:"max_requests"`
		Window      string `yaml:"window"`
	} `yaml:"rate"`

	Password struct {
		Argon2 struct {
			MemoryKB    int `yaml:"memory_kb"`
			Time        int `yaml:"time"`
			Parallelism int `yaml:"parallelism"`
			KeyLen      int `yaml:"key_len"`
		} `yaml:"argon2"`
		MaxConcurrentHashes int `yaml:"max_concurrent_hashes"`
		Policy              struct {
			MinLength     int  `yaml:"min_length"`
			RequireUpper  bool `yaml:"require_upper"`
			RequireLower  bool `yaml:"require_lower"`
			RequireDigit  bool `yaml:"require_digit"`
			RequireSymbol bool `yaml:"require_symbol"`
		} `yaml:"policy"`
	} `yaml:"password"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"` // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Email struct {
		// Mode: "smtp" envía de verdad; "console" loguea los links (dev).
		Mode    string `yaml:"mode"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"email"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`
}

// Load lee el YAML (opcional: path vacío o inexistente arranca de defaults),
// aplica overrides de entorno, defaults y validación.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	c.applyEnvOverrides()

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "authcore"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "720h" // 30d
	}
	if c.Auth.Lockout.Threshold == 0 {
		c.Auth.Lockout.Threshold = 5
	}
	if c.Auth.Lockout.Window == "" {
		c.Auth.Lockout.Window = "15m"
	}
	if c.Auth.Reset.TTL == "" {
		// reset es objetivo de más valor: TTL materialmente más corto
		c.Auth.Reset.TTL = "1h"
	}
	if c.Auth.Verify.TTL == "" {
		c.Auth.Verify.TTL = "24h"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 100
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "15m"
	}
	if c.Password.Argon2.MemoryKB == 0 {
		c.Password.Argon2.MemoryKB = 64 * 1024
	}
	if c.Password.Argon2.Time == 0 {
		c.Password.Argon2.Time = 3
	}
	if c.Password.Argon2.Parallelism == 0 {
		c.Password.Argon2.Parallelism = 1
	}
	if c.Password.Argon2.KeyLen == 0 {
		c.Password.Argon2.KeyLen = 32
	}
	if c.Password.Policy.MinLength == 0 {
		c.Password.Policy.MinLength = 8
		c.Password.Policy.RequireUpper = true
		c.Password.Policy.RequireLower = true
		c.Password.Policy.RequireDigit = true
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Email.Mode == "" {
		c.Email.Mode = "console"
	}
	if c.Email.BaseURL == "" {
		c.Email.BaseURL = "http://localhost:8080"
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate chequea durations y requisitos mínimos.
func (c *Config) Validate() error {
	for name, s := range map[string]string{
		"jwt.access_ttl":      c.JWT.AccessTTL,
		"jwt.refresh_ttl":     c.JWT.RefreshTTL,
		"auth.lockout.window": c.Auth.Lockout.Window,
		"auth.reset.ttl":      c.Auth.Reset.TTL,
		"auth.verify.ttl":     c.Auth.Verify.TTL,
		"rate.window":         c.Rate.Window,
	} {
		if _, err := time.ParseDuration(s); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return fmt.Errorf("config: storage.postgres.conn_max_lifetime: %w", err)
		}
	}
	if strings.ToLower(c.App.Env) == "prod" && c.JWT.Secret == "" {
		return fmt.Errorf("config: jwt.secret es obligatorio en prod")
	}
	return nil
}

// Dur parsea una duration ya validada.
func Dur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}
	if v, ok := getEnvBool("JWT_REFRESH_ROTATION"); ok {
		c.JWT.RefreshRotation = v
	}
	if v, ok := getEnvInt("AUTH_LOCKOUT_THRESHOLD"); ok {
		c.Auth.Lockout.Threshold = v
	}
	if v, ok := getEnvStr("AUTH_LOCKOUT_WINDOW"); ok {
		c.Auth.Lockout.Window = v
	}
	if v, ok := getEnvStr("AUTH_RESET_TTL"); ok {
		c.Auth.Reset.TTL = v
	}
	if v, ok := getEnvStr("AUTH_VERIFY_TTL"); ok {
		c.Auth.Verify.TTL = v
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("PASSWORD_ARGON2_MEMORY_KB"); ok {
		c.Password.Argon2.MemoryKB = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("EMAIL_MODE"); ok {
		c.Email.Mode = v
	}
	if v, ok := getEnvStr("EMAIL_BASE_URL"); ok {
		c.Email.BaseURL = v
	}
	if v, ok := getEnvBool("FLAGS_MIGRATE"); ok {
		c.Flags.Migrate = v
	}
}
