package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// PlaceholderSecret is the development-only signing key used when SECRET_KEY
// is not set. Production refuses to start with it.
const PlaceholderSecret = "django-insecure-placeholder"

const minProductionSecretLen = 32

// Config is built once at startup and passed by value to everything that
// needs it. Nothing mutates it after Build returns.
type Config struct {
	Environment Environment
	SecretKey   string
	Debug       bool
	HTTPAddr    string

	AllowedHosts []string

	Database Database
	Tokens   TokenSettings
	CORS     CORSSettings

	InstalledApps         []string
	Middleware            []string // applied outermost first
	AuthenticationClasses []string
	PermissionClasses     []string

	Passwords PasswordPolicy
	Static    StaticSettings

	RedisURL string // optional; enables the redis token blacklist

	LanguageCode string
	TimeZone     string
}

type TokenSettings struct {
	AccessLifetime         time.Duration
	RefreshLifetime        time.Duration
	RotateRefreshTokens    bool
	BlacklistAfterRotation bool
	AuthHeaderTypes        []string
	SigningMethod          string
}

type CORSSettings struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

type PasswordPolicy struct {
	Validators []string
	MinLength  int
}

type StaticSettings struct {
	URL  string
	Root string
}

// Installed apps.
const (
	AppAuth           = "auth"
	AppTokenBlacklist = "token_blacklist"
	AppStaticFiles    = "staticfiles"
	AppCore           = "core"
)

// HasApp reports whether name is listed in InstalledApps.
func (c Config) HasApp(name string) bool {
	for _, a := range c.InstalledApps {
		if a == name {
			return true
		}
	}
	return false
}

// Env is a snapshot of the process environment. A missing key and an empty
// value are treated the same.
type Env map[string]string

func (e Env) get(k string) string { return e[k] }

// Environ snapshots os.Environ().
func Environ() Env {
	env := Env{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	return env
}

// Load reads the dotenv file at path (a missing file is fine) and overlays
// the real process environment on top of it.
func Load(path string) (Env, error) {
	env := Env{}
	if path != "" {
		vals, err := godotenv.Read(path)
		switch {
		case err == nil:
			for k, v := range vals {
				env[k] = v
			}
		case os.IsNotExist(err):
		default:
			return nil, &ConfigError{Key: "DOTENV_PATH", Reason: "cannot read " + path, Err: err}
		}
	}
	for k, v := range Environ() {
		env[k] = v
	}
	return env, nil
}

// Build resolves env into a Config. It is a pure function of env.
func Build(env Env) (Config, error) {
	appEnv := Environment(strings.ToLower(strings.TrimSpace(ResolveSecret(env, "APP_ENV", string(EnvDevelopment)))))
	if appEnv != EnvDevelopment && appEnv != EnvProduction {
		return Config{}, &ConfigError{Key: "APP_ENV", Reason: "must be development or production"}
	}

	debug, err := ResolveBool(env, "DEBUG", true)
	if err != nil {
		return Config{}, err
	}

	dbc, err := ResolveDatabase(env)
	if err != nil {
		return Config{}, err
	}

	redisURL := ResolveSecret(env, "REDIS_URL", "")
	if redisURL != "" {
		if err := validateRedisURL(redisURL); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		Environment:  appEnv,
		SecretKey:    ResolveSecret(env, "SECRET_KEY", PlaceholderSecret),
		Debug:        debug,
		HTTPAddr:     ResolveSecret(env, "HTTP_ADDR", ":8000"),
		AllowedHosts: ResolveList(env, "DJANGO_ALLOWED_HOSTS", []string{"localhost", "127.0.0.1"}, ""),
		Database:     dbc,
		Tokens: TokenSettings{
			AccessLifetime:         5 * time.Minute,
			RefreshLifetime:        24 * time.Hour,
			RotateRefreshTokens:    false,
			BlacklistAfterRotation: true,
			AuthHeaderTypes:        []string{"Bearer"},
			SigningMethod:          "HS256",
		},
		CORS: CORSSettings{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"https://your-frontend.onrender.com",
			},
			AllowCredentials: false,
		},
		InstalledApps:         []string{AppAuth, AppTokenBlacklist, AppStaticFiles, AppCore},
		Middleware:            []string{"cors", "common", "security", "hosts", "clickjacking", "compress"},
		AuthenticationClasses: []string{"JWTAuthentication"},
		PermissionClasses:     []string{"IsAuthenticated"},
		Passwords: PasswordPolicy{
			Validators: []string{"user_attribute_similarity", "minimum_length", "common_password", "numeric_password"},
			MinLength:  8,
		},
		Static: StaticSettings{
			URL:  "/static/",
			Root: ResolveSecret(env, "STATIC_ROOT", "staticfiles"),
		},
		RedisURL:     redisURL,
		LanguageCode: "en-us",
		TimeZone:     "UTC",
	}

	if cfg.Environment == EnvProduction {
		if err := checkProduction(env, cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// checkProduction refuses development defaults that would otherwise reach a
// production process silently.
func checkProduction(env Env, cfg Config) error {
	if cfg.SecretKey == PlaceholderSecret {
		return &ConfigError{Key: "SECRET_KEY", Reason: "must be set in production"}
	}
	if len(cfg.SecretKey) < minProductionSecretLen {
		return &ConfigError{Key: "SECRET_KEY", Reason: "must be at least 32 bytes in production"}
	}
	if env.get("DEBUG") == "" || cfg.Debug {
		return &ConfigError{Key: "DEBUG", Reason: "must be explicitly false in production"}
	}
	return nil
}

// UsesPlaceholderSecret reports whether the signing key is the insecure default.
func (c Config) UsesPlaceholderSecret() bool { return c.SecretKey == PlaceholderSecret }
