package config

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ConfigError reports a malformed environment value. It never carries the
// offending value itself since that may be a credential.
type ConfigError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %s: %v", e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ResolveSecret returns env[name] when non-empty, else def.
func ResolveSecret(env Env, name, def string) string {
	if v := env.get(name); v != "" {
		return v
	}
	return def
}

// ResolveBool parses true|1|yes and false|0|no, ignoring case. A missing
// value yields def; anything else is a ConfigError.
func ResolveBool(env Env, name string, def bool) (bool, error) {
	v := strings.TrimSpace(env.get(name))
	if v == "" {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, &ConfigError{Key: name, Reason: "not a boolean (want true/false, 1/0, yes/no)"}
}

// ResolveList splits env[name] on sep, or on whitespace when sep is empty.
// Blank items are dropped. When nothing is left a copy of def is returned.
func ResolveList(env Env, name string, def []string, sep string) []string {
	var parts []string
	if sep == "" {
		parts = strings.Fields(env.get(name))
	} else {
		parts = strings.Split(env.get(name), sep)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}

func validateRedisURL(raw string) error {
	if _, err := redis.ParseURL(raw); err != nil {
		return &ConfigError{Key: "REDIS_URL", Reason: "malformed redis URL", Err: redactURLError(err)}
	}
	return nil
}
