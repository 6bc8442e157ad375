package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthSecret string

	CORSOrigins   []string
	SecureCookies bool
}

// Load layers configuration: flag defaults < YAML file < APP_* env < explicit flags.
func Load(args []string) (Config, error) {
	f := pflag.NewFlagSet("api", pflag.ContinueOnError)
	f.String("config", "", "path to a YAML config file")
	f.String("http-addr", ":8080", "listen address")
	f.String("db-driver", "sqlite", "database driver (sqlite|postgres)")
	f.String("db-dsn", "", "database DSN")
	f.String("redis-addr", "localhost:6379", "redis address for attempt counters")
	f.String("redis-password", "", "redis password")
	f.Int("redis-db", 0, "redis database number")
	f.String("auth-secret", "supersecret-dev-key", "HMAC secret for JWTs")
	f.StringSlice("cors-origins", []string{"http://localhost:3000"}, "allowed CORS origins")
	f.Bool("secure-cookies", false, "set Secure on counter cookies")
	if err := f.Parse(args); err != nil {
		return Config{}, err
	}

	k := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// APP_DB_DSN -> db-dsn
	if err := k.Load(env.Provider("APP_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "APP_")), "_", "-")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("load flags: %w", err)
	}

	return Config{
		HTTPAddr:      k.String("http-addr"),
		DBDriver:      k.String("db-driver"),
		DBDSN:         k.String("db-dsn"),
		RedisAddr:     k.String("redis-addr"),
		RedisPassword: k.String("redis-password"),
		RedisDB:       k.Int("redis-db"),
		AuthSecret:    k.String("auth-secret"),
		CORSOrigins:   k.Strings("cors-origins"),
		SecureCookies: k.Bool("secure-cookies"),
	}, nil
}
