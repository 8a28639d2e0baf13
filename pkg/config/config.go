// Package config loads the keyset service configuration from TOML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

type Config struct {
	KeySet  KeySet  `toml:"keyset"`
	Server  Server  `toml:"server"`
	Auth    Auth    `toml:"auth"`
	Log     Log     `toml:"log"`
	Metrics Metrics `toml:"metrics"`
}

type KeySet struct {
	Region           string   `toml:"region"`
	PoolID           string   `toml:"pool_id"`
	ClientIDs        []string `toml:"client_ids"`
	JWKSURL          string   `toml:"jwks_url"` // overrides the URL derived from region/pool
	MinFetchInterval Duration `toml:"min_fetch_interval"`
	FetchTimeout     Duration `toml:"fetch_timeout"`
	PrefetchOnStart  bool     `toml:"prefetch_on_start"`
}

type Server struct {
	Listen  string `toml:"listen"`
	TLSCert string `toml:"tls_cert"`
	TLSKey  string `toml:"tls_key"`
}

type Auth struct {
	// TokenUses lists the accepted token kinds: "id", "access" or both.
	TokenUses       []string `toml:"token_uses"`
	NetworkFallback bool     `toml:"network_fallback"`
	DevBypass       bool     `toml:"dev_bypass"`
	// AdminGroups, when set, restricts POST /v1/prefetch to members.
	AdminGroups []string `toml:"admin_groups"`
}

type Metrics struct {
	// SkipPaths are left out of the HTTP metrics, on top of /metrics and /healthz.
	SkipPaths []string `toml:"skip_paths"`
}

type Log struct {
	Dir     string `toml:"dir"`
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
}

// Default returns the configuration used for keys absent from the file.
func Default() Config {
	return Config{
		KeySet: KeySet{
			MinFetchInterval: Duration(5 * time.Minute),
			FetchTimeout:     Duration(8 * time.Second),
			PrefetchOnStart:  true,
		},
		Server: Server{Listen: ":4000"},
		Auth: Auth{
			TokenUses:       []string{"access"},
			NetworkFallback: true,
		},
		Log: Log{Dir: "log", Level: "info", Console: true},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.KeySet.Region == "" {
		errs = append(errs, errors.New("keyset.region is required"))
	}
	if c.KeySet.PoolID == "" {
		errs = append(errs, errors.New("keyset.pool_id is required"))
	}
	if len(c.KeySet.ClientIDs) == 0 {
		errs = append(errs, errors.New("keyset.client_ids must not be empty"))
	}
	if c.KeySet.MinFetchInterval < 0 {
		errs = append(errs, errors.New("keyset.min_fetch_interval must not be negative"))
	}
	if c.KeySet.FetchTimeout <= 0 {
		errs = append(errs, errors.New("keyset.fetch_timeout must be positive"))
	}
	if len(c.Auth.TokenUses) == 0 {
		errs = append(errs, errors.New("auth.token_uses must not be empty"))
	}
	for _, u := range c.Auth.TokenUses {
		if !slices.Contains([]string{"id", "access"}, u) {
			errs = append(errs, fmt.Errorf("auth.token_uses: unknown token use %q", u))
		}
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		errs = append(errs, errors.New("server.tls_cert and server.tls_key must be set together"))
	}
	return errors.Join(errs...)
}

// Duration is a time.Duration written as a Go duration string ("5m").
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
