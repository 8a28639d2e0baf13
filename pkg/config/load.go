package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Environment overrides, applied after the file.
const (
	EnvConfigPath       = "KEYSET_CONFIG"
	EnvRegion           = "KEYSET_REGION"
	EnvPoolID           = "KEYSET_POOL_ID"
	EnvClientIDs        = "KEYSET_CLIENT_IDS"
	EnvJWKSURL          = "KEYSET_JWKS_URL"
	EnvMinFetchInterval = "KEYSET_MIN_FETCH_INTERVAL"
	EnvListen           = "SERVER_LISTEN_ADDRESS"
	EnvTLSCert          = "SSL_SERVER_CERTIFICATE"
	EnvTLSKey           = "SSL_SERVER_KEY"
	EnvDevBypass        = "AUTH_DEV_BYPASS"
	EnvLogLevel         = "LOG_LEVEL"
)

// Load reads path (a missing file is fine), applies env overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			if err := toml.Unmarshal(b, &cfg); err != nil {
				return Config{}, err
			}
		}
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// PathFromEnv returns $KEYSET_CONFIG or def.
func PathFromEnv(def string) string {
	return envOr(os.Getenv, EnvConfigPath, def)
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	cfg.KeySet.Region = envOr(getenv, EnvRegion, cfg.KeySet.Region)
	cfg.KeySet.PoolID = envOr(getenv, EnvPoolID, cfg.KeySet.PoolID)
	cfg.KeySet.JWKSURL = envOr(getenv, EnvJWKSURL, cfg.KeySet.JWKSURL)
	cfg.Server.Listen = envOr(getenv, EnvListen, cfg.Server.Listen)
	cfg.Server.TLSCert = envOr(getenv, EnvTLSCert, cfg.Server.TLSCert)
	cfg.Server.TLSKey = envOr(getenv, EnvTLSKey, cfg.Server.TLSKey)
	cfg.Log.Level = envOr(getenv, EnvLogLevel, cfg.Log.Level)

	if v := strings.TrimSpace(getenv(EnvClientIDs)); v != "" {
		cfg.KeySet.ClientIDs = nil
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.KeySet.ClientIDs = append(cfg.KeySet.ClientIDs, id)
			}
		}
	}
	if v := strings.TrimSpace(getenv(EnvMinFetchInterval)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		cfg.KeySet.MinFetchInterval = Duration(d)
	}
	if v := strings.TrimSpace(getenv(EnvDevBypass)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		cfg.Auth.DevBypass = b
	}
	return nil
}

func envOr(getenv func(string) string, k, def string) string {
	if v := strings.TrimSpace(getenv(k)); v != "" {
		return v
	}
	return def
}
