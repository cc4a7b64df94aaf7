// Package config assembles process configuration from the environment once at
// startup. The resulting Config is passed explicitly to every component that
// needs it; nothing reads environment variables after boot.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envAddr          = "ASAGUS_ADDR"
	envPGDSN         = "ASAGUS_PG_DSN"
	envIssuer        = "ASAGUS_ISSUER"
	envAccessSecret  = "ASAGUS_ACCESS_SECRET"
	envRefreshSecret = "ASAGUS_REFRESH_SECRET"
	envAccessTTL     = "ASAGUS_ACCESS_TTL"
	envRefreshTTL    = "ASAGUS_REFRESH_TTL"
	envRateBurst     = "ASAGUS_RATE_BURST"
	envRatePerSec    = "ASAGUS_RATE_PER_SECOND"

	defaultAddr       = ":8080"
	defaultIssuer     = "asagus"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultRateBurst  = 20
	defaultRatePerSec = 10
)

// Config holds everything the service needs at runtime.
type Config struct {
	Addr        string
	DatabaseDSN string

	Issuer        string
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	RateBurst     int
	RatePerSecond int

	// EphemeralSecrets is true when one or both signing secrets were generated
	// at startup because the environment did not provide them. Tokens issued
	// before the last restart are unverifiable in that state; the health
	// endpoint reports the flag so operators can notice.
	EphemeralSecrets bool
}

// FromEnv builds a Config from the process environment, applying defaults.
// Missing signing secrets are replaced with random ones rather than failing
// startup; callers should log a warning when EphemeralSecrets is set.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:          stringOr(envAddr, defaultAddr),
		DatabaseDSN:   strings.TrimSpace(os.Getenv(envPGDSN)),
		Issuer:        stringOr(envIssuer, defaultIssuer),
		AccessTTL:     defaultAccessTTL,
		RefreshTTL:    defaultRefreshTTL,
		RateBurst:     defaultRateBurst,
		RatePerSecond: defaultRatePerSec,
	}

	var err error
	if cfg.AccessTTL, err = durationOr(envAccessTTL, defaultAccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = durationOr(envRefreshTTL, defaultRefreshTTL); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = intOr(envRateBurst, defaultRateBurst); err != nil {
		return Config{}, err
	}
	if cfg.RatePerSecond, err = intOr(envRatePerSec, defaultRatePerSec); err != nil {
		return Config{}, err
	}

	if cfg.AccessSecret, err = secretOr(envAccessSecret, &cfg.EphemeralSecrets); err != nil {
		return Config{}, err
	}
	if cfg.RefreshSecret, err = secretOr(envRefreshSecret, &cfg.EphemeralSecrets); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func stringOr(env, def string) string {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	return def
}

func durationOr(env string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", env, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", env)
	}
	return d, nil
}

func intOr(env string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", env, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive", env)
	}
	return v, nil
}

func secretOr(env string, ephemeral *bool) ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return []byte(v), nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate fallback secret: %w", err)
	}
	*ephemeral = true
	return []byte(base64.RawURLEncoding.EncodeToString(buf)), nil
}
