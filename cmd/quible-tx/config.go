package main

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/suffix-labs/quible-tx/pkg/api"
	"github.com/suffix-labs/quible-tx/pkg/crypto"
)

// Environment variables overriding the config file.
const (
	EnvSigningKey          = "QUIBLE_SIGNING_KEY"
	EnvFundingKey          = "QUIBLE_FUNDING_KEY"
	EnvKeyFormat           = "QUIBLE_KEY_FORMAT"
	EnvHashMode            = "QUIBLE_HASH_MODE"
	EnvLogLevel            = "QUIBLE_LOG_LEVEL"
	EnvCertificateLifespan = "QUIBLE_CERTIFICATE_LIFESPAN"
)

// Config is the quible-tx configuration. Values are read from a JSON file,
// then from QUIBLE_* environment variables, then from flags; later
// sources win.
type Config struct {
	SigningKey          string `json:"signingKey"`
	FundingKey          string `json:"fundingKey"` // Pays for identity transactions; defaults to SigningKey
	KeyFormat           string `json:"keyFormat"`
	HashMode            string `json:"hashMode"`
	LogLevel            string `json:"logLevel"`
	CertificateLifespan uint64 `json:"certificateLifespan"`
}

func DefaultConfig() Config {
	return Config{
		KeyFormat: api.KeyFormatHex,
		HashMode:  crypto.HashKeccak.String(),
		LogLevel:  "info",
	}
}

// LoadConfigFile overlays the JSON file at path onto c.
func (c *Config) LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}

	if err := json.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return nil
}

// ApplyEnv overlays environment variables found by lookup onto c.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	fields := map[string]*string{
		EnvSigningKey: &c.SigningKey,
		EnvFundingKey: &c.FundingKey,
		EnvKeyFormat:  &c.KeyFormat,
		EnvHashMode:   &c.HashMode,
		EnvLogLevel:   &c.LogLevel,
	}
	for name, field := range fields {
		if v, ok := lookup(name); ok {
			*field = v
		}
	}

	if v, ok := lookup(EnvCertificateLifespan); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvCertificateLifespan)
		}
		c.CertificateLifespan = n
	}

	return nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.KeyFormat {
	case api.KeyFormatHex, api.KeyFormatWIF:
	default:
		return errors.Errorf("keyFormat must be %q or %q, got %q", api.KeyFormatHex, api.KeyFormatWIF, c.KeyFormat)
	}

	if _, err := crypto.ParseHashMode(c.HashMode); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// signingKey returns the signing key settings.
func (c *Config) signingKey() (api.KeyConfig, error) {
	if c.SigningKey == "" {
		return api.KeyConfig{}, errors.Errorf("no signing key: set signingKey, %s or --signing-key", EnvSigningKey)
	}
	return api.KeyConfig{Key: c.SigningKey, Format: c.KeyFormat, HashMode: c.HashMode}, nil
}

// fundingKey returns the funding key settings, falling back to the
// signing key.
func (c *Config) fundingKey() (api.KeyConfig, error) {
	if c.FundingKey == "" {
		return c.signingKey()
	}
	return api.KeyConfig{Key: c.FundingKey, Format: c.KeyFormat, HashMode: c.HashMode}, nil
}
