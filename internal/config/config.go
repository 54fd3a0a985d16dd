// Package config loads the daemon configuration: defaults, then an optional
// TOML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"

	"github.com/ryandielhenn/zephyrcast/pkg/peer"
	"github.com/ryandielhenn/zephyrcast/pkg/policy"
	"github.com/ryandielhenn/zephyrcast/pkg/topology"
)

// Config holds the node configuration.
type Config struct {
	SelfID   string   `toml:"self_id"`
	SelfAddr string   `toml:"self_addr"`
	Topics   []string `toml:"topics"`

	Capacity      int           `toml:"capacity"`
	RoundInterval time.Duration `toml:"round_interval"`

	QuarantineDuration time.Duration `toml:"quarantine_duration"`
	ForgetAfter        time.Duration `toml:"forget_after"`
	MaxFailures        int           `toml:"max_failures"`

	EtcdEndpoints   []string `toml:"etcd_endpoints"`
	RegistrationTTL int64    `toml:"registration_ttl"`

	HTTPAddr string `toml:"http_addr"`
	Debug    bool   `toml:"debug"`
}

func Default() Config {
	return Config{
		Capacity:           topology.DefaultCapacity,
		RoundInterval:      10 * time.Second,
		QuarantineDuration: policy.DefaultQuarantineDuration,
		ForgetAfter:        policy.DefaultForgetAfter,
		MaxFailures:        policy.DefaultMaxFailures,
		EtcdEndpoints:      []string{"http://etcd:2379"},
		RegistrationTTL:    10,
		HTTPAddr:           ":8080",
	}
}

// Load builds the configuration. path may be empty. getenv is usually
// os.Getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	var errs error

	if v := getenv("SELF_ID"); v != "" {
		c.SelfID = v
	}
	if v := getenv("SELF_ADDR"); v != "" {
		c.SelfAddr = v
	}
	if v := getenv("ZEPHYR_TOPICS"); v != "" {
		c.Topics = splitList(v)
	}
	if v := getenv("ETCD_ENDPOINTS"); v != "" {
		c.EtcdEndpoints = splitList(v)
	}
	if v := getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}

	ints := map[string]*int{
		"ZEPHYR_CAPACITY":     &c.Capacity,
		"ZEPHYR_MAX_FAILURES": &c.MaxFailures,
	}
	for key, dst := range ints {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"ZEPHYR_ROUND_INTERVAL":      &c.RoundInterval,
		"ZEPHYR_QUARANTINE_DURATION": &c.QuarantineDuration,
		"ZEPHYR_FORGET_AFTER":        &c.ForgetAfter,
	}
	for key, dst := range durations {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			*dst = d
		}
	}

	if v := getenv("ZEPHYR_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("ZEPHYR_DEBUG: %w", err))
		}
		c.Debug = b
	}

	if errs != nil {
		return fmt.Errorf("config: environment: %w", errs)
	}
	return nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs error
	if c.SelfID != "" {
		if _, err := peer.ParseID(c.SelfID); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if c.Capacity <= 0 {
		errs = multierr.Append(errs, errors.New("capacity must be positive"))
	}
	if c.RoundInterval <= 0 {
		errs = multierr.Append(errs, errors.New("round_interval must be positive"))
	}
	if c.QuarantineDuration <= 0 {
		errs = multierr.Append(errs, errors.New("quarantine_duration must be positive"))
	}
	if c.ForgetAfter < c.QuarantineDuration {
		errs = multierr.Append(errs, errors.New("forget_after must not be shorter than quarantine_duration"))
	}
	if c.MaxFailures < 0 {
		errs = multierr.Append(errs, errors.New("max_failures must not be negative"))
	}
	if c.HTTPAddr == "" {
		errs = multierr.Append(errs, errors.New("http_addr must be set"))
	}
	if errs != nil {
		return fmt.Errorf("config: invalid: %w", errs)
	}
	return nil
}

// ID returns the configured peer id, or a fresh one when none is set.
func (c Config) ID() peer.ID {
	if c.SelfID == "" {
		return peer.NewID()
	}
	return peer.MustParseID(c.SelfID)
}

// Profile builds the local profile.
func (c Config) Profile() *peer.Profile {
	topics := make([]peer.Topic, len(c.Topics))
	for i, t := range c.Topics {
		topics[i] = peer.Topic(t)
	}
	return peer.NewProfile(c.ID(), c.SelfAddr, topics...)
}

// Policy builds the default policy from the configured thresholds.
func (c Config) Policy() *policy.Default {
	p := policy.NewDefault()
	p.QuarantineDuration = c.QuarantineDuration
	p.ForgetAfter = c.ForgetAfter
	p.MaxFailures = c.MaxFailures
	return p
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
