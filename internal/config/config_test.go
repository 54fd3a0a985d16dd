package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/ryandielhenn/zephyrcast/pkg/peer"
)

func env(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zephyrcast.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
self_addr = "10.0.0.1:8080"
topics = ["news", "sport"]
capacity = 64
round_interval = "2s"
`), 0o600))

	id := peer.NewID()
	cfg, err := Load(path, env(map[string]string{
		"SELF_ID":         id.String(),
		"ZEPHYR_CAPACITY": "128",
		"ETCD_ENDPOINTS":  "http://a:2379, http://b:2379",
		"ZEPHYR_DEBUG":    "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1:8080", cfg.SelfAddr)
	assert.Equal(t, []string{"news", "sport"}, cfg.Topics)
	assert.Equal(t, 128, cfg.Capacity, "environment wins over the file")
	assert.Equal(t, 2*time.Second, cfg.RoundInterval)
	assert.Equal(t, []string{"http://a:2379", "http://b:2379"}, cfg.EtcdEndpoints)
	assert.True(t, cfg.Debug)

	p := cfg.Profile()
	assert.Equal(t, id, p.ID)
	assert.True(t, p.Subscribes("sport"))
}

func TestLoadReportsEveryEnvError(t *testing.T) {
	_, err := Load("", env(map[string]string{
		"ZEPHYR_CAPACITY":       "lots",
		"ZEPHYR_ROUND_INTERVAL": "soon",
	}))
	require.Error(t, err)
	assert.ErrorContains(t, err, "ZEPHYR_CAPACITY")
	assert.ErrorContains(t, err, "ZEPHYR_ROUND_INTERVAL")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), env(nil))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.SelfID = "bogus"
	cfg.Capacity = 0
	cfg.ForgetAfter = time.Minute
	cfg.HTTPAddr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(unwrapOnce(err)), 4)
}

func TestIDGeneratedWhenUnset(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.ID().IsZero())

	p := cfg.Policy()
	assert.Equal(t, cfg.MaxFailures, p.MaxFailures)
	assert.Equal(t, cfg.ForgetAfter, p.ForgetAfter)
}

func unwrapOnce(err error) error {
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return u.Unwrap()
	}
	return err
}
