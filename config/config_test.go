package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinmap.ai/game"
)

func missing(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(missing(t))
	require.NoError(t, err)

	assert.Equal(t, game.DefaultConfig(), cfg.Game())
	assert.Equal(t, "file", cfg.Store)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.Debug)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COINMAP_START_LAT", "51.5")
	t.Setenv("COINMAP_START_LNG", "-0.12")
	t.Setenv("COINMAP_RADIUS", "4")
	t.Setenv("COINMAP_STORE", "sqlite")
	t.Setenv("COINMAP_AUTOSAVE", "false")

	cfg, err := Load(missing(t))
	require.NoError(t, err)

	g := cfg.Game()
	assert.Equal(t, 51.5, g.Start.Lat)
	assert.Equal(t, -0.12, g.Start.Lng)
	assert.Equal(t, 4, g.Radius)
	assert.False(t, g.AutoSave)
	assert.Equal(t, "sqlite", cfg.Store)
}

func TestDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("COINMAP_MAX_COINS=9\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("COINMAP_MAX_COINS") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.MaxCoins)
}

func TestParseErrors(t *testing.T) {
	t.Setenv("COINMAP_RADIUS", "many")
	_, err := Load(missing(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestValidate(t *testing.T) {
	base, err := Load(missing(t))
	require.NoError(t, err)

	for name, mutate := range map[string]func(*Config){
		"lat out of range": func(c *Config) { c.StartLat = 91 },
		"zero cell size":   func(c *Config) { c.CellSize = 0 },
		"uneven cell size": func(c *Config) { c.CellSize = 3e-4 },
		"negative step":    func(c *Config) { c.Step = -1 },
		"huge radius":      func(c *Config) { c.Radius = 1000 },
		"probability":      func(c *Config) { c.Probability = 1.5 },
		"coin range":       func(c *Config) { c.MinCoins, c.MaxCoins = 4, 2 },
		"store":            func(c *Config) { c.Store = "redis" },
		"state key":        func(c *Config) { c.StateKey = "" },
		"timeout":          func(c *Config) { c.RequestTimeout = 0 },
	} {
		cfg := base
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}

	for _, size := range []float64{1, 0.5, 0.001, 0.0001, 0.00005} {
		cfg := base
		cfg.CellSize = size
		assert.NoError(t, cfg.Validate(), "cell size %v", size)
	}
}

func TestOpenStore(t *testing.T) {
	cfg, err := Load(missing(t))
	require.NoError(t, err)
	cfg.Store = "memory"

	s, err := cfg.OpenStore()
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set("k", []byte("v")))
}
