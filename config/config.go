// Package config reads the game settings from the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"coinmap.ai/data"
	"coinmap.ai/game"
	"coinmap.ai/spatial"
)

// Config is every setting the binary understands
type Config struct {
	StartLat    float64 `env:"COINMAP_START_LAT" envDefault:"36.98949379578401"`
	StartLng    float64 `env:"COINMAP_START_LNG" envDefault:"-122.06277128548504"`
	CellSize    float64 `env:"COINMAP_CELL_SIZE" envDefault:"0.0001"`
	Radius      int     `env:"COINMAP_RADIUS" envDefault:"8"`
	Step        float64 `env:"COINMAP_STEP" envDefault:"0.0001"`
	Probability float64 `env:"COINMAP_PROBABILITY" envDefault:"0.1"`
	MinCoins    int     `env:"COINMAP_MIN_COINS" envDefault:"1"`
	MaxCoins    int     `env:"COINMAP_MAX_COINS" envDefault:"5"`

	DataDir  string `env:"COINMAP_DATA_DIR" envDefault:"./data"`
	Store    string `env:"COINMAP_STORE" envDefault:"file"`
	StateKey string `env:"COINMAP_STATE_KEY" envDefault:"gameState"`
	AutoSave bool   `env:"COINMAP_AUTOSAVE" envDefault:"true"`
	Journal  bool   `env:"COINMAP_JOURNAL"`

	Addr           string        `env:"COINMAP_ADDR" envDefault:":8080"`
	RequestTimeout time.Duration `env:"COINMAP_REQUEST_TIMEOUT" envDefault:"5s"`

	Debug   bool   `env:"COINMAP_DEBUG"`
	LogFile string `env:"COINMAP_LOG_FILE" envDefault:"coinmap.log"`
}

// ParseEnv fills target from environment variables
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the optional dotenv files, then the environment. Variables
// already set win over the files.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
		log.Printf("[config] Loaded %s", f)
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate rejects settings the game cannot run with
func (c Config) Validate() error {
	if !c.Start().Valid() || math.Abs(c.StartLat) > 90 || math.Abs(c.StartLng) > 180 {
		return fmt.Errorf("invalid start position %v, %v", c.StartLat, c.StartLng)
	}
	if !finite(c.CellSize) || c.CellSize <= 0 || c.CellSize > 1 {
		return fmt.Errorf("cell size must be in (0, 1], got %v", c.CellSize)
	}
	// a degree must split into whole cells, or scans skip and repeat cells
	if perDegree := 1 / c.CellSize; math.Abs(perDegree-math.Round(perDegree)) > 1e-6*perDegree {
		return fmt.Errorf("cell size %v does not divide a degree", c.CellSize)
	}
	if !finite(c.Step) || c.Step <= 0 {
		return fmt.Errorf("step must be positive, got %v", c.Step)
	}
	if c.Radius < 0 || c.Radius > 64 {
		return fmt.Errorf("radius must be in [0, 64], got %d", c.Radius)
	}
	if !finite(c.Probability) || c.Probability < 0 || c.Probability > 1 {
		return fmt.Errorf("probability must be in [0, 1], got %v", c.Probability)
	}
	if c.MinCoins < 0 || c.MaxCoins < c.MinCoins {
		return fmt.Errorf("coin range %d..%d is empty", c.MinCoins, c.MaxCoins)
	}
	switch c.Store {
	case data.KindFile, data.KindSQLite, data.KindMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.StateKey == "" {
		return errors.New("state key must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %v", c.RequestTimeout)
	}
	return nil
}

// Start returns the initial player position
func (c Config) Start() spatial.GeoPoint {
	return spatial.GeoPoint{Lat: c.StartLat, Lng: c.StartLng}
}

// Game returns the session settings
func (c Config) Game() game.Config {
	return game.Config{
		Start:    c.Start(),
		CellSize: c.CellSize,
		Radius:   c.Radius,
		Step:     c.Step,
		Spawn: spatial.Options{
			Probability: c.Probability,
			MinCoins:    c.MinCoins,
			MaxCoins:    c.MaxCoins,
		},
		StateKey: c.StateKey,
		AutoSave: c.AutoSave,
	}
}

// JournalPath is where game events are appended when the journal is on
func (c Config) JournalPath() string {
	return filepath.Join(c.DataDir, "events.jsonl")
}

// OpenStore opens the configured store
func (c Config) OpenStore() (data.Store, error) {
	return data.Open(c.Store, c.DataDir)
}
