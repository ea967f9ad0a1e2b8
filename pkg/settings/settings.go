// Package settings provides process settings loaded from environment variables.
//
// The CLI loads a .env file first, so any of these may also come from there.
package settings

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/cutplan/pkg/units"
)

// Environment variable names.
const (
	EnvLogLevel    = "CUTPLAN_LOG_LEVEL"
	EnvDB          = "CUTPLAN_DB"
	EnvPostgresDSN = "CUTPLAN_POSTGRES_DSN"
	EnvUnits       = "CUTPLAN_UNITS"
	EnvAddr        = "CUTPLAN_ADDR"
	EnvMeshCells   = "CUTPLAN_MESH_CELLS"
)

// Settings holds all process configuration.
type Settings struct {
	LogLevel string
	// DBPath is the SQLite file holding persisted defaults. Ignored when
	// PostgresDSN is set.
	DBPath      string
	PostgresDSN string
	Units       units.Units
	Addr        string
	MeshCells   int
}

// New loads settings from the environment, applying defaults.
// Returns an error if a variable holds an invalid value.
func New() (Settings, error) {
	u, err := units.Parse(getEnv(EnvUnits, "mm"))
	if err != nil {
		return Settings{}, fmt.Errorf("invalid value for %s: %w", EnvUnits, err)
	}

	cells, err := getEnvInt(EnvMeshCells, 64)
	if err != nil {
		return Settings{}, err
	}
	if cells < 8 {
		return Settings{}, fmt.Errorf("invalid value for %s: %d: must be at least 8", EnvMeshCells, cells)
	}

	level := strings.ToLower(getEnv(EnvLogLevel, "info"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return Settings{}, fmt.Errorf("invalid value for %s: %q", EnvLogLevel, level)
	}

	return Settings{
		LogLevel:    level,
		DBPath:      getEnv(EnvDB, ".cutplan/config.db"),
		PostgresDSN: os.Getenv(EnvPostgresDSN),
		Units:       u,
		Addr:        getEnv(EnvAddr, ":8080"),
		MeshCells:   cells,
	}, nil
}

// MustNew is New that panics on invalid settings.
func MustNew() Settings {
	s, err := New()
	if err != nil {
		panic(fmt.Sprintf("settings: %v", err))
	}
	return s
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}
