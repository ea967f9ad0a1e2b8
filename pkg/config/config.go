package config

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/chazu/cutplan/pkg/logging"
)

// Config gives typed, scoped access to a Store. Reads never fail: a
// missing or unparsable value yields the supplied default.
type Config struct {
	store  Store
	scope  string
	logger *zap.Logger
}

// New wraps store. A nil logger discards diagnostics.
func New(store Store, logger *zap.Logger) *Config {
	return &Config{store: store, logger: logging.OrNop(logger)}
}

// NewMemory returns a Config over a fresh MemoryStore.
func NewMemory() *Config {
	return New(NewMemoryStore(), nil)
}

// Scoped returns a Config whose keys are prefixed with scope.
func (c *Config) Scoped(scope string) *Config {
	return &Config{store: c.store, scope: c.scope + scope, logger: c.logger}
}

// Store returns the underlying store.
func (c *Config) Store() Store {
	return c.store
}

func (c *Config) key(k string) string {
	return c.scope + k
}

func (c *Config) read(key string) (string, bool) {
	v, err := c.store.Get(context.Background(), c.key(key))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("config read failed", zap.String("key", c.key(key)), zap.Error(err))
		}
		return "", false
	}
	return v, true
}

// Float returns the float stored under key, or def.
func (c *Config) Float(key string, def float64) float64 {
	s, ok := c.read(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		c.logger.Warn("ignoring malformed config value",
			zap.String("key", c.key(key)), zap.String("value", s))
		return def
	}
	return f
}

// Int returns the integer stored under key, or def.
func (c *Config) Int(key string, def int) int {
	s, ok := c.read(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		c.logger.Warn("ignoring malformed config value",
			zap.String("key", c.key(key)), zap.String("value", s))
		return def
	}
	return i
}

// SetFloat persists v under key using the shortest exact representation.
func (c *Config) SetFloat(key string, v float64) error {
	return c.store.Set(context.Background(), c.key(key), strconv.FormatFloat(v, 'g', -1, 64))
}

// SetInt persists v under key.
func (c *Config) SetInt(key string, v int) error {
	return c.store.Set(context.Background(), c.key(key), strconv.Itoa(v))
}

// Keys lists the stored keys inside this Config's scope.
func (c *Config) Keys(ctx context.Context) ([]string, error) {
	return c.store.Keys(ctx, c.scope)
}
