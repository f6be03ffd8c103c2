package cache

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file/struct form of the cache options.
// Zero fields keep the defaults of New.
type Config struct {
	// MaxSize is the entry bound. 0 keeps DefaultMaxSize.
	MaxSize int `yaml:"max_size"`

	// MaxAge is the age bound, e.g. "30s". Empty or 0 means no age expiry.
	MaxAge Duration `yaml:"max_age"`

	// TouchOnGet refreshes recency on hits. Nil keeps the default (true).
	TouchOnGet *bool `yaml:"touch_on_get"`
}

// Duration is a time.Duration that reads from YAML as a Go duration string.
type Duration time.Duration

// UnmarshalYAML accepts "1m30s"-style strings and plain integers (nanoseconds).
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		var ns int64
		if nerr := n.Decode(&ns); nerr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		v = time.Duration(ns)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Options converts the config into Options for New.
func (cfg Config) Options() []Option {
	var opts []Option
	if cfg.MaxSize != 0 {
		opts = append(opts, WithMaxSize(cfg.MaxSize))
	}
	if cfg.MaxAge != 0 {
		opts = append(opts, WithMaxAge(time.Duration(cfg.MaxAge)))
	}
	if cfg.TouchOnGet != nil {
		opts = append(opts, WithTouchOnGet(*cfg.TouchOnGet))
	}
	return opts
}

// NewFromConfig builds a cache from cfg. Extra options are applied after
// the config, so they win (typically WithClock, WithMetrics, WithLogger).
func NewFromConfig[K comparable, V any](cfg Config, extra ...Option) (*Cache[K, V], error) {
	return New[K, V](append(cfg.Options(), extra...)...)
}

// LoadConfig parses a YAML document into a Config.
// An empty document yields the zero Config.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("cache: parse config: %w", err)
	}
	return cfg, nil
}
