package stress

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

// Lock kinds a run can target.
const (
	LockRW = "rw"
	LockWP = "wp"
)

// Duration is a time.Duration that decodes from strings such as "1.5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

type Config struct {
	Duration Duration `toml:"duration"`
	Readers  int      `toml:"readers"`
	Writers  int      `toml:"writers"`
	// TryEvery makes every n-th operation of a worker use a try-variant.
	// Zero disables try-variants.
	TryEvery int `toml:"try_every"`
	// UpgradeEvery makes every n-th reader operation upgrade and every n-th
	// writer operation downgrade. Zero disables both.
	UpgradeEvery int      `toml:"upgrade_every"`
	Locks        []string `toml:"locks"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Duration:     Duration{time.Second},
		Readers:      runtime.GOMAXPROCS(0),
		Writers:      2,
		TryEvery:     8,
		UpgradeEvery: 16,
		Locks:        []string{LockRW, LockWP},
	}
}

func (c *Config) validate() error {
	if c.Duration.Duration <= 0 {
		return errors.New("duration must be positive")
	}

	if c.Readers < 0 || c.Writers < 0 {
		return errors.New("worker counts must not be negative")
	}

	if c.Readers+c.Writers == 0 {
		return errors.New("no workers")
	}

	if c.TryEvery < 0 || c.UpgradeEvery < 0 {
		return errors.New("operation periods must not be negative")
	}

	if len(c.Locks) == 0 {
		return errors.New("locks is empty")
	}

	for _, l := range c.Locks {
		if l != LockRW && l != LockWP {
			return fmt.Errorf("unknown lock %q", l)
		}
	}

	return nil
}

// Load reads a TOML configuration on top of Default. An empty path yields
// the defaults.
func Load(configPath string) (Config, error) {
	c := Default()
	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}

		if err := toml.Unmarshal(content, &c); err != nil {
			return Config{}, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if err := c.validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}
