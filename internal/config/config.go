package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultMaxCacheBytes bounds the resource cache when the config leaves
// max_cache_bytes unset.
const DefaultMaxCacheBytes = 64 << 20

var ErrInvalidConfig = errors.New("invalid config")

// Config is the immutable server configuration, loaded once at startup.
// A zero Port asks the OS for an ephemeral one.
type Config struct {
	IP            string `toml:"ip"`
	Port          uint16 `toml:"port"`
	MaxConnected  int    `toml:"max_connected_hosts"`
	TimeoutSecs   int    `toml:"timeout_in_secs"`
	ResourceRoot  string `toml:"resource_root"`
	MaxCacheBytes int64  `toml:"max_cache_bytes"`
}

// Load reads and validates a TOML config file. Unknown keys fail the
// load just like invalid fields; nothing is served on a partial config.
func Load(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.MaxCacheBytes == 0 {
		cfg.MaxCacheBytes = DefaultMaxCacheBytes
	}
	return cfg, nil
}

func (c Config) validate() error {
	if net.ParseIP(c.IP) == nil {
		return fmt.Errorf("%w: ip %q does not parse", ErrInvalidConfig, c.IP)
	}
	if c.MaxConnected < 1 {
		return fmt.Errorf("%w: max_connected_hosts is %d, want >= 1", ErrInvalidConfig, c.MaxConnected)
	}
	if c.TimeoutSecs < 1 {
		return fmt.Errorf("%w: timeout_in_secs is %d, want >= 1", ErrInvalidConfig, c.TimeoutSecs)
	}
	if c.MaxCacheBytes < 0 {
		return fmt.Errorf("%w: max_cache_bytes is %d, want >= 0", ErrInvalidConfig, c.MaxCacheBytes)
	}
	info, err := os.Stat(c.ResourceRoot)
	if err != nil {
		return fmt.Errorf("%w: resource_root %q: %v", ErrInvalidConfig, c.ResourceRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: resource_root %q is not a directory", ErrInvalidConfig, c.ResourceRoot)
	}
	return nil
}

// Addr joins the configured ip and port for net.Listen.
func (c Config) Addr() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(int(c.Port)))
}

// Timeout is the idle timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}
