// Package config holds the server configuration: defaults, YAML config
// files, KARICS_* environment overrides, and command-line flags, applied in
// that order.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all server configuration. Timeouts are in seconds; zero
// disables the deadline. Zero parser limits fall back to the engine
// defaults.
type Config struct {
	Addr      string `yaml:"addr"`
	AdminAddr string `yaml:"admin_addr"`
	Env       string `yaml:"env"`

	MaxConnections  int `yaml:"max_connections"`
	ReadTimeout     int `yaml:"read_timeout"`
	WriteTimeout    int `yaml:"write_timeout"`
	ShutdownTimeout int `yaml:"shutdown_timeout"`

	MaxRequestLineBytes int   `yaml:"max_request_line_bytes"`
	MaxHeaderBytes      int   `yaml:"max_header_bytes"`
	MaxHeaderLines      int   `yaml:"max_header_lines"`
	MaxBodyBytes        int64 `yaml:"max_body_bytes"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		Env:             "development",
		ReadTimeout:     30,
		WriteTimeout:    30,
		ShutdownTimeout: 10,
	}
}

// Load reads a YAML config file over the defaults and applies environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// FromFlags builds the configuration from command-line flags, optionally
// layered over a YAML file named by -config. Explicitly set flags win over
// the file; the file wins over defaults.
func FromFlags() (*Config, error) {
	def := Default()

	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", def.Addr, "listen address (host:port)")
	adminAddr := flag.String("admin-addr", def.AdminAddr, "admin listen address for /metrics and /healthz (empty disables)")
	env := flag.String("env", def.Env, "environment name (development/production)")
	maxConns := flag.Int("max-connections", def.MaxConnections, "max simultaneous connections (0 = unlimited)")
	readTimeout := flag.Int("read-timeout", def.ReadTimeout, "per-read deadline in seconds (0 disables)")
	writeTimeout := flag.Int("write-timeout", def.WriteTimeout, "per-write deadline in seconds (0 disables)")
	flag.Parse()

	cfg := def
	if *configPath != "" {
		loaded, err := Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg.applyEnv()
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["addr"] {
		cfg.Addr = *addr
	}
	if set["admin-addr"] {
		cfg.AdminAddr = *adminAddr
	}
	if set["env"] {
		cfg.Env = *env
	}
	if set["max-connections"] {
		cfg.MaxConnections = *maxConns
	}
	if set["read-timeout"] {
		cfg.ReadTimeout = *readTimeout
	}
	if set["write-timeout"] {
		cfg.WriteTimeout = *writeTimeout
	}

	return cfg, nil
}

// applyEnv overrides fields from KARICS_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("KARICS_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("KARICS_ADMIN_ADDR"); v != "" {
		c.AdminAddr = v
	}
	if v := os.Getenv("KARICS_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("KARICS_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConnections = n
		}
	}
	if v := os.Getenv("KARICS_READ_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ReadTimeout = n
		}
	}
	if v := os.Getenv("KARICS_WRITE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.WriteTimeout = n
		}
	}
}
