// Package config assembles the runtime configuration from environment
// variables with an optional YAML file overlay.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ettoremessina/CveGuardian/util"
	"gopkg.in/yaml.v2"
)

// Config holds everything the process needs at startup.
type Config struct {
	HTTPPort string

	Arango struct {
		Host     string
		Port     string
		User     string
		Pass     string
		URL      string
		Database string
	}

	NVD struct {
		BaseURL   string
		APIKey    string
		PageSize  int
		PageDelay time.Duration
		Interval  time.Duration
	}

	Scanner struct {
		Binary       string
		TempRoot     string
		CloneTimeout time.Duration
		RunTimeout   time.Duration
	}
}

// fileConfig mirrors the optional YAML overlay. Only non-empty fields
// override what the environment provided.
type fileConfig struct {
	HTTPPort string `yaml:"http_port"`
	Arango   struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Pass     string `yaml:"pass"`
		URL      string `yaml:"url"`
		Database string `yaml:"database"`
	} `yaml:"arango"`
	NVD struct {
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Interval string `yaml:"interval"`
	} `yaml:"nvd"`
	Scanner struct {
		Binary     string `yaml:"binary"`
		TempRoot   string `yaml:"temp_root"`
		RunTimeout string `yaml:"run_timeout"`
	} `yaml:"scanner"`
}

// Load reads the environment, then overlays the YAML file named by
// CVEGUARDIAN_CONFIG when present.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTPPort = util.GetEnvDefault("PORT", "8080")

	cfg.Arango.Host = util.GetEnvDefault("ARANGO_HOST", "localhost")
	cfg.Arango.Port = util.GetEnvDefault("ARANGO_PORT", "8529")
	cfg.Arango.User = util.GetEnvDefault("ARANGO_USER", "root")
	cfg.Arango.Pass = util.GetEnvDefault("ARANGO_PASS", "mypassword")
	cfg.Arango.URL = util.GetEnvDefault("ARANGO_URL", "http://"+cfg.Arango.Host+":"+cfg.Arango.Port)
	cfg.Arango.Database = util.GetEnvDefault("ARANGO_DATABASE", "cveguardian")

	cfg.NVD.BaseURL = util.GetEnvDefault("NVD_API_URL", "https://services.nvd.nist.gov/rest/json/cves/2.0")
	cfg.NVD.APIKey = os.Getenv("NVD_API_KEY")
	cfg.NVD.PageSize = 2000
	cfg.NVD.PageDelay = 6 * time.Second
	cfg.NVD.Interval = 2 * time.Hour

	cfg.Scanner.Binary = util.GetEnvDefault("DEPSCANITY_PATH", "depscanity")
	cfg.Scanner.TempRoot = util.GetEnvDefault("SCAN_TEMP_DIR", os.TempDir()+"/cve-guardian-scans")
	cfg.Scanner.CloneTimeout = 5 * time.Minute
	cfg.Scanner.RunTimeout = 15 * time.Minute

	if path := os.Getenv("CVEGUARDIAN_CONFIG"); path != "" {
		if !util.FileExists(path) {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(content, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setIf(&c.HTTPPort, fc.HTTPPort)
	setIf(&c.Arango.Host, fc.Arango.Host)
	setIf(&c.Arango.Port, fc.Arango.Port)
	setIf(&c.Arango.User, fc.Arango.User)
	setIf(&c.Arango.Pass, fc.Arango.Pass)
	setIf(&c.Arango.URL, fc.Arango.URL)
	setIf(&c.Arango.Database, fc.Arango.Database)
	setIf(&c.NVD.BaseURL, fc.NVD.BaseURL)
	setIf(&c.NVD.APIKey, fc.NVD.APIKey)
	setIf(&c.Scanner.Binary, fc.Scanner.Binary)
	setIf(&c.Scanner.TempRoot, fc.Scanner.TempRoot)

	if fc.NVD.Interval != "" {
		d, err := time.ParseDuration(fc.NVD.Interval)
		if err != nil {
			return fmt.Errorf("invalid nvd.interval: %w", err)
		}
		c.NVD.Interval = d
	}
	if fc.Scanner.RunTimeout != "" {
		d, err := time.ParseDuration(fc.Scanner.RunTimeout)
		if err != nil {
			return fmt.Errorf("invalid scanner.run_timeout: %w", err)
		}
		c.Scanner.RunTimeout = d
	}

	return nil
}

func setIf(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}
