package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const DefaultPath = "docsetctl.toml"

// Config is the full docsetctl configuration: global paths and runtime
// settings plus one ProductConfig per tracked documentation set.
type Config struct {
	Workspace   string   `toml:"workspace"`
	DocsetsDir  string   `toml:"docsets_dir"`
	StateDir    string   `toml:"state_dir"`
	Interval    string   `toml:"interval"`
	ListenAddr  string   `toml:"listen_addr"`
	CorsOrigins []string `toml:"cors_origins"`

	BuildHost *BuildHostConfig `toml:"build_host"`

	Products map[string]ProductConfig `toml:"products"`
}

// BuildHostConfig points builds at a remote machine over SSH. When absent,
// builds run on the local host.
type BuildHostConfig struct {
	Host       string `toml:"host"`
	Port       string `toml:"port"`
	User       string `toml:"user"`
	KeyPath    string `toml:"key_path"`
	KnownHosts string `toml:"known_hosts"`
	Timeout    string `toml:"timeout"`
}

// ProductConfig describes one tracked upstream repository and how to turn
// its releases into docset archives.
type ProductConfig struct {
	Name           string   `toml:"name"`
	GitURL         string   `toml:"git_url"`
	RepositoryPath string   `toml:"repository_path"`
	MinimumVersion string   `toml:"minimum_version"`
	StableOnly     bool     `toml:"stable_only"`
	TagPrefix      string   `toml:"tag_prefix"`
	Source         string   `toml:"source"`
	VersionFile    string   `toml:"version_file"`
	VersionPattern string   `toml:"version_pattern"`
	BuildCommand   []string `toml:"build_command"`
	Archive        string   `toml:"archive"`
	StateFile      string   `toml:"state_file"`
}

const (
	SourceTags = "tags"
	SourceFile = "file"
)

func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Workspace == "" {
		cfg.Workspace = "workspace"
	}
	if cfg.DocsetsDir == "" {
		cfg.DocsetsDir = "docsets"
	}
	if cfg.StateDir == "" {
		cfg.StateDir = "state"
	}
	if cfg.Interval == "" {
		cfg.Interval = "6h"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":9400"
	}
	// Source stays empty here: builtin products supply their own and the
	// products package defaults the rest to tags.
	for id, product := range cfg.Products {
		if product.RepositoryPath == "" {
			product.RepositoryPath = filepath.Join(cfg.Workspace, id)
		}
		cfg.Products[id] = product
	}
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Workspace) == "" {
		return fmt.Errorf("workspace is required")
	}
	if strings.TrimSpace(cfg.DocsetsDir) == "" {
		return fmt.Errorf("docsets_dir is required")
	}
	if strings.TrimSpace(cfg.StateDir) == "" {
		return fmt.Errorf("state_dir is required")
	}
	if _, err := time.ParseDuration(cfg.Interval); err != nil {
		return fmt.Errorf("interval invalid: %w", err)
	}
	if len(cfg.Products) == 0 {
		return fmt.Errorf("at least one product is required")
	}
	if cfg.BuildHost != nil {
		if err := validateBuildHost(*cfg.BuildHost); err != nil {
			return fmt.Errorf("build_host invalid: %w", err)
		}
	}
	for _, id := range SortedProductIDs(cfg) {
		if err := validateProductBasic(id, cfg.Products[id]); err != nil {
			return fmt.Errorf("product %q invalid: %w", id, err)
		}
	}
	return nil
}

// validateProductBasic checks what every product entry must carry in the
// config file itself. Builtin products fill in the rest (archive name,
// build command, tag handling) before ValidateProduct runs.
func validateProductBasic(id string, product ProductConfig) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(product.GitURL) == "" {
		return fmt.Errorf("git_url is required")
	}
	switch product.Source {
	case "", SourceTags, SourceFile:
	default:
		return fmt.Errorf("unknown source %q (expected %s or %s)", product.Source, SourceTags, SourceFile)
	}
	return nil
}

func validateBuildHost(host BuildHostConfig) error {
	if strings.TrimSpace(host.Host) == "" {
		return fmt.Errorf("host is required")
	}
	if strings.TrimSpace(host.User) == "" {
		return fmt.Errorf("user is required")
	}
	if strings.TrimSpace(host.KeyPath) == "" {
		return fmt.Errorf("key_path is required")
	}
	if host.Timeout != "" {
		if _, err := time.ParseDuration(host.Timeout); err != nil {
			return fmt.Errorf("timeout invalid: %w", err)
		}
	}
	return nil
}

func ValidateProduct(id string, product ProductConfig) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(product.GitURL) == "" {
		return fmt.Errorf("git_url is required")
	}
	if strings.TrimSpace(product.RepositoryPath) == "" {
		return fmt.Errorf("repository_path is required")
	}
	switch product.Source {
	case SourceTags:
	case SourceFile:
		if strings.TrimSpace(product.VersionFile) == "" {
			return fmt.Errorf("version_file is required for source=file")
		}
		if strings.TrimSpace(product.VersionPattern) == "" {
			return fmt.Errorf("version_pattern is required for source=file")
		}
	default:
		return fmt.Errorf("unknown source %q (expected %s or %s)", product.Source, SourceTags, SourceFile)
	}
	if len(product.BuildCommand) == 0 {
		return fmt.Errorf("build_command is required")
	}
	if strings.TrimSpace(product.Archive) == "" {
		return fmt.Errorf("archive is required")
	}
	return nil
}

// SortedProductIDs returns product ids in deterministic order.
func SortedProductIDs(cfg Config) []string {
	ids := make([]string, 0, len(cfg.Products))
	for id := range cfg.Products {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IntervalDuration returns the parsed serve-mode cycle interval. Configs
// that went through Load always parse; hand-built ones may not.
func (c Config) IntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, fmt.Errorf("interval invalid: %w", err)
	}
	return d, nil
}
