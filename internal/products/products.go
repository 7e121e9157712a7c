package products

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dashsets/docsetctl/internal/config"
	"github.com/dashsets/docsetctl/internal/gitrepo"
	"github.com/dashsets/docsetctl/internal/state"
	"github.com/dashsets/docsetctl/internal/tools"
	"github.com/dashsets/docsetctl/internal/updater"
	"github.com/dashsets/docsetctl/internal/version"
)

// RepoFactory opens or clones a product repository. Tests substitute fakes
// so registry construction never touches the network.
type RepoFactory func(ctx context.Context, path string, url string) (updater.Repo, error)

func defaultRepoFactory(ctx context.Context, path string, url string) (updater.Repo, error) {
	return gitrepo.Ensure(ctx, path, url)
}

// Resolve merges builtin defaults into a product's config entry and
// validates the result. Config values win; StableOnly is sticky when the
// builtin sets it, since that reflects how the upstream tags prereleases.
func Resolve(id string, product config.ProductConfig) (config.ProductConfig, error) {
	if strings.TrimSpace(id) == "" {
		return config.ProductConfig{}, fmt.Errorf("product id is required")
	}
	merged := product
	if builtin, ok := Builtin(id); ok {
		if merged.Name == "" {
			merged.Name = builtin.Name
		}
		if merged.Source == "" {
			merged.Source = builtin.Source
		}
		if merged.TagPrefix == "" {
			merged.TagPrefix = builtin.TagPrefix
		}
		merged.StableOnly = merged.StableOnly || builtin.StableOnly
		if merged.VersionFile == "" {
			merged.VersionFile = builtin.VersionFile
		}
		if merged.VersionPattern == "" {
			merged.VersionPattern = builtin.VersionPattern
		}
		if len(merged.BuildCommand) == 0 {
			merged.BuildCommand = builtin.BuildCommand
		}
		if merged.Archive == "" {
			merged.Archive = builtin.Archive
		}
		if merged.StateFile == "" {
			merged.StateFile = builtin.StateFile
		}
	}
	if merged.Source == "" {
		merged.Source = config.SourceTags
	}
	if merged.Name == "" {
		merged.Name = strings.ToUpper(id[:1]) + id[1:]
	}
	if merged.Archive == "" {
		merged.Archive = merged.Name + ".tgz"
	}
	if merged.StateFile == "" {
		merged.StateFile = id + ".yml"
	}
	if err := config.ValidateProduct(id, merged); err != nil {
		return config.ProductConfig{}, err
	}
	return merged, nil
}

// New builds one updater from its resolved config.
func New(ctx context.Context, id string, product config.ProductConfig, cfg config.Config, runner tools.CommandRunner, repos RepoFactory) (updater.Updater, error) {
	merged, err := Resolve(id, product)
	if err != nil {
		return nil, fmt.Errorf("products: %w", err)
	}
	if repos == nil {
		repos = defaultRepoFactory
	}

	repo, err := repos(ctx, merged.RepositoryPath, merged.GitURL)
	if err != nil {
		return nil, fmt.Errorf("products: %s: %w", id, err)
	}
	store, err := state.Load(filepath.Join(cfg.StateDir, merged.StateFile))
	if err != nil {
		return nil, fmt.Errorf("products: %s: %w", id, err)
	}
	source, err := newSource(merged)
	if err != nil {
		return nil, fmt.Errorf("products: %s: %w", id, err)
	}

	meta := updater.Metadata{ID: id, Name: merged.Name, Archive: merged.Archive}
	builder := updater.Builder{Runner: runner, DocsetsDir: cfg.DocsetsDir}
	return updater.NewProduct(meta, repo, store, source, merged.BuildCommand, builder), nil
}

func newSource(product config.ProductConfig) (updater.Source, error) {
	var minimum *version.Version
	if product.MinimumVersion != "" {
		parsed, err := version.Parse(product.MinimumVersion)
		if err != nil {
			return nil, fmt.Errorf("minimum_version: %w", err)
		}
		minimum = &parsed
	}

	switch product.Source {
	case config.SourceTags:
		return updater.TagSource{
			Prefix:     product.TagPrefix,
			Minimum:    minimum,
			StableOnly: product.StableOnly,
		}, nil
	case config.SourceFile:
		pattern, err := regexp.Compile(product.VersionPattern)
		if err != nil {
			return nil, fmt.Errorf("version_pattern: %w", err)
		}
		return updater.FileSource{
			Path:    product.VersionFile,
			Pattern: pattern,
			Minimum: minimum,
		}, nil
	default:
		return nil, fmt.Errorf("unknown source %q", product.Source)
	}
}

// NewRegistry builds updaters for every configured product.
func NewRegistry(ctx context.Context, cfg config.Config, runner tools.CommandRunner, repos RepoFactory) (*updater.Registry, error) {
	registry := updater.NewRegistry()
	for _, id := range config.SortedProductIDs(cfg) {
		u, err := New(ctx, id, cfg.Products[id], cfg, runner, repos)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(u); err != nil {
			return nil, fmt.Errorf("products: register %s: %w", id, err)
		}
	}
	return registry, nil
}

// BuildRunner picks the command runner builds go through: the configured
// SSH build host when present, the local host otherwise.
func BuildRunner(cfg config.Config) (tools.CommandRunner, error) {
	if cfg.BuildHost == nil {
		return tools.LocalRunner{}, nil
	}
	host := cfg.BuildHost
	runner := tools.SSHRunner{
		Host:           host.Host,
		Port:           host.Port,
		User:           host.User,
		KeyPath:        host.KeyPath,
		KnownHostsPath: host.KnownHosts,
	}
	if host.Timeout != "" {
		timeout, err := time.ParseDuration(host.Timeout)
		if err != nil {
			return nil, fmt.Errorf("products: build host timeout: %w", err)
		}
		runner.Timeout = timeout
	}
	return runner, nil
}
