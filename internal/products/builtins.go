package products

import "github.com/dashsets/docsetctl/internal/config"

// builtins carries the per-product settings that do not belong in the
// config file: archive naming, state file naming, tag conventions, and
// where non-tagging upstreams publish their current version. Config
// values win over these defaults.
var builtins = map[string]config.ProductConfig{
	"kubernetes": {
		Name:         "Kubernetes",
		Source:       config.SourceTags,
		TagPrefix:    "v",
		BuildCommand: []string{"./build.sh"},
		Archive:      "Kubernetes.tgz",
		StateFile:    "kubernetes.yml",
	},
	"consul": {
		Name:         "Consul",
		Source:       config.SourceTags,
		TagPrefix:    "v",
		StableOnly:   true,
		BuildCommand: []string{"./build.sh"},
		Archive:      "Consul.tgz",
		StateFile:    "consul.yml",
	},
	"vault": {
		Name:         "Vault",
		Source:       config.SourceTags,
		TagPrefix:    "v",
		StableOnly:   true,
		BuildCommand: []string{"./build.sh"},
		Archive:      "Vault.tgz",
		StateFile:    "vault.yml",
	},
	"packer": {
		Name:         "Packer",
		Source:       config.SourceTags,
		TagPrefix:    "v",
		BuildCommand: []string{"./build.sh"},
		Archive:      "Packer.tgz",
		StateFile:    "packer.yml",
	},
	"terraform": {
		Name:           "Terraform",
		Source:         config.SourceFile,
		VersionFile:    "content/config.rb",
		VersionPattern: `h\.version\s*=\s*"(\S*)"`,
		BuildCommand:   []string{"./build.sh"},
		Archive:        "Terraform.tgz",
		StateFile:      "terraform.yml",
	},
}

// Builtin returns the builtin defaults for a product id, when it has any.
func Builtin(id string) (config.ProductConfig, bool) {
	defaults, ok := builtins[id]
	return defaults, ok
}
