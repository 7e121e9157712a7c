package updater

import (
	"context"

	"github.com/dashsets/docsetctl/internal/version"
)

// Metadata is the contract for updater identity and output naming.
type Metadata struct {
	// ID is the stable lowercase identifier (config key, metrics label).
	ID string
	// Name is the display name; it also names the docset output directory.
	Name string
	// Archive is the file the product's build command leaves in the
	// repository root, e.g. "Kubernetes.tgz".
	Archive string
}

// Repo is the git surface an updater needs. gitrepo.Repo implements it;
// tests substitute fakes.
type Repo interface {
	Dir() string
	Fetch(ctx context.Context) error
	TagNames() ([]string, error)
	FileAtRemoteHead(path string) ([]byte, error)
	CheckoutTag(tag string) error
	CheckoutRemoteHead() error
}

// Updater is one tracked product: discover pending versions, build one.
type Updater interface {
	Metadata() Metadata
	Check(ctx context.Context) ([]version.Version, error)
	Build(ctx context.Context, v version.Version) (string, error)
}

// Result is the outcome of one version attempt within a cycle.
type Result struct {
	Product     string
	Version     string
	ArchivePath string
	Err         error
}

// Failed reports whether any result in the slice carries an error.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}
