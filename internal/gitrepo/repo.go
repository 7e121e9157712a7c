package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog/log"
)

var ErrFileNotFound = errors.New("gitrepo: file not found at remote head")

// remoteHeadRevisions are tried in order when resolving the default branch.
// Clones made by older tooling may lack refs/remotes/origin/HEAD.
var remoteHeadRevisions = []string{
	"refs/remotes/origin/HEAD",
	"refs/remotes/origin/main",
	"refs/remotes/origin/master",
}

// Repo is a product's local clone of its upstream repository.
type Repo struct {
	path string
	url  string
	repo *git.Repository
}

// Ensure opens the clone at path, cloning from url first if it does not
// exist yet.
func Ensure(ctx context.Context, path string, url string) (*Repo, error) {
	repo, err := git.PlainOpen(path)
	if err == nil {
		return &Repo{path: path, url: url, repo: repo}, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("gitrepo: open %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("gitrepo: prepare %s: %w", path, err)
	}
	log.Info().Str("url", url).Str("path", path).Msg("cloning repository")
	repo, err = git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:  url,
		Tags: git.AllTags,
	})
	if err != nil {
		return nil, fmt.Errorf("gitrepo: clone %s: %w", url, err)
	}
	return &Repo{path: path, url: url, repo: repo}, nil
}

func (r *Repo) Dir() string {
	return r.path
}

// Fetch updates heads and tags from origin. An already up to date remote
// is not an error.
func (r *Repo) Fetch(ctx context.Context) error {
	err := r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Tags:       git.AllTags,
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("gitrepo: fetch %s: %w", r.path, err)
	}
	return nil
}

// TagNames lists all local tag names, short form.
func (r *Repo) TagNames() ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("gitrepo: tags %s: %w", r.path, err)
	}
	defer iter.Close()

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gitrepo: tags %s: %w", r.path, err)
	}
	return names, nil
}

// FileAtRemoteHead reads one file from the tree at origin's default branch.
func (r *Repo) FileAtRemoteHead(path string) ([]byte, error) {
	hash, err := r.remoteHead()
	if err != nil {
		return nil, err
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("gitrepo: commit %s at %s: %w", hash, r.path, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("gitrepo: tree %s at %s: %w", hash, r.path, err)
	}
	file, err := tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("gitrepo: file %s at %s: %w", path, r.path, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("gitrepo: read %s at %s: %w", path, r.path, err)
	}
	return []byte(contents), nil
}

// CheckoutTag moves the worktree to the commit the tag points at,
// peeling annotated tags.
func (r *Repo) CheckoutTag(tag string) error {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(tag))
	if err != nil {
		return fmt.Errorf("gitrepo: resolve tag %s at %s: %w", tag, r.path, err)
	}
	return r.checkoutHash(*hash)
}

// CheckoutRemoteHead moves the worktree to origin's default branch tip.
func (r *Repo) CheckoutRemoteHead() error {
	hash, err := r.remoteHead()
	if err != nil {
		return err
	}
	return r.checkoutHash(*hash)
}

func (r *Repo) checkoutHash(hash plumbing.Hash) error {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("gitrepo: worktree %s: %w", r.path, err)
	}
	err = worktree.Checkout(&git.CheckoutOptions{Hash: hash, Force: true})
	if err != nil {
		return fmt.Errorf("gitrepo: checkout %s at %s: %w", hash, r.path, err)
	}
	return nil
}

func (r *Repo) remoteHead() (*plumbing.Hash, error) {
	var lastErr error
	for _, rev := range remoteHeadRevisions {
		hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
		if err == nil {
			return hash, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("gitrepo: resolve remote head at %s: %w", r.path, lastErr)
}
