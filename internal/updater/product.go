package updater

import (
	"context"

	"github.com/dashsets/docsetctl/internal/state"
	"github.com/dashsets/docsetctl/internal/version"
)

// Product wires one tracked repository to its version source, processed
// state, and build command. It is the standard Updater implementation;
// the products package constructs these from config.
type Product struct {
	meta    Metadata
	repo    Repo
	store   *state.Store
	source  Source
	command []string
	builder Builder
}

func NewProduct(meta Metadata, repo Repo, store *state.Store, source Source, command []string, builder Builder) *Product {
	return &Product{
		meta:    meta,
		repo:    repo,
		store:   store,
		source:  source,
		command: command,
		builder: builder,
	}
}

func (p *Product) Metadata() Metadata {
	return p.meta
}

// Check fetches from origin and reports versions without a docset yet,
// ascending.
func (p *Product) Check(ctx context.Context) ([]version.Version, error) {
	if err := p.repo.Fetch(ctx); err != nil {
		return nil, err
	}
	return p.source.Pending(ctx, p.repo, p.store.Contains)
}

// Build produces the docset archive for one version and marks it
// processed. A failed build leaves the version unmarked so the next cycle
// retries it.
func (p *Product) Build(ctx context.Context, v version.Version) (string, error) {
	path, err := p.builder.Build(ctx, p.meta, p.repo, p.command, v)
	if err != nil {
		return "", err
	}
	if err := p.store.Mark(v.Name); err != nil {
		return "", err
	}
	return path, nil
}
