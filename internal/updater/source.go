package updater

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/dashsets/docsetctl/internal/version"
)

var ErrVersionNotMatched = errors.New("updater: version pattern did not match tracked file")

// Source discovers versions that still need a docset build. Implementations
// must not report versions the processed predicate accepts.
type Source interface {
	Pending(ctx context.Context, repo Repo, processed func(string) bool) ([]version.Version, error)
}

// TagSource reads release versions from git tags. Tags that do not parse
// as versions are skipped, tags below Minimum are skipped, and with
// StableOnly set prereleases are skipped too. Results come back ascending.
type TagSource struct {
	Prefix     string
	Minimum    *version.Version
	StableOnly bool
}

func (s TagSource) Pending(ctx context.Context, repo Repo, processed func(string) bool) ([]version.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := repo.TagNames()
	if err != nil {
		return nil, err
	}

	var pending []version.Version
	for _, name := range names {
		v, err := version.ParseTag(name, s.Prefix)
		if err != nil {
			log.Debug().Str("tag", name).Msg("skipping unparsable tag")
			continue
		}
		if s.Minimum != nil && !v.AtLeast(*s.Minimum) {
			continue
		}
		if s.StableOnly && !v.Stable() {
			continue
		}
		if processed(v.Name) {
			continue
		}
		pending = append(pending, v)
	}
	version.Sort(pending)
	return pending, nil
}

// FileSource reads the current release version out of one tracked file at
// origin's default branch, the way upstreams that do not tag doc releases
// publish it. Pattern's first capture group is the version string; a
// version below Minimum is not pending.
type FileSource struct {
	Path    string
	Pattern *regexp.Regexp
	Minimum *version.Version
}

func (s FileSource) Pending(ctx context.Context, repo Repo, processed func(string) bool) ([]version.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := repo.FileAtRemoteHead(s.Path)
	if err != nil {
		return nil, err
	}

	match := s.Pattern.FindSubmatch(data)
	if len(match) < 2 {
		return nil, fmt.Errorf("%w: %s in %s", ErrVersionNotMatched, s.Pattern, s.Path)
	}
	v, err := version.Parse(string(match[1]))
	if err != nil {
		return nil, err
	}
	if s.Minimum != nil && !v.AtLeast(*s.Minimum) {
		return nil, nil
	}
	if processed(v.Name) {
		return nil, nil
	}
	return []version.Version{v}, nil
}
