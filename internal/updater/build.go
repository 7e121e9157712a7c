package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dashsets/docsetctl/internal/tools"
	"github.com/dashsets/docsetctl/internal/version"
)

var ErrArchiveMissing = errors.New("updater: build produced no archive")

// Builder runs a product's build command against a checked-out version and
// stages the resulting archive under the docsets directory as
// <name>/<version>/<archive>.
type Builder struct {
	Runner     tools.CommandRunner
	DocsetsDir string
}

func (b Builder) Build(ctx context.Context, meta Metadata, repo Repo, command []string, v version.Version) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(command) == 0 {
		return "", fmt.Errorf("updater: %s has no build command", meta.ID)
	}

	if v.Tag != "" {
		if err := repo.CheckoutTag(v.Tag); err != nil {
			return "", err
		}
	} else {
		if err := repo.CheckoutRemoteHead(); err != nil {
			return "", err
		}
	}

	args := append(append([]string{}, command[1:]...), v.Name)
	out, err := b.Runner.Run(repo.Dir(), command[0], args...)
	if err != nil {
		return "", fmt.Errorf("updater: build %s %s: %w (output: %s)",
			meta.ID, v.Name, err, tail(out, 512))
	}

	built := filepath.Join(repo.Dir(), meta.Archive)
	if _, err := os.Stat(built); err != nil {
		return "", fmt.Errorf("%w: expected %s after building %s %s",
			ErrArchiveMissing, built, meta.ID, v.Name)
	}

	destDir := filepath.Join(b.DocsetsDir, meta.Name, v.Name)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("updater: stage dir for %s %s: %w", meta.ID, v.Name, err)
	}
	dest := filepath.Join(destDir, meta.Archive)
	if err := moveFile(built, dest); err != nil {
		return "", fmt.Errorf("updater: stage %s %s: %w", meta.ID, v.Name, err)
	}
	return dest, nil
}

// moveFile renames, falling back to copy+remove for cross-device moves.
func moveFile(src string, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return err
	}
	return os.Remove(src)
}

func tail(out string, n int) string {
	trimmed := strings.TrimSpace(out)
	if len(trimmed) <= n {
		return trimmed
	}
	return "..." + trimmed[len(trimmed)-n:]
}
