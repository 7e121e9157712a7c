package updater

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/dashsets/docsetctl/internal/testutil/testlog"
	"github.com/dashsets/docsetctl/internal/version"
)

type fakeRepo struct {
	dir        string
	tags       []string
	files      map[string][]byte
	fetchCalls int
	fetchErr   error
	checkouts  []string
}

func (f *fakeRepo) Dir() string { return f.dir }

func (f *fakeRepo) Fetch(ctx context.Context) error {
	f.fetchCalls++
	return f.fetchErr
}

func (f *fakeRepo) TagNames() ([]string, error) { return f.tags, nil }

func (f *fakeRepo) FileAtRemoteHead(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return data, nil
}

func (f *fakeRepo) CheckoutTag(tag string) error {
	f.checkouts = append(f.checkouts, tag)
	return nil
}

func (f *fakeRepo) CheckoutRemoteHead() error {
	f.checkouts = append(f.checkouts, "HEAD")
	return nil
}

func notProcessed(string) bool { return false }

func mustVersion(t *testing.T, raw string) version.Version {
	t.Helper()
	v, err := version.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return v
}

func names(versions []version.Version) []string {
	out := make([]string, 0, len(versions))
	for _, v := range versions {
		out = append(out, v.Name)
	}
	return out
}

func TestTagSourceFiltersAndSorts(t *testing.T) {
	testlog.Start(t)
	repo := &fakeRepo{tags: []string{
		"v1.16.1", "v1.15.0", "v1.17.0-rc1", "v1.14.9", "release-helper", "v1.16.0",
	}}
	minimum := mustVersion(t, "1.15.0")
	source := TagSource{Prefix: "v", Minimum: &minimum, StableOnly: true}

	pending, err := source.Pending(context.Background(), repo, notProcessed)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	want := []string{"1.15.0", "1.16.0", "1.16.1"}
	got := names(pending)
	if len(got) != len(want) {
		t.Fatalf("pending mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pending mismatch at %d: got %v want %v", i, got, want)
		}
	}
	if pending[0].Tag != "v1.15.0" {
		t.Fatalf("original tag lost: %q", pending[0].Tag)
	}
}

func TestTagSourceAllowsPrereleasesWhenNotStableOnly(t *testing.T) {
	testlog.Start(t)
	repo := &fakeRepo{tags: []string{"v1.0.0", "v1.1.0-beta1"}}
	source := TagSource{Prefix: "v"}

	pending, err := source.Pending(context.Background(), repo, notProcessed)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected prerelease included: %v", names(pending))
	}
}

func TestTagSourceSkipsProcessed(t *testing.T) {
	testlog.Start(t)
	repo := &fakeRepo{tags: []string{"v1.0.0", "v1.1.0", "v1.2.0"}}
	processed := map[string]bool{"1.0.0": true, "1.1.0": true}
	source := TagSource{Prefix: "v"}

	pending, err := source.Pending(context.Background(), repo, func(name string) bool {
		return processed[name]
	})
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "1.2.0" {
		t.Fatalf("expected only 1.2.0 pending, got %v", names(pending))
	}
}

func TestFileSourceExtractsVersion(t *testing.T) {
	testlog.Start(t)
	repo := &fakeRepo{files: map[string][]byte{
		"content/config.rb": []byte("h.name = \"terraform\"\nh.version = \"0.12.24\"\n"),
	}}
	source := FileSource{
		Path:    "content/config.rb",
		Pattern: regexp.MustCompile(`h\.version\s*=\s*"(\S*)"`),
	}

	pending, err := source.Pending(context.Background(), repo, notProcessed)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "0.12.24" {
		t.Fatalf("unexpected pending: %v", names(pending))
	}
	if pending[0].Tag != "" {
		t.Fatalf("file source versions carry no tag, got %q", pending[0].Tag)
	}
}

func TestFileSourceProcessedYieldsNothing(t *testing.T) {
	testlog.Start(t)
	repo := &fakeRepo{files: map[string][]byte{
		"content/config.rb": []byte(`h.version = "0.12.24"`),
	}}
	source := FileSource{
		Path:    "content/config.rb",
		Pattern: regexp.MustCompile(`h\.version\s*=\s*"(\S*)"`),
	}

	pending, err := source.Pending(context.Background(), repo, func(name string) bool {
		return name == "0.12.24"
	})
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected nothing pending, got %v", names(pending))
	}
}

func TestFileSourceHonorsMinimum(t *testing.T) {
	testlog.Start(t)
	repo := &fakeRepo{files: map[string][]byte{
		"content/config.rb": []byte(`h.version = "0.11.9"`),
	}}
	minimum := mustVersion(t, "0.12.0")
	source := FileSource{
		Path:    "content/config.rb",
		Pattern: regexp.MustCompile(`h\.version\s*=\s*"(\S*)"`),
		Minimum: &minimum,
	}

	pending, err := source.Pending(context.Background(), repo, notProcessed)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("version below floor should not be pending, got %v", names(pending))
	}

	// At the floor the version is pending again.
	repo.files["content/config.rb"] = []byte(`h.version = "0.12.0"`)
	pending, err = source.Pending(context.Background(), repo, notProcessed)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "0.12.0" {
		t.Fatalf("unexpected pending: %v", names(pending))
	}
}

func TestFileSourcePatternMismatch(t *testing.T) {
	testlog.Start(t)
	repo := &fakeRepo{files: map[string][]byte{
		"content/config.rb": []byte("nothing to see"),
	}}
	source := FileSource{
		Path:    "content/config.rb",
		Pattern: regexp.MustCompile(`h\.version\s*=\s*"(\S*)"`),
	}

	_, err := source.Pending(context.Background(), repo, notProcessed)
	if !errors.Is(err, ErrVersionNotMatched) {
		t.Fatalf("expected ErrVersionNotMatched, got %v", err)
	}
}

func TestSourcesHonorContextCancellation(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &fakeRepo{tags: []string{"v1.0.0"}}
	if _, err := (TagSource{Prefix: "v"}).Pending(ctx, repo, notProcessed); err == nil {
		t.Fatalf("expected context error from tag source")
	}
	if _, err := (FileSource{Path: "x", Pattern: regexp.MustCompile("(.)")}).Pending(ctx, repo, notProcessed); err == nil {
		t.Fatalf("expected context error from file source")
	}
}
