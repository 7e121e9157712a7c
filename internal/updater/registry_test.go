package updater

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dashsets/docsetctl/internal/testutil/testlog"
	"github.com/dashsets/docsetctl/internal/version"
)

type fakeUpdater struct {
	meta     Metadata
	pending  []version.Version
	checkErr error
	buildErr error
	built    []string
}

func (f *fakeUpdater) Metadata() Metadata {
	return f.meta
}

func (f *fakeUpdater) Check(ctx context.Context) ([]version.Version, error) {
	return f.pending, f.checkErr
}

func (f *fakeUpdater) Build(ctx context.Context, v version.Version) (string, error) {
	if f.buildErr != nil {
		return "", f.buildErr
	}
	f.built = append(f.built, v.Name)
	return "/docsets/" + f.meta.Name + "/" + v.Name + "/" + f.meta.Archive, nil
}

func TestRegisterResolveAndDuplicate(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	u := &fakeUpdater{meta: Metadata{ID: "kubernetes", Name: "Kubernetes", Archive: "Kubernetes.tgz"}}

	if err := r.Register(u); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(u); !errors.Is(err, ErrUpdaterExists) {
		t.Fatalf("expected ErrUpdaterExists, got %v", err)
	}
	got, ok := r.Resolve("kubernetes")
	if !ok || got.Metadata().ID != "kubernetes" {
		t.Fatalf("resolve failed: ok=%v", ok)
	}
}

func TestResolveMissingUpdater(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	if _, ok := r.Resolve("terraform"); ok {
		t.Fatalf("expected missing updater to return ok=false")
	}
}

func TestListMetadataSorted(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	for _, id := range []string{"vault", "consul", "packer"} {
		u := &fakeUpdater{meta: Metadata{ID: id, Name: id, Archive: id + ".tgz"}}
		if err := r.Register(u); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	list := r.ListMetadata()
	ids := []string{list[0].ID, list[1].ID, list[2].ID}
	want := []string{"consul", "packer", "vault"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("metadata not sorted: got=%v want=%v", ids, want)
	}
	if !reflect.DeepEqual(r.IDs(), want) {
		t.Fatalf("ids not sorted: got=%v", r.IDs())
	}
}

func TestValidateMetadataFailures(t *testing.T) {
	testlog.Start(t)
	cases := []Metadata{
		{ID: "", Name: "Consul", Archive: "Consul.tgz"},
		{ID: "consul", Name: "", Archive: "Consul.tgz"},
		{ID: "consul", Name: "Consul", Archive: ""},
		{ID: "Consul", Name: "Consul", Archive: "Consul.tgz"},
		{ID: "-consul", Name: "Consul", Archive: "Consul.tgz"},
		{ID: "con--sul", Name: "Consul", Archive: "Consul.tgz"},
	}
	for _, meta := range cases {
		if err := ValidateMetadata(meta); !errors.Is(err, ErrInvalidMetadata) {
			t.Fatalf("expected ErrInvalidMetadata for meta=%+v, got %v", meta, err)
		}
	}
}

func TestRegisterNilUpdater(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	if err := r.Register(nil); !errors.Is(err, ErrUpdaterNil) {
		t.Fatalf("expected ErrUpdaterNil, got %v", err)
	}
}
