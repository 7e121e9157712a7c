package updater

import (
	"context"
	"errors"
	"testing"

	"github.com/dashsets/docsetctl/internal/testutil/testlog"
	"github.com/dashsets/docsetctl/internal/version"
)

func registryWith(t *testing.T, updaters ...*fakeUpdater) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, u := range updaters {
		if err := r.Register(u); err != nil {
			t.Fatalf("register %s: %v", u.meta.ID, err)
		}
	}
	return r
}

func pendingVersions(t *testing.T, raw ...string) []version.Version {
	t.Helper()
	out := make([]version.Version, 0, len(raw))
	for _, r := range raw {
		out = append(out, mustVersion(t, r))
	}
	return out
}

func TestRunCycleBuildsAllPending(t *testing.T) {
	testlog.Start(t)
	u := &fakeUpdater{
		meta:    Metadata{ID: "consul", Name: "Consul", Archive: "Consul.tgz"},
		pending: pendingVersions(t, "1.15.0", "1.16.0"),
	}
	engine := NewEngine(registryWith(t, u))

	results := engine.RunCycle(context.Background())
	if Failed(results) {
		t.Fatalf("unexpected failure: %+v", results)
	}
	if len(results) != 2 || len(u.built) != 2 {
		t.Fatalf("expected two builds, got results=%d built=%v", len(results), u.built)
	}
	if results[0].ArchivePath == "" {
		t.Fatalf("result missing archive path: %+v", results[0])
	}
}

func TestRunCycleIsolatesProductFailures(t *testing.T) {
	testlog.Start(t)
	broken := &fakeUpdater{
		meta:     Metadata{ID: "consul", Name: "Consul", Archive: "Consul.tgz"},
		checkErr: errors.New("remote unreachable"),
	}
	healthy := &fakeUpdater{
		meta:    Metadata{ID: "vault", Name: "Vault", Archive: "Vault.tgz"},
		pending: pendingVersions(t, "1.14.0"),
	}
	engine := NewEngine(registryWith(t, broken, healthy))

	results := engine.RunCycle(context.Background())
	if !Failed(results) {
		t.Fatalf("expected failure in results")
	}
	if len(healthy.built) != 1 {
		t.Fatalf("healthy product should still build, got %v", healthy.built)
	}
}

func TestRunCycleStopsProductAfterBuildFailure(t *testing.T) {
	testlog.Start(t)
	u := &fakeUpdater{
		meta:     Metadata{ID: "packer", Name: "Packer", Archive: "Packer.tgz"},
		pending:  pendingVersions(t, "1.8.0", "1.9.0"),
		buildErr: errors.New("build.sh missing"),
	}
	engine := NewEngine(registryWith(t, u))

	results := engine.RunCycle(context.Background())
	if len(results) != 1 {
		t.Fatalf("expected one result before bailing on the product, got %+v", results)
	}
	if results[0].Err == nil {
		t.Fatalf("expected failed result")
	}
}

func TestRunCycleSelectsProducts(t *testing.T) {
	testlog.Start(t)
	consul := &fakeUpdater{
		meta:    Metadata{ID: "consul", Name: "Consul", Archive: "Consul.tgz"},
		pending: pendingVersions(t, "1.15.0"),
	}
	vault := &fakeUpdater{
		meta:    Metadata{ID: "vault", Name: "Vault", Archive: "Vault.tgz"},
		pending: pendingVersions(t, "1.14.0"),
	}
	engine := NewEngine(registryWith(t, consul, vault))

	results := engine.RunCycle(context.Background(), "vault")
	if Failed(results) {
		t.Fatalf("unexpected failure: %+v", results)
	}
	if len(consul.built) != 0 || len(vault.built) != 1 {
		t.Fatalf("selection ignored: consul=%v vault=%v", consul.built, vault.built)
	}
}

func TestRunCycleUnknownProduct(t *testing.T) {
	testlog.Start(t)
	engine := NewEngine(registryWith(t))
	results := engine.RunCycle(context.Background(), "nomad")
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("expected error result for unknown product, got %+v", results)
	}
}

func TestDryRunSkipsBuilds(t *testing.T) {
	testlog.Start(t)
	u := &fakeUpdater{
		meta:    Metadata{ID: "kubernetes", Name: "Kubernetes", Archive: "Kubernetes.tgz"},
		pending: pendingVersions(t, "1.28.0"),
	}
	engine := NewDryRunEngine(registryWith(t, u))

	results := engine.RunCycle(context.Background())
	if Failed(results) {
		t.Fatalf("unexpected failure: %+v", results)
	}
	if len(u.built) != 0 {
		t.Fatalf("dry run must not build, got %v", u.built)
	}
	if len(results) != 1 || results[0].Version != "1.28.0" {
		t.Fatalf("dry run should still report pending versions: %+v", results)
	}
}

func TestFailedHelper(t *testing.T) {
	testlog.Start(t)
	if Failed(nil) {
		t.Fatalf("empty results should not fail")
	}
	if !Failed([]Result{{Product: "x", Err: errors.New("boom")}}) {
		t.Fatalf("error result should fail")
	}
}
