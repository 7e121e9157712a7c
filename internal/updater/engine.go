package updater

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dashsets/docsetctl/internal/observability"
)

// Engine runs update cycles over a registry. Cycles are serialized: a
// manual trigger during a scheduled run waits its turn.
type Engine struct {
	registry *Registry
	dryRun   bool

	mu sync.Mutex
}

func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// NewDryRunEngine discovers pending versions without building anything.
func NewDryRunEngine(registry *Registry) *Engine {
	return &Engine{registry: registry, dryRun: true}
}

// RunCycle checks and builds the named products, or every registered
// product when ids is empty. One product's failure never stops the
// others; inspect the results for errors.
func (e *Engine) RunCycle(ctx context.Context, ids ...string) []Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	observability.RecordCycle()
	if len(ids) == 0 {
		ids = e.registry.IDs()
	}

	var results []Result
	for _, id := range ids {
		u, ok := e.registry.Resolve(id)
		if !ok {
			results = append(results, Result{Product: id, Err: fmt.Errorf("updater: unknown product %q", id)})
			continue
		}
		results = append(results, e.runProduct(ctx, u)...)
	}
	return results
}

func (e *Engine) runProduct(ctx context.Context, u Updater) []Result {
	meta := u.Metadata()
	logger := log.With().Str("product", meta.ID).Logger()

	pending, err := u.Check(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("version check failed")
		return []Result{{Product: meta.ID, Err: err}}
	}
	observability.SetPendingVersions(meta.ID, len(pending))
	if len(pending) == 0 {
		logger.Debug().Msg("up to date")
		return nil
	}
	logger.Info().Int("pending", len(pending)).Msg("new versions found")

	var results []Result
	for _, v := range pending {
		if e.dryRun {
			logger.Info().Str("version", v.Name).Msg("dry run, skipping build")
			results = append(results, Result{Product: meta.ID, Version: v.Name})
			continue
		}
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Product: meta.ID, Version: v.Name, Err: err})
			return results
		}

		start := time.Now()
		path, err := u.Build(ctx, v)
		observability.RecordBuild(meta.ID, time.Since(start), err == nil)
		if err != nil {
			logger.Error().Err(err).Str("version", v.Name).Msg("build failed")
			results = append(results, Result{Product: meta.ID, Version: v.Name, Err: err})
			// Later versions of the same product usually fail the same
			// way; move on to the next product.
			return results
		}
		logger.Info().Str("version", v.Name).Str("archive", path).Msg("docset built")
		results = append(results, Result{Product: meta.ID, Version: v.Name, ArchivePath: path})
	}
	return results
}
