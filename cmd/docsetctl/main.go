package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/dashsets/docsetctl/internal/config"
	"github.com/dashsets/docsetctl/internal/logging"
	"github.com/dashsets/docsetctl/internal/products"
	"github.com/dashsets/docsetctl/internal/server"
	"github.com/dashsets/docsetctl/internal/updater"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "docsetctl: %v\n", err)
		os.Exit(1)
	}
}

// parseCommand splits the leading subcommand off the argument list.
// Bare flags fall through to update, the default command.
func parseCommand(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "update", args
	}
	return args[0], args[1:]
}

func run(args []string) error {
	cmd, rest := parseCommand(args)

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath, "path to the docsetctl config file")

	switch cmd {
	case "update":
		product := fs.String("product", "", "update only this product id")
		dryRun := fs.Bool("dry-run", false, "discover pending versions without building")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return runUpdate(*configPath, *product, *dryRun)
	case "list":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return runList(*configPath)
	case "serve":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return runServe(*configPath)
	default:
		return fmt.Errorf("unknown command %q (expected update, list, or serve)", cmd)
	}
}

func setup(configPath string) (context.Context, context.CancelFunc, config.Config, *updater.Registry, error) {
	logging.ConfigureRuntime()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, config.Config{}, nil, err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	runner, err := products.BuildRunner(cfg)
	if err != nil {
		cancel()
		return nil, nil, config.Config{}, nil, err
	}
	registry, err := products.NewRegistry(ctx, cfg, runner, nil)
	if err != nil {
		cancel()
		return nil, nil, config.Config{}, nil, err
	}
	return ctx, cancel, cfg, registry, nil
}

func runUpdate(configPath string, product string, dryRun bool) error {
	ctx, cancel, _, registry, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cancel()

	engine := updater.NewEngine(registry)
	if dryRun {
		engine = updater.NewDryRunEngine(registry)
	}

	var ids []string
	if product != "" {
		ids = append(ids, product)
	}
	results := engine.RunCycle(ctx, ids...)

	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Printf("%s %s: FAILED: %v\n", r.Product, r.Version, r.Err)
		case r.ArchivePath != "":
			fmt.Printf("%s %s: %s\n", r.Product, r.Version, r.ArchivePath)
		default:
			fmt.Printf("%s %s: pending\n", r.Product, r.Version)
		}
	}
	if len(results) == 0 {
		fmt.Println("all products up to date")
	}
	if updater.Failed(results) {
		return fmt.Errorf("update cycle finished with failures")
	}
	return nil
}

func runList(configPath string) error {
	ctx, cancel, _, registry, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cancel()

	var failed bool
	for _, id := range registry.IDs() {
		u, _ := registry.Resolve(id)
		meta := u.Metadata()

		pending, err := u.Check(ctx)
		if err != nil {
			failed = true
			fmt.Printf("%s (%s): check failed: %v\n", meta.ID, meta.Name, err)
			continue
		}
		if len(pending) == 0 {
			fmt.Printf("%s (%s): up to date\n", meta.ID, meta.Name)
			continue
		}
		names := make([]string, 0, len(pending))
		for _, v := range pending {
			names = append(names, v.Name)
		}
		fmt.Printf("%s (%s): pending %s\n", meta.ID, meta.Name, strings.Join(names, ", "))
	}
	if failed {
		return fmt.Errorf("list finished with failures")
	}
	return nil
}

func runServe(configPath string) error {
	ctx, cancel, cfg, registry, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cancel()

	interval, err := cfg.IntervalDuration()
	if err != nil {
		return err
	}
	srv := server.New(server.Config{
		ListenAddr:  cfg.ListenAddr,
		CorsOrigins: cfg.CorsOrigins,
		Interval:    interval,
	}, updater.NewEngine(registry), registry)

	log.Info().Str("interval", cfg.Interval).Msg("starting update service")
	return srv.Run(ctx)
}
