package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"forecast/internal/cli"
	"forecast/internal/config"
	"forecast/internal/core"
	"forecast/internal/log"
	"forecast/internal/projection"
	"forecast/internal/scenarios"
	"forecast/internal/scenarios/memory"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	cli.LoadEnvFile()
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := cli.SetupLogger(os.Stderr, level, os.Getenv("LOG_FORMAT"), log.ComponentCLI)

	var err error
	switch os.Args[1] {
	case "project":
		err = runProject(logger, os.Args[2:], os.Stdout)
	case "describe":
		err = runDescribe(logger, os.Args[2:], os.Stdout)
	case "list":
		err = runList(logger, os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Forecast CLI")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  forecast <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  project   Project account balances for a scenario")
	fmt.Fprintln(w, "  describe  Print a scenario's accounts, recurrences and growth rules")
	fmt.Fprintln(w, "  list      List the scenarios of the configured backend")
	fmt.Fprintln(w, "  help      Show this help message")
	fmt.Fprintln(w, "\nScenarios come from -file (a scenario JSON document) or -id (a stored")
	fmt.Fprintln(w, "scenario in the backend selected by DATA_BACKEND).")
	fmt.Fprintln(w, "\nRun 'forecast <command> -h' for more information on a command.")
}

// source selects a scenario from a file or from the configured backend.
type source struct {
	file string
	id   int
}

func (s *source) register(fs *flag.FlagSet) {
	fs.StringVar(&s.file, "file", "", "path to a scenario JSON file")
	fs.IntVar(&s.id, "id", 0, "ID of a stored scenario")
}

// open returns a store holding the selected scenario and its ID. The caller
// must run the returned cleanup.
func (s *source) open(ctx context.Context, logger *log.Logger, cfg *config.Config) (scenarios.Store, int, func(), error) {
	switch {
	case s.file != "" && s.id != 0:
		return nil, 0, nil, fmt.Errorf("-file and -id are mutually exclusive")
	case s.file != "":
		sc, err := memory.ReadScenarioFile(s.file)
		if err != nil {
			return nil, 0, nil, err
		}
		return memory.New(*sc), sc.ID, func() {}, nil
	case s.id > 0:
		res := cli.InitBackend(ctx, logger, cfg)
		cleanup := func() {
			if err := res.Cleanup(); err != nil {
				logger.Warn("Failed to close backend", log.FieldError, err)
			}
		}
		return res.Store, s.id, cleanup, nil
	default:
		return nil, 0, nil, fmt.Errorf("one of -file or -id is required")
	}
}

func runProject(logger *log.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	var src source
	src.register(fs)
	periodicity := fs.String("periodicity", "", "daily, weekly, monthly, quarterly or yearly")
	start := fs.String("start", "", "window start (YYYY-MM-DD)")
	end := fs.String("end", "", "window end (YYYY-MM-DD)")
	from := fs.String("source", "", "transactions or budget")
	format := fs.String("format", formatTable, "output format: table, csv or json")
	fs.Parse(args)

	if *periodicity != "" {
		if _, ok := projection.ParsePeriodType(*periodicity); !ok {
			return fmt.Errorf("unknown periodicity %q", *periodicity)
		}
	}
	for _, d := range []string{*start, *end} {
		if d == "" {
			continue
		}
		if _, err := core.ParseDate(d); err != nil {
			return fmt.Errorf("invalid date %q: %w", d, err)
		}
	}

	cfg := cli.LoadAndValidateConfig(logger)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, id, cleanup, err := src.open(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := cli.NewProjectionService(cfg, store, memory.New(), nil)
	bundle, err := svc.GenerateProjections(ctx, id, projection.Options{
		Source:      *from,
		Periodicity: *periodicity,
		StartDate:   *start,
		EndDate:     *end,
	})
	if err != nil {
		return err
	}
	logger.Debug("Projection finished", "scenario_id", id, "rows", len(bundle.Rows))
	return renderRecords(out, *format, bundle.Rows)
}

func runDescribe(logger *log.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	var src source
	src.register(fs)
	fs.Parse(args)

	cfg := cli.LoadAndValidateConfig(logger)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, id, cleanup, err := src.open(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	sc, err := store.GetScenario(ctx, id)
	if err != nil {
		return err
	}
	loader, name := cli.LookupLoader(cfg)
	data, err := loader.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("load lookup data: %w", err)
	}
	describeScenario(out, sc, data)
	return nil
}

func runList(logger *log.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Parse(args)

	cfg := cli.LoadAndValidateConfig(logger)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg)
	defer res.Cleanup()

	list, err := res.Store.ListScenarios(ctx)
	if err != nil {
		return err
	}
	for _, s := range list {
		fmt.Fprintf(out, "%d\t%s\n", s.ID, s.Name)
	}
	return nil
}
