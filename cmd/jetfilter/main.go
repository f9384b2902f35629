package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/jetfilter/internal/config"
	"github.com/banshee-data/jetfilter/internal/db"
	"github.com/banshee-data/jetfilter/internal/events"
	"github.com/banshee-data/jetfilter/internal/filter"
	"github.com/banshee-data/jetfilter/internal/monitor"
	"github.com/banshee-data/jetfilter/internal/monitoring"
	"github.com/banshee-data/jetfilter/internal/pipeline"
	"github.com/banshee-data/jetfilter/internal/version"
)

const defaultDBPath = "jetfilter.db"

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "run":
		err = runCommand(ctx, args, os.Stdout)
	case "runs":
		err = runsCommand(ctx, args, os.Stdout)
	case "migrate":
		err = migrateCommand(args, os.Stdout)
	case "version":
		fmt.Println(version.String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

func printUsage() {
	fmt.Println(`jetfilter - offline HLT jet filter

Usage: jetfilter <command> [options]

Commands:
  run        Filter a JSON-lines event file
  runs       List runs stored in the results database
  migrate    Manage the results database schema (up, down, status, force <n>)
  version    Show jetfilter version
  help       Show this help message

Run "jetfilter <command> -h" for the options of a command.`)
}

type runOptions struct {
	configPath string
	eventsPath string
	dbPath     string
	plotDir    string
	workers    int
	verbose    bool
}

func parseRunFlags(args []string) (runOptions, error) {
	var o runOptions
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Filter configuration JSON (defaults when empty)")
	fs.StringVar(&o.eventsPath, "events", "", "JSON-lines event file (required)")
	fs.StringVar(&o.dbPath, "db", "", "SQLite results database (results are not stored when empty)")
	fs.StringVar(&o.plotDir, "plots", "", "Directory for AlphaT plots and the HTML report")
	fs.IntVar(&o.workers, "workers", 0, "Concurrent evaluations (0 = GOMAXPROCS)")
	fs.BoolVar(&o.verbose, "v", false, "Log per-jet AlphaT diagnostics")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.eventsPath == "" {
		return o, fmt.Errorf("-events is required")
	}
	if o.workers < 0 {
		return o, fmt.Errorf("-workers must be non-negative, got %d", o.workers)
	}
	return o, nil
}

func loadConfig(path string) (*config.FilterConfig, error) {
	if path == "" {
		return config.DefaultFilterConfig(), nil
	}
	return config.LoadFilterConfig(path)
}

func runCommand(ctx context.Context, args []string, out io.Writer) error {
	o, err := parseRunFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}
	params := cfg.Params()
	f, err := filter.New(params)
	if err != nil {
		return err
	}
	if o.verbose {
		f.Logf = monitoring.Prefixed("filter")
	}

	evs, err := events.ReadFile(o.eventsPath)
	if err != nil {
		return err
	}
	log.Printf("loaded %d events from %s (mode %s)", len(evs), o.eventsPath, params.Mode)

	recorder := monitor.NewAlphaTRecorder()
	runner := &pipeline.Runner{
		Filter:     f,
		Observers:  []pipeline.Observer{recorder},
		Workers:    o.workers,
		DefaultTag: params.InputTag,
	}

	var writer *db.RunWriter
	if o.dbPath != "" {
		database, err := db.NewDB(o.dbPath)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		writer, err = database.BeginRun(ctx, db.RunInfo{Params: params, StartedAt: time.Now()})
		if err != nil {
			return err
		}
		runner.Sink = writer
		log.Printf("storing results as run %s in %s", writer.RunID(), o.dbPath)
	}

	start := time.Now()
	stats, runErr := runner.Run(ctx, evs)
	if writer != nil {
		if err := writer.Finish(context.WithoutCancel(ctx), stats); err != nil {
			log.Printf("failed to finish run: %v", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	log.Printf("filtered %d events in %s", stats.Events, time.Since(start).Round(time.Millisecond))

	printStats(out, stats, recorder.Summary())

	if o.plotDir != "" {
		paths, err := recorder.WritePlots(o.plotDir)
		if err != nil {
			return err
		}
		report, err := recorder.WriteReport(o.plotDir, stats)
		if err != nil {
			return err
		}
		for _, p := range append(paths, report) {
			log.Printf("wrote %s", p)
		}
	}
	return nil
}

func printStats(out io.Writer, stats pipeline.Stats, s monitor.Summary) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "events\t%d\n", stats.Events)
	fmt.Fprintf(tw, "empty\t%d\n", stats.Empty)
	fmt.Fprintf(tw, "triggered\t%d\n", stats.Triggered)
	fmt.Fprintf(tw, "accepted\t%d\n", stats.Accepted)
	fmt.Fprintf(tw, "degenerate\t%d\n", stats.Degenerate)
	fmt.Fprintf(tw, "published jets\t%d\n", stats.PublishedJets)
	fmt.Fprintf(tw, "accept rate\t%.4f\n", stats.AcceptRate())
	if s.BothEntries > 0 {
		fmt.Fprintf(tw, "mean alphaT exact\t%.4f\n", s.MeanExact)
		fmt.Fprintf(tw, "mean alphaT approx\t%.4f\n", s.MeanApprox)
	}
	tw.Flush()
}

func runsCommand(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	dbPath := fs.String("db", defaultDBPath, "SQLite results database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	runs, err := database.Runs(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tMODE\tTAG\tEVENTS\tTRIGGERED\tACCEPTED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.RunID, r.StartedAt.Format(time.RFC3339), r.Mode, r.InputTag,
			r.Events, r.Triggered, r.Accepted)
	}
	return tw.Flush()
}
