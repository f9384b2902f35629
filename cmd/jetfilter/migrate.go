package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/banshee-data/jetfilter/internal/db"
)

func printMigrateHelp(out io.Writer) {
	fmt.Fprintln(out, `Usage: jetfilter migrate [-db path] <action>

Actions:
  up           Apply all pending migrations
  down         Roll back the most recent migration
  status       Show the current schema version
  force <n>    Set the schema version without running migrations (recovery only)`)
}

// migrateCommand handles the 'migrate' subcommand dispatching
func migrateCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dbPath := fs.String("db", defaultDBPath, "SQLite results database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		printMigrateHelp(out)
		return fmt.Errorf("missing migrate action")
	}
	action := fs.Arg(0)

	// Migrations manage the schema, so open without applying them.
	database, err := db.OpenDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	switch action {
	case "up":
		log.Printf("Running migrations...")
		if err := database.MigrateUp(); err != nil {
			return err
		}
	case "down":
		log.Printf("Rolling back one migration...")
		if err := database.MigrateDown(); err != nil {
			return err
		}
	case "status":
	case "force":
		if fs.NArg() < 2 {
			return fmt.Errorf("usage: jetfilter migrate force <version>")
		}
		v, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version number %q: %w", fs.Arg(1), err)
		}
		if err := database.MigrateForce(v); err != nil {
			return err
		}
	case "help":
		printMigrateHelp(out)
		return nil
	default:
		printMigrateHelp(out)
		return fmt.Errorf("unknown migrate action: %s", action)
	}

	return printMigrateStatus(database, out)
}

func printMigrateStatus(database *db.DB, out io.Writer) error {
	current, dirty, err := database.MigrateVersion()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	latest, err := db.LatestMigrationVersion()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Current version: %d\n", current)
	fmt.Fprintf(out, "Latest version: %d\n", latest)
	fmt.Fprintf(out, "Dirty: %v\n", dirty)
	if dirty {
		fmt.Fprintln(out, "A migration failed mid-execution; inspect the database, then run: jetfilter migrate force <version>")
	} else if current < latest {
		fmt.Fprintf(out, "%d migration(s) pending\n", latest-current)
	}
	return nil
}
