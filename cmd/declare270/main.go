// Command declare270 drives the form 270.00 declaration engine: ingesting
// raw event payloads, running the rule engine, generating and transitioning
// declarations, and projecting the final XML.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/form270/declare/internal/catalog"
	"github.com/form270/declare/internal/config"
	"github.com/form270/declare/internal/declstore"
	"github.com/form270/declare/internal/eventstore"
	"github.com/form270/declare/internal/orchestrator"
	"github.com/form270/declare/internal/seed"
	"github.com/form270/declare/internal/workflow"
)

const (
	exitOK    = 0
	exitError = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		usage()
		return exitError
	}

	ctx := context.Background()
	cfg := config.Load()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: connect to database: %v\n", err)
		return exitError
	}
	defer pool.Close()

	events := eventstore.New(pool)
	cat := catalog.New(pool)
	declarations := declstore.New(pool)
	wf := workflow.New(declarations)
	engine := orchestrator.New(events, cat, declarations, wf)

	if err := ensureSchema(ctx, events, cat, declarations); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	subcommand := os.Args[1]
	args := os.Args[2:]

	switch subcommand {
	case "seed":
		if err := seed.Catalog(ctx, cat); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
		fmt.Println("catalog seeded")
		return exitOK
	case "ingest":
		return runIngest(ctx, engine, args)
	case "generate":
		return runGenerate(ctx, engine, args)
	case "validate":
		return runValidate(ctx, engine, args)
	case "transition":
		return runTransition(ctx, engine, args)
	case "export":
		return runExport(ctx, engine, args)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", subcommand)
		usage()
		return exitError
	}
}

type schemaStore interface {
	EnsureSchema(ctx context.Context) error
}

func ensureSchema(ctx context.Context, stores ...schemaStore) error {
	for _, s := range stores {
		if err := s.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: declare270 <command> [options]

Commands:
  seed        Load the rule catalog's vocabulary, mapping rules, and XML field maps
  ingest      Ingest a raw payload and parse it into tax events
  generate    Run the rule engine and (re)generate a declaration
  validate    Run the draft -> validated transition
  transition  Move a declaration along one edge of the workflow graph
  export      Project a validated declaration to XML

Use "declare270 <command> --help" for more information about a command.
`)
}
