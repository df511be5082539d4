package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/form270/declare/internal/domain"
	"github.com/form270/declare/internal/orchestrator"
)

func ingestUsage() {
	fmt.Fprintf(os.Stderr, `Usage: declare270 ingest -taxpayer <uuid> -kind <manual|csv|excel|bank|accounting|api> -file <path> [-external-id <id>]
`)
}

func runIngest(ctx context.Context, engine *orchestrator.Engine, args []string) int {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	var taxpayer, kind, file, externalID string
	flags.StringVar(&taxpayer, "taxpayer", "", "taxpayer id")
	flags.StringVar(&kind, "kind", "", "source kind")
	flags.StringVar(&file, "file", "", "path to the raw payload")
	flags.StringVar(&externalID, "external-id", "", "external identifier for the payload, if any")
	flags.Usage = ingestUsage
	_ = flags.Parse(args)

	if taxpayer == "" || kind == "" || file == "" {
		ingestUsage()
		return exitError
	}

	payload, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: read %s: %v\n", file, err)
		return exitError
	}

	rec, events, err := engine.Ingest(ctx, taxpayer, domain.SourceKind(kind), externalID, payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	fmt.Printf("source_record=%s events=%d active=%v\n", rec.ID, len(events), rec.Active)
	return exitOK
}
