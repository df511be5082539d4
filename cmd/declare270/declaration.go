package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/form270/declare/internal/domain"
	"github.com/form270/declare/internal/orchestrator"
)

func runValidate(ctx context.Context, engine *orchestrator.Engine, args []string) int {
	flags := flag.NewFlagSet("validate", flag.ExitOnError)
	var declarationID string
	flags.StringVar(&declarationID, "declaration", "", "declaration id")
	flags.Usage = func() { fmt.Fprintf(os.Stderr, "Usage: declare270 validate -declaration <uuid>\n") }
	_ = flags.Parse(args)

	if declarationID == "" {
		flags.Usage()
		return exitError
	}

	decl, err := engine.Validate(ctx, declarationID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	fmt.Printf("declaration=%s status=%s\n", decl.ID, decl.Status)
	return exitOK
}

func runTransition(ctx context.Context, engine *orchestrator.Engine, args []string) int {
	flags := flag.NewFlagSet("transition", flag.ExitOnError)
	var declarationID, to string
	flags.StringVar(&declarationID, "declaration", "", "declaration id")
	flags.StringVar(&to, "to", "", "target status")
	flags.Usage = func() { fmt.Fprintf(os.Stderr, "Usage: declare270 transition -declaration <uuid> -to <status>\n") }
	_ = flags.Parse(args)

	if declarationID == "" || to == "" {
		flags.Usage()
		return exitError
	}

	decl, err := engine.Transition(ctx, declarationID, domain.Status(to))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	fmt.Printf("declaration=%s status=%s\n", decl.ID, decl.Status)
	return exitOK
}

func runExport(ctx context.Context, engine *orchestrator.Engine, args []string) int {
	flags := flag.NewFlagSet("export", flag.ExitOnError)
	var declarationID, outFile string
	flags.StringVar(&declarationID, "declaration", "", "declaration id")
	flags.StringVar(&outFile, "out", "", "write the XML payload to this path instead of stdout")
	flags.Usage = func() { fmt.Fprintf(os.Stderr, "Usage: declare270 export -declaration <uuid> [-out <path>]\n") }
	_ = flags.Parse(args)

	if declarationID == "" {
		flags.Usage()
		return exitError
	}

	exp, err := engine.ProjectXML(ctx, declarationID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	if outFile == "" {
		fmt.Println(exp.Payload)
		return exitOK
	}
	if err := os.WriteFile(outFile, []byte(exp.Payload), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: write %s: %v\n", outFile, err)
		return exitError
	}
	fmt.Printf("schema_version=%d content_hash=%s written_to=%s\n", exp.SchemaVersion, exp.ContentHash, outFile)
	return exitOK
}
