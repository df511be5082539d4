package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/form270/declare/internal/domain"
	"github.com/form270/declare/internal/orchestrator"
)

func generateUsage() {
	fmt.Fprintf(os.Stderr, `Usage: declare270 generate -taxpayer <uuid> -year <yyyy> [-form <code>] [-kind main|regular|additional|notice] [-iin <iin>] [-allow-empty]
`)
}

func runGenerate(ctx context.Context, engine *orchestrator.Engine, args []string) int {
	flags := flag.NewFlagSet("generate", flag.ExitOnError)
	var taxpayer, form, kind, iin string
	var year int
	var allowEmpty bool
	flags.StringVar(&taxpayer, "taxpayer", "", "taxpayer id")
	flags.IntVar(&year, "year", 0, "tax year")
	flags.StringVar(&form, "form", "270.00", "form code")
	flags.StringVar(&kind, "kind", string(domain.KindMain), "declaration kind")
	flags.StringVar(&iin, "iin", "", "taxpayer IIN, used only on first creation")
	flags.BoolVar(&allowEmpty, "allow-empty", false, "permit a run over zero tax events")
	flags.Usage = generateUsage
	_ = flags.Parse(args)

	if taxpayer == "" || year == 0 {
		generateUsage()
		return exitError
	}

	header := domain.Header{IIN: iin}
	decl, engineCtx, err := engine.GenerateDeclaration(ctx, taxpayer, year, form, domain.DeclarationKind(kind), header, allowEmpty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	fmt.Printf("declaration=%s status=%s fields=%d flags=%d events_processed=%d events_excluded=%d\n",
		decl.ID, decl.Status, len(engineCtx.FieldValues), len(decl.Flags), engineCtx.Stats.EventsProcessed, engineCtx.Stats.EventsExcluded)
	return exitOK
}
