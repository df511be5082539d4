// Package orchestrator is the thin entrypoint of §4.J: it wires the Event
// Store, Rule Catalog, Rule Engine Runner, Declaration Store, Workflow
// Controller, and XML Projector into the eight operations a caller (the API
// layer, a CLI, a scheduled job) actually invokes, and holds the
// per-declaration advisory lock around the three operations §5 requires to
// be serialized.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/form270/declare/internal/catalog"
	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/declstore"
	"github.com/form270/declare/internal/domain"
	"github.com/form270/declare/internal/eventstore"
	"github.com/form270/declare/internal/ruleengine"
	"github.com/form270/declare/internal/workflow"
	"github.com/form270/declare/internal/xmlproject"
)

// statusRank orders declaration statuses for the ">= validated" gate
// project_xml applies (§4.H, §4.I); accepted and rejected are both terminal
// outcomes of the submitted edge and rank equally above signed.
var statusRank = map[domain.Status]int{
	domain.StatusDraft:           0,
	domain.StatusValidated:       1,
	domain.StatusAwaitingConsent: 2,
	domain.StatusSigned:          3,
	domain.StatusSubmitted:       4,
	domain.StatusAccepted:        5,
	domain.StatusRejected:        5,
}

// Engine composes the stores and stateless packages behind the public
// operations. It holds no state of its own beyond the pool-backed stores.
type Engine struct {
	events       *eventstore.Store
	catalog      *catalog.Store
	declarations *declstore.Store
	workflow     *workflow.Controller
}

// New builds an Engine over already-constructed stores and controller.
func New(events *eventstore.Store, cat *catalog.Store, declarations *declstore.Store, wf *workflow.Controller) *Engine {
	return &Engine{events: events, catalog: cat, declarations: declarations, workflow: wf}
}

// Ingest stores a raw payload for a taxpayer and parses it into tax events,
// or returns the existing record/events unchanged if identical bytes were
// already ingested for that taxpayer (§3, §4.A, §8.1).
func (e *Engine) Ingest(ctx context.Context, taxpayer string, kind domain.SourceKind, externalID string, payload []byte) (domain.SourceRecord, []domain.TaxEvent, error) {
	sum := sha256.Sum256(payload)
	checksum := hex.EncodeToString(sum[:])
	return e.events.Ingest(ctx, taxpayer, kind, externalID, checksum, payload)
}

// Parse returns the tax events already derived from a source record,
// parsing them for the first time if none exist yet. The "created" result
// is false when the source record already had events (idempotent re-call).
func (e *Engine) Parse(ctx context.Context, sourceRecordID string) (events []domain.TaxEvent, created bool, err error) {
	existing, err := e.events.QueryBySource(ctx, sourceRecordID)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return existing, false, nil
	}
	events, err = e.events.Reparse(ctx, sourceRecordID)
	if err != nil {
		return nil, false, err
	}
	return events, true, nil
}

// Reparse re-derives a source record's events from its stored payload,
// discarding the previous set (§4.B) — used after a parser fix.
func (e *Engine) Reparse(ctx context.Context, sourceRecordID string) ([]domain.TaxEvent, error) {
	return e.events.Reparse(ctx, sourceRecordID)
}

// RunEngine pre-fetches the active rule catalog for year and folds the
// taxpayer's events through the seven phases (§4.F). It performs all the IO
// the runner itself is forbidden from doing, then hands off to a pure call.
func (e *Engine) RunEngine(ctx context.Context, taxpayer string, year int, opts ruleengine.Options) (*ruleengine.Context, error) {
	events, err := e.events.QueryByTaxpayerYear(ctx, taxpayer, year)
	if err != nil {
		return nil, err
	}

	ruleSet, err := e.loadRuleSet(ctx, year)
	if err != nil {
		return nil, err
	}

	return ruleengine.Run(events, ruleSet, opts)
}

func (e *Engine) loadRuleSet(ctx context.Context, year int) (ruleengine.RuleSet, error) {
	exclusion, err := e.catalog.ActiveRules(ctx, domain.RuleExclusion, &year)
	if err != nil {
		return ruleengine.RuleSet{}, err
	}
	mapping, err := e.catalog.ActiveRules(ctx, domain.RuleMapping, &year)
	if err != nil {
		return ruleengine.RuleSet{}, err
	}
	calculation, err := e.catalog.ActiveRules(ctx, domain.RuleCalculation, &year)
	if err != nil {
		return ruleengine.RuleSet{}, err
	}
	flag, err := e.catalog.ActiveRules(ctx, domain.RuleFlag, &year)
	if err != nil {
		return ruleengine.RuleSet{}, err
	}
	known, err := e.catalog.KnownEventTypesSet(ctx)
	if err != nil {
		return ruleengine.RuleSet{}, err
	}
	return ruleengine.RuleSet{
		Exclusion:       exclusion,
		Mapping:         mapping,
		Calculation:     calculation,
		Flag:            flag,
		KnownEventTypes: known,
	}, nil
}

// GenerateDeclaration finds or creates the declaration for
// (taxpayer, year, form, kind) — snapshotting header only on first
// creation — runs the engine over the taxpayer's events, and rewrites the
// declaration's items and flags from the run in one atomic regeneration
// (§4.G, §4.J). The whole operation is serialized per (taxpayer, year,
// form, kind) since no declaration id exists yet when the lock must be
// taken.
func (e *Engine) GenerateDeclaration(ctx context.Context, taxpayer string, year int, formCode string, kind domain.DeclarationKind, header domain.Header, allowEmpty bool) (domain.Declaration, *ruleengine.Context, error) {
	lockKey := fmt.Sprintf("declaration:%s:%d:%s:%s", taxpayer, year, formCode, kind)

	var result domain.Declaration
	var engineCtx *ruleengine.Context
	err := e.declarations.WithLock(ctx, lockKey, func(ctx context.Context) error {
		decl, err := e.declarations.FindOrCreate(ctx, taxpayer, year, formCode, kind, header)
		if err != nil {
			return err
		}

		if err := e.workflow.GuardRegenerate(ctx, decl.ID); err != nil {
			return err
		}

		engineCtx, err = e.RunEngine(ctx, taxpayer, year, ruleengine.Options{AllowEmpty: allowEmpty})
		if err != nil {
			return err
		}

		flags, err := e.declarations.Regenerate(ctx, decl.ID, engineCtx.FieldValues, domain.SourceRuleEngine, engineCtx.Flags)
		if err != nil {
			return err
		}
		decl.Flags = flags
		result = decl
		return nil
	})
	if err != nil {
		return domain.Declaration{}, nil, err
	}
	return result, engineCtx, nil
}

// Validate runs the draft -> validated transition, which requires the
// closed set of fields §4.H names to be present and writes a business
// validation report either way (workflow.Controller.transitionToValidated).
func (e *Engine) Validate(ctx context.Context, declarationID string) (domain.Declaration, error) {
	return e.Transition(ctx, declarationID, domain.StatusValidated)
}

// Transition moves a declaration along one edge of the §4.H graph, holding
// the declaration's advisory lock for the duration (§5).
func (e *Engine) Transition(ctx context.Context, declarationID string, to domain.Status) (domain.Declaration, error) {
	var result domain.Declaration
	err := e.declarations.WithLock(ctx, declarationID, func(ctx context.Context) error {
		decl, err := e.workflow.Transition(ctx, declarationID, to)
		if err != nil {
			return err
		}
		result = decl
		return nil
	})
	if err != nil {
		return domain.Declaration{}, err
	}
	return result, nil
}

// ProjectXML renders the declaration's current items into the fixed-shape
// 270.00 XML document and persists it as a new, monotonically versioned
// export (§4.I). The declaration must be validated or further along; a
// draft declaration is rejected as a conflict.
func (e *Engine) ProjectXML(ctx context.Context, declarationID string) (domain.XmlExport, error) {
	var result domain.XmlExport
	err := e.declarations.WithLock(ctx, declarationID, func(ctx context.Context) error {
		decl, err := e.declarations.Get(ctx, declarationID)
		if err != nil {
			return err
		}
		if statusRank[decl.Status] < statusRank[domain.StatusValidated] {
			return declerr.Conflict("orchestrator.ProjectXML", fmt.Sprintf("declaration %s is %s, must be validated or later to export", declarationID, decl.Status))
		}

		items, err := e.declarations.Items(ctx, declarationID)
		if err != nil {
			return err
		}

		payload, err := xmlproject.Render(decl, items)
		if err != nil {
			return err
		}

		exp, err := e.declarations.PutXmlExport(ctx, declarationID, payload, xmlproject.ContentHash(payload))
		if err != nil {
			return err
		}
		result = exp
		return nil
	})
	if err != nil {
		return domain.XmlExport{}, err
	}
	return result, nil
}
