// Package catalog is the Rule Catalog of §4.C: typed CRUD over event
// types, logical fields, rules, and XML field maps, plus the active-rule
// lookup the orchestrator queries once per rule kind before each engine
// run, and the static cycle
// check run when a calculation rule is added or changed.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/domain"
)

// Store persists the rule catalog.
type Store struct {
	db *pgxpool.Pool
}

// New wraps an existing pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the catalog tables if they do not already exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS event_types (
			code TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS logical_fields (
			code TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS rules (
			id UUID PRIMARY KEY,
			rule_code TEXT NOT NULL UNIQUE,
			tax_year INTEGER,
			kind TEXT NOT NULL,
			conditions JSONB NOT NULL,
			actions JSONB NOT NULL,
			priority INTEGER NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_rules_active_kind ON rules(kind, active);

		CREATE TABLE IF NOT EXISTS xml_field_maps (
			form_code TEXT NOT NULL,
			application_code TEXT NOT NULL,
			logical_field TEXT,
			xml_field_name TEXT NOT NULL,
			PRIMARY KEY (form_code, application_code, xml_field_name)
		);
	`)
	if err != nil {
		return declerr.Internal("catalog.EnsureSchema", "create tables", err)
	}
	return nil
}

// PutRule inserts or replaces a rule by rule_code, then re-checks the
// calculation-rule dependency graph for cycles (Open Question: a cyclic
// calc-rule set is rejected at write time, not at engine run time).
func (s *Store) PutRule(ctx context.Context, r domain.Rule) (domain.Rule, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	if err := s.checkMapActionTargets(ctx, r); err != nil {
		return domain.Rule{}, err
	}

	condJSON, err := json.Marshal(r.Conditions)
	if err != nil {
		return domain.Rule{}, declerr.Internal("catalog.PutRule", "marshal conditions", err)
	}
	actJSON, err := json.Marshal(r.Actions)
	if err != nil {
		return domain.Rule{}, declerr.Internal("catalog.PutRule", "marshal actions", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO rules (id, rule_code, tax_year, kind, conditions, actions, priority, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (rule_code) DO UPDATE SET
			tax_year = EXCLUDED.tax_year,
			kind = EXCLUDED.kind,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			priority = EXCLUDED.priority,
			active = EXCLUDED.active
	`, r.ID, r.RuleCode, r.TaxYear, string(r.Kind), condJSON, actJSON, r.Priority, r.Active)
	if err != nil {
		return domain.Rule{}, declerr.Internal("catalog.PutRule", "upsert rule", err)
	}

	if r.Kind == domain.RuleCalculation {
		rules, err := s.ActiveRules(ctx, domain.RuleCalculation, nil)
		if err != nil {
			return domain.Rule{}, err
		}
		if cyc := findCalcCycle(rules); cyc != "" {
			return domain.Rule{}, declerr.Conflict("catalog.PutRule", fmt.Sprintf("calculation rules contain a cycle through %s", cyc))
		}
	}

	return r, nil
}

// checkMapActionTargets rejects a rule carrying a map action whose target
// logical_field was never seeded (§4.C: "rule insertion must validate that
// any map action's target logical_field already exists").
func (s *Store) checkMapActionTargets(ctx context.Context, r domain.Rule) error {
	for _, action := range r.Actions {
		if action.Kind != domain.ActionMap || action.Target == "" {
			continue
		}
		var exists bool
		err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM logical_fields WHERE code = $1)`, action.Target).Scan(&exists)
		if err != nil {
			return declerr.Internal("catalog.PutRule", "check logical_field existence", err)
		}
		if !exists {
			return declerr.Conflict("catalog.PutRule", fmt.Sprintf("map action targets unseeded logical_field %q", action.Target))
		}
	}
	return nil
}

// ActiveRules returns the active rules of the given kind applicable to
// year (or every year, when year is nil), sorted by priority ascending
// then created_at ascending — the deterministic evaluation order §4.F
// requires.
func (s *Store) ActiveRules(ctx context.Context, kind domain.RuleKind, year *int) ([]domain.Rule, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, rule_code, tax_year, kind, conditions, actions, priority, active, created_at
		FROM rules
		WHERE kind = $1 AND active
		ORDER BY priority ASC, created_at ASC
	`, string(kind))
	if err != nil {
		return nil, declerr.Internal("catalog.ActiveRules", "query", err)
	}
	defer rows.Close()

	rules, err := scanRules(rows)
	if err != nil {
		return nil, err
	}
	if year == nil {
		return rules, nil
	}
	filtered := rules[:0:0]
	for _, r := range rules {
		if r.AppliesToYear(*year) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func scanRules(rows pgx.Rows) ([]domain.Rule, error) {
	var rules []domain.Rule
	for rows.Next() {
		var r domain.Rule
		var kind string
		var condRaw, actRaw []byte
		if err := rows.Scan(&r.ID, &r.RuleCode, &r.TaxYear, &kind, &condRaw, &actRaw, &r.Priority, &r.Active, &r.CreatedAt); err != nil {
			return nil, declerr.Internal("catalog.scanRules", "scan row", err)
		}
		r.Kind = domain.RuleKind(kind)
		if err := json.Unmarshal(condRaw, &r.Conditions); err != nil {
			return nil, declerr.Internal("catalog.scanRules", "unmarshal conditions", err)
		}
		if err := json.Unmarshal(actRaw, &r.Actions); err != nil {
			return nil, declerr.Internal("catalog.scanRules", "unmarshal actions", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// PutEventType upserts an event-type vocabulary entry.
func (s *Store) PutEventType(ctx context.Context, et domain.EventTypeCode) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO event_types (code, description) VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description
	`, et.Code, et.Description)
	if err != nil {
		return declerr.Internal("catalog.PutEventType", "upsert", err)
	}
	return nil
}

// KnownEventType reports whether code is in the seeded vocabulary —
// callers use this to reject an event referencing an unknown code as a
// structural Conflict (§4.B, Open Question (b)).
func (s *Store) KnownEventType(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM event_types WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, declerr.Internal("catalog.KnownEventType", "query", err)
	}
	return exists, nil
}

// KnownEventTypesSet returns the full seeded event-type vocabulary as a set,
// the shape ruleengine.RuleSet wants for its per-event membership check.
func (s *Store) KnownEventTypesSet(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.Query(ctx, `SELECT code FROM event_types`)
	if err != nil {
		return nil, declerr.Internal("catalog.KnownEventTypesSet", "query", err)
	}
	defer rows.Close()

	set := map[string]bool{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, declerr.Internal("catalog.KnownEventTypesSet", "scan row", err)
		}
		set[code] = true
	}
	return set, rows.Err()
}

// PutLogicalField upserts a logical-field vocabulary entry.
func (s *Store) PutLogicalField(ctx context.Context, lf domain.LogicalField) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO logical_fields (code, description) VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description
	`, lf.Code, lf.Description)
	if err != nil {
		return declerr.Internal("catalog.PutLogicalField", "upsert", err)
	}
	return nil
}

// PutXmlFieldMap upserts a binding from a logical field (or header
// attribute, when LogicalField is nil) to an XML element name.
func (s *Store) PutXmlFieldMap(ctx context.Context, m domain.XmlFieldMap) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO xml_field_maps (form_code, application_code, logical_field, xml_field_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (form_code, application_code, xml_field_name) DO UPDATE SET logical_field = EXCLUDED.logical_field
	`, m.FormCode, m.ApplicationCode, m.LogicalField, m.XMLFieldName)
	if err != nil {
		return declerr.Internal("catalog.PutXmlFieldMap", "upsert", err)
	}
	return nil
}

// XmlFieldMapsForForm returns every field map row for one form/application
// pair, in insertion-independent but stable order (by xml_field_name) —
// the XML projector re-applies its own fixed field order on top of this.
func (s *Store) XmlFieldMapsForForm(ctx context.Context, formCode, applicationCode string) ([]domain.XmlFieldMap, error) {
	rows, err := s.db.Query(ctx, `
		SELECT form_code, application_code, logical_field, xml_field_name
		FROM xml_field_maps WHERE form_code = $1 AND application_code = $2
		ORDER BY xml_field_name
	`, formCode, applicationCode)
	if err != nil {
		return nil, declerr.Internal("catalog.XmlFieldMapsForForm", "query", err)
	}
	defer rows.Close()

	var maps []domain.XmlFieldMap
	for rows.Next() {
		var m domain.XmlFieldMap
		if err := rows.Scan(&m.FormCode, &m.ApplicationCode, &m.LogicalField, &m.XMLFieldName); err != nil {
			return nil, declerr.Internal("catalog.XmlFieldMapsForForm", "scan row", err)
		}
		maps = append(maps, m)
	}
	return maps, rows.Err()
}

// findCalcCycle reports a logical field code participating in a cycle of
// calculation-rule formula references, or "" if the graph is acyclic.
// Grounded on the same closed-vocabulary assumption as the formula
// evaluator: every Formula.Ref names a logical field, and a calc rule's
// Target is itself a logical field, so the rule set forms a graph on
// logical-field codes.
func findCalcCycle(rules []domain.Rule) string {
	edges := map[string][]string{}
	for _, r := range rules {
		for _, a := range r.Actions {
			if a.Kind != domain.ActionCalc || a.Target == "" {
				continue
			}
			edges[a.Target] = append(edges[a.Target], collectRefs(a.Formula)...)
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}

	var nodes []string
	for n := range edges {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	var visit func(node string) string
	visit = func(node string) string {
		color[node] = gray
		for _, next := range edges[node] {
			switch color[next] {
			case gray:
				return next
			case white:
				if cyc := visit(next); cyc != "" {
					return cyc
				}
			}
		}
		color[node] = black
		return ""
	}

	for _, n := range nodes {
		if color[n] == white {
			if cyc := visit(n); cyc != "" {
				return cyc
			}
		}
	}
	return ""
}

func collectRefs(f domain.Formula) []string {
	var refs []string
	if f.Ref != "" {
		refs = append(refs, f.Ref)
	}
	for _, a := range f.Args {
		refs = append(refs, collectRefs(a)...)
	}
	if f.Cond != nil {
		refs = append(refs, collectRefs(*f.Cond)...)
	}
	if f.Then != nil {
		refs = append(refs, collectRefs(*f.Then)...)
	}
	if f.Else != nil {
		refs = append(refs, collectRefs(*f.Else)...)
	}
	return refs
}
