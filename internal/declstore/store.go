// Package declstore is the Declaration Store of §4.G: the per-(taxpayer,
// year, form, kind) declaration header, its logical-field items, its
// flags, and the validation reports produced against it.
package declstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/domain"
)

// Store persists declarations, their items, flags, and validation reports.
type Store struct {
	db *pgxpool.Pool
}

// New wraps an existing pool. The caller owns the pool's lifecycle.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the declaration-store tables if they do not already
// exist. Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS declarations (
			id UUID PRIMARY KEY,
			taxpayer UUID NOT NULL,
			tax_year INTEGER NOT NULL,
			form_code TEXT NOT NULL,
			kind TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			header JSONB NOT NULL DEFAULT '{}',
			flags JSONB NOT NULL DEFAULT '{}',
			validated_at TIMESTAMPTZ,
			exported_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (taxpayer, tax_year, form_code, kind)
		);

		CREATE TABLE IF NOT EXISTS declaration_items (
			declaration_id UUID NOT NULL REFERENCES declarations(id) ON DELETE CASCADE,
			logical_field TEXT NOT NULL,
			value NUMERIC(20,2) NOT NULL,
			source TEXT NOT NULL,
			PRIMARY KEY (declaration_id, logical_field)
		);

		CREATE TABLE IF NOT EXISTS validation_reports (
			id UUID PRIMARY KEY,
			declaration_id UUID NOT NULL REFERENCES declarations(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			is_valid BOOLEAN NOT NULL,
			report JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS xml_exports (
			id UUID PRIMARY KEY,
			declaration_id UUID NOT NULL REFERENCES declarations(id) ON DELETE CASCADE,
			payload TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			content_hash TEXT NOT NULL,
			signed BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_declaration_items_declaration ON declaration_items(declaration_id);
		CREATE INDEX IF NOT EXISTS idx_validation_reports_declaration ON validation_reports(declaration_id);
		CREATE INDEX IF NOT EXISTS idx_xml_exports_declaration ON xml_exports(declaration_id);
	`)
	if err != nil {
		return declerr.Internal("declstore.EnsureSchema", "create tables", err)
	}
	return nil
}

// FindOrCreate atomically fetches the declaration for (taxpayer, year, form,
// kind), or creates a fresh draft with the given header if none exists
// (§4.G). The unique constraint on (taxpayer, tax_year, form_code, kind)
// makes the insert itself the atomicity boundary: a concurrent caller racing
// the insert gets ON CONFLICT DO NOTHING and then reads back the winner's row.
func (s *Store) FindOrCreate(ctx context.Context, taxpayer string, year int, formCode string, kind domain.DeclarationKind, header domain.Header) (domain.Declaration, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return domain.Declaration{}, declerr.Internal("declstore.FindOrCreate", "begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return domain.Declaration{}, declerr.Internal("declstore.FindOrCreate", "marshal header", err)
	}

	id := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO declarations (id, taxpayer, tax_year, form_code, kind, status, header)
		VALUES ($1, $2, $3, $4, $5, 'draft', $6)
		ON CONFLICT (taxpayer, tax_year, form_code, kind) DO NOTHING
	`, id, taxpayer, year, formCode, string(kind), headerJSON)
	if err != nil {
		return domain.Declaration{}, declerr.Internal("declstore.FindOrCreate", "insert declaration", err)
	}

	decl, err := getDeclaration(ctx, tx, taxpayer, year, formCode, kind)
	if err != nil {
		return domain.Declaration{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Declaration{}, declerr.Internal("declstore.FindOrCreate", "commit", err)
	}
	return decl, nil
}

func getDeclaration(ctx context.Context, tx pgx.Tx, taxpayer string, year int, formCode string, kind domain.DeclarationKind) (domain.Declaration, error) {
	var decl domain.Declaration
	var status, kindStr string
	var headerRaw, flagsRaw []byte
	err := tx.QueryRow(ctx, `
		SELECT id, taxpayer, tax_year, form_code, kind, status, header, flags, validated_at, exported_at, created_at
		FROM declarations WHERE taxpayer = $1 AND tax_year = $2 AND form_code = $3 AND kind = $4
	`, taxpayer, year, formCode, string(kind)).Scan(
		&decl.ID, &decl.Taxpayer, &decl.TaxYear, &decl.FormCode, &kindStr, &status,
		&headerRaw, &flagsRaw, &decl.ValidatedAt, &decl.ExportedAt, &decl.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return domain.Declaration{}, declerr.NotFound("declstore.getDeclaration", fmt.Sprintf("declaration %s/%d/%s/%s", taxpayer, year, formCode, kind))
	}
	if err != nil {
		return domain.Declaration{}, declerr.Internal("declstore.getDeclaration", "query", err)
	}
	decl.Kind = domain.DeclarationKind(kindStr)
	decl.Status = domain.Status(status)
	if len(headerRaw) > 0 {
		if err := json.Unmarshal(headerRaw, &decl.Header); err != nil {
			return domain.Declaration{}, declerr.Internal("declstore.getDeclaration", "unmarshal header", err)
		}
	}
	decl.Flags = map[string]bool{}
	if len(flagsRaw) > 0 {
		if err := json.Unmarshal(flagsRaw, &decl.Flags); err != nil {
			return domain.Declaration{}, declerr.Internal("declstore.getDeclaration", "unmarshal flags", err)
		}
	}
	return decl, nil
}

// Get fetches a declaration by id.
func (s *Store) Get(ctx context.Context, declarationID string) (domain.Declaration, error) {
	var decl domain.Declaration
	var status, kindStr string
	var headerRaw, flagsRaw []byte
	err := s.db.QueryRow(ctx, `
		SELECT id, taxpayer, tax_year, form_code, kind, status, header, flags, validated_at, exported_at, created_at
		FROM declarations WHERE id = $1
	`, declarationID).Scan(
		&decl.ID, &decl.Taxpayer, &decl.TaxYear, &decl.FormCode, &kindStr, &status,
		&headerRaw, &flagsRaw, &decl.ValidatedAt, &decl.ExportedAt, &decl.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return domain.Declaration{}, declerr.NotFound("declstore.Get", fmt.Sprintf("declaration %s", declarationID))
	}
	if err != nil {
		return domain.Declaration{}, declerr.Internal("declstore.Get", "query", err)
	}
	decl.Kind = domain.DeclarationKind(kindStr)
	decl.Status = domain.Status(status)
	if len(headerRaw) > 0 {
		if err := json.Unmarshal(headerRaw, &decl.Header); err != nil {
			return domain.Declaration{}, declerr.Internal("declstore.Get", "unmarshal header", err)
		}
	}
	decl.Flags = map[string]bool{}
	if len(flagsRaw) > 0 {
		if err := json.Unmarshal(flagsRaw, &decl.Flags); err != nil {
			return domain.Declaration{}, declerr.Internal("declstore.Get", "unmarshal flags", err)
		}
	}
	return decl, nil
}

// BulkUpsertItems replaces the value for every (declaration, logical_field)
// pair in fieldMap, tagging each row with source (§4.G). It does not touch
// fields absent from fieldMap — callers that want a clean rewrite call
// DeleteItems first (this is what regeneration does, per §4.J).
func (s *Store) BulkUpsertItems(ctx context.Context, declarationID string, fieldMap map[string]decimal.Decimal, source domain.ItemSource) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return declerr.Internal("declstore.BulkUpsertItems", "begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := bulkUpsertItemsTx(ctx, tx, declarationID, fieldMap, source); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return declerr.Internal("declstore.BulkUpsertItems", "commit", err)
	}
	return nil
}

func bulkUpsertItemsTx(ctx context.Context, tx pgx.Tx, declarationID string, fieldMap map[string]decimal.Decimal, source domain.ItemSource) error {
	for field, value := range fieldMap {
		_, err := tx.Exec(ctx, `
			INSERT INTO declaration_items (declaration_id, logical_field, value, source)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (declaration_id, logical_field) DO UPDATE SET
				value = EXCLUDED.value,
				source = EXCLUDED.source
		`, declarationID, field, value, string(source))
		if err != nil {
			return declerr.Internal("declstore.bulkUpsertItemsTx", fmt.Sprintf("upsert item %s", field), err)
		}
	}
	return nil
}

// DeleteItems removes every item row for a declaration, used by
// regeneration to guarantee a clean rewrite. Manual overrides are discarded
// by this policy (§4.G, §9).
func (s *Store) DeleteItems(ctx context.Context, declarationID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM declaration_items WHERE declaration_id = $1`, declarationID); err != nil {
		return declerr.Internal("declstore.DeleteItems", "delete items", err)
	}
	return nil
}

// Items returns every item for a declaration.
func (s *Store) Items(ctx context.Context, declarationID string) ([]domain.DeclarationItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT declaration_id, logical_field, value, source
		FROM declaration_items WHERE declaration_id = $1 ORDER BY logical_field
	`, declarationID)
	if err != nil {
		return nil, declerr.Internal("declstore.Items", "query", err)
	}
	defer rows.Close()

	var items []domain.DeclarationItem
	for rows.Next() {
		var it domain.DeclarationItem
		var source string
		if err := rows.Scan(&it.Declaration, &it.LogicalField, &it.Value, &source); err != nil {
			return nil, declerr.Internal("declstore.Items", "scan row", err)
		}
		it.Source = domain.ItemSource(source)
		items = append(items, it)
	}
	return items, rows.Err()
}

// MergeFlags performs a JSON shallow merge of flags into the declaration's
// existing flags (§4.G) and returns the merged result.
func (s *Store) MergeFlags(ctx context.Context, declarationID string, flags map[string]bool) (map[string]bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, declerr.Internal("declstore.MergeFlags", "begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	merged, err := mergeFlagsTx(ctx, tx, declarationID, flags)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, declerr.Internal("declstore.MergeFlags", "commit", err)
	}
	return merged, nil
}

func mergeFlagsTx(ctx context.Context, tx pgx.Tx, declarationID string, flags map[string]bool) (map[string]bool, error) {
	var existingRaw []byte
	err := tx.QueryRow(ctx, `SELECT flags FROM declarations WHERE id = $1 FOR UPDATE`, declarationID).Scan(&existingRaw)
	if err == pgx.ErrNoRows {
		return nil, declerr.NotFound("declstore.mergeFlagsTx", fmt.Sprintf("declaration %s", declarationID))
	}
	if err != nil {
		return nil, declerr.Internal("declstore.mergeFlagsTx", "query flags", err)
	}

	merged := map[string]bool{}
	if len(existingRaw) > 0 {
		if err := json.Unmarshal(existingRaw, &merged); err != nil {
			return nil, declerr.Internal("declstore.mergeFlagsTx", "unmarshal flags", err)
		}
	}
	for k, v := range flags {
		merged[k] = v
	}

	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, declerr.Internal("declstore.mergeFlagsTx", "marshal flags", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE declarations SET flags = $1 WHERE id = $2`, mergedJSON, declarationID); err != nil {
		return nil, declerr.Internal("declstore.mergeFlagsTx", "update flags", err)
	}
	return merged, nil
}

// SetHeader overwrites a declaration's header snapshot.
func (s *Store) SetHeader(ctx context.Context, declarationID string, header domain.Header) error {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return declerr.Internal("declstore.SetHeader", "marshal header", err)
	}
	if _, err := s.db.Exec(ctx, `UPDATE declarations SET header = $1 WHERE id = $2`, headerJSON, declarationID); err != nil {
		return declerr.Internal("declstore.SetHeader", "update header", err)
	}
	return nil
}

// SetStatus overwrites a declaration's status; validated_at and exported_at
// are left untouched (MarkValidated and MarkExported stamp those). The
// workflow controller is the only expected caller of this method.
func (s *Store) SetStatus(ctx context.Context, declarationID string, status domain.Status) error {
	if _, err := s.db.Exec(ctx, `UPDATE declarations SET status = $1 WHERE id = $2`, string(status), declarationID); err != nil {
		return declerr.Internal("declstore.SetStatus", "update status", err)
	}
	return nil
}

// MarkValidated stamps validated_at to now and sets status to validated.
func (s *Store) MarkValidated(ctx context.Context, declarationID string) error {
	if _, err := s.db.Exec(ctx, `
		UPDATE declarations SET status = 'validated', validated_at = now() WHERE id = $1
	`, declarationID); err != nil {
		return declerr.Internal("declstore.MarkValidated", "update", err)
	}
	return nil
}

// MarkExported stamps exported_at to now, used after an XML projection.
func (s *Store) MarkExported(ctx context.Context, declarationID string) error {
	if _, err := s.db.Exec(ctx, `UPDATE declarations SET exported_at = now() WHERE id = $1`, declarationID); err != nil {
		return declerr.Internal("declstore.MarkExported", "update", err)
	}
	return nil
}

// PutValidationReport records one pass/fail validation outcome (§4.G, §4.H).
func (s *Store) PutValidationReport(ctx context.Context, declarationID string, kind domain.ReportKind, isValid bool, report map[string]any) (domain.ValidationReport, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return domain.ValidationReport{}, declerr.Internal("declstore.PutValidationReport", "marshal report", err)
	}
	rec := domain.ValidationReport{
		ID:          uuid.NewString(),
		Declaration: declarationID,
		Kind:        kind,
		IsValid:     isValid,
		Report:      report,
	}
	err = s.db.QueryRow(ctx, `
		INSERT INTO validation_reports (id, declaration_id, kind, is_valid, report)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, rec.ID, rec.Declaration, string(rec.Kind), rec.IsValid, reportJSON).Scan(&rec.CreatedAt)
	if err != nil {
		return domain.ValidationReport{}, declerr.Internal("declstore.PutValidationReport", "insert report", err)
	}
	return rec, nil
}

// LatestValidationReport returns the most recent report of the given kind,
// or a not-found error when none exists.
func (s *Store) LatestValidationReport(ctx context.Context, declarationID string, kind domain.ReportKind) (domain.ValidationReport, error) {
	var rec domain.ValidationReport
	var kindStr string
	var reportRaw []byte
	err := s.db.QueryRow(ctx, `
		SELECT id, declaration_id, kind, is_valid, report, created_at
		FROM validation_reports
		WHERE declaration_id = $1 AND kind = $2
		ORDER BY created_at DESC LIMIT 1
	`, declarationID, string(kind)).Scan(&rec.ID, &rec.Declaration, &kindStr, &rec.IsValid, &reportRaw, &rec.CreatedAt)
	if err == pgx.ErrNoRows {
		return domain.ValidationReport{}, declerr.NotFound("declstore.LatestValidationReport", fmt.Sprintf("no %s report for declaration %s", kind, declarationID))
	}
	if err != nil {
		return domain.ValidationReport{}, declerr.Internal("declstore.LatestValidationReport", "query", err)
	}
	rec.Kind = domain.ReportKind(kindStr)
	if len(reportRaw) > 0 {
		if err := json.Unmarshal(reportRaw, &rec.Report); err != nil {
			return domain.ValidationReport{}, declerr.Internal("declstore.LatestValidationReport", "unmarshal report", err)
		}
	}
	return rec, nil
}

// WithLock runs fn with a Postgres transaction-scoped advisory lock held on
// declarationID, releasing it on commit or rollback. This is the "row-level
// lock or equivalent" §5 requires to serialize concurrent
// generate_declaration/transition/project_xml calls on the same
// declaration; uncontended declarations proceed without ever blocking on
// each other since the lock key is derived from the declaration id.
func (s *Store) WithLock(ctx context.Context, declarationID string, fn func(ctx context.Context) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return declerr.Internal("declstore.WithLock", "begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, declarationID); err != nil {
		return declerr.Internal("declstore.WithLock", "acquire advisory lock", err)
	}

	if err := fn(ctx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return declerr.Internal("declstore.WithLock", "commit", err)
	}
	return nil
}

// Regenerate is the single-transaction §5 cancellation-safe rewrite: delete
// old items, upsert the new field map, and merge in new flags, all-or-
// nothing. The workflow controller is responsible for the draft/validated
// state checks surrounding this call (§4.H); this method only guarantees
// the storage side is atomic.
func (s *Store) Regenerate(ctx context.Context, declarationID string, fieldMap map[string]decimal.Decimal, source domain.ItemSource, flags map[string]bool) (map[string]bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, declerr.Internal("declstore.Regenerate", "begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM declaration_items WHERE declaration_id = $1`, declarationID); err != nil {
		return nil, declerr.Internal("declstore.Regenerate", "delete items", err)
	}
	if err := bulkUpsertItemsTx(ctx, tx, declarationID, fieldMap, source); err != nil {
		return nil, err
	}
	merged, err := mergeFlagsTx(ctx, tx, declarationID, flags)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, declerr.Internal("declstore.Regenerate", "commit", err)
	}
	return merged, nil
}

// PutXmlExport inserts a new XML rendering, assigning it the next
// schema_version for the declaration (§4.I "monotonically versioned") and
// stamping exported_at on the declaration in the same transaction.
func (s *Store) PutXmlExport(ctx context.Context, declarationID, payload, contentHash string) (domain.XmlExport, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return domain.XmlExport{}, declerr.Internal("declstore.PutXmlExport", "begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	exp := domain.XmlExport{
		ID:          uuid.NewString(),
		Declaration: declarationID,
		Payload:     payload,
		ContentHash: contentHash,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO xml_exports (id, declaration_id, payload, schema_version, content_hash)
		VALUES ($1, $2, $3, (SELECT COUNT(*) + 1 FROM xml_exports WHERE declaration_id = $2), $4)
		RETURNING schema_version, created_at
	`, exp.ID, exp.Declaration, exp.Payload, exp.ContentHash).Scan(&exp.SchemaVersion, &exp.CreatedAt)
	if err != nil {
		return domain.XmlExport{}, declerr.Internal("declstore.PutXmlExport", "insert export", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE declarations SET exported_at = now() WHERE id = $1`, declarationID); err != nil {
		return domain.XmlExport{}, declerr.Internal("declstore.PutXmlExport", "stamp exported_at", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.XmlExport{}, declerr.Internal("declstore.PutXmlExport", "commit", err)
	}
	return exp, nil
}

// LatestXmlExport returns the highest schema_version export for a
// declaration, or a not-found error when none exists.
func (s *Store) LatestXmlExport(ctx context.Context, declarationID string) (domain.XmlExport, error) {
	var exp domain.XmlExport
	err := s.db.QueryRow(ctx, `
		SELECT id, declaration_id, payload, schema_version, content_hash, signed, created_at
		FROM xml_exports WHERE declaration_id = $1
		ORDER BY schema_version DESC LIMIT 1
	`, declarationID).Scan(&exp.ID, &exp.Declaration, &exp.Payload, &exp.SchemaVersion, &exp.ContentHash, &exp.Signed, &exp.CreatedAt)
	if err == pgx.ErrNoRows {
		return domain.XmlExport{}, declerr.NotFound("declstore.LatestXmlExport", fmt.Sprintf("no export for declaration %s", declarationID))
	}
	if err != nil {
		return domain.XmlExport{}, declerr.Internal("declstore.LatestXmlExport", "query", err)
	}
	return exp, nil
}
