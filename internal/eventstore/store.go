// Package eventstore is the Event Store of §4.B: append-only persistence
// for SourceRecord/TaxEvent pairs, checksum-based idempotent ingest, and
// the delete-then-reinsert reparse idiom used when a source record's
// interpretation changes (e.g. a parser bugfix) without re-ingesting bytes.
package eventstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/domain"
	"github.com/form270/declare/internal/taxevent"
)

// Store persists source records and the tax events parsed from them.
type Store struct {
	db *pgxpool.Pool
}

// New wraps an existing pool. The caller owns the pool's lifecycle.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the event-store tables if they do not already
// exist. Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS source_records (
			id UUID PRIMARY KEY,
			taxpayer UUID NOT NULL,
			source_kind TEXT NOT NULL,
			external_id TEXT NOT NULL DEFAULT '',
			checksum TEXT NOT NULL,
			raw_payload BYTEA NOT NULL,
			imported_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			active BOOLEAN NOT NULL DEFAULT true,
			UNIQUE (taxpayer, checksum)
		);

		CREATE TABLE IF NOT EXISTS tax_events (
			id UUID PRIMARY KEY,
			taxpayer UUID NOT NULL,
			source_record_id UUID NOT NULL REFERENCES source_records(id) ON DELETE CASCADE,
			event_type_code TEXT NOT NULL,
			event_date DATE NOT NULL,
			amount NUMERIC(20,2),
			currency TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			tax_year INTEGER NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_tax_events_taxpayer_year ON tax_events(taxpayer, tax_year) WHERE active;
		CREATE INDEX IF NOT EXISTS idx_tax_events_source ON tax_events(source_record_id);
	`)
	if err != nil {
		return declerr.Internal("eventstore.EnsureSchema", "create tables", err)
	}
	return nil
}

// Ingest inserts a source record and parses it into tax events in one
// transaction. If a record with the same (taxpayer, checksum) already
// exists, ingest is a no-op and the existing record/events are returned
// unchanged (§3, §8.1 — re-ingesting identical bytes never duplicates).
func (s *Store) Ingest(ctx context.Context, taxpayer string, kind domain.SourceKind, externalID, checksum string, payload []byte) (domain.SourceRecord, []domain.TaxEvent, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return domain.SourceRecord{}, nil, declerr.Internal("eventstore.Ingest", "begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if existing, events, found, err := s.findByChecksum(ctx, tx, taxpayer, checksum); err != nil {
		return domain.SourceRecord{}, nil, err
	} else if found {
		return existing, events, nil
	}

	rec := domain.SourceRecord{
		ID:         uuid.NewString(),
		Taxpayer:   taxpayer,
		SourceKind: kind,
		ExternalID: externalID,
		Checksum:   checksum,
		RawPayload: payload,
		Active:     true,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO source_records (id, taxpayer, source_kind, external_id, checksum, raw_payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.Taxpayer, string(rec.SourceKind), rec.ExternalID, rec.Checksum, rec.RawPayload)
	if err != nil {
		return domain.SourceRecord{}, nil, declerr.Internal("eventstore.Ingest", "insert source record", err)
	}

	inputs, err := taxevent.ParseRecord(rec)
	if err != nil {
		return domain.SourceRecord{}, nil, err
	}

	events, err := insertEvents(ctx, tx, inputs)
	if err != nil {
		return domain.SourceRecord{}, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.SourceRecord{}, nil, declerr.Internal("eventstore.Ingest", "commit", err)
	}
	return rec, events, nil
}

func (s *Store) findByChecksum(ctx context.Context, tx pgx.Tx, taxpayer, checksum string) (domain.SourceRecord, []domain.TaxEvent, bool, error) {
	var rec domain.SourceRecord
	var kind string
	err := tx.QueryRow(ctx, `
		SELECT id, taxpayer, source_kind, external_id, checksum, raw_payload, imported_at, active
		FROM source_records WHERE taxpayer = $1 AND checksum = $2
	`, taxpayer, checksum).Scan(&rec.ID, &rec.Taxpayer, &kind, &rec.ExternalID, &rec.Checksum, &rec.RawPayload, &rec.ImportedAt, &rec.Active)
	if err == pgx.ErrNoRows {
		return domain.SourceRecord{}, nil, false, nil
	}
	if err != nil {
		return domain.SourceRecord{}, nil, false, declerr.Internal("eventstore.findByChecksum", "query", err)
	}
	rec.SourceKind = domain.SourceKind(kind)

	events, err := s.queryBySource(ctx, tx, rec.ID)
	if err != nil {
		return domain.SourceRecord{}, nil, false, err
	}
	return rec, events, true, nil
}

func insertEvents(ctx context.Context, tx pgx.Tx, inputs []domain.TaxEventInput) ([]domain.TaxEvent, error) {
	events := make([]domain.TaxEvent, 0, len(inputs))
	for _, in := range inputs {
		year, err := taxevent.TaxYearOf(in.EventDate)
		if err != nil {
			return nil, declerr.Parse("eventstore.insertEvents", "tax year from event date", err)
		}
		meta, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, declerr.Internal("eventstore.insertEvents", "marshal metadata", err)
		}
		ev := domain.TaxEvent{
			ID:            uuid.NewString(),
			Taxpayer:      in.Taxpayer,
			SourceRecord:  in.SourceRecord,
			EventTypeCode: in.EventTypeCode,
			EventDate:     in.EventDate,
			Amount:        in.Amount,
			Currency:      in.Currency,
			Metadata:      in.Metadata,
			TaxYear:       year,
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO tax_events (id, taxpayer, source_record_id, event_type_code, event_date, amount, currency, metadata, tax_year)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, ev.ID, ev.Taxpayer, ev.SourceRecord, ev.EventTypeCode, ev.EventDate, ev.Amount, ev.Currency, meta, ev.TaxYear)
		if err != nil {
			return nil, declerr.Internal("eventstore.insertEvents", "insert event", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Reparse re-derives a source record's tax events from its stored raw
// payload, deleting the old events and inserting the newly parsed ones in
// a single transaction (§4.B).
func (s *Store) Reparse(ctx context.Context, sourceRecordID string) ([]domain.TaxEvent, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, declerr.Internal("eventstore.Reparse", "begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var rec domain.SourceRecord
	var kind string
	err = tx.QueryRow(ctx, `
		SELECT id, taxpayer, source_kind, external_id, checksum, raw_payload, imported_at, active
		FROM source_records WHERE id = $1
	`, sourceRecordID).Scan(&rec.ID, &rec.Taxpayer, &kind, &rec.ExternalID, &rec.Checksum, &rec.RawPayload, &rec.ImportedAt, &rec.Active)
	if err == pgx.ErrNoRows {
		return nil, declerr.NotFound("eventstore.Reparse", fmt.Sprintf("source record %s", sourceRecordID))
	}
	if err != nil {
		return nil, declerr.Internal("eventstore.Reparse", "query source record", err)
	}
	rec.SourceKind = domain.SourceKind(kind)

	if _, err := tx.Exec(ctx, `DELETE FROM tax_events WHERE source_record_id = $1`, sourceRecordID); err != nil {
		return nil, declerr.Internal("eventstore.Reparse", "delete old events", err)
	}

	inputs, err := taxevent.ParseRecord(rec)
	if err != nil {
		return nil, err
	}
	events, err := insertEvents(ctx, tx, inputs)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, declerr.Internal("eventstore.Reparse", "commit", err)
	}
	return events, nil
}

// QueryByTaxpayerYear returns all active events for a taxpayer in a given
// tax year, ordered by event_date then id for determinism (§4.F).
func (s *Store) QueryByTaxpayerYear(ctx context.Context, taxpayer string, year int) ([]domain.TaxEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, taxpayer, source_record_id, event_type_code, event_date, amount, currency, metadata, tax_year
		FROM tax_events
		WHERE taxpayer = $1 AND tax_year = $2 AND active
		ORDER BY event_date, id
	`, taxpayer, year)
	if err != nil {
		return nil, declerr.Internal("eventstore.QueryByTaxpayerYear", "query", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) queryBySource(ctx context.Context, tx pgx.Tx, sourceRecordID string) ([]domain.TaxEvent, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, taxpayer, source_record_id, event_type_code, event_date, amount, currency, metadata, tax_year
		FROM tax_events WHERE source_record_id = $1 ORDER BY event_date, id
	`, sourceRecordID)
	if err != nil {
		return nil, declerr.Internal("eventstore.queryBySource", "query", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// QueryBySource returns the events derived from one source record.
func (s *Store) QueryBySource(ctx context.Context, sourceRecordID string) ([]domain.TaxEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, taxpayer, source_record_id, event_type_code, event_date, amount, currency, metadata, tax_year
		FROM tax_events WHERE source_record_id = $1 ORDER BY event_date, id
	`, sourceRecordID)
	if err != nil {
		return nil, declerr.Internal("eventstore.QueryBySource", "query", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Deactivate soft-deletes a source record and its derived events, leaving
// them in place for audit but excluded from future engine runs.
func (s *Store) Deactivate(ctx context.Context, sourceRecordID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return declerr.Internal("eventstore.Deactivate", "begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `UPDATE source_records SET active = false WHERE id = $1`, sourceRecordID); err != nil {
		return declerr.Internal("eventstore.Deactivate", "deactivate source record", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE tax_events SET active = false WHERE source_record_id = $1`, sourceRecordID); err != nil {
		return declerr.Internal("eventstore.Deactivate", "deactivate events", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return declerr.Internal("eventstore.Deactivate", "commit", err)
	}
	return nil
}

func scanEvents(rows pgx.Rows) ([]domain.TaxEvent, error) {
	var events []domain.TaxEvent
	for rows.Next() {
		var ev domain.TaxEvent
		var metaRaw []byte
		if err := rows.Scan(&ev.ID, &ev.Taxpayer, &ev.SourceRecord, &ev.EventTypeCode, &ev.EventDate, &ev.Amount, &ev.Currency, &metaRaw, &ev.TaxYear); err != nil {
			return nil, declerr.Internal("eventstore.scanEvents", "scan row", err)
		}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &ev.Metadata); err != nil {
				return nil, declerr.Internal("eventstore.scanEvents", "unmarshal metadata", err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
