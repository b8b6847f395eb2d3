package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/youngcitybandit/nj-health-monitor/internal/common"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
)

// RecordSchema creates the enforcement_actions table. Applied by Init.
const RecordSchema = `
CREATE TABLE IF NOT EXISTS enforcement_actions (
	id TEXT PRIMARY KEY,
	scraped_at TIMESTAMPTZ NOT NULL,
	facility_name TEXT NOT NULL DEFAULT '',
	facility_address TEXT NOT NULL DEFAULT '',
	facility_license_number TEXT NOT NULL DEFAULT '',
	enforcement_date TEXT NOT NULL DEFAULT '',
	enforcement_action_type TEXT NOT NULL DEFAULT '',
	penalty_amount TEXT NOT NULL DEFAULT '',
	violation_summary TEXT NOT NULL DEFAULT '',
	key_violations TEXT[] NOT NULL DEFAULT '{}',
	effective_date TEXT NOT NULL DEFAULT '',
	contact_information TEXT NOT NULL DEFAULT '',
	administrator_name TEXT NOT NULL DEFAULT '',
	administrator_first_name TEXT NOT NULL DEFAULT '',
	pdf_url TEXT NOT NULL DEFAULT '',
	extraction_method TEXT NOT NULL DEFAULT '',
	severity_level TEXT NOT NULL DEFAULT '',
	priority_score INT NOT NULL DEFAULT 0,
	valid BOOLEAN NOT NULL DEFAULT TRUE,
	validation_errors TEXT[] NOT NULL DEFAULT '{}',
	validation_warnings TEXT[] NOT NULL DEFAULT '{}',
	completeness_score DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_enforcement_actions_severity ON enforcement_actions(severity_level);
CREATE INDEX IF NOT EXISTS idx_enforcement_actions_date ON enforcement_actions(enforcement_date);
`

// RecordStore reads and writes enforcement records.
type RecordStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRecordStore(pool *pgxpool.Pool, logger *slog.Logger) *RecordStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordStore{pool: pool, logger: logger}
}

// Init applies the schema.
func (s *RecordStore) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, RecordSchema); err != nil {
		return common.NewAppError("DB_INIT", "applying enforcement_actions schema", err)
	}
	return nil
}

const recordColumns = `
	id, scraped_at, facility_name, facility_address, facility_license_number,
	enforcement_date, enforcement_action_type, penalty_amount,
	violation_summary, key_violations, effective_date, contact_information,
	administrator_name, administrator_first_name, pdf_url, extraction_method,
	severity_level, priority_score, valid, validation_errors,
	validation_warnings, completeness_score`

// Upsert writes a record, overwriting on ID collision. Same facility, same
// date, newer filing wins.
func (s *RecordStore) Upsert(ctx context.Context, rec entity.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enforcement_actions (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		ON CONFLICT (id) DO UPDATE SET
			scraped_at = EXCLUDED.scraped_at,
			facility_name = EXCLUDED.facility_name,
			facility_address = EXCLUDED.facility_address,
			facility_license_number = EXCLUDED.facility_license_number,
			enforcement_date = EXCLUDED.enforcement_date,
			enforcement_action_type = EXCLUDED.enforcement_action_type,
			penalty_amount = EXCLUDED.penalty_amount,
			violation_summary = EXCLUDED.violation_summary,
			key_violations = EXCLUDED.key_violations,
			effective_date = EXCLUDED.effective_date,
			contact_information = EXCLUDED.contact_information,
			administrator_name = EXCLUDED.administrator_name,
			administrator_first_name = EXCLUDED.administrator_first_name,
			pdf_url = EXCLUDED.pdf_url,
			extraction_method = EXCLUDED.extraction_method,
			severity_level = EXCLUDED.severity_level,
			priority_score = EXCLUDED.priority_score,
			valid = EXCLUDED.valid,
			validation_errors = EXCLUDED.validation_errors,
			validation_warnings = EXCLUDED.validation_warnings,
			completeness_score = EXCLUDED.completeness_score`,
		rec.ID, rec.ScrapedAt, rec.FacilityName, rec.FacilityAddress,
		rec.FacilityLicenseNumber, rec.EnforcementDate, rec.EnforcementActionType,
		rec.PenaltyAmount, rec.ViolationSummary, rec.KeyViolations,
		rec.EffectiveDate, rec.ContactInformation, rec.AdministratorName,
		rec.AdministratorFirst, rec.PDFURL, rec.ExtractionMethod,
		rec.SeverityLevel, rec.PriorityScore, rec.Validation.Valid,
		rec.Validation.Errors, rec.Validation.Warnings,
		rec.Validation.CompletenessScore)
	if err != nil {
		return common.NewAppError("DB_WRITE", "upserting enforcement record", err)
	}
	return nil
}

// Get returns one record by ID, or common.ErrNotFound.
func (s *RecordStore) Get(ctx context.Context, id string) (entity.Record, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM enforcement_actions WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.Record{}, common.NewAppError("DB_READ", "record not found", common.ErrNotFound)
	}
	if err != nil {
		return entity.Record{}, common.NewAppError("DB_READ", "reading enforcement record", err)
	}
	return rec, nil
}

// ListRecent returns records ordered newest-first by enforcement date.
func (s *RecordStore) ListRecent(ctx context.Context, limit int) ([]entity.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+` FROM enforcement_actions
		ORDER BY enforcement_date DESC, scraped_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, common.NewAppError("DB_READ", "listing enforcement records", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListBySeverity returns records of one severity, highest priority first.
func (s *RecordStore) ListBySeverity(ctx context.Context, severity string, limit int) ([]entity.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+` FROM enforcement_actions
		WHERE severity_level = $1
		ORDER BY priority_score DESC, enforcement_date DESC
		LIMIT $2`, severity, limit)
	if err != nil {
		return nil, common.NewAppError("DB_READ", "listing records by severity", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Stats summarizes the stored records.
type Stats struct {
	Total           int            `json:"total"`
	BySeverity      map[string]int `json:"by_severity"`
	AvgCompleteness float64        `json:"avg_completeness"`
}

func (s *RecordStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{BySeverity: make(map[string]int)}

	rows, err := s.pool.Query(ctx, `
		SELECT severity_level, COUNT(*) FROM enforcement_actions GROUP BY severity_level`)
	if err != nil {
		return Stats{}, common.NewAppError("DB_READ", "reading record stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return Stats{}, common.NewAppError("DB_READ", "scanning record stats", err)
		}
		stats.BySeverity[severity] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, common.NewAppError("DB_READ", "reading record stats", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(completeness_score), 0) FROM enforcement_actions`).
		Scan(&stats.AvgCompleteness)
	if err != nil {
		return Stats{}, common.NewAppError("DB_READ", "reading completeness average", err)
	}
	return stats, nil
}

func scanRecord(row pgx.Row) (entity.Record, error) {
	var rec entity.Record
	err := row.Scan(
		&rec.ID, &rec.ScrapedAt, &rec.FacilityName, &rec.FacilityAddress,
		&rec.FacilityLicenseNumber, &rec.EnforcementDate, &rec.EnforcementActionType,
		&rec.PenaltyAmount, &rec.ViolationSummary, &rec.KeyViolations,
		&rec.EffectiveDate, &rec.ContactInformation, &rec.AdministratorName,
		&rec.AdministratorFirst, &rec.PDFURL, &rec.ExtractionMethod,
		&rec.SeverityLevel, &rec.PriorityScore, &rec.Validation.Valid,
		&rec.Validation.Errors, &rec.Validation.Warnings,
		&rec.Validation.CompletenessScore)
	return rec, err
}

func collectRecords(rows pgx.Rows) ([]entity.Record, error) {
	var records []entity.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, common.NewAppError("DB_READ", "scanning enforcement record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("DB_READ", "iterating enforcement records", err)
	}
	return records, nil
}
