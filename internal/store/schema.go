package store

import (
	"context"
	"fmt"
)

// Column types are chosen to be valid in both SQLite and PostgreSQL. Dates
// are stored as RFC 3339 text and durations as their single-key JSON form.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS landplots (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    area_hectares DOUBLE PRECISION,
    created_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_tenant_landplots ON landplots(tenant_id)`,

	`CREATE TABLE IF NOT EXISTS species (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_tenant_species ON species(tenant_id)`,

	`CREATE TABLE IF NOT EXISTS stage_templates (
    id TEXT PRIMARY KEY,
    species_id TEXT NOT NULL REFERENCES species(id),
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    estimated_duration TEXT NOT NULL,
    sequence_number INTEGER NOT NULL,
    UNIQUE (species_id, sequence_number)
)`,

	`CREATE TABLE IF NOT EXISTS event_templates (
    id TEXT PRIMARY KEY,
    stage_template_id TEXT NOT NULL REFERENCES stage_templates(id),
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    offset_from_stage_start TEXT NOT NULL,
    repeat_interval TEXT,
    position INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_stage_event_templates ON event_templates(stage_template_id)`,

	`CREATE TABLE IF NOT EXISTS crops (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    landplot_id TEXT NOT NULL REFERENCES landplots(id),
    species_id TEXT NOT NULL REFERENCES species(id),
    start_date TEXT NOT NULL,
    finish_date TEXT,
    weight_in_tons DOUBLE PRECISION,
    comments TEXT NOT NULL DEFAULT '',
    revision BIGINT NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_tenant_crops ON crops(tenant_id)`,

	`CREATE TABLE IF NOT EXISTS crop_stages (
    id TEXT PRIMARY KEY,
    crop_id TEXT NOT NULL REFERENCES crops(id),
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    estimated_duration TEXT NOT NULL,
    sequence_number INTEGER NOT NULL,
    start_date TEXT,
    finish_date TEXT,
    comments TEXT,
    UNIQUE (crop_id, sequence_number)
)`,

	`CREATE TABLE IF NOT EXISTS crop_series (
    id TEXT PRIMARY KEY,
    crop_id TEXT NOT NULL REFERENCES crops(id),
    stage_id TEXT NOT NULL REFERENCES crop_stages(id),
    template_id TEXT,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    offset_from_stage_start TEXT NOT NULL,
    repeat_interval TEXT NOT NULL,
    position INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_crop_series ON crop_series(crop_id)`,

	`CREATE TABLE IF NOT EXISTS crop_events (
    id TEXT PRIMARY KEY,
    crop_id TEXT NOT NULL REFERENCES crops(id),
    stage_id TEXT NOT NULL REFERENCES crop_stages(id),
    template_id TEXT,
    series_id TEXT REFERENCES crop_series(id),
    occurrence INTEGER NOT NULL DEFAULT 0,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    offset_from_stage_start TEXT,
    repeat_interval TEXT,
    due_date TEXT,
    done_date TEXT,
    position INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_crop_events ON crop_events(crop_id)`,
	`CREATE INDEX IF NOT EXISTS idx_stage_events ON crop_events(stage_id)`,

	`CREATE TABLE IF NOT EXISTS activity_log (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    crop_id TEXT NOT NULL,
    stage_id TEXT,
    event_id TEXT,
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_tenant_activity ON activity_log(tenant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_crop_activity ON activity_log(crop_id)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    last_used TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_tenant_keys ON api_keys(tenant_id)`,
}

// Migrate creates any missing tables. It is safe to run on every start.
func (db *DB) Migrate(ctx context.Context) error {
	return db.withTx(ctx, func(c conn) error {
		for _, stmt := range schema {
			if _, err := c.exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		return nil
	})
}
