package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/cropline/internal/domain/landplot"
	"github.com/ganot/cropline/internal/repository"
)

// LandplotRepository implements landplot.Repository.
type LandplotRepository struct {
	db *DB
}

// NewLandplotRepository creates a new LandplotRepository
func NewLandplotRepository(db *DB) *LandplotRepository {
	return &LandplotRepository{db: db}
}

// Create inserts a landplot.
func (r *LandplotRepository) Create(ctx context.Context, tenantID string, plot *landplot.Landplot) error {
	_, err := r.db.conn().exec(ctx, `
		INSERT INTO landplots (id, tenant_id, name, description, area_hectares, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		plot.ID,
		tenantID,
		plot.Name,
		plot.Description,
		nullFloat(plot.AreaHectares),
		formatTime(plot.CreatedAt),
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create landplot: %w", err)
	}
	return nil
}

// Get retrieves a landplot by ID.
func (r *LandplotRepository) Get(ctx context.Context, tenantID, id string) (*landplot.Landplot, error) {
	var (
		plot      landplot.Landplot
		area      sql.NullFloat64
		createdAt string
	)
	err := r.db.conn().queryRow(ctx, `
		SELECT id, tenant_id, name, description, area_hectares, created_at
		FROM landplots
		WHERE id = ? AND tenant_id = ?
	`, id, tenantID).Scan(&plot.ID, &plot.TenantID, &plot.Name, &plot.Description, &area, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get landplot: %w", err)
	}

	plot.AreaHectares = floatPtr(area)
	if plot.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &plot, nil
}

// List returns all landplots for a tenant with crop counts.
func (r *LandplotRepository) List(ctx context.Context, tenantID string) ([]landplot.Summary, error) {
	rows, err := r.db.conn().query(ctx, `
		SELECT
			l.id,
			l.name,
			l.description,
			l.area_hectares,
			l.created_at,
			COUNT(c.id) AS crop_count,
			COUNT(CASE WHEN c.id IS NOT NULL AND c.finish_date IS NULL THEN 1 END) AS ongoing_crops
		FROM landplots l
		LEFT JOIN crops c ON c.landplot_id = l.id AND c.tenant_id = l.tenant_id
		WHERE l.tenant_id = ?
		GROUP BY l.id, l.name, l.description, l.area_hectares, l.created_at
		ORDER BY l.created_at DESC, l.id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list landplots: %w", err)
	}
	defer rows.Close()

	var summaries []landplot.Summary
	for rows.Next() {
		var (
			s         landplot.Summary
			area      sql.NullFloat64
			createdAt string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &area, &createdAt, &s.CropCount, &s.OngoingCrops); err != nil {
			return nil, fmt.Errorf("failed to scan landplot summary: %w", err)
		}
		s.AreaHectares = floatPtr(area)
		if s.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating landplot rows: %w", err)
	}
	return summaries, nil
}
