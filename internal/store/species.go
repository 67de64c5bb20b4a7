package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/cropline/internal/domain/species"
	"github.com/ganot/cropline/internal/repository"
)

// SpeciesRepository implements species.Repository.
type SpeciesRepository struct {
	db *DB
}

// NewSpeciesRepository creates a new SpeciesRepository
func NewSpeciesRepository(db *DB) *SpeciesRepository {
	return &SpeciesRepository{db: db}
}

// CreatePlan stores a species with all its templates in one transaction.
func (r *SpeciesRepository) CreatePlan(ctx context.Context, tenantID string, plan *species.GrowthPlan) error {
	return r.db.withTx(ctx, func(c conn) error {
		sp := plan.Species
		if _, err := c.exec(ctx, `
			INSERT INTO species (id, tenant_id, name, description, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, sp.ID, tenantID, sp.Name, sp.Description, formatTime(sp.CreatedAt)); err != nil {
			if isUniqueViolation(err) {
				return repository.ErrConflict
			}
			return fmt.Errorf("failed to create species: %w", err)
		}

		for _, st := range plan.Stages {
			est, err := formatDuration(st.Stage.EstimatedDuration)
			if err != nil {
				return err
			}
			if _, err := c.exec(ctx, `
				INSERT INTO stage_templates (id, species_id, name, description, estimated_duration, sequence_number)
				VALUES (?, ?, ?, ?, ?, ?)
			`, st.Stage.ID, sp.ID, st.Stage.Name, st.Stage.Description, est, st.Stage.SequenceNumber); err != nil {
				return fmt.Errorf("failed to create stage template: %w", mapWriteError(err))
			}

			for pos, ev := range st.Events {
				offset, err := formatDuration(ev.OffsetFromStageStart)
				if err != nil {
					return err
				}
				repeat, err := formatDurationPtr(ev.RepeatInterval)
				if err != nil {
					return err
				}
				if _, err := c.exec(ctx, `
					INSERT INTO event_templates (id, stage_template_id, name, description, offset_from_stage_start, repeat_interval, position)
					VALUES (?, ?, ?, ?, ?, ?, ?)
				`, ev.ID, st.Stage.ID, ev.Name, ev.Description, offset, repeat, pos); err != nil {
					return fmt.Errorf("failed to create event template: %w", mapWriteError(err))
				}
			}
		}
		return nil
	})
}

// GetPlan loads a species with its templates, stages in sequence order.
func (r *SpeciesRepository) GetPlan(ctx context.Context, tenantID, speciesID string) (*species.GrowthPlan, error) {
	c := r.db.conn()

	var (
		plan      species.GrowthPlan
		createdAt string
	)
	err := c.queryRow(ctx, `
		SELECT id, tenant_id, name, description, created_at
		FROM species
		WHERE id = ? AND tenant_id = ?
	`, speciesID, tenantID).Scan(&plan.Species.ID, &plan.Species.TenantID, &plan.Species.Name, &plan.Species.Description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get species: %w", err)
	}
	if plan.Species.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	stages, err := r.stageTemplates(ctx, c, speciesID)
	if err != nil {
		return nil, err
	}
	events, err := r.eventTemplates(ctx, c, speciesID)
	if err != nil {
		return nil, err
	}

	for _, st := range stages {
		plan.Stages = append(plan.Stages, species.StagePlan{Stage: st, Events: events[st.ID]})
	}
	return &plan, nil
}

func (r *SpeciesRepository) stageTemplates(ctx context.Context, c conn, speciesID string) ([]species.StageTemplate, error) {
	rows, err := c.query(ctx, `
		SELECT id, species_id, name, description, estimated_duration, sequence_number
		FROM stage_templates
		WHERE species_id = ?
		ORDER BY sequence_number
	`, speciesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage templates: %w", err)
	}
	defer rows.Close()

	var out []species.StageTemplate
	for rows.Next() {
		var (
			st  species.StageTemplate
			est string
		)
		if err := rows.Scan(&st.ID, &st.SpeciesID, &st.Name, &st.Description, &est, &st.SequenceNumber); err != nil {
			return nil, fmt.Errorf("failed to scan stage template: %w", err)
		}
		if st.EstimatedDuration, err = parseDuration(est); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stage template rows: %w", err)
	}
	return out, nil
}

func (r *SpeciesRepository) eventTemplates(ctx context.Context, c conn, speciesID string) (map[string][]species.EventTemplate, error) {
	rows, err := c.query(ctx, `
		SELECT e.id, e.stage_template_id, e.name, e.description, e.offset_from_stage_start, e.repeat_interval
		FROM event_templates e
		JOIN stage_templates s ON s.id = e.stage_template_id
		WHERE s.species_id = ?
		ORDER BY e.stage_template_id, e.position
	`, speciesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event templates: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]species.EventTemplate)
	for rows.Next() {
		var (
			ev     species.EventTemplate
			offset string
			repeat sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.StageTemplateID, &ev.Name, &ev.Description, &offset, &repeat); err != nil {
			return nil, fmt.Errorf("failed to scan event template: %w", err)
		}
		if ev.OffsetFromStageStart, err = parseDuration(offset); err != nil {
			return nil, err
		}
		if ev.RepeatInterval, err = parseDurationPtr(repeat); err != nil {
			return nil, err
		}
		out[ev.StageTemplateID] = append(out[ev.StageTemplateID], ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event template rows: %w", err)
	}
	return out, nil
}

// List returns a tenant's species by name.
func (r *SpeciesRepository) List(ctx context.Context, tenantID string) ([]species.Species, error) {
	rows, err := r.db.conn().query(ctx, `
		SELECT id, tenant_id, name, description, created_at
		FROM species
		WHERE tenant_id = ?
		ORDER BY name, id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list species: %w", err)
	}
	defer rows.Close()

	var out []species.Species
	for rows.Next() {
		var (
			sp        species.Species
			createdAt string
		)
		if err := rows.Scan(&sp.ID, &sp.TenantID, &sp.Name, &sp.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan species: %w", err)
		}
		if sp.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating species rows: %w", err)
	}
	return out, nil
}

// RenumberStages assigns sequence numbers 0..n-1 following orderedStageIDs.
// Numbers are first moved out of the way so the unique (species,
// sequence) constraint holds at every step.
func (r *SpeciesRepository) RenumberStages(ctx context.Context, tenantID, speciesID string, orderedStageIDs []string) error {
	return r.db.withTx(ctx, func(c conn) error {
		var owner string
		err := c.queryRow(ctx, `SELECT id FROM species WHERE id = ? AND tenant_id = ?`, speciesID, tenantID).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get species: %w", err)
		}

		if _, err := c.exec(ctx, `
			UPDATE stage_templates SET sequence_number = -1 - sequence_number WHERE species_id = ?
		`, speciesID); err != nil {
			return fmt.Errorf("failed to park stage sequence numbers: %w", err)
		}

		for seq, id := range orderedStageIDs {
			res, err := c.exec(ctx, `
				UPDATE stage_templates SET sequence_number = ? WHERE id = ? AND species_id = ?
			`, seq, id, speciesID)
			if err != nil {
				return fmt.Errorf("failed to renumber stage: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if n == 0 {
				return repository.ErrNotFound
			}
		}
		return nil
	})
}
