package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/repository"
)

// CropRepository implements crop.Repository.
type CropRepository struct {
	db *DB
}

// NewCropRepository creates a new CropRepository
func NewCropRepository(db *DB) *CropRepository {
	return &CropRepository{db: db}
}

// CreateTimeline inserts a crop with every stage, series and event in one
// transaction.
func (r *CropRepository) CreateTimeline(ctx context.Context, tenantID string, tl *crop.Timeline) error {
	return r.db.withTx(ctx, func(c conn) error {
		cr := tl.Crop
		if _, err := c.exec(ctx, `
			INSERT INTO crops (id, tenant_id, landplot_id, species_id, start_date, finish_date, weight_in_tons, comments, revision, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			cr.ID,
			tenantID,
			cr.LandplotID,
			cr.SpeciesID,
			formatTime(cr.StartDate),
			formatTimePtr(cr.FinishDate),
			nullFloat(cr.WeightInTons),
			cr.Comments,
			cr.Revision,
			formatTime(cr.CreatedAt),
		); err != nil {
			return fmt.Errorf("failed to create crop: %w", mapWriteError(err))
		}

		for _, st := range tl.Stages {
			if err := insertStage(ctx, c, st.Stage); err != nil {
				return err
			}
			for pos, ev := range st.Events {
				if err := insertEvent(ctx, c, ev, &pos); err != nil {
					return err
				}
			}
			for pos, series := range st.Series {
				if err := insertSeries(ctx, c, series, pos); err != nil {
					return err
				}
				for _, ev := range series.Occurrences {
					if err := insertEvent(ctx, c, ev, nil); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func insertStage(ctx context.Context, c conn, s crop.Stage) error {
	est, err := formatDuration(s.EstimatedDuration)
	if err != nil {
		return err
	}
	_, err = c.exec(ctx, `
		INSERT INTO crop_stages (id, crop_id, name, description, estimated_duration, sequence_number, start_date, finish_date, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID,
		s.CropID,
		s.Name,
		s.Description,
		est,
		s.SequenceNumber,
		formatTimePtr(s.StartDate),
		formatTimePtr(s.FinishDate),
		nullString(s.Comments),
	)
	if err != nil {
		return fmt.Errorf("failed to create crop stage: %w", mapWriteError(err))
	}
	return nil
}

func insertSeries(ctx context.Context, c conn, s crop.Series, pos int) error {
	offset, err := formatDuration(s.Offset)
	if err != nil {
		return err
	}
	every, err := formatDuration(s.Interval)
	if err != nil {
		return err
	}
	_, err = c.exec(ctx, `
		INSERT INTO crop_series (id, crop_id, stage_id, template_id, name, description, offset_from_stage_start, repeat_interval, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.CropID, s.StageID, nullString(s.TemplateID), s.Name, s.Description, offset, every, pos)
	if err != nil {
		return fmt.Errorf("failed to create recurrence series: %w", mapWriteError(err))
	}
	return nil
}

// insertEvent writes one event. A nil pos appends after the stage's
// existing events.
func insertEvent(ctx context.Context, c conn, ev crop.Event, pos *int) error {
	offset, err := formatDurationPtr(ev.OffsetFromStageStart)
	if err != nil {
		return err
	}
	repeat, err := formatDurationPtr(ev.RepeatInterval)
	if err != nil {
		return err
	}

	args := []any{
		ev.ID,
		ev.CropID,
		ev.StageID,
		nullString(ev.TemplateID),
		nullString(ev.SeriesID),
		ev.Sequence,
		ev.Name,
		ev.Description,
		offset,
		repeat,
		formatTimePtr(ev.DueDate),
		formatTimePtr(ev.DoneDate),
	}
	position := `(SELECT COALESCE(MAX(position), -1) + 1 FROM crop_events WHERE stage_id = ?)`
	if pos != nil {
		position = `?`
		args = append(args, *pos)
	} else {
		args = append(args, ev.StageID)
	}

	_, err = c.exec(ctx, `
		INSERT INTO crop_events (id, crop_id, stage_id, template_id, series_id, occurrence, name, description,
			offset_from_stage_start, repeat_interval, due_date, done_date, position)
		VALUES (`+placeholders(12)+`, `+position+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to create crop event: %w", mapWriteError(err))
	}
	return nil
}

// GetTimeline loads a crop aggregate.
func (r *CropRepository) GetTimeline(ctx context.Context, tenantID, cropID string) (*crop.Timeline, error) {
	c := r.db.conn()

	var tl crop.Timeline
	row := c.queryRow(ctx, `
		SELECT c.id, c.tenant_id, c.landplot_id, c.species_id, c.start_date, c.finish_date,
			c.weight_in_tons, c.comments, c.revision, c.created_at, s.name
		FROM crops c
		JOIN species s ON s.id = c.species_id
		WHERE c.id = ? AND c.tenant_id = ?
	`, cropID, tenantID)
	cr, err := scanCrop(row, &tl.SpeciesName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crop: %w", err)
	}
	tl.Crop = *cr

	stages, err := loadStages(ctx, c, cropID)
	if err != nil {
		return nil, err
	}
	stageIdx := make(map[string]int, len(stages))
	for i, s := range stages {
		stageIdx[s.ID] = i
		tl.Stages = append(tl.Stages, crop.StageTimeline{Stage: s})
	}

	series, err := loadSeries(ctx, c, cropID)
	if err != nil {
		return nil, err
	}
	type seriesRef struct{ stage, series int }
	seriesIdx := make(map[string]seriesRef, len(series))
	for _, s := range series {
		si, ok := stageIdx[s.StageID]
		if !ok {
			return nil, fmt.Errorf("series %s references unknown stage %s", s.ID, s.StageID)
		}
		st := &tl.Stages[si]
		seriesIdx[s.ID] = seriesRef{stage: si, series: len(st.Series)}
		st.Series = append(st.Series, s)
	}

	events, err := loadEvents(ctx, c, cropID)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		if ev.SeriesID != nil {
			ref, ok := seriesIdx[*ev.SeriesID]
			if !ok {
				return nil, fmt.Errorf("event %s references unknown series %s", ev.ID, *ev.SeriesID)
			}
			s := &tl.Stages[ref.stage].Series[ref.series]
			s.Occurrences = append(s.Occurrences, ev)
			continue
		}
		si, ok := stageIdx[ev.StageID]
		if !ok {
			return nil, fmt.Errorf("event %s references unknown stage %s", ev.ID, ev.StageID)
		}
		tl.Stages[si].Events = append(tl.Stages[si].Events, ev)
	}

	return &tl, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCrop(row scanner, extra ...any) (*crop.Crop, error) {
	var (
		cr             crop.Crop
		start, created string
		finish         sql.NullString
		weight         sql.NullFloat64
	)
	dest := []any{&cr.ID, &cr.TenantID, &cr.LandplotID, &cr.SpeciesID, &start, &finish, &weight, &cr.Comments, &cr.Revision, &created}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if cr.StartDate, err = parseTime(start); err != nil {
		return nil, err
	}
	if cr.FinishDate, err = parseTimePtr(finish); err != nil {
		return nil, err
	}
	if cr.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	cr.WeightInTons = floatPtr(weight)
	return &cr, nil
}

func loadStages(ctx context.Context, c conn, cropID string) ([]crop.Stage, error) {
	rows, err := c.query(ctx, `
		SELECT id, crop_id, name, description, estimated_duration, sequence_number, start_date, finish_date, comments
		FROM crop_stages
		WHERE crop_id = ?
		ORDER BY sequence_number
	`, cropID)
	if err != nil {
		return nil, fmt.Errorf("failed to list crop stages: %w", err)
	}
	defer rows.Close()

	var out []crop.Stage
	for rows.Next() {
		var (
			s             crop.Stage
			est           string
			start, finish sql.NullString
			comments      sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.CropID, &s.Name, &s.Description, &est, &s.SequenceNumber, &start, &finish, &comments); err != nil {
			return nil, fmt.Errorf("failed to scan crop stage: %w", err)
		}
		if s.EstimatedDuration, err = parseDuration(est); err != nil {
			return nil, err
		}
		if s.StartDate, err = parseTimePtr(start); err != nil {
			return nil, err
		}
		if s.FinishDate, err = parseTimePtr(finish); err != nil {
			return nil, err
		}
		s.Comments = stringPtr(comments)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crop stage rows: %w", err)
	}
	return out, nil
}

func loadSeries(ctx context.Context, c conn, cropID string) ([]crop.Series, error) {
	rows, err := c.query(ctx, `
		SELECT id, crop_id, stage_id, template_id, name, description, offset_from_stage_start, repeat_interval
		FROM crop_series
		WHERE crop_id = ?
		ORDER BY stage_id, position
	`, cropID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurrence series: %w", err)
	}
	defer rows.Close()

	var out []crop.Series
	for rows.Next() {
		var (
			s             crop.Series
			templateID    sql.NullString
			offset, every string
		)
		if err := rows.Scan(&s.ID, &s.CropID, &s.StageID, &templateID, &s.Name, &s.Description, &offset, &every); err != nil {
			return nil, fmt.Errorf("failed to scan recurrence series: %w", err)
		}
		s.TemplateID = stringPtr(templateID)
		if s.Offset, err = parseDuration(offset); err != nil {
			return nil, err
		}
		if s.Interval, err = parseDuration(every); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating series rows: %w", err)
	}
	return out, nil
}

func loadEvents(ctx context.Context, c conn, cropID string) ([]crop.Event, error) {
	rows, err := c.query(ctx, `
		SELECT id, crop_id, stage_id, template_id, series_id, occurrence, name, description,
			offset_from_stage_start, repeat_interval, due_date, done_date
		FROM crop_events
		WHERE crop_id = ?
		ORDER BY stage_id, occurrence, position
	`, cropID)
	if err != nil {
		return nil, fmt.Errorf("failed to list crop events: %w", err)
	}
	defer rows.Close()

	var out []crop.Event
	for rows.Next() {
		var (
			ev                   crop.Event
			templateID, seriesID sql.NullString
			offset, repeat       sql.NullString
			due, done            sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.CropID, &ev.StageID, &templateID, &seriesID, &ev.Sequence, &ev.Name, &ev.Description,
			&offset, &repeat, &due, &done); err != nil {
			return nil, fmt.Errorf("failed to scan crop event: %w", err)
		}
		ev.TemplateID = stringPtr(templateID)
		ev.SeriesID = stringPtr(seriesID)
		if ev.OffsetFromStageStart, err = parseDurationPtr(offset); err != nil {
			return nil, err
		}
		if ev.RepeatInterval, err = parseDurationPtr(repeat); err != nil {
			return nil, err
		}
		if ev.DueDate, err = parseTimePtr(due); err != nil {
			return nil, err
		}
		if ev.DoneDate, err = parseTimePtr(done); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crop event rows: %w", err)
	}
	return out, nil
}

// CropIDForStage resolves the crop owning a stage.
func (r *CropRepository) CropIDForStage(ctx context.Context, tenantID, stageID string) (string, error) {
	return r.ownerOf(ctx, `
		SELECT s.crop_id FROM crop_stages s
		JOIN crops c ON c.id = s.crop_id
		WHERE s.id = ? AND c.tenant_id = ?
	`, stageID, tenantID)
}

// CropIDForEvent resolves the crop owning an event.
func (r *CropRepository) CropIDForEvent(ctx context.Context, tenantID, eventID string) (string, error) {
	return r.ownerOf(ctx, `
		SELECT e.crop_id FROM crop_events e
		JOIN crops c ON c.id = e.crop_id
		WHERE e.id = ? AND c.tenant_id = ?
	`, eventID, tenantID)
}

func (r *CropRepository) ownerOf(ctx context.Context, query, id, tenantID string) (string, error) {
	var cropID string
	err := r.db.conn().queryRow(ctx, query, id, tenantID).Scan(&cropID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve crop: %w", err)
	}
	return cropID, nil
}

// ListCrops returns a tenant's crops by start date.
func (r *CropRepository) ListCrops(ctx context.Context, tenantID string, filter crop.ListFilter) ([]crop.Crop, error) {
	query := `
		SELECT id, tenant_id, landplot_id, species_id, start_date, finish_date,
			weight_in_tons, comments, revision, created_at
		FROM crops
		WHERE tenant_id = ?
	`
	switch filter {
	case crop.FilterOngoing:
		query += " AND finish_date IS NULL"
	case crop.FilterFinished:
		query += " AND finish_date IS NOT NULL"
	}
	query += " ORDER BY start_date, id"

	rows, err := r.db.conn().query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list crops: %w", err)
	}
	defer rows.Close()

	var out []crop.Crop
	for rows.Next() {
		cr, err := scanCrop(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crop: %w", err)
		}
		out = append(out, *cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crop rows: %w", err)
	}
	return out, nil
}

// Apply writes a change set atomically. The crop's revision must still equal
// cs.ExpectedRevision; it is incremented on success.
func (r *CropRepository) Apply(ctx context.Context, tenantID string, cs *crop.ChangeSet) error {
	return r.db.withTx(ctx, func(c conn) error {
		var (
			res sql.Result
			err error
		)
		if cs.Crop != nil {
			res, err = c.exec(ctx, `
				UPDATE crops
				SET revision = revision + 1, finish_date = ?, weight_in_tons = ?, comments = ?
				WHERE id = ? AND tenant_id = ? AND revision = ?
			`, formatTimePtr(cs.Crop.FinishDate), nullFloat(cs.Crop.WeightInTons), cs.Crop.Comments,
				cs.CropID, tenantID, cs.ExpectedRevision)
		} else {
			res, err = c.exec(ctx, `
				UPDATE crops SET revision = revision + 1
				WHERE id = ? AND tenant_id = ? AND revision = ?
			`, cs.CropID, tenantID, cs.ExpectedRevision)
		}
		if err != nil {
			return fmt.Errorf("failed to bump crop revision: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			var exists int
			err := c.queryRow(ctx, `SELECT COUNT(*) FROM crops WHERE id = ? AND tenant_id = ?`, cs.CropID, tenantID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check crop: %w", err)
			}
			if exists == 0 {
				return repository.ErrNotFound
			}
			return repository.ErrConflict
		}

		for _, s := range cs.Stages {
			if err := expectOne(c.exec(ctx, `
				UPDATE crop_stages SET start_date = ?, finish_date = ?, comments = ?
				WHERE id = ? AND crop_id = ?
			`, formatTimePtr(s.StartDate), formatTimePtr(s.FinishDate), nullString(s.Comments), s.ID, cs.CropID)); err != nil {
				return fmt.Errorf("failed to update stage %s: %w", s.ID, err)
			}
		}

		for _, id := range cs.DeletedEventIDs {
			if err := expectOne(c.exec(ctx, `DELETE FROM crop_events WHERE id = ? AND crop_id = ?`, id, cs.CropID)); err != nil {
				return fmt.Errorf("failed to delete event %s: %w", id, err)
			}
		}

		for _, ev := range cs.UpdatedEvents {
			if err := expectOne(c.exec(ctx, `
				UPDATE crop_events SET due_date = ?, done_date = ?
				WHERE id = ? AND crop_id = ?
			`, formatTimePtr(ev.DueDate), formatTimePtr(ev.DoneDate), ev.ID, cs.CropID)); err != nil {
				return fmt.Errorf("failed to update event %s: %w", ev.ID, err)
			}
		}

		for _, ev := range cs.InsertedEvents {
			if err := insertEvent(ctx, c, ev, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return repository.ErrNotFound
	}
	return nil
}
