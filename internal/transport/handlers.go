package transport

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ganot/cropline/internal/domain/activity"
	"github.com/ganot/cropline/internal/domain/calendar"
	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/domain/interval"
	"github.com/ganot/cropline/internal/domain/landplot"
	"github.com/ganot/cropline/internal/domain/species"
	"github.com/ganot/cropline/internal/export"
	"github.com/go-chi/chi/v5"
)

type createLandplotRequest struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	AreaHectares *float64 `json:"area_hectares"`
}

type renumberRequest struct {
	StageIDs []string `json:"stage_ids"`
}

type createCropRequest struct {
	LandplotID string `json:"landplot_id"`
	SpeciesID  string `json:"species_id"`
	StartDate  string `json:"start_date"`
	Comments   string `json:"comments"`
}

type dateRequest struct {
	DoneDate string `json:"done_date"`
}

type commentsRequest struct {
	Comments string `json:"comments"`
}

type adHocRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	EstimatedDate string `json:"estimated_date"`
	DoneDate      string `json:"done_date"`
}

type harvestRequest struct {
	FinishDate   string   `json:"finish_date"`
	WeightInTons *float64 `json:"weight_in_tons"`
	Comments     *string  `json:"comments"`
}

func (s *Server) listLandplots(w http.ResponseWriter, r *http.Request) {
	plots, err := s.svc.Landplots.List(r.Context(), tenant(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plots)
}

func (s *Server) createLandplot(w http.ResponseWriter, r *http.Request) {
	var req createLandplotRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	plot, err := s.svc.Landplots.Create(r.Context(), tenant(r), landplot.CreateRequest{
		ID:           req.ID,
		Name:         req.Name,
		Description:  req.Description,
		AreaHectares: req.AreaHectares,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, plot)
}

func (s *Server) getLandplot(w http.ResponseWriter, r *http.Request) {
	plot, err := s.svc.Landplots.Get(r.Context(), tenant(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plot)
}

func (s *Server) listSpecies(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Species.List(r.Context(), tenant(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// importPlan accepts a plan file as JSON, or as YAML when the content type
// says so.
func (s *Server) importPlan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	var def species.PlanDefinition
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		def, err = species.ParsePlanYAML(body)
	} else {
		def, err = species.ParsePlanJSON(body)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.svc.Species.ImportPlan(r.Context(), tenant(r), def)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.svc.Species.GetPlan(r.Context(), tenant(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) renumberStages(w http.ResponseWriter, r *http.Request) {
	var req renumberRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.svc.Species.RenumberStages(r.Context(), tenant(r), chi.URLParam(r, "id"), req.StageIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) listCrops(w http.ResponseWriter, r *http.Request) {
	filter := crop.ListFilter(r.URL.Query().Get("filter"))
	crops, err := s.svc.Crops.ListCrops(r.Context(), tenant(r), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, crops)
}

func (s *Server) createCrop(w http.ResponseWriter, r *http.Request) {
	var req createCropRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	start, err := interval.ParseDate(req.StartDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tl, err := s.svc.Crops.InstantiateTimeline(r.Context(), tenant(r), crop.CreateRequest{
		LandplotID: req.LandplotID,
		SpeciesID:  req.SpeciesID,
		StartDate:  start,
		Comments:   req.Comments,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tl)
}

func (s *Server) getTimeline(w http.ResponseWriter, r *http.Request) {
	tl, err := s.svc.Crops.GetTimeline(r.Context(), tenant(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) estimateCompletion(w http.ResponseWriter, r *http.Request) {
	est, err := s.svc.Crops.EstimateCropCompletion(r.Context(), tenant(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (s *Server) submitHarvest(w http.ResponseWriter, r *http.Request) {
	var req harvestRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	finish, err := interval.ParseDate(req.FinishDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tl, err := s.svc.Crops.SubmitHarvest(r.Context(), tenant(r), chi.URLParam(r, "id"), crop.HarvestRequest{
		FinishDate:   finish,
		WeightInTons: req.WeightInTons,
		Comments:     req.Comments,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) listActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.svc.Activity.GetRecentActivity(r.Context(), tenant(r), activity.ListActivityOptions{
		CropID: chi.URLParam(r, "id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) finishStage(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	done, err := interval.ParseDate(req.DoneDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tl, err := s.svc.Crops.FinishStage(r.Context(), tenant(r), chi.URLParam(r, "id"), done)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) updateStageComments(w http.ResponseWriter, r *http.Request) {
	var req commentsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	tl, err := s.svc.Crops.UpdateStageComments(r.Context(), tenant(r), chi.URLParam(r, "id"), req.Comments)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) addAdHocEvent(w http.ResponseWriter, r *http.Request) {
	var req adHocRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	estimated, err := interval.ParseDatePtr(req.EstimatedDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	done, err := interval.ParseDatePtr(req.DoneDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ev, err := s.svc.Crops.AddAdHocEvent(r.Context(), tenant(r), chi.URLParam(r, "id"), crop.AdHocRequest{
		Name:          req.Name,
		Description:   req.Description,
		EstimatedDate: estimated,
		DoneDate:      done,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) markEventDone(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	done, err := interval.ParseDate(req.DoneDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tl, err := s.svc.Crops.MarkEventDone(r.Context(), tenant(r), chi.URLParam(r, "id"), done)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

// projectCalendar serves the calendar as JSON, or as a spreadsheet with
// format=xlsx.
func (s *Server) projectCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := s.svc.Calendar.ProjectCalendar(r.Context(), tenant(r), calendar.Query{
		CropIDs: q["crop_id"],
		Filter:  crop.ListFilter(q.Get("filter")),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch q.Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, tasks)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="calendar.xlsx"`)
		if err := export.WriteCalendarXLSX(w, tasks); err != nil && s.logger != nil {
			s.logger.ErrorContext(r.Context(), "calendar export failed", "error", err)
		}
	default:
		s.writeError(w, r, fmt.Errorf("%w: unknown format %q", errBadRequest, q.Get("format")))
	}
}

func (s *Server) nextHarvest(w http.ResponseWriter, r *http.Request) {
	next, err := s.svc.Crops.NextHarvest(r.Context(), tenant(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if next == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, next)
}
