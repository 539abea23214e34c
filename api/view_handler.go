package api

import (
	"fmt"
	"net/http"

	"github.com/rpupo63/fieldlens-backend/events"
	"github.com/rpupo63/fieldlens-backend/views"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ReportRecorder counts generated reports
type ReportRecorder interface {
	RecordReport(reportType, format string)
}

type viewHandler struct {
	responder Responder
	logger    zerolog.Logger
	views     *views.Service
	reports   ReportRecorder
	publisher events.Publisher
}

func newViewHandler(views *views.Service, reports ReportRecorder, publisher events.Publisher) viewHandler {
	logger := log.With().Str("handlerName", "viewHandler").Logger()

	return viewHandler{
		responder: NewResponder(logger),
		logger:    logger,
		views:     views,
		reports:   reports,
		publisher: publisher,
	}
}

// getDashboard
// @Summary Dashboard overview
// @Produce json
// @Success 200 {object} views.Dashboard
// @Router /views/dashboard [get]
func (h viewHandler) getDashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dashboard, err := h.views.Dashboard(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, dashboard)
	}
}

// getProjectDetail
// @Summary Project with its photos
// @Param projectID path int true "Project ID"
// @Param filter query string false "all, recent or annotated"
// @Success 200 {object} views.ProjectDetail
// @Router /views/project/{projectID} [get]
func (h viewHandler) getProjectDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := parseID(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		filter, err := views.ParsePhotoFilter(r.URL.Query().Get("filter"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		detail, err := h.views.ProjectDetail(r.Context(), projectID, filter)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, detail)
	}
}

func (h viewHandler) getPhotoView() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photoID, err := parseID(r, "photoID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		view, err := h.views.Photo(r.Context(), photoID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, view)
	}
}

func (h viewHandler) getTeamView() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := h.views.Team(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, view)
	}
}

// generateReport
// @Summary Generate a project report
// @Description Returns JSON by default. Set format to csv (body or query) for a CSV download.
// @Accept json
// @Param report body views.ReportRequest true "Report options"
// @Success 200 {object} views.Report
// @Failure 400 {object} ErrorResponse
// @Router /report [post]
func (h viewHandler) generateReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req views.ReportRequest
		if err := decodeBody(h.logger, r, &req, "report"); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if format := r.URL.Query().Get("format"); format != "" {
			req.Format = format
		}
		if err := req.Validate(); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		report, err := h.views.Report(r.Context(), req)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if h.reports != nil {
			h.reports.RecordReport(string(req.Type), req.Format)
		}
		h.publisher.Publish(events.Event{
			Type:      events.ReportGenerated,
			ProjectID: req.ProjectID,
			Data:      map[string]string{"type": string(req.Type), "range": string(req.Range), "format": req.Format},
			Timestamp: report.GeneratedAt,
		})

		if req.Format != views.FormatCSV {
			h.responder.WriteJSON(w, report)
			return
		}

		filename := fmt.Sprintf("project-%d-%s.csv", req.ProjectID, req.Type)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := report.WriteCSV(w); err != nil {
			h.logger.Error().Err(err).Int64("projectId", req.ProjectID).Msg("Failed to write CSV report")
		}
	}
}
