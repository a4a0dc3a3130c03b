package web

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/cohort/internal/core"
	"github.com/JonMunkholm/cohort/internal/export"
	"github.com/JonMunkholm/cohort/internal/logging"
	"github.com/JonMunkholm/cohort/internal/web/templates"
	"github.com/a-h/templ"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CohortsResponse is the JSON body of the matrix endpoint.
type CohortsResponse struct {
	Import *core.Import     `json:"import"`
	Labels []string         `json:"labels"`
	Stats  core.CohortStats `json:"stats"`
}

// handleMatrixPage renders the heatmap, or the landing view before any import.
func (s *Server) handleMatrixPage(w http.ResponseWriter, r *http.Request) {
	imp, err := s.service.Current(r.Context())
	if errors.Is(err, core.ErrNoImport) {
		renderPage(w, r, http.StatusOK, templates.Empty())
		return
	}
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	params := s.matrixParams(r, imp)
	if r.URL.Query().Get("warn") == "persist" {
		msg := core.MapError(errors.New("save last import"))
		params.Alert = &msg
	}
	renderPage(w, r, http.StatusOK, templates.Matrix(params))
}

func (s *Server) matrixParams(r *http.Request, imp *core.Import) templates.MatrixParams {
	return templates.MatrixParams{
		Import:   imp,
		View:     templates.ParseView(r.URL.Query().Get("view")),
		Insights: s.cfg.Narrative.Enabled(),
	}
}

func renderPage(w http.ResponseWriter, r *http.Request, status int, body templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Page("Análise de Retenção", body).Render(r.Context(), w); err != nil {
		slog.Error("render page", "path", r.URL.Path, "error", err)
	}
}

// handleCohorts returns the current matrix as JSON.
func (s *Server) handleCohorts(w http.ResponseWriter, r *http.Request) {
	imp, err := s.service.Current(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	stats := imp.Stats()
	labels := make([]string, len(stats.Cohorts))
	for i, c := range stats.Cohorts {
		labels[i] = core.CohortLabel(c.Cohort)
	}
	writeJSON(w, http.StatusOK, CohortsResponse{Import: imp, Labels: labels, Stats: stats})
}

// handleExport streams the three-sheet workbook for the current import.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	imp, err := s.service.Current(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	// Buffered so a failed build still gets an error response.
	var buf bytes.Buffer
	if err := export.Write(&buf, imp.Rows, imp.Result, export.Options{}); err != nil {
		respondError(w, r, fmt.Errorf("export workbook: %w", err), http.StatusInternalServerError)
		return
	}

	fileName := fmt.Sprintf("Analise_Retencao_%d.xlsx", imp.ImportedAt.UnixMilli())
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("export write interrupted", "error", err)
	}
}
