package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/cohort/internal/core"
	"github.com/JonMunkholm/cohort/internal/logging"
	"github.com/JonMunkholm/cohort/internal/web/templates"
)

// InsightResponse is the JSON body of the insights endpoint.
type InsightResponse struct {
	ImportID string `json:"importId"`
	Insight  string `json:"insight"`
}

func (s *Server) narrate(ctx context.Context, imp *core.Import) (string, error) {
	if timeout := s.cfg.Narrative.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.service.Narrate(ctx, imp.Stats())
}

// handleInsights generates prose about the latest cohorts.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	imp, err := s.service.Current(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	text, err := s.narrate(r.Context(), imp)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, InsightResponse{ImportID: imp.ID, Insight: text})
}

// handleInsightsForm renders the matrix with the insight below it. A
// narrator failure is shown as an alert above an intact matrix.
func (s *Server) handleInsightsForm(w http.ResponseWriter, r *http.Request) {
	imp, err := s.service.Current(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	params := s.matrixParams(r, imp)
	text, err := s.narrate(r.Context(), imp)
	if err != nil {
		msg := core.MapError(err)
		logging.FromContext(r.Context()).Warn("insight generation failed",
			"import_id", imp.ID,
			"error", err,
			"code", msg.Code,
		)
		params.Alert = &msg
	} else {
		params.Insight = text
	}
	renderPage(w, r, http.StatusOK, templates.Matrix(params))
}
