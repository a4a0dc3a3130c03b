package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/JonMunkholm/cohort/internal/core"
	"github.com/JonMunkholm/cohort/internal/logging"
)

// multipartOverhead is headroom over the file limit for form boundaries and fields.
const multipartOverhead = 1 << 20

// ImportSummary describes how an import was interpreted.
type ImportSummary struct {
	TotalRows       int    `json:"totalRows"`
	Excluded        int    `json:"excluded"`
	Cohorts         int    `json:"cohorts"`
	StartColumn     string `json:"startColumn"`
	StartResolvedBy string `json:"startResolvedBy"`
	CancelColumn    string `json:"cancelColumn,omitempty"`
}

// ImportResponse is the JSON body returned for an import.
type ImportResponse struct {
	Import  *core.Import     `json:"import"`
	Summary ImportSummary    `json:"summary"`
	Stats   core.CohortStats `json:"stats"`
}

func newImportResponse(imp *core.Import) ImportResponse {
	res := imp.Result
	return ImportResponse{
		Import: imp,
		Summary: ImportSummary{
			TotalRows:       res.TotalRows,
			Excluded:        res.Excluded,
			Cohorts:         len(res.Stats.Cohorts),
			StartColumn:     res.Start.Column,
			StartResolvedBy: res.Start.Method.String(),
			CancelColumn:    res.Cancel.Column,
		},
		Stats: res.Stats,
	}
}

// handleImport accepts a multipart upload in field "file" and returns the matrix.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	imp, err := s.importUpload(w, r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusCreated, newImportResponse(imp))
}

// handleImportForm is the HTML form variant of handleImport.
func (s *Server) handleImportForm(w http.ResponseWriter, r *http.Request) {
	imp, err := s.importUpload(w, r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	target := "/"
	if imp.PersistError != "" {
		target = "/?warn=persist"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// importUpload reads the uploaded file and runs it through the service.
func (s *Server) importUpload(w http.ResponseWriter, r *http.Request) (*core.Import, error) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, core.ErrFileTooLarge
		}
		return nil, errNoFile
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()

	if header.Size > maxSize {
		return nil, core.ErrFileTooLarge
	}

	ctx, cancel := s.importContext(r.Context())
	defer cancel()

	logger := logging.WithImport(ctx, "", header.Filename)
	logger.Debug("upload received", "bytes", header.Size)

	return s.service.Import(ctx, header.Filename, file)
}

func (s *Server) importContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.Import.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return context.WithTimeout(parent, timeout)
}

// handleLastImport returns the import currently held, loading it from the
// store when the process has none yet.
func (s *Server) handleLastImport(w http.ResponseWriter, r *http.Request) {
	imp, err := s.service.Current(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, newImportResponse(imp))
}

// handleReloadImport recomputes the stored import against the current date.
func (s *Server) handleReloadImport(w http.ResponseWriter, r *http.Request) {
	imp, err := s.service.LoadLast(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, newImportResponse(imp))
}

// handleImportStatus reports import slot usage.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}
