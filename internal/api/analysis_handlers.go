package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ecolog/internal/analysis"
	"github.com/starford/ecolog/internal/export"
	"github.com/starford/ecolog/internal/models"
)

// AnalysisHandler serves the photo analysis and download routes.
type AnalysisHandler struct {
	svc      *analysis.Service
	exporter *export.Exporter
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(svc *analysis.Service, exporter *export.Exporter) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, exporter: exporter}
}

// Analyze handles POST /analyze (multipart/form-data, field "image").
//
//	@Summary		Identify and illustrate the species in a photo
//	@Tags			analysis
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"Photo"
//	@Success		200		{object}	AnalyzeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/analyze [post]
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	clearWriteDeadline(w)
	image, mimeType, err := readImage(w, r)
	if err != nil {
		writeError(w, "analyze", err, err.Error())
		return
	}
	summary, err := h.svc.Analyze(r.Context(), image, mimeType)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		logFailure("analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Identify handles POST /api/ai-identify (multipart/form-data, field "image").
//
//	@Summary		Identify a species and draft a notebook entry
//	@Tags			analysis
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"Photo"
//	@Success		200		{object}	IdentifyResponse
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ai-identify [post]
func (h *AnalysisHandler) Identify(w http.ResponseWriter, r *http.Request) {
	clearWriteDeadline(w)
	image, mimeType, err := readImage(w, r)
	if err != nil {
		writeError(w, "ai identify", err, err.Error())
		return
	}
	out, err := h.svc.Identify(r.Context(), image, mimeType)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		logFailure("ai identify", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// DownloadZIP handles GET /download/{analysis_id}.
//
//	@Summary		Download an analysis as a ZIP archive
//	@Tags			downloads
//	@Produce		application/zip
//	@Param			analysis_id	path	string	true	"Analysis ID"
//	@Success		200
//	@Failure		404	{object}	errResponse
//	@Failure		500	{object}	errResponse
//	@Router			/download/{analysis_id} [get]
func (h *AnalysisHandler) DownloadZIP(w http.ResponseWriter, r *http.Request) {
	clearWriteDeadline(w)
	h.download(w, r, func(res models.AnalysisResult) (export.Artifact, error) {
		return h.exporter.ZIP(r.Context(), res)
	})
}

// DownloadJSON handles GET /download-json/{analysis_id}.
//
//	@Summary		Download an analysis as JSON
//	@Tags			downloads
//	@Produce		json
//	@Param			analysis_id	path	string	true	"Analysis ID"
//	@Success		200
//	@Failure		404	{object}	errResponse
//	@Router			/download-json/{analysis_id} [get]
func (h *AnalysisHandler) DownloadJSON(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, h.exporter.JSON)
}

// DownloadHTML handles GET /download-html/{analysis_id}.
//
//	@Summary		Download an analysis as a standalone HTML report
//	@Tags			downloads
//	@Produce		html
//	@Param			analysis_id	path	string	true	"Analysis ID"
//	@Success		200
//	@Failure		404	{object}	errResponse
//	@Router			/download-html/{analysis_id} [get]
func (h *AnalysisHandler) DownloadHTML(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, h.exporter.HTML)
}

func (h *AnalysisHandler) download(w http.ResponseWriter, r *http.Request, build func(models.AnalysisResult) (export.Artifact, error)) {
	result, err := h.svc.Results().Get(chi.URLParam(r, "analysis_id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("Analysis not found"))
		return
	}
	art, err := build(result)
	if err != nil {
		logFailure("download", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Download failed: "+err.Error()))
		return
	}
	writeAttachment(w, art)
}
