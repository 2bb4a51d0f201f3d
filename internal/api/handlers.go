package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ecolog/internal/checksum"
	"github.com/starford/ecolog/internal/notebookservice"
)

// Handler holds the notebook route handlers.
type Handler struct {
	svc *notebookservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *notebookservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListNotebooks handles GET /api/notebooks.
//
//	@Summary		List all notebooks with their entries
//	@Tags			notebooks
//	@Produce		json
//	@Param			If-None-Match	header		string	false	"ETag from a previous response"
//	@Success		200				{array}		Notebook
//	@Success		304
//	@Security		BearerAuth
//	@Router			/notebooks [get]
func (h *Handler) ListNotebooks(w http.ResponseWriter, r *http.Request) {
	notebooks, err := h.svc.ListNotebooks(r.Context())
	if err != nil {
		writeError(w, "list notebooks", err, "internal error")
		return
	}
	body, err := json.Marshal(notebooks)
	if err != nil {
		writeError(w, "list notebooks", err, "internal error")
		return
	}

	etag := checksum.ETag(body)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Warn("write notebooks failed", slog.String("error", err.Error()))
	}
}

// GetNotebook handles GET /api/notebooks/{id}.
//
//	@Summary		Get a single notebook
//	@Tags			notebooks
//	@Produce		json
//	@Param			id	path		string	true	"Notebook ID"
//	@Success		200	{object}	Notebook
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notebooks/{id} [get]
func (h *Handler) GetNotebook(w http.ResponseWriter, r *http.Request) {
	nb, err := h.svc.GetNotebook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get notebook", err, notebookErrMsg(err))
		return
	}
	writeJSON(w, http.StatusOK, nb)
}

// CreateNotebook handles POST /api/notebooks.
//
//	@Summary		Create a notebook
//	@Tags			notebooks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNotebookRequest	true	"Notebook to create"
//	@Success		201		{object}	Notebook
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notebooks [post]
func (h *Handler) CreateNotebook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateNotebookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	nb, err := h.svc.CreateNotebook(r.Context(), req)
	if err != nil {
		writeError(w, "create notebook", err, notebookErrMsg(err))
		return
	}
	writeJSON(w, http.StatusCreated, nb)
}

// AddEntry handles POST /api/notebooks/{id}/entries.
//
//	@Summary		Add an entry to a notebook
//	@Tags			notebooks
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Notebook ID"
//	@Param			body	body		AddEntryRequest	true	"Entry to add"
//	@Success		201		{object}	Entry
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notebooks/{id}/entries [post]
func (h *Handler) AddEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	entry, err := h.svc.AddEntry(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, "add entry", err, notebookErrMsg(err))
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Search handles GET /api/search.
//
//	@Summary		Search notebook entries
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"	default(20)
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.SearchEntries(r.Context(), q, limit)
	if err != nil {
		msg := "search failed"
		if statusFor(err) == http.StatusBadRequest {
			msg = "query parameter 'q' is required"
		}
		writeError(w, "search", err, msg)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func notebookErrMsg(err error) string {
	switch statusFor(err) {
	case http.StatusNotFound:
		return "Notebook not found"
	case http.StatusBadRequest:
		return err.Error()
	default:
		return "internal error"
	}
}
