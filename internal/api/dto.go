package api

import (
	"github.com/starford/ecolog/internal/analysis"
	"github.com/starford/ecolog/internal/index"
	"github.com/starford/ecolog/internal/models"
	"github.com/starford/ecolog/internal/notebookservice"
)

// CreateNotebookRequest is the request body for creating a notebook.
type CreateNotebookRequest = notebookservice.CreateNotebookInput

// AddEntryRequest is the request body for adding an entry.
type AddEntryRequest = notebookservice.EntryInput

// Notebook is the notebook response type (aliased from the domain layer).
type Notebook = models.Notebook

// Entry is the entry response type (aliased from the domain layer).
type Entry = models.Entry

// AnalyzeResponse is returned by POST /analyze.
type AnalyzeResponse = analysis.Summary

// IdentifyResponse is returned by POST /api/ai-identify.
type IdentifyResponse = analysis.Identified

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}
