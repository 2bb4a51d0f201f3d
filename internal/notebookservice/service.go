// Package notebookservice implements notebook and entry operations on top of
// the document store, keeping the search index and event stream in step.
package notebookservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/ecolog/internal/apperr"
	"github.com/starford/ecolog/internal/index"
	"github.com/starford/ecolog/internal/models"
	"github.com/starford/ecolog/internal/sse"
	"github.com/starford/ecolog/internal/storage"
)

// Publisher receives change events.
type Publisher interface {
	PublishChange(event sse.Event)
}

// CreateNotebookInput is the payload for CreateNotebook.
type CreateNotebookInput struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Validate implements validation.Validatable.
func (in CreateNotebookInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
	)
}

// EntryInput is the payload for AddEntry.
type EntryInput struct {
	Title       string   `json:"title"`
	Scientific  string   `json:"scientific"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	FunFact     string   `json:"fun_fact"`
	Notes       string   `json:"notes"`
	Author      string   `json:"author"`
	ImageURL    string   `json:"image_url"`
}

// Validate implements validation.Validatable.
func (in EntryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
	)
}

// Service coordinates the document store, index and events.
type Service struct {
	store  storage.DocumentStore
	idx    index.EntryIndex
	events Publisher
	newID  func() string
}

// NewService creates a notebook service. idx and events may be nil.
func NewService(store storage.DocumentStore, idx index.EntryIndex, events Publisher) *Service {
	return &Service{store: store, idx: idx, events: events, newID: uuid.NewString}
}

// ListNotebooks returns every notebook as currently persisted.
func (s *Service) ListNotebooks(ctx context.Context) ([]models.Notebook, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Notebooks, nil
}

// GetNotebook returns one notebook or apperr.ErrNotFound.
func (s *Service) GetNotebook(ctx context.Context, id string) (*models.Notebook, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	nb := doc.FindNotebook(id)
	if nb == nil {
		return nil, fmt.Errorf("notebook %q: %w", id, apperr.ErrNotFound)
	}
	return nb, nil
}

// CreateNotebook appends a new empty notebook and persists it.
func (s *Service) CreateNotebook(ctx context.Context, in CreateNotebookInput) (*models.Notebook, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}

	nb := models.Notebook{
		ID:      s.newID(),
		Name:    in.Name,
		Image:   in.Image,
		Entries: []models.Entry{},
	}
	var sum string
	err := s.store.Update(ctx, func(d *models.Document) error {
		d.Notebooks = append(d.Notebooks, nb)
		sum = index.DocumentSum(d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.idx != nil {
		if err := s.idx.SetDocumentChecksum(sum); err != nil {
			slog.Warn("index: record checksum failed", slog.String("error", err.Error()))
		}
	}
	s.publish(sse.NotebookCreated, map[string]string{"id": nb.ID, "name": nb.Name})
	return &nb, nil
}

// AddEntry appends an entry to notebook notebookID. A missing notebook
// returns apperr.ErrNotFound and leaves the store untouched.
func (s *Service) AddEntry(ctx context.Context, notebookID string, in EntryInput) (*models.Entry, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	entry := models.Entry{
		ID:          s.newID(),
		Title:       in.Title,
		Scientific:  in.Scientific,
		Tags:        tags,
		Description: in.Description,
		FunFact:     in.FunFact,
		Notes:       in.Notes,
		Author:      in.Author,
		ImageURL:    in.ImageURL,
	}
	var (
		owner models.Notebook
		sum   string
	)
	err := s.store.Update(ctx, func(d *models.Document) error {
		nb := d.FindNotebook(notebookID)
		if nb == nil {
			return fmt.Errorf("notebook %q: %w", notebookID, apperr.ErrNotFound)
		}
		nb.Entries = append(nb.Entries, entry)
		owner = *nb
		sum = index.DocumentSum(d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.idx != nil {
		if err := s.idx.UpsertEntry(index.RowFor(owner, entry), sum); err != nil {
			slog.Warn("index: upsert entry failed",
				slog.String("entry_id", entry.ID),
				slog.String("error", err.Error()))
		}
	}
	s.publish(sse.EntryCreated, map[string]string{"id": entry.ID, "notebook_id": notebookID, "title": entry.Title})
	return &entry, nil
}

// SearchEntries finds entries matching query. Without an index it scans the
// document.
func (s *Service) SearchEntries(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", apperr.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 20
	}
	if s.idx != nil {
		return s.idx.Search(query, limit)
	}
	return s.scan(ctx, query, limit)
}

func (s *Service) scan(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := []index.SearchResult{}
	for _, row := range index.Rows(doc) {
		haystack := strings.ToLower(strings.Join(append([]string{row.Title, row.Scientific, row.Description, row.Notes}, row.Tags...), " "))
		if !strings.Contains(haystack, q) {
			continue
		}
		out = append(out, index.SearchResult{
			EntryID:      row.ID,
			NotebookID:   row.NotebookID,
			NotebookName: row.NotebookName,
			Title:        row.Title,
			Scientific:   row.Scientific,
			Snippet:      row.Description,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Service) publish(eventType string, data map[string]string) {
	if s.events == nil {
		return
	}
	s.events.PublishChange(sse.Event{Type: eventType, Data: data})
}
