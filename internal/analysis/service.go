// Package analysis runs the identify → illustrate pipeline and keeps the
// results for later export.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/ecolog/internal/models"
	"github.com/starford/ecolog/internal/parser"
	"github.com/starford/ecolog/internal/sse"
)

// Identifier describes an image given an instruction.
type Identifier interface {
	Describe(ctx context.Context, image []byte, mimeType, instruction string) (string, error)
}

// Illustrator turns a prompt into an image URL.
type Illustrator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Archiver copies an image URL to durable storage and returns the new URL.
type Archiver interface {
	Store(ctx context.Context, src string) (string, error)
}

// Publisher receives pipeline events.
type Publisher interface {
	Publish(event sse.Event)
}

// Summary is the /analyze response.
type Summary struct {
	OutputHTML        string   `json:"output_html"`
	Illustrations     []string `json:"illustrations"`
	AnalysisID        string   `json:"analysis_id"`
	DownloadAvailable bool     `json:"download_available"`
}

// Identified is the /api/ai-identify response, shaped like a notebook entry.
type Identified struct {
	Title       string   `json:"title"`
	Scientific  string   `json:"scientific"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	FunFact     string   `json:"fun_fact"`
	ImageURL    string   `json:"image_url"`
}

// Option configures a Service.
type Option func(*Service)

// WithArchive mirrors generated illustrations before they are stored.
func WithArchive(a Archiver) Option {
	return func(s *Service) { s.archive = a }
}

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock overrides time.Now for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service runs analyses.
type Service struct {
	vision  Identifier
	image   Illustrator
	results *ResultStore
	archive Archiver
	events  Publisher
	now     func() time.Time
	newID   func() string
}

// NewService wires a pipeline.
func NewService(vision Identifier, image Illustrator, results *ResultStore, opts ...Option) *Service {
	s := &Service{
		vision:  vision,
		image:   image,
		results: results,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Results exposes the backing store.
func (s *Service) Results() *ResultStore {
	return s.results
}

// Analyze identifies the species in image, paints it, and stores the result.
// Nothing is stored unless every step succeeds.
func (s *Service) Analyze(ctx context.Context, image []byte, mimeType string) (*Summary, error) {
	reply, err := s.vision.Describe(ctx, image, mimeType, identifyInstruction)
	if err != nil {
		return nil, fmt.Errorf("identify species: %w", err)
	}
	id, err := parser.ParseIdentification(reply)
	if err != nil {
		return nil, err
	}

	url, err := s.image.Generate(ctx, IllustrationPrompt(id.SpeciesName))
	if err != nil {
		return nil, fmt.Errorf("generate illustration: %w", err)
	}
	url = s.mirror(ctx, url)
	illustrations := []string{url}

	fragment, err := RenderFragment(id)
	if err != nil {
		return nil, err
	}

	analysisID := s.newID()
	s.results.Put(analysisID, models.AnalysisResult{
		SpeciesName:    id.SpeciesName,
		ScientificName: id.ScientificName,
		Description:    id.Description,
		Illustrations:  illustrations,
		Timestamp:      s.now().Format(time.RFC3339),
		FormattedHTML:  fragment,
	})

	slog.Info("analysis completed",
		slog.String("analysis_id", analysisID),
		slog.String("species", id.SpeciesName))
	if s.events != nil {
		s.events.Publish(sse.Event{Type: sse.AnalysisCompleted, Data: map[string]string{
			"analysis_id":  analysisID,
			"species_name": id.SpeciesName,
		}})
	}

	return &Summary{
		OutputHTML:        fragment,
		Illustrations:     illustrations,
		AnalysisID:        analysisID,
		DownloadAvailable: true,
	}, nil
}

// Identify is the lighter flow behind /api/ai-identify: nothing is stored,
// and the answer is shaped as a draft notebook entry.
func (s *Service) Identify(ctx context.Context, image []byte, mimeType string) (*Identified, error) {
	reply, err := s.vision.Describe(ctx, image, mimeType, quickIdentifyInstruction)
	if err != nil {
		return nil, fmt.Errorf("identify species: %w", err)
	}
	id, err := parser.ParseIdentification(reply)
	if err != nil {
		return nil, err
	}

	url, err := s.image.Generate(ctx, QuickIllustrationPrompt(id.SpeciesName))
	if err != nil {
		return nil, fmt.Errorf("generate illustration: %w", err)
	}

	return &Identified{
		Title:       id.SpeciesName,
		Scientific:  id.ScientificName,
		Description: id.Description,
		Tags:        []string{identifyTag},
		FunFact:     identifyFunFact,
		ImageURL:    s.mirror(ctx, url),
	}, nil
}

func (s *Service) mirror(ctx context.Context, url string) string {
	if s.archive == nil {
		return url
	}
	stored, err := s.archive.Store(ctx, url)
	if err != nil {
		slog.Warn("archive illustration failed, keeping original url",
			slog.String("url", url),
			slog.String("error", err.Error()))
		return url
	}
	return stored
}
