package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/ecolog/internal/apperr"
	"github.com/starford/ecolog/internal/models"
	"github.com/starford/ecolog/internal/sse"
	"github.com/starford/ecolog/internal/testutil"
)

type recordingPublisher struct {
	events []sse.Event
}

func (p *recordingPublisher) Publish(e sse.Event) { p.events = append(p.events, e) }

type stubArchive struct {
	url string
	err error
}

func (a stubArchive) Store(context.Context, string) (string, error) { return a.url, a.err }

var fixedNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func newService(vision *testutil.FakeVision, image *testutil.FakeImage, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(vision, image, NewResultStore(), opts...)
}

func TestAnalyze(t *testing.T) {
	vision := &testutil.FakeVision{Reply: "Red Fox, Vulpes vulpes, A small omnivorous canid, common in Europe."}
	image := &testutil.FakeImage{URL: "https://img.example/fox.png"}
	pub := &recordingPublisher{}
	svc := newService(vision, image, WithPublisher(pub))

	sum, err := svc.Analyze(context.Background(), []byte("jpeg"), "image/jpeg")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !sum.DownloadAvailable || sum.AnalysisID == "" {
		t.Fatalf("summary = %+v", sum)
	}
	if len(sum.Illustrations) != 1 || sum.Illustrations[0] != "https://img.example/fox.png" {
		t.Errorf("illustrations = %v", sum.Illustrations)
	}
	for _, want := range []string{"<p>Red Fox</p>", "<em>Vulpes vulpes</em>", "A small omnivorous canid, common in Europe."} {
		if !strings.Contains(sum.OutputHTML, want) {
			t.Errorf("output_html missing %q:\n%s", want, sum.OutputHTML)
		}
	}

	if got := vision.Instructions(); len(got) != 1 || !strings.Contains(got[0], "{species_name}, {scientific_name}, {description}") {
		t.Errorf("instruction = %v", got)
	}
	want := "Japanese watercolor painting of Red Fox, soft and flowing brushstrokes, clean white background, no labels."
	if got := image.Prompts(); len(got) != 1 || got[0] != want {
		t.Errorf("prompts = %v", got)
	}

	res, err := svc.Results().Get(sum.AnalysisID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res.SpeciesName != "Red Fox" || res.ScientificName != "Vulpes vulpes" {
		t.Errorf("stored = %+v", res)
	}
	if res.Timestamp != "2025-03-14T15:09:26Z" {
		t.Errorf("timestamp = %q", res.Timestamp)
	}
	if res.FormattedHTML != sum.OutputHTML {
		t.Error("stored fragment differs from response")
	}

	if len(pub.events) != 1 || pub.events[0].Type != sse.AnalysisCompleted {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestAnalyze_FreshIDs(t *testing.T) {
	svc := newService(&testutil.FakeVision{Reply: "Barn Owl, Tyto alba, Owl."}, &testutil.FakeImage{URL: "u"})

	a, err := svc.Analyze(context.Background(), []byte("x"), "image/png")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Analyze(context.Background(), []byte("x"), "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if a.AnalysisID == b.AnalysisID {
		t.Fatal("analysis ids should differ")
	}
	if svc.Results().Len() != 2 {
		t.Errorf("Len = %d, want 2", svc.Results().Len())
	}
}

func TestAnalyze_ShortReplyDegrades(t *testing.T) {
	svc := newService(&testutil.FakeVision{Reply: "Monarch Butterfly"}, &testutil.FakeImage{URL: "u"})

	sum, err := svc.Analyze(context.Background(), []byte("x"), "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	res, _ := svc.Results().Get(sum.AnalysisID)
	if res.SpeciesName != "Monarch Butterfly" || res.ScientificName != "" || res.Description != "" {
		t.Errorf("stored = %+v", res)
	}
}

func TestAnalyze_FailuresStoreNothing(t *testing.T) {
	tests := []struct {
		name   string
		vision *testutil.FakeVision
		image  *testutil.FakeImage
		wantIs error
	}{
		{
			name:   "vision fails",
			vision: &testutil.FakeVision{Err: apperr.ErrUpstream},
			image:  &testutil.FakeImage{URL: "u"},
			wantIs: apperr.ErrUpstream,
		},
		{
			name:   "empty reply",
			vision: &testutil.FakeVision{Reply: "   "},
			image:  &testutil.FakeImage{URL: "u"},
			wantIs: apperr.ErrParse,
		},
		{
			name:   "image fails",
			vision: &testutil.FakeVision{Reply: "Red Fox, Vulpes vulpes, Fox."},
			image:  &testutil.FakeImage{Err: apperr.ErrUpstream},
			wantIs: apperr.ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			svc := newService(tt.vision, tt.image, WithPublisher(pub))

			_, err := svc.Analyze(context.Background(), []byte("x"), "image/jpeg")
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("err = %v, want %v", err, tt.wantIs)
			}
			if svc.Results().Len() != 0 {
				t.Error("failed analysis must not be stored")
			}
			if len(pub.events) != 0 {
				t.Error("failed analysis must not publish")
			}
		})
	}
}

func TestAnalyze_Archive(t *testing.T) {
	image := &testutil.FakeImage{URL: "https://provider.example/tmp.png"}

	svc := newService(&testutil.FakeVision{Reply: "Red Fox, Vulpes vulpes, Fox."}, image,
		WithArchive(stubArchive{url: "http://minio.local/ecolog/illustrations/1.png"}))
	sum, err := svc.Analyze(context.Background(), []byte("x"), "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Illustrations[0] != "http://minio.local/ecolog/illustrations/1.png" {
		t.Errorf("illustration = %q, want archived url", sum.Illustrations[0])
	}

	svc = newService(&testutil.FakeVision{Reply: "Red Fox, Vulpes vulpes, Fox."}, image,
		WithArchive(stubArchive{err: errors.New("bucket unreachable")}))
	sum, err = svc.Analyze(context.Background(), []byte("x"), "image/jpeg")
	if err != nil {
		t.Fatalf("archive failure must not fail the analysis: %v", err)
	}
	if sum.Illustrations[0] != "https://provider.example/tmp.png" {
		t.Errorf("illustration = %q, want original url", sum.Illustrations[0])
	}
}

func TestAnalyze_EscapesFragment(t *testing.T) {
	svc := newService(&testutil.FakeVision{Reply: "<b>Fox</b>, Vulpes, Fox & friends."}, &testutil.FakeImage{URL: "u"})
	sum, err := svc.Analyze(context.Background(), []byte("x"), "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(sum.OutputHTML, "<b>") {
		t.Errorf("markup not escaped: %s", sum.OutputHTML)
	}
	if !strings.Contains(sum.OutputHTML, "Fox &amp; friends.") {
		t.Errorf("ampersand not escaped: %s", sum.OutputHTML)
	}
}

func TestIdentify(t *testing.T) {
	vision := &testutil.FakeVision{Reply: "Barn Owl, Tyto alba, A pale nocturnal owl."}
	image := &testutil.FakeImage{URL: "https://img.example/owl.png"}
	svc := newService(vision, image)

	got, err := svc.Identify(context.Background(), []byte("x"), "image/jpeg")
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got.Title != "Barn Owl" || got.Scientific != "Tyto alba" || got.Description != "A pale nocturnal owl." {
		t.Errorf("identified = %+v", got)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "AI-generated" {
		t.Errorf("tags = %v", got.Tags)
	}
	if got.FunFact != "This species is being studied for its ecological value." {
		t.Errorf("fun_fact = %q", got.FunFact)
	}
	if got.ImageURL != "https://img.example/owl.png" {
		t.Errorf("image_url = %q", got.ImageURL)
	}
	if p := image.Prompts(); len(p) != 1 || p[0] != "Japanese watercolor painting of Barn Owl, soft brushstrokes, white background" {
		t.Errorf("prompts = %v", p)
	}
	if svc.Results().Len() != 0 {
		t.Error("identify must not store results")
	}
}

func TestResultStore(t *testing.T) {
	s := NewResultStore()
	if _, err := s.Get("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	s.Put("a", models.AnalysisResult{SpeciesName: "Red Fox"})
	s.Put("a", models.AnalysisResult{SpeciesName: "Grey Wolf"})
	got, err := s.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if got.SpeciesName != "Grey Wolf" || s.Len() != 1 {
		t.Errorf("got %+v len %d, want overwrite", got, s.Len())
	}
}
