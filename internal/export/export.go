// Package export renders stored analyses as downloadable HTML, JSON and ZIP
// files.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/ecolog/internal/models"
)

const (
	generatedBy = "EcoLog Nature Discovery App"
	dateLayout  = "January 02, 2006 at 03:04 PM"
)

// Fetcher downloads an illustration.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// Artifact is a rendered download.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Exporter builds downloads for analysis results.
type Exporter struct {
	fetcher Fetcher
}

// New returns an Exporter that downloads illustrations with fetcher.
func New(fetcher Fetcher) *Exporter {
	return &Exporter{fetcher: fetcher}
}

type jsonReport struct {
	SpeciesName    string   `json:"species_name"`
	ScientificName string   `json:"scientific_name"`
	Description    string   `json:"description"`
	Illustrations  []string `json:"illustrations"`
	AnalysisDate   string   `json:"analysis_date"`
	GeneratedBy    string   `json:"generated_by"`
}

// zipData is the data file inside the archive; images travel as files there.
type zipData struct {
	SpeciesName    string `json:"species_name"`
	ScientificName string `json:"scientific_name"`
	Description    string `json:"description"`
	AnalysisDate   string `json:"analysis_date"`
	GeneratedBy    string `json:"generated_by"`
}

// JSON renders the analysis as an indented JSON document.
func (e *Exporter) JSON(result models.AnalysisResult) (Artifact, error) {
	illustrations := result.Illustrations
	if illustrations == nil {
		illustrations = []string{}
	}
	body, err := json.MarshalIndent(jsonReport{
		SpeciesName:    result.SpeciesName,
		ScientificName: result.ScientificName,
		Description:    result.Description,
		Illustrations:  illustrations,
		AnalysisDate:   result.Timestamp,
		GeneratedBy:    generatedBy,
	}, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("export: json: %w", err)
	}
	return Artifact{
		Filename:    SafeName(result.SpeciesName) + "_analysis.json",
		ContentType: "application/json",
		Body:        body,
	}, nil
}

// HTML renders the standalone report page.
func (e *Exporter) HTML(result models.AnalysisResult) (Artifact, error) {
	body, err := renderReport(result)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Filename:    SafeName(result.SpeciesName) + "_report.html",
		ContentType: "text/html; charset=utf-8",
		Body:        body,
	}, nil
}

// ZIP bundles the report, the data file and every illustration. An image
// that cannot be downloaded is replaced by a text note and the archive is
// still produced.
func (e *Exporter) ZIP(ctx context.Context, result models.AnalysisResult) (Artifact, error) {
	name := SafeName(result.SpeciesName)

	report, err := renderReport(result)
	if err != nil {
		return Artifact{}, err
	}
	data, err := json.MarshalIndent(zipData{
		SpeciesName:    result.SpeciesName,
		ScientificName: result.ScientificName,
		Description:    result.Description,
		AnalysisDate:   result.Timestamp,
		GeneratedBy:    generatedBy,
	}, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("export: zip data: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if err := writeEntry(zw, name+"_report.html", report); err != nil {
		return Artifact{}, err
	}
	if err := writeEntry(zw, name+"_data.json", data); err != nil {
		return Artifact{}, err
	}

	for i, url := range result.Illustrations {
		n := i + 1
		img, _, err := e.fetcher.Fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return Artifact{}, fmt.Errorf("export: zip: %w", ctx.Err())
			}
			slog.Warn("export: illustration download failed",
				slog.Int("index", n),
				slog.String("url", url),
				slog.String("error", err.Error()))
			note := fmt.Sprintf("Failed to download image: %v\nOriginal URL: %s", err, url)
			if err := writeEntry(zw, fmt.Sprintf("image_%d_download_error.txt", n), []byte(note)); err != nil {
				return Artifact{}, err
			}
			continue
		}
		if err := writeEntry(zw, fmt.Sprintf("%s_illustration_%d.png", name, n), img); err != nil {
			return Artifact{}, err
		}
	}

	if err := zw.Close(); err != nil {
		return Artifact{}, fmt.Errorf("export: zip close: %w", err)
	}
	return Artifact{
		Filename:    name + "_EcoLog_Analysis.zip",
		ContentType: "application/zip",
		Body:        buf.Bytes(),
	}, nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("export: zip entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("export: zip entry %s: %w", name, err)
	}
	return nil
}

// SafeName makes a species name usable as a file name and inside a quoted
// Content-Disposition header.
func SafeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '"' || r == ':' || r == '*' || r == '?' || r == '<' || r == '>' || r == '|':
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
	s = strings.Trim(s, ". ")
	if s == "" {
		return "analysis"
	}
	return s
}

// FormatDate renders an RFC 3339 timestamp for humans. Unparseable input is
// returned unchanged.
func FormatDate(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Format(dateLayout)
}
