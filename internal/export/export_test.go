package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/ecolog/internal/imagefetch"
	"github.com/starford/ecolog/internal/models"
)

func sampleResult(illustrations ...string) models.AnalysisResult {
	return models.AnalysisResult{
		SpeciesName:    "Red Fox",
		ScientificName: "Vulpes vulpes",
		Description:    "A small omnivorous canid.",
		Illustrations:  illustrations,
		Timestamp:      "2025-03-14T15:09:26Z",
	}
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ok.png" {
			http.Error(w, "gone", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("PNGDATA"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func readZip(t *testing.T, body []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func TestJSON(t *testing.T) {
	e := New(imagefetch.New(time.Second))
	art, err := e.JSON(sampleResult("https://img.example/1.png"))
	if err != nil {
		t.Fatal(err)
	}
	if art.Filename != "Red Fox_analysis.json" || art.ContentType != "application/json" {
		t.Errorf("artifact = %q %q", art.Filename, art.ContentType)
	}

	var got map[string]any
	if err := json.Unmarshal(art.Body, &got); err != nil {
		t.Fatal(err)
	}
	if got["species_name"] != "Red Fox" || got["analysis_date"] != "2025-03-14T15:09:26Z" {
		t.Errorf("body = %v", got)
	}
	if got["generated_by"] != "EcoLog Nature Discovery App" {
		t.Errorf("generated_by = %v", got["generated_by"])
	}
	if ills, ok := got["illustrations"].([]any); !ok || len(ills) != 1 {
		t.Errorf("illustrations = %v", got["illustrations"])
	}
	if !strings.Contains(string(art.Body), "\n  \"species_name\"") {
		t.Error("expected indented JSON")
	}
}

func TestHTML(t *testing.T) {
	e := New(imagefetch.New(time.Second))
	art, err := e.HTML(sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	if art.Filename != "Red Fox_report.html" {
		t.Errorf("filename = %q", art.Filename)
	}
	body := string(art.Body)
	for _, want := range []string{
		"<title>EcoLog Species Report - Red Fox</title>",
		"<em>Vulpes vulpes</em>",
		"A small omnivorous canid.",
		"March 14, 2025 at 03:09 PM",
		"Generated by EcoLog - Nature Discovery App",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestZIP(t *testing.T) {
	srv := imageServer(t)
	e := New(imagefetch.New(time.Second))

	art, err := e.ZIP(context.Background(), sampleResult(srv.URL+"/ok.png", srv.URL+"/expired.png"))
	if err != nil {
		t.Fatalf("ZIP: %v", err)
	}
	if art.Filename != "Red Fox_EcoLog_Analysis.zip" || art.ContentType != "application/zip" {
		t.Errorf("artifact = %q %q", art.Filename, art.ContentType)
	}

	files := readZip(t, art.Body)
	if len(files) != 4 {
		t.Errorf("entries = %d, want 4: %v", len(files), keys(files))
	}
	if !strings.Contains(files["Red Fox_report.html"], "Red Fox") {
		t.Error("missing report")
	}
	if files["Red Fox_illustration_1.png"] != "PNGDATA" {
		t.Errorf("illustration 1 = %q", files["Red Fox_illustration_1.png"])
	}

	note, ok := files["image_2_download_error.txt"]
	if !ok {
		t.Fatalf("missing error note: %v", keys(files))
	}
	if !strings.HasPrefix(note, "Failed to download image: ") || !strings.HasSuffix(note, "\nOriginal URL: "+srv.URL+"/expired.png") {
		t.Errorf("note = %q", note)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(files["Red Fox_data.json"]), &data); err != nil {
		t.Fatal(err)
	}
	if _, ok := data["illustrations"]; ok {
		t.Error("zip data file should not list illustrations")
	}
	if data["scientific_name"] != "Vulpes vulpes" {
		t.Errorf("data = %v", data)
	}
}

func TestZIP_NoIllustrations(t *testing.T) {
	e := New(imagefetch.New(time.Second))
	art, err := e.ZIP(context.Background(), sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	if files := readZip(t, art.Body); len(files) != 2 {
		t.Errorf("entries = %v, want report and data only", keys(files))
	}
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"Red Fox":           "Red Fox",
		"../../etc/passwd":  "_.._etc_passwd",
		`Fox "the" Red`:     "Fox _the_ Red",
		"Line\nBreak":       "LineBreak",
		"":                  "analysis",
		"  ":                "analysis",
		`a\b`:               "a_b",
	}
	for in, want := range tests {
		if got := SafeName(in); got != want {
			t.Errorf("SafeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate("2025-01-05T09:30:00+02:00"); got != "January 05, 2025 at 09:30 AM" {
		t.Errorf("got %q", got)
	}
	if got := FormatDate("not a date"); got != "not a date" {
		t.Errorf("got %q", got)
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
