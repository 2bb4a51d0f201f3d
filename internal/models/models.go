// Package models defines the domain types for EcoLog.
package models

import "encoding/json"

// Identification is the structured form of a vision service reply.
type Identification struct {
	SpeciesName    string `json:"species_name"`
	ScientificName string `json:"scientific_name"`
	Description    string `json:"description"`
}

// AnalysisResult is one completed identification + illustration run.
// It is immutable once stored.
type AnalysisResult struct {
	SpeciesName    string   `json:"species_name"`
	ScientificName string   `json:"scientific_name"`
	Description    string   `json:"description"`
	Illustrations  []string `json:"illustrations"`
	Timestamp      string   `json:"timestamp"`
	FormattedHTML  string   `json:"formatted_html"`
}

// Notebook is a user-defined named collection of entries.
type Notebook struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Image   string  `json:"image"`
	Entries []Entry `json:"entries"`
}

// Entry is one saved discovery inside a notebook.
type Entry struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Scientific  string   `json:"scientific"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	FunFact     string   `json:"fun_fact"`
	Notes       string   `json:"notes"`
	Author      string   `json:"author"`
	ImageURL    string   `json:"image_url"`
}

// Document is the persisted notebook document.
//
// Discoveries is kept opaque: nothing reads or writes it, but it is always
// present in the serialized form.
type Document struct {
	Notebooks   []Notebook        `json:"notebooks"`
	Discoveries []json.RawMessage `json:"discoveries"`
}

// NewDocument returns an empty document with both top-level arrays set.
func NewDocument() *Document {
	return &Document{
		Notebooks:   []Notebook{},
		Discoveries: []json.RawMessage{},
	}
}

// Normalize replaces nil slices so the document always serializes with
// empty arrays instead of null.
func (d *Document) Normalize() {
	if d.Notebooks == nil {
		d.Notebooks = []Notebook{}
	}
	if d.Discoveries == nil {
		d.Discoveries = []json.RawMessage{}
	}
	for i := range d.Notebooks {
		if d.Notebooks[i].Entries == nil {
			d.Notebooks[i].Entries = []Entry{}
		}
		for j := range d.Notebooks[i].Entries {
			if d.Notebooks[i].Entries[j].Tags == nil {
				d.Notebooks[i].Entries[j].Tags = []string{}
			}
		}
	}
}

// FindNotebook returns a pointer into d.Notebooks, or nil.
func (d *Document) FindNotebook(id string) *Notebook {
	for i := range d.Notebooks {
		if d.Notebooks[i].ID == id {
			return &d.Notebooks[i]
		}
	}
	return nil
}
