// Package parser extracts structured species fields from the free-text reply
// of the vision service.
package parser

import (
	"fmt"
	"strings"

	"github.com/starford/ecolog/internal/apperr"
	"github.com/starford/ecolog/internal/models"
)

// Delimiter separates species name, scientific name and description in the
// reply. Only the first two occurrences split; later ones belong to the
// description.
const Delimiter = ", "

const segments = 3

// ParseIdentification splits a reply of the form
// "{species_name}, {scientific_name}, {description}".
//
// Missing trailing segments degrade to empty strings. An empty reply is an
// apperr.ErrParse because there is no species name to continue with.
func ParseIdentification(text string) (models.Identification, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Identification{}, fmt.Errorf("parser: empty identification reply: %w", apperr.ErrParse)
	}

	parts := strings.SplitN(text, Delimiter, segments)
	for len(parts) < segments {
		parts = append(parts, "")
	}

	id := models.Identification{
		SpeciesName:    cleanSegment(parts[0]),
		ScientificName: cleanSegment(strings.TrimSuffix(strings.TrimSpace(parts[1]), ".")),
		Description:    cleanSegment(parts[2]),
	}
	if id.SpeciesName == "" {
		return models.Identification{}, fmt.Errorf("parser: no species name in %q: %w", text, apperr.ErrParse)
	}
	return id, nil
}

// cleanSegment trims whitespace and Markdown emphasis markers models like to
// wrap names in.
func cleanSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_")
	return strings.TrimSpace(s)
}
