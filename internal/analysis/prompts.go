package analysis

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/starford/ecolog/internal/models"
)

const (
	identifyInstruction = "Identify the species in this photo. Respond with the name of the species and store {species_name}, " +
		"its scientific name and store {scientific_name}, and a brief description of the species {description}. " +
		"Respond in the following format: {species_name}, {scientific_name}, {description}."

	quickIdentifyInstruction = "Identify the species. Respond with: {name}, {scientific_name}, {description}."

	// identifyTag and identifyFunFact are fixed values for quick identifications.
	identifyTag     = "AI-generated"
	identifyFunFact = "This species is being studied for its ecological value."
)

// IllustrationPrompt is the image prompt for the full analysis.
func IllustrationPrompt(speciesName string) string {
	return fmt.Sprintf("Japanese watercolor painting of %s, soft and flowing brushstrokes, clean white background, no labels.", speciesName)
}

// QuickIllustrationPrompt is the image prompt for quick identifications.
func QuickIllustrationPrompt(name string) string {
	return fmt.Sprintf("Japanese watercolor painting of %s, soft brushstrokes, white background", name)
}

var fragmentTmpl = template.Must(template.New("fragment").Parse(`
<h2>Species Name</h2>
<p>{{.SpeciesName}}</p>
<br>
<h2>Scientific Name</h2>
<p><em>{{.ScientificName}}</em></p>
<br>
<h2>Description</h2>
<p>{{.Description}}</p>
`))

// RenderFragment renders the display fragment returned by /analyze.
func RenderFragment(id models.Identification) (string, error) {
	var buf bytes.Buffer
	if err := fragmentTmpl.Execute(&buf, id); err != nil {
		return "", fmt.Errorf("render fragment: %w", err)
	}
	return buf.String(), nil
}
