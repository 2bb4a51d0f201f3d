package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/starford/ecolog/internal/models"
)

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>EcoLog Species Report - {{.SpeciesName}}</title>
    <style>
        body { font-family: 'Arial', sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; line-height: 1.6; color: #333; }
        .header { background: linear-gradient(135deg, #7C9565, #ABBF9A); color: white; padding: 30px; border-radius: 10px; text-align: center; margin-bottom: 30px; }
        .header h1 { margin: 0; font-size: 2.5em; }
        .scientific-name { font-style: italic; font-size: 1.2em; margin-top: 10px; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 10px; margin-bottom: 20px; }
        .section { margin-bottom: 25px; }
        .section h2 { color: #4A5A3F; border-bottom: 2px solid #7C9565; padding-bottom: 5px; }
        .timestamp { text-align: center; color: #666; font-size: 0.9em; margin-top: 20px; }
        .footer { text-align: center; margin-top: 30px; color: #7C9565; font-weight: bold; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.SpeciesName}}</h1>
        <div class="scientific-name">{{.ScientificName}}</div>
    </div>

    <div class="content">
        <div class="section">
            <h2>Species Description</h2>
            <p>{{.Description}}</p>
        </div>

        <div class="section">
            <h2>Analysis Details</h2>
            <p><strong>Common Name:</strong> {{.SpeciesName}}</p>
            <p><strong>Scientific Name:</strong> <em>{{.ScientificName}}</em></p>
            <p><strong>Analysis Date:</strong> {{.AnalysisDate}}</p>
        </div>
    </div>

    <div class="timestamp">
        Generated by EcoLog - Nature Discovery App
    </div>

    <div class="footer">
        🌿 Discover. Document. Preserve. 🌿
    </div>
</body>
</html>
`))

type reportView struct {
	SpeciesName    string
	ScientificName string
	Description    string
	AnalysisDate   string
}

func renderReport(result models.AnalysisResult) ([]byte, error) {
	var buf bytes.Buffer
	err := reportTmpl.Execute(&buf, reportView{
		SpeciesName:    result.SpeciesName,
		ScientificName: result.ScientificName,
		Description:    result.Description,
		AnalysisDate:   FormatDate(result.Timestamp),
	})
	if err != nil {
		return nil, fmt.Errorf("export: render report: %w", err)
	}
	return buf.Bytes(), nil
}
