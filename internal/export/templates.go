package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"redline/api/internal/compare"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/report.html")
	if err != nil {
		// Fallback to built-in template if file not found
		reportTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	reportTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(string(templateContent)))
}

// TemplateData holds data for report template rendering
type TemplateData struct {
	Title        string
	BaselineHash string
	RevisedHash  string
	CreatedAt    time.Time
	Summary      []SummaryRow
	Changes      []TemplateChange
}

// SummaryRow is one category count in the report header
type SummaryRow struct {
	Category string
	Count    int
}

// TemplateChange holds one change record for the template
type TemplateChange struct {
	SectionNumber string
	SectionTitle  string
	Category      string
	Justification string
	RedlineType   string
	RedlineHTML   template.HTML
}

// RenderReportHTML renders the report template with provided data
func RenderReportHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// segmentsHTML builds inline redline markup from diff segments. Deleted
// text becomes <del>, added text <ins>; all segment text is escaped first.
func segmentsHTML(segments []compare.Segment) template.HTML {
	var b strings.Builder
	for _, seg := range segments {
		escaped := template.HTMLEscapeString(seg.Text)
		switch seg.Kind {
		case compare.SegmentDeleted:
			b.WriteString("<del>")
			b.WriteString(escaped)
			b.WriteString("</del>")
		case compare.SegmentAdded:
			b.WriteString("<ins>")
			b.WriteString(escaped)
			b.WriteString("</ins>")
		default:
			b.WriteString(escaped)
		}
	}
	return template.HTML(b.String())
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .change { margin: 1.5rem 0; padding: 1rem; border-left: 3px solid #333; }
    .category { font-weight: bold; text-transform: uppercase; font-size: 0.85em; }
    del { color: #b00020; }
    ins { color: #1b5e20; font-weight: bold; text-decoration: none; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">{{.BaselineHash}} → {{.RevisedHash}} | {{.CreatedAt.Format "Jan 2, 2006"}}</div>
  {{range .Summary}}<span class="category">{{.Category}}: {{.Count}}</span> {{end}}
  {{range .Changes}}
  <div class="change">
    <div class="category">{{.Category}} | {{.RedlineType}}</div>
    <h3>{{.SectionNumber}} {{.SectionTitle}}</h3>
    <p><em>{{.Justification}}</em></p>
    <div>{{.RedlineHTML}}</div>
  </div>
  {{end}}
</body>
</html>`
