package html

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/fwojciec/csvstory"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #1f2933; }
.table { border-collapse: collapse; margin-bottom: 1rem; }
.table th, .table td { border: 1px solid #cbd2d9; padding: 0.25rem 0.5rem; }
.table-note { color: #7b8794; font-size: 0.9rem; }
.gallery { display: flex; flex-wrap: wrap; gap: 1rem; }
.gallery-item { max-width: 420px; }
.gallery-item img { max-width: 100%; }
.log-success { color: #2f8132; white-space: pre-wrap; }
.log-error { color: #b3261e; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">{{if .FileName}}Dataset: {{.FileName}} · {{end}}Generated {{.Generated}}</p>
{{range .Sections}}
<section id="{{.ID}}">
<h2>{{.Title}}</h2>
{{range .Panels}}
<div class="panel" id="{{.ID}}">
<h3>{{.Title}}</h3>
{{.Body}}
</div>
{{end}}
</section>
{{end}}
</body>
</html>
`))

type reportData struct {
	Title     string
	FileName  string
	Generated string
	Sections  []reportSection
}

type reportSection struct {
	ID     string
	Title  string
	Panels []reportPanel
}

type reportPanel struct {
	ID    string
	Title string
	Body  template.HTML
}

// WriteReport writes a standalone page holding every non-empty panel of s,
// grouped by section. Panel bodies must be fragments produced by Renderer.
func WriteReport(w io.Writer, s csvstory.State, generated time.Time) error {
	data := reportData{
		Title:     "CSV analysis report",
		FileName:  s.FileName,
		Generated: generated.Format(time.RFC1123),
	}
	for _, section := range csvstory.Navigation {
		panels := csvstory.SectionPanels[section]
		var rs reportSection
		for _, p := range panels {
			body := s.Panels[p]
			if body == "" {
				continue
			}
			rs.Panels = append(rs.Panels, reportPanel{
				ID:    string(p),
				Title: p.Title(),
				// Fragments are escaped by Renderer.
				Body: template.HTML(body),
			})
		}
		if len(rs.Panels) == 0 {
			continue
		}
		rs.ID = string(section)
		rs.Title = section.Title()
		data.Sections = append(data.Sections, rs)
	}

	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
