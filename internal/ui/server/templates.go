package server

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed assets/styles.css
var assetFS embed.FS

// loadTemplates parses the embedded page templates. It returns a map keyed by
// view name ("loading", "error", "main").
func loadTemplates() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"percent": func(n int) string { return fmt.Sprintf("%d%%", n) },
	}

	views := map[string][]string{
		"loading": {"templates/base.tmpl", "templates/loading.tmpl"},
		"error":   {"templates/base.tmpl", "templates/error.tmpl"},
		"main": {
			"templates/base.tmpl",
			"templates/main.tmpl",
			"templates/navbar.tmpl",
			"templates/application_form.tmpl",
			"templates/board.tmpl",
		},
	}

	templates := make(map[string]*template.Template, len(views))
	for name, files := range views {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s templates: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}
