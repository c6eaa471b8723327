package http

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.New("pages").ParseFS(templateFS, "templates/*.html"))
