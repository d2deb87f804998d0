package plotpage

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"sync"
)

//go:embed templates/*.html
var templateFS embed.FS

// layouts holds page.html, section.html and message.html, parsed on first use.
var layouts = sync.OnceValues(func() (*template.Template, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("plotpage layouts: %w", err)
	}

	return tmpl, nil
})

func renderTemplate(name string, data any) (template.HTML, error) {
	tmpl, err := layouts()
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	err = tmpl.ExecuteTemplate(&sb, name, data)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}

	return template.HTML(sb.String()), nil //nolint:gosec // html/template output.
}

// pageData fills page.html: the heading, the theme palette and the sections.
type pageData struct {
	Title       string
	Description string
	Theme       ThemeConfig
	ExtraCSS    template.CSS
	Content     template.HTML
}

// sectionData fills section.html for one chart or message.
type sectionData struct {
	Title    string
	Subtitle string
	Chart    template.HTML
}

type messageData struct {
	Text string
}
