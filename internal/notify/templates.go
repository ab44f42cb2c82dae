// internal/notify/templates.go
//
// Embedded e-mail templates.

package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/intake"
)

//go:embed templates/*.html
var templateFS embed.FS

type templateData struct {
	Sub         *intake.Submission
	Business    string
	SiteURL     string
	Phone       string
	SpravatoURL string
}

var funcs = template.FuncMap{
	"join": func(list []string) string {
		if len(list) == 0 {
			return "Not provided"
		}
		return strings.Join(list, ", ")
	},
	"stamp": func(t time.Time) string { return t.UTC().Format("Jan 2, 2006 3:04 PM MST") },
}

var (
	practiceTmpl     = template.Must(template.New("practice.html").Funcs(funcs).ParseFS(templateFS, "templates/practice.html"))
	confirmationTmpl = template.Must(template.New("confirmation.html").Funcs(funcs).ParseFS(templateFS, "templates/confirmation.html"))
)

func render(t *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
