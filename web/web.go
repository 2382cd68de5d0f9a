// Package web holds the server-rendered page templates.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"natours/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"capitalize": func(v any) string {
		return utils.Capitalize(fmt.Sprint(v))
	},
	"monthYear": func(t time.Time) string {
		return t.Format("January 2006")
	},
	"firstWord": func(s string) string {
		if i := strings.IndexByte(s, ' '); i > 0 {
			return s[:i]
		}
		return s
	},
	"stars": func(rating float64) []bool {
		out := make([]bool, 5)
		for i := range out {
			out[i] = float64(i+1) <= rating
		}
		return out
	},
}

// Templates parses every page and partial.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}
