// internal/app/features/battleplans/templates.go
package battleplans

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "battleplans",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
