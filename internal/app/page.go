package app

import (
	"embed"
	"html/template"
	"strings"

	"github.com/garyellow/programs-board/internal/program"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type option struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	Grid       template.HTML
	Difficulty []option
	Stipend    []option
	Sort       []option
}

func options(selected string, pairs ...string) []option {
	opts := make([]option, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		opts = append(opts, option{
			Value:    pairs[i],
			Label:    pairs[i+1],
			Selected: strings.EqualFold(pairs[i], selected),
		})
	}
	return opts
}

// newPageData builds the template input. grid must already be escaped
// markup produced by the program renderer.
func newPageData(f program.Filter, grid string) pageData {
	return pageData{
		//nolint:gosec // grid is built by program.RenderList, which escapes all record text
		Grid: template.HTML(grid),
		Difficulty: options(f.Difficulty,
			"", "All levels",
			"Beginner", "Beginner",
			"Intermediate", "Intermediate",
			"Advanced", "Advanced",
		),
		Stipend: options(f.Stipend.String(),
			"", "Any",
			"yes", "Paid",
			"no", "Unpaid",
		),
		Sort: options(f.Sort.String(),
			"name", "Name",
			"contributors", "Contributors",
		),
	}
}
