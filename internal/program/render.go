package program

import "strings"

// Status fragments shown in place of the card grid.
const (
	LoadingHTML = `<p class="status-message">Loading programs…</p>`
	EmptyHTML   = `<p class="status-message">No programs found.</p>`
	FailedHTML  = `<p class="status-message error">Failed to load programs. Please refresh the page.</p>`
	NoMatchHTML = `<div style="grid-column: 1 / -1; text-align: center; padding: 40px 20px;">` +
		`<p class="status-message">No programs match your filters. Try adjusting your selection.</p>` +
		`</div>`
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape replaces the five HTML-significant characters with entities.
// Every piece of record text passes through here before it reaches markup.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// RenderList renders programs in order, or the no-match message when empty.
func RenderList(programs []Program) string {
	if len(programs) == 0 {
		return NoMatchHTML
	}
	var b strings.Builder
	for _, p := range programs {
		writeCard(&b, p)
	}
	return b.String()
}

// RenderCard renders one program card.
func RenderCard(p Program) string {
	var b strings.Builder
	writeCard(&b, p)
	return b.String()
}

func writeCard(b *strings.Builder, p Program) {
	difficulty := p.DisplayDifficulty()
	color := AccentColor(difficulty)

	b.WriteString(`<div class="program-card">`)
	b.WriteString(`<div class="card-accent" style="background: ` + color + `;"></div>`)
	b.WriteString(`<div class="card-content">`)
	b.WriteString(`<h4 class="card-title">` + Escape(p.DisplayName()) + `</h4>`)
	b.WriteString(`<p class="card-desc">` + Escape(p.DisplayDescription()) + `</p>`)

	b.WriteString(`<div class="card-meta-grid">`)
	b.WriteString(`<div><i class="fas fa-calendar-alt"></i> <strong>Timeline:</strong> ` + Escape(p.DisplayTimeline()) + `</div>`)
	b.WriteString(`<div><i class="fas fa-layer-group"></i> <strong>Level:</strong> <span style="color:` + color + `; font-weight:600;">` + Escape(difficulty) + `</span></div>`)
	b.WriteString(`<div><i class="fas fa-dollar-sign"></i> <strong>Stipend:</strong> ` + Escape(p.DisplayStipend()) + `</div>`)
	b.WriteString(`</div>`)

	if len(p.Skills) > 0 {
		b.WriteString(`<div class="card-skills">`)
		for _, s := range p.Skills {
			b.WriteString(`<span class="skill-tag">` + Escape(s) + `</span>`)
		}
		b.WriteString(`</div>`)
	}

	b.WriteString(`<div class="card-stats">`)
	b.WriteString(`<span><i class="fas fa-users"></i> ` + formatNumber(p.Contributors) + ` contributors</span>`)
	b.WriteString(`<span><i class="fas fa-building"></i> ` + formatNumber(p.Organizations) + ` orgs</span>`)
	b.WriteString(`<span><i class="fas fa-exclamation-circle"></i> ` + formatNumber(p.Issues) + ` issues</span>`)
	b.WriteString(`</div>`)

	if p.URL != "" {
		b.WriteString(`<a href="` + Escape(p.URL) + `" target="_blank" rel="noopener noreferrer" class="card-link">`)
		b.WriteString(`Visit Official Website <i class="fas fa-arrow-up-right-from-square"></i></a>`)
	}

	b.WriteString(`</div></div>`)
}
