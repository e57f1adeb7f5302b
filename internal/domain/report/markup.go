package report

import (
	"html"
	"strings"

	"golang.org/x/text/unicode/bidi"
)

// MarkupBackend renders the document as a structured markup tree for a
// browser-rendered target. The host engine performs its own bidi layout
// and glyph shaping, so no local shaping happens here; cells only carry
// a dir attribute derived from their base direction.
type MarkupBackend struct{}

// NewMarkupBackend creates a markup backend.
func NewMarkupBackend() *MarkupBackend {
	return &MarkupBackend{}
}

// Render emits the whole document as markup. Pagination is left to the
// host (print CSS); sections map to one node each.
func (b *MarkupBackend) Render(doc Document) string {
	var sb strings.Builder
	sb.WriteString(`<div class="report">` + "\n")
	sb.WriteString(`  <h1>` + html.EscapeString(doc.Title) + "</h1>\n")
	for _, sec := range doc.Sections {
		b.renderSection(&sb, sec)
	}
	sb.WriteString("</div>\n")
	return sb.String()
}

func (b *MarkupBackend) renderSection(sb *strings.Builder, sec Section) {
	sb.WriteString(`  <section>` + "\n")
	sb.WriteString(`    <h2` + dirAttr(sec.Title) + `>` + html.EscapeString(sec.Title) + "</h2>\n")

	if len(sec.Cards) > 0 {
		sb.WriteString(`    <div class="cards">` + "\n")
		for _, c := range sec.Cards {
			sb.WriteString(`      <div class="card"><span>` + html.EscapeString(c.Title) +
				`</span><strong` + dirAttr(c.Value) + `>` + html.EscapeString(c.Value) + "</strong></div>\n")
		}
		sb.WriteString("    </div>\n")
	}

	if sec.Table != nil {
		sb.WriteString("    <table>\n      <tr>")
		for _, col := range sec.Table.Columns {
			sb.WriteString(`<th>` + html.EscapeString(col) + `</th>`)
		}
		sb.WriteString("</tr>\n")
		for _, row := range sec.Table.Rows {
			sb.WriteString("      <tr>")
			for _, cell := range row.Cells {
				sb.WriteString(`<td` + dirAttr(cell) + `>` + html.EscapeString(cell) + `</td>`)
			}
			sb.WriteString("</tr>\n")
		}
		sb.WriteString("    </table>\n")
	}
	sb.WriteString("  </section>\n")
}

// dirAttr returns a dir attribute for cells whose base direction is
// right-to-left, and nothing for everything else.
func dirAttr(s string) string {
	if s == "" {
		return ""
	}
	var p bidi.Paragraph
	if _, err := p.SetString(s); err != nil {
		return ""
	}
	if p.IsLeftToRight() {
		return ""
	}
	return ` dir="rtl"`
}
