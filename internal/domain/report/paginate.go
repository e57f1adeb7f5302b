package report

import "github.com/FawziYas/osce-project/pkg/metrics"

// Element kinds in flattened layout order.
const (
	elemSectionHeader = "section-header"
	elemColumnHeader  = "column-header"
	elemCard          = "card"
	elemRow           = "row"
)

// Layout unit heights for non-row elements.
const (
	sectionHeaderHeight = 2
	columnHeaderHeight  = 1
	cardHeight          = 1
)

// Element is one atomic vertical slice of the document. Elements are
// never split across pages.
type Element struct {
	Kind   string
	Height int
	Title  string
	Cells  []string
}

// Page is one fixed-height page of flattened elements.
type Page struct {
	Number   int
	Elements []Element
}

// flatten lowers the document into paint order: per section, the header,
// cards, the column header, then rows.
func flatten(doc Document) []Element {
	var out []Element
	for _, sec := range doc.Sections {
		out = append(out, Element{Kind: elemSectionHeader, Height: sectionHeaderHeight, Title: sec.Title})
		for _, c := range sec.Cards {
			out = append(out, Element{Kind: elemCard, Height: cardHeight, Cells: []string{c.Title, c.Value}})
		}
		if sec.Table != nil {
			out = append(out, Element{Kind: elemColumnHeader, Height: columnHeaderHeight, Cells: sec.Table.Columns})
			for _, r := range sec.Table.Rows {
				h := r.Height
				if h < 1 {
					h = 1
				}
				out = append(out, Element{Kind: elemRow, Height: h, Cells: r.Cells})
			}
		}
	}
	return out
}

// Paginate flows the document onto fixed-height pages. Remaining
// vertical space is checked before emitting each element, so a row or
// header that would overflow moves wholly to the next page instead of
// splitting. A section header additionally stays with the element that
// follows it, so no page ends on a bare header.
func Paginate(doc Document, pageHeight int) []Page {
	if pageHeight < sectionHeaderHeight+1 {
		pageHeight = sectionHeaderHeight + 1
	}

	elements := flatten(doc)
	var pages []Page
	current := Page{Number: 1}
	remaining := pageHeight

	flush := func() {
		pages = append(pages, current)
		current = Page{Number: len(pages) + 1}
		remaining = pageHeight
	}

	for i, el := range elements {
		needed := el.Height
		if el.Kind == elemSectionHeader && i+1 < len(elements) {
			needed += elements[i+1].Height
		}
		if needed > remaining && len(current.Elements) > 0 {
			flush()
		}
		current.Elements = append(current.Elements, el)
		remaining -= el.Height
	}
	if len(current.Elements) > 0 {
		pages = append(pages, current)
	}

	metrics.RecordReportPages(len(pages))
	return pages
}
