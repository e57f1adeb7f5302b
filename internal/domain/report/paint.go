package report

import (
	"regexp"

	"github.com/FawziYas/osce-project/internal/domain/arabic"
	"github.com/FawziYas/osce-project/pkg/metrics"
)

// rtlPattern is the cheap pre-check that decides whether a cell needs
// the shaper at all. Purely-Latin cells skip the segmentation scan.
var rtlPattern = regexp.MustCompile(`[\x{0600}-\x{06FF}\x{0750}-\x{077F}\x{08A0}-\x{08FF}\x{FB50}-\x{FDFF}\x{FE70}-\x{FEFF}]`)

// Op kinds of the paint program.
const (
	OpText      = "text"
	OpRule      = "rule"
	OpPageBreak = "page-break"
)

// PaintOp is one instruction for a naive left-to-right canvas painter.
// Text is already in paint order; the painter does no reordering or
// shaping of its own.
type PaintOp struct {
	Kind string
	X    int
	Y    int
	Text string
	Bold bool
}

// PaintBackend renders paginated pages into a paint program, routing
// right-to-left cells through the bidi shaper.
type PaintBackend struct {
	PageHeight int
	CellWidth  int
}

// NewPaintBackend creates a paint backend with the given page height in
// layout units.
func NewPaintBackend(pageHeight int) *PaintBackend {
	return &PaintBackend{PageHeight: pageHeight, CellWidth: 24}
}

// Render paginates the document and lowers each page into ops.
func (b *PaintBackend) Render(doc Document) []PaintOp {
	pages := Paginate(doc, b.PageHeight)

	var ops []PaintOp
	for pi, page := range pages {
		if pi > 0 {
			ops = append(ops, PaintOp{Kind: OpPageBreak})
		}
		y := 0
		for _, el := range page.Elements {
			switch el.Kind {
			case elemSectionHeader:
				ops = append(ops, PaintOp{Kind: OpText, X: 0, Y: y, Text: b.paintText(el.Title), Bold: true})
				ops = append(ops, PaintOp{Kind: OpRule, X: 0, Y: y + 1})
			case elemColumnHeader:
				ops = append(ops, b.rowOps(el.Cells, y, true)...)
			case elemCard, elemRow:
				ops = append(ops, b.rowOps(el.Cells, y, false)...)
			}
			y += el.Height
		}
	}
	return ops
}

func (b *PaintBackend) rowOps(cells []string, y int, bold bool) []PaintOp {
	ops := make([]PaintOp, 0, len(cells))
	for i, cell := range cells {
		ops = append(ops, PaintOp{
			Kind: OpText,
			X:    i * b.CellWidth,
			Y:    y,
			Text: b.paintText(cell),
			Bold: bold,
		})
	}
	return ops
}

// paintText shapes cells containing right-to-left script; everything
// else bypasses the shaper entirely.
func (b *PaintBackend) paintText(s string) string {
	if !rtlPattern.MatchString(s) {
		return s
	}
	metrics.RecordShapedString()
	shaped := arabic.Shape(s)
	if shaped == "" && s != "" {
		// A bad name must not blank the report; paint it unshaped.
		return s
	}
	return shaped
}
