// Package arabic converts logical-order mixed-script strings into
// visually ordered, contextually shaped strings that paint correctly on
// a naive left-to-right glyph painter with no layout engine of its own.
//
// Shaping is a pure function of the input. Re-shaping already-shaped
// presentation-form output is unsupported: presentation forms are not in
// the join table and will pass through untouched while their neighbors
// reshape around them.
package arabic

import (
	"strings"
	"unicode/utf8"
)

// Shape converts s from logical order to paint order, substituting
// contextual presentation forms for Arabic letters. The empty string and
// malformed UTF-8 yield the empty string; Shape never fails.
func Shape(s string) string {
	if s == "" || !utf8.ValidString(s) {
		return ""
	}

	segments := segment(s)
	for i, seg := range segments {
		if seg.arabic {
			segments[i].text = shapeSegment(seg.text)
		}
	}

	// Paragraph-level RTL: the segment painted first is the logical
	// last, so a trailing Latin suffix becomes a leading visual prefix.
	var b strings.Builder
	b.Grow(len(s))
	for i := len(segments) - 1; i >= 0; i-- {
		b.WriteString(segments[i].text)
	}
	return b.String()
}

// run is a maximal same-script slice of the input, in logical order.
type run struct {
	text   string
	arabic bool
}

// segment splits s into maximal Arabic / non-Arabic runs. A space
// belongs to the Arabic run around it only when Arabic letters flank it
// on both sides; otherwise it stays with the surrounding text. That
// keeps multi-word Arabic names in one run for word-order reversal while
// leaving "Dr. " intact as a single Latin run.
func segment(s string) []run {
	rs := []rune(s)
	classes := make([]bool, len(rs))
	for i, r := range rs {
		classes[i] = isArabic(r)
	}
	for i, r := range rs {
		if r != ' ' {
			continue
		}
		classes[i] = arabicNeighbor(rs, classes, i, -1) && arabicNeighbor(rs, classes, i, +1)
	}

	var runs []run
	start := 0
	for i := 1; i <= len(rs); i++ {
		if i == len(rs) || classes[i] != classes[start] {
			runs = append(runs, run{text: string(rs[start:i]), arabic: classes[start]})
			start = i
		}
	}
	return runs
}

// arabicNeighbor reports whether the nearest non-space rune from i in
// direction dir is Arabic.
func arabicNeighbor(rs []rune, classes []bool, i, dir int) bool {
	for j := i + dir; j >= 0 && j < len(rs); j += dir {
		if rs[j] != ' ' {
			return classes[j]
		}
	}
	return false
}

// shapeSegment shapes one Arabic run word by word, then reverses word
// order so the first word read lands rightmost when painted
// left-to-right. Spaces themselves are never shaped.
func shapeSegment(seg string) string {
	words := strings.Split(seg, " ")
	shaped := make([]string, len(words))
	for i, w := range words {
		shaped[len(words)-1-i] = shapeWord(w)
	}
	return strings.Join(shaped, " ")
}

// glyphToken is one shapeable unit of a word: a letter, a lam-alef
// ligature, or a passthrough rune outside the join table.
type glyphToken struct {
	r     rune
	forms *letterForms
}

// shapeWord shapes a single word: strips tashkeel, collapses mandatory
// lam-alef ligatures, selects a presentation form per letter from its
// neighbors' join behavior, and reverses the glyphs into paint order.
func shapeWord(word string) string {
	if word == "" {
		return ""
	}

	letters := make([]rune, 0, utf8.RuneCountInString(word))
	for _, r := range word {
		if !isTashkeel(r) {
			letters = append(letters, r)
		}
	}

	tokens := make([]glyphToken, 0, len(letters))
	for i := 0; i < len(letters); i++ {
		r := letters[i]
		if r == lam && i+1 < len(letters) {
			if lf, ok := lamAlefTable[letters[i+1]]; ok {
				tokens = append(tokens, glyphToken{r: r, forms: &lf})
				i++
				continue
			}
		}
		if f, ok := joinTable[r]; ok {
			tokens = append(tokens, glyphToken{r: r, forms: &f})
			continue
		}
		// Embedded non-Arabic characters pass through unshaped at
		// their logical position and break the joining chain.
		tokens = append(tokens, glyphToken{r: r})
	}

	glyphs := make([]rune, len(tokens))
	for i, tok := range tokens {
		if tok.forms == nil {
			glyphs[i] = tok.r
			continue
		}
		joinedRight := i > 0 && tokens[i-1].forms != nil && !tokens[i-1].forms.rightOnly
		joinsLeft := !tok.forms.rightOnly && i+1 < len(tokens) && tokens[i+1].forms != nil

		switch {
		case joinedRight && joinsLeft:
			glyphs[i] = tok.forms.medial
		case joinedRight:
			glyphs[i] = tok.forms.final
		case joinsLeft:
			glyphs[i] = tok.forms.initial
		default:
			glyphs[i] = tok.forms.isolated
		}
	}

	// Logical to visual order for a left-to-right painter.
	for i, j := 0, len(glyphs)-1; i < j; i, j = i+1, j-1 {
		glyphs[i], glyphs[j] = glyphs[j], glyphs[i]
	}
	return string(glyphs)
}

// ContainsArabic reports whether s has at least one Arabic-script code
// point. Callers use it to skip shaping for purely-Latin text.
func ContainsArabic(s string) bool {
	for _, r := range s {
		if isArabic(r) {
			return true
		}
	}
	return false
}
