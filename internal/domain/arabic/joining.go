package arabic

// letterForms holds the Arabic Presentation Forms-B code points for one
// letter. Letters without a distinct glyph for a position fall back to
// the nearest existing form (isolated for initial, final for medial).
type letterForms struct {
	isolated rune
	final    rune
	initial  rune
	medial   rune

	// rightOnly letters accept a connection from their logical-previous
	// neighbor but never connect onward to the logical-next one.
	rightOnly bool
}

// joinTable maps base Arabic letters to their contextual forms and join
// behavior. Presentation-form code points are deliberately absent: text
// that has already been shaped is not valid input.
var joinTable = map[rune]letterForms{
	0x0621: {0xFE80, 0xFE80, 0xFE80, 0xFE80, true},		// hamza
	0x0622: {0xFE81, 0xFE82, 0xFE81, 0xFE82, true},		// alef madda
	0x0623: {0xFE83, 0xFE84, 0xFE83, 0xFE84, true},		// alef hamza above
	0x0624: {0xFE85, 0xFE86, 0xFE85, 0xFE86, true},		// waw hamza
	0x0625: {0xFE87, 0xFE88, 0xFE87, 0xFE88, true},		// alef hamza below
	0x0626: {0xFE89, 0xFE8A, 0xFE8B, 0xFE8C, false},	// yeh hamza
	0x0627: {0xFE8D, 0xFE8E, 0xFE8D, 0xFE8E, true},		// alef
	0x0628: {0xFE8F, 0xFE90, 0xFE91, 0xFE92, false},	// beh
	0x0629: {0xFE93, 0xFE94, 0xFE93, 0xFE94, true},		// teh marbuta
	0x062A: {0xFE95, 0xFE96, 0xFE97, 0xFE98, false},	// teh
	0x062B: {0xFE99, 0xFE9A, 0xFE9B, 0xFE9C, false},	// theh
	0x062C: {0xFE9D, 0xFE9E, 0xFE9F, 0xFEA0, false},	// jeem
	0x062D: {0xFEA1, 0xFEA2, 0xFEA3, 0xFEA4, false},	// hah
	0x062E: {0xFEA5, 0xFEA6, 0xFEA7, 0xFEA8, false},	// khah
	0x062F: {0xFEA9, 0xFEAA, 0xFEA9, 0xFEAA, true},		// dal
	0x0630: {0xFEAB, 0xFEAC, 0xFEAB, 0xFEAC, true},		// thal
	0x0631: {0xFEAD, 0xFEAE, 0xFEAD, 0xFEAE, true},		// reh
	0x0632: {0xFEAF, 0xFEB0, 0xFEAF, 0xFEB0, true},		// zain
	0x0633: {0xFEB1, 0xFEB2, 0xFEB3, 0xFEB4, false},	// seen
	0x0634: {0xFEB5, 0xFEB6, 0xFEB7, 0xFEB8, false},	// sheen
	0x0635: {0xFEB9, 0xFEBA, 0xFEBB, 0xFEBC, false},	// sad
	0x0636: {0xFEBD, 0xFEBE, 0xFEBF, 0xFEC0, false},	// dad
	0x0637: {0xFEC1, 0xFEC2, 0xFEC3, 0xFEC4, false},	// tah
	0x0638: {0xFEC5, 0xFEC6, 0xFEC7, 0xFEC8, false},	// zah
	0x0639: {0xFEC9, 0xFECA, 0xFECB, 0xFECC, false},	// ain
	0x063A: {0xFECD, 0xFECE, 0xFECF, 0xFED0, false},	// ghain
	0x0640: {0x0640, 0x0640, 0x0640, 0x0640, false},	// tatweel
	0x0641: {0xFED1, 0xFED2, 0xFED3, 0xFED4, false},	// feh
	0x0642: {0xFED5, 0xFED6, 0xFED7, 0xFED8, false},	// qaf
	0x0643: {0xFED9, 0xFEDA, 0xFEDB, 0xFEDC, false},	// kaf
	0x0644: {0xFEDD, 0xFEDE, 0xFEDF, 0xFEE0, false},	// lam
	0x0645: {0xFEE1, 0xFEE2, 0xFEE3, 0xFEE4, false},	// meem
	0x0646: {0xFEE5, 0xFEE6, 0xFEE7, 0xFEE8, false},	// noon
	0x0647: {0xFEE9, 0xFEEA, 0xFEEB, 0xFEEC, false},	// heh
	0x0648: {0xFEED, 0xFEEE, 0xFEED, 0xFEEE, true},		// waw
	0x0649: {0xFEEF, 0xFEF0, 0xFEEF, 0xFEF0, true},		// alef maksura
	0x064A: {0xFEF1, 0xFEF2, 0xFEF3, 0xFEF4, false},	// yeh
}

const lam = 0x0644

// lamAlefTable maps the four alef variants to their mandatory lam-alef
// ligature forms. Ligatures join like right-only letters on their left.
var lamAlefTable = map[rune]letterForms{
	0x0622: {0xFEF5, 0xFEF6, 0xFEF5, 0xFEF6, true},	// lam + alef madda
	0x0623: {0xFEF7, 0xFEF8, 0xFEF7, 0xFEF8, true},	// lam + alef hamza above
	0x0625: {0xFEF9, 0xFEFA, 0xFEF9, 0xFEFA, true},	// lam + alef hamza below
	0x0627: {0xFEFB, 0xFEFC, 0xFEFB, 0xFEFC, true},	// lam + alef
}

// isTashkeel reports whether r is a combining diacritic stripped before
// connectivity analysis. Stripped marks are not re-inserted.
func isTashkeel(r rune) bool {
	switch {
	case r >= 0x0610 && r <= 0x061A:
		return true
	case r >= 0x064B && r <= 0x065F:
		return true
	case r == 0x0670:
		return true
	case r >= 0x06D6 && r <= 0x06DC:
		return true
	case r >= 0x06DF && r <= 0x06E8:
		return true
	case r >= 0x06EA && r <= 0x06ED:
		return true
	}
	return false
}

// isArabic reports whether r belongs to the Arabic script blocks,
// presentation forms included.
func isArabic(r rune) bool {
	switch {
	case r >= 0x0600 && r <= 0x06FF:
		return true
	case r >= 0x0750 && r <= 0x077F:
		return true
	case r >= 0x08A0 && r <= 0x08FF:
		return true
	case r >= 0xFB50 && r <= 0xFDFF:
		return true
	case r >= 0xFE70 && r <= 0xFEFF:
		return true
	}
	return false
}
