package scraper

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ŞOK serves text that was UTF-8-decoded with the wrong charset somewhere
// upstream, so Turkish letters arrive as 2-3 byte mojibake ("SÃ¼t",
// "MÄ±sÄ±r"). The repair is an ordered substring table, longest patterns
// first, followed by a pass that drops stray combining marks.

type replacement struct {
	wrong, correct string
}

// Ordered: multi-character combinations before single characters before
// the loose fallbacks.
var encodingRepairs = []replacement{
	{"YaÄs", "Yağs"},
	{"YaÄl", "Yağl"},
	{"Äs", "ğs"},
	{"Äl", "ğl"},
	{"sÄ", "ğsı"},
	{"lÄ", "ğlı"},
	{"ıÇi", "Çi"},
	{"ıçi", "çi"},
	{"ıÇ", "Ç"},
	{"ıç", "ç"},
	{"ıĞ", "Ğ"},
	{"ığ", "ğ"},
	{"ıŞ", "Ş"},
	{"ış", "ş"},
	{"ıÜ", "Ü"},
	{"ıü", "ü"},
	{"ıÖ", "Ö"},
	{"ıö", "ö"},
	{"ıİ", "İ"},
	{"ı¶", "ö"},
	{"Åğ", "ş"},
	{"şğ", "ş"},
	{"Şğ", "Ş"},
	{"Ã¼", "ü"},
	{"Ã§", "ç"},
	{"Ä±", "ı"},
	{"Ä°", "İ"},
	{"¼", "ü"},
	{"±", "ı"},
	{"", "ğ"},
	{"Å", "ş"},
	{"¶", "ö"},
	// loose fallback: a leftover lead byte almost always stood before ı
	{"Ã", "ı"},
	{"Ä", "ı"},
}

// spurious "ı" glued in front of an intact Turkish letter
var strayDottedI = regexp.MustCompile(`ı([ÇĞİÖŞÜçğıöşü])`)

var stripCombining = runes.Remove(runes.In(unicode.Mn))

// RepairEncoding maps known mojibake byte patterns back to Turkish
// characters and strips combining marks that remain standalone.
func RepairEncoding(text string) string {
	if text == "" {
		return text
	}
	for _, r := range encodingRepairs {
		text = strings.ReplaceAll(text, r.wrong, r.correct)
	}
	text = strayDottedI.ReplaceAllString(text, "$1")
	if fixed, _, err := transform.String(stripCombining, text); err == nil {
		text = fixed
	}
	return text
}

var turkishToASCII = strings.NewReplacer(
	"ü", "u", "Ü", "u",
	"ö", "o", "Ö", "o",
	"ı", "i", "İ", "i",
	"ş", "s", "Ş", "s",
	"ğ", "g", "Ğ", "g",
	"ç", "c", "Ç", "c",
)

var foldTransform = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// FoldASCII lower-cases text and maps Turkish letters to their closest
// ASCII forms, then decomposes and drops whatever marks remain. Used for
// diacritic-tolerant keyword matching against corrupted source text.
func FoldASCII(text string) string {
	text = strings.ToLower(text)
	text = turkishToASCII.Replace(text)
	if folded, _, err := transform.String(foldTransform, text); err == nil {
		text = folded
	}
	return text
}
