package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

// LitreThreshold disambiguates "1 L" from "500 ml" when the source writes
// both with the same unit token: an amount below it is litres.
var LitreThreshold = 20.0

var (
	gramajGram  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:gr?|gram|g)\b`)
	gramajKilo  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*kg\b`)
	gramajLitre = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:ml|lt|l)\b`)
)

// ParseGramaj extracts the weight/volume from a product name, in grams or
// millilitres. Families are tried in order: grams, kilograms (×1000), then
// ml/L where a value under LitreThreshold is litres (×1000).
func ParseGramaj(productName string) (float64, bool) {
	if productName == "" {
		return 0, false
	}
	text := strings.ReplaceAll(productName, ",", ".")

	if m := gramajGram.FindStringSubmatch(text); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v, true
	}
	if m := gramajKilo.FindStringSubmatch(text); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v * 1000, true
	}
	if m := gramajLitre.FindStringSubmatch(text); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		if v < LitreThreshold {
			return v * 1000, true
		}
		return v, true
	}
	return 0, false
}

// AttachGramaj fills in Gramaj from the product name when the scraper
// did not set it.
func AttachGramaj(name string, current *float64) *float64 {
	if current != nil {
		return current
	}
	if g, ok := ParseGramaj(name); ok {
		return &g
	}
	return nil
}
