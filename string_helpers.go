package main

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StringTransformer defines the contract for a function that can transform a string.
type StringTransformer interface {
	TransformString(t transform.Transformer, s string) (string, int, error)
}

// defaultTransformer is the production implementation of our interface.
type defaultTransformer struct{}

// TransformString calls the actual transform.String function.
func (dt defaultTransformer) TransformString(t transform.Transformer, s string) (string, int, error) {
	return transform.String(t, s)
}

// transformer is swapped out in tests to exercise the failure path.
var transformer StringTransformer = defaultTransformer{}

// normalizeQuery prepares search box input for the geocoder. Diacritics are
// kept since the provider matches on them ("Wrocław" is not "Wroclaw"), but
// the text is composed to NFC, control characters are dropped and runs of
// whitespace collapse to a single space.
func normalizeQuery(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("input string is not valid UTF-8")
	}
	collapsed := strings.Join(strings.Fields(s), " ")
	t := transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cc)))
	result, _, err := transformer.TransformString(t, collapsed)
	if err != nil {
		return "", err
	}
	return result, nil
}

// queryLength counts runes, so "Łódź" is as long as "Lodz".
func queryLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
