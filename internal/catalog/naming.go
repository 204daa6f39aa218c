// Package catalog builds the storefront's product taxonomy from asset paths
// and resolves furniture prices against the specification side-table.
package catalog

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var (
	delimiterRun   = regexp.MustCompile(`[-_/\s]+`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	nonAlnumRun    = regexp.MustCompile(`[^a-z0-9]+`)
	stoneTypeWords = regexp.MustCompile(`(?i)\b(marble|granite|onyx|travertine|sandstone)\b`)
)

// genericNames are colour/material names shared by unrelated stones. They are
// prefixed with their owner so product names stay unique across groups.
var genericNames = map[string]bool{
	"White": true, "Black": true, "Brown": true, "Beige": true, "Green": true,
	"Red": true, "Pink": true, "Yellow": true, "Gold": true, "Blue": true,
	"Grey": true, "Gray": true, "Silver": true, "Orange": true, "Rainbow": true,
	"Multi Color": true, "Multicolor": true, "Cream": true,
}

// Decode turns '+' into spaces and percent-decodes s. Malformed escapes leave
// the input as it was.
func Decode(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return strings.ReplaceAll(s, "+", " ")
	}
	return decoded
}

// ToTitle converts a raw folder name into a display title:
// "coffee_table" -> "Coffee Table".
func ToTitle(s string) string {
	s = delimiterRun.ReplaceAllString(Decode(s), " ")
	s = strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(s))
	prevWord := false
	for _, r := range s {
		isWord := r == '_' || r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
		if isWord && !prevWord {
			r = unicode.ToUpper(r)
		}
		prevWord = isWord
		b.WriteRune(r)
	}
	return b.String()
}

// ToSlug converts s into a URL-safe identifier. ToSlug(ToSlug(s)) == ToSlug(s).
func ToSlug(s string) string {
	s = strings.ToLower(Decode(s))
	s = nonAlnumRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Normalize is the key form used for case/whitespace-insensitive name matching.
func Normalize(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ToLower(s), " "))
}

// SanitizeStoneName drops stone-type words from a folder name
// ("Carrara Marble" -> "Carrara"). A name made only of such words is kept.
func SanitizeStoneName(raw string) string {
	title := ToTitle(raw)
	cleaned := stoneTypeWords.ReplaceAllString(title, "")
	cleaned = strings.TrimSpace(whitespaceRun.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return title
	}
	return cleaned
}

// IsGenericName reports whether name needs an owner prefix to be unique.
func IsGenericName(name string) bool {
	return genericNames[strings.TrimSpace(name)]
}

// Disambiguate prefixes generic names with the owning stone group (granite)
// or the category title, so "White" under Granite/Alaska becomes "Alaska White".
func Disambiguate(name, category, group string) string {
	n := strings.TrimSpace(name)
	if !IsGenericName(n) {
		return n
	}
	if category == stoneGranite && group != "" {
		return SanitizeStoneName(group) + " " + n
	}
	return ToTitle(category) + " " + n
}
