// Package textutil holds the string helpers shared by every stage of the
// pipeline: cleanup of scraped cell text, numeric coercion and person-name
// normalization.
package textutil

import (
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonSlugRe    = regexp.MustCompile(`[^a-z0-9]+`)

	// "Kelly,Rowan" or "KELLY, Rowan" inside prose.
	commaNameRe = regexp.MustCompile(`\b([A-Z][A-Za-z'\-]*(?: (?:Jr\.|Sr\.|II|III|IV))?), ?([A-Z][A-Za-z'\-]+(?: [A-Z]\.)?)`)

	// "Rowan KELLY" left behind by upstream upper-casing of surnames.
	upperSurnameRe = regexp.MustCompile(`\b([A-Z][a-z][A-Za-z'\-]*) ([A-Z][A-Z'\-]{2,})\b`)
)

// abbreviations are never treated as person names.
var abbreviations = map[string]bool{
	"RBI": true, "RBIS": true, "ERA": true, "HBP": true, "SAC": true, "SF": true,
	"SH": true, "DP": true, "TP": true, "WP": true, "PB": true, "BB": true,
	"IBB": true, "LOB": true, "KL": true, "FC": true, "HR": true, "OBP": true,
	"SLG": true, "OPS": true, "AVG": true, "IP": true, "BK": true, "CS": true,
	"SB": true, "PO": true, "DH": true, "PH": true, "PR": true, "LF": true,
	"CF": true, "RF": true, "SS": true, "1B": true, "2B": true, "3B": true,
	"UNC": true, "DI": true, "E": true, "K": true,
}

// IsAbbreviation reports whether token is a baseball scoring abbreviation.
func IsAbbreviation(token string) bool {
	return abbreviations[strings.ToUpper(strings.Trim(token, ".,;:()"))]
}

// Clean unescapes HTML entities, turns non-breaking spaces into spaces and
// collapses runs of whitespace.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ToInt coerces "3", " 4 " or "5.0" to an int.
func ToInt(s string) (int, bool) {
	s = Clean(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// ToFloat coerces a cell string to a float.
func ToFloat(s string) (float64, bool) {
	s = Clean(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NormalizeKey is the comparison key for free text: lower-cased with
// whitespace collapsed.
func NormalizeKey(s string) string {
	return strings.ToLower(Clean(s))
}

// FormatName turns "Last,First" into "First Last" and fixes all-caps words.
// Names already in display order are returned unchanged.
func FormatName(s string) string {
	s = Clean(s)
	if s == "" {
		return ""
	}
	if idx := strings.Index(s, ","); idx > 0 {
		last := strings.TrimSpace(s[:idx])
		first := strings.TrimSpace(s[idx+1:])
		if last != "" && first != "" {
			s = first + " " + last
		}
	}

	words := strings.Fields(s)
	for i, w := range words {
		if isUpperWord(w) && !abbreviations[w] {
			words[i] = titleCase(w)
		}
	}
	return strings.Join(words, " ")
}

// DisplayName is FormatName for optional values; nil stays nil.
func DisplayName(name *string) *string {
	if name == nil {
		return nil
	}
	out := FormatName(*name)
	return &out
}

// NormalizeName builds the identity key used to decide that two mentions
// refer to the same person.
func NormalizeName(s string) string {
	s = strings.ToLower(FormatName(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Slugify lower-cases s and replaces every non-alphanumeric run with "-".
func Slugify(s string) string {
	s = nonSlugRe.ReplaceAllString(strings.ToLower(Clean(s)), "-")
	return strings.Trim(s, "-")
}

// ReformatNames rewrites "Last,First" mentions inside free text to
// "First Last" and repairs upper-cased surnames. Scoring abbreviations such
// as RBI or HBP are left alone.
func ReformatNames(text string) string {
	text = Clean(text)
	if text == "" {
		return ""
	}

	text = commaNameRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := commaNameRe.FindStringSubmatch(m)
		last, first := parts[1], parts[2]
		if IsAbbreviation(last) || IsAbbreviation(first) {
			return m
		}
		if len(last) <= 3 && isUpperWord(last) {
			return m
		}
		return FormatName(last + "," + first)
	})

	return upperSurnameRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := upperSurnameRe.FindStringSubmatch(m)
		if abbreviations[parts[2]] {
			return m
		}
		return parts[1] + " " + titleCase(parts[2])
	})
}

// LooksLikeName reports whether s reads as a person's name rather than prose,
// a number or a scoring code.
func LooksLikeName(s string) bool {
	s = Clean(s)
	if s == "" || len(s) > 40 {
		return false
	}
	if strings.ContainsAny(s, "0123456789();:") {
		return false
	}
	if strings.Contains(s, ",") {
		parts := strings.SplitN(s, ",", 2)
		return isNameToken(strings.TrimSpace(parts[0])) && isNameToken(strings.TrimSpace(parts[1]))
	}
	words := strings.Fields(s)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		if !isNameToken(w) {
			return false
		}
	}
	return true
}

// LooksLikeProse reports whether s reads like a sentence: several words, at
// least one of them lower-case.
func LooksLikeProse(s string) bool {
	s = Clean(s)
	words := strings.Fields(s)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		if len(w) >= 3 && strings.ToLower(w) == w && strings.IndexFunc(w, unicode.IsLetter) >= 0 {
			return true
		}
	}
	return false
}

func isNameToken(w string) bool {
	if w == "" {
		return false
	}
	for _, part := range strings.Fields(w) {
		r := []rune(part)
		if !unicode.IsUpper(r[0]) {
			return false
		}
		for _, c := range r {
			if !unicode.IsLetter(c) && c != '\'' && c != '-' && c != '.' {
				return false
			}
		}
		if abbreviations[part] {
			return false
		}
	}
	return true
}

func isUpperWord(w string) bool {
	letters := 0
	for _, r := range w {
		switch {
		case unicode.IsLetter(r):
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		case r == '\'' || r == '-':
		default:
			return false
		}
	}
	return letters >= 3
}

func titleCase(w string) string {
	r := []rune(strings.ToLower(w))
	upperNext := true
	for i, c := range r {
		if upperNext && unicode.IsLetter(c) {
			r[i] = unicode.ToUpper(c)
			upperNext = false
		}
		if c == '\'' || c == '-' {
			upperNext = true
		}
	}
	return string(r)
}
