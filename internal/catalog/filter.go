package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Range bounds a numeric field. A nil bound is open.
type Range struct {
	Min *float64
	Max *float64
}

func (r Range) contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// numericField describes a filterable numeric field by its query name.
type numericField struct {
	name string
	get  func(Book) float64
}

var numericFields = []numericField{
	{"ano", func(b Book) float64 { return float64(b.Year) }},
	{"paginas", func(b Book) float64 { return float64(b.Pages) }},
	{"rating", func(b Book) float64 { return b.Rating }},
	{"avaliacao", func(b Book) float64 { return float64(b.Ratings) }},
	{"resenha", func(b Book) float64 { return float64(b.Reviews) }},
	{"abandonos", func(b Book) float64 { return float64(b.Abandoned) }},
	{"relendo", func(b Book) float64 { return float64(b.Rereading) }},
	{"queremLer", func(b Book) float64 { return float64(b.WantToRead) }},
	{"lendo", func(b Book) float64 { return float64(b.Reading) }},
	{"leram", func(b Book) float64 { return float64(b.Read) }},
	{"male", func(b Book) float64 { return b.Male }},
	{"female", func(b Book) float64 { return b.Female }},
}

// Filters selects books field by field. Empty strings and missing ranges
// match everything.
type Filters struct {
	ISBN13 string // exact
	ISBN10 string // exact

	// Case-insensitive prefixes
	Title     string
	Author    string
	Language  string
	Publisher string
	Genre     string

	Description string // case-insensitive substring

	// Ranges keyed by numeric field name (ano, paginas, rating, ...)
	Ranges map[string]Range
}

// Empty reports whether the filters accept every book.
func (f Filters) Empty() bool {
	return len(f.Values()) == 0
}

// Match reports whether b satisfies every filter that is set.
func (f Filters) Match(b Book) bool {
	if f.ISBN13 != "" && b.ISBN13 != f.ISBN13 {
		return false
	}
	if f.ISBN10 != "" && b.ISBN10 != f.ISBN10 {
		return false
	}
	if !hasFoldPrefix(b.Title, f.Title) ||
		!hasFoldPrefix(b.Author, f.Author) ||
		!hasFoldPrefix(b.Language, f.Language) ||
		!hasFoldPrefix(b.Publisher, f.Publisher) ||
		!hasFoldPrefix(b.Genre, f.Genre) {
		return false
	}
	if f.Description != "" &&
		!strings.Contains(strings.ToLower(b.Description), strings.ToLower(f.Description)) {
		return false
	}
	for _, nf := range numericFields {
		if r, ok := f.Ranges[nf.name]; ok && !r.contains(nf.get(b)) {
			return false
		}
	}
	return true
}

// hasFoldPrefix reports whether s starts with prefix under Unicode simple
// case folding. It compares rune by rune since folded forms can differ in
// byte length (U+212A KELVIN SIGN and "k").
func hasFoldPrefix(s, prefix string) bool {
	for prefix != "" {
		if s == "" {
			return false
		}
		pr, pn := utf8.DecodeRuneInString(prefix)
		sr, sn := utf8.DecodeRuneInString(s)
		if !foldEqual(sr, pr) {
			return false
		}
		prefix, s = prefix[pn:], s[sn:]
	}
	return true
}

func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// textParams maps query parameter names onto the text filter fields.
func (f *Filters) textParams() []struct {
	name string
	dst  *string
} {
	return []struct {
		name string
		dst  *string
	}{
		{"isbn13", &f.ISBN13},
		{"isbn10", &f.ISBN10},
		{"titulo", &f.Title},
		{"autor", &f.Author},
		{"idioma", &f.Language},
		{"editora", &f.Publisher},
		{"genero", &f.Genre},
		{"descricao", &f.Description},
	}
}

// ParseFilters reads filters from query parameters: text fields by name
// (titulo, autor, ...) and numeric bounds as <field>Min / <field>Max
// (anoMin, ratingMax, ...). Unknown parameters are ignored. Empty values are
// treated as absent; values that are not numbers are an error.
func ParseFilters(q url.Values) (Filters, error) {
	var f Filters
	for _, p := range f.textParams() {
		*p.dst = q.Get(p.name)
	}

	for _, nf := range numericFields {
		var r Range
		for _, bound := range []struct {
			suffix string
			dst    **float64
		}{{"Min", &r.Min}, {"Max", &r.Max}} {
			raw := strings.TrimSpace(q.Get(nf.name + bound.suffix))
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Filters{}, fmt.Errorf("invalid %s%s %q: not a number", nf.name, bound.suffix, raw)
			}
			*bound.dst = &v
		}
		if r.Min != nil || r.Max != nil {
			if f.Ranges == nil {
				f.Ranges = make(map[string]Range)
			}
			f.Ranges[nf.name] = r
		}
	}
	return f, nil
}

// Values is the inverse of ParseFilters. Its encoding is canonical, so equal
// filters produce equal strings.
func (f Filters) Values() url.Values {
	q := url.Values{}
	for _, p := range f.textParams() {
		if *p.dst != "" {
			q.Set(p.name, *p.dst)
		}
	}
	for _, nf := range numericFields {
		r, ok := f.Ranges[nf.name]
		if !ok {
			continue
		}
		if r.Min != nil {
			q.Set(nf.name+"Min", strconv.FormatFloat(*r.Min, 'g', -1, 64))
		}
		if r.Max != nil {
			q.Set(nf.name+"Max", strconv.FormatFloat(*r.Max, 'g', -1, 64))
		}
	}
	return q
}
