package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSV column names of the catalog export.
const (
	colTitle       = "titulo"
	colAuthor      = "autor"
	colISBN13      = "ISBN_13"
	colISBN10      = "ISBN_10"
	colYear        = "ano"
	colPages       = "paginas"
	colLanguage    = "idioma"
	colPublisher   = "editora"
	colGenre       = "genero"
	colDescription = "descricao"
	colRating      = "rating"
	colRatings     = "avaliacao"
	colReviews     = "resenha"
	colAbandoned   = "abandonos"
	colRereading   = "relendo"
	colWantToRead  = "querem_ler"
	colReading     = "lendo"
	colRead        = "leram"
	colMale        = "male"
	colFemale      = "female"
)

// ReadCSV parses a catalog export with a header row. Columns are matched by
// name and may appear in any order; missing columns leave fields empty.
// Numbers that do not parse become zero. Blank lines are skipped. Each book's
// ID is its ISBN-13 followed by its zero-based row index.
func ReadCSV(r io.Reader) ([]Book, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var books []Book
	for idx := 0; ; {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", idx+1, err)
		}
		if blank(rec) {
			continue
		}

		row := csvRow{cols: cols, rec: rec}
		b := Book{
			Title:       row.str(colTitle),
			Author:      row.str(colAuthor),
			ISBN13:      row.str(colISBN13),
			ISBN10:      row.str(colISBN10),
			Year:        row.integer(colYear),
			Pages:       row.integer(colPages),
			Language:    row.str(colLanguage),
			Publisher:   row.str(colPublisher),
			Genre:       row.str(colGenre),
			Description: row.str(colDescription),
			Rating:      row.number(colRating),
			Ratings:     row.integer(colRatings),
			Reviews:     row.integer(colReviews),
			Abandoned:   row.integer(colAbandoned),
			Rereading:   row.integer(colRereading),
			WantToRead:  row.integer(colWantToRead),
			Reading:     row.integer(colReading),
			Read:        row.integer(colRead),
			Male:        row.number(colMale),
			Female:      row.number(colFemale),
		}
		b.ID = fmt.Sprintf("%s-%d", b.ISBN13, idx)
		books = append(books, b)
		idx++
	}
	return books, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

type csvRow struct {
	cols map[string]int
	rec  []string
}

func (r csvRow) str(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r csvRow) integer(col string) int {
	s := r.str(col)
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	// Some exports write integer columns as floats ("312.0").
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func (r csvRow) number(col string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(r.str(col), ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}
