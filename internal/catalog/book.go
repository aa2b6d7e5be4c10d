// Package catalog defines the book record stored in the index, its composite
// key, the field filters used by searches and the CSV import format.
package catalog

import (
	"errors"
	"strings"
)

// KeySeparator joins the title and ISBN-13 in a composite key. It must not
// appear in either field.
const KeySeparator = "|"

var (
	ErrMissingISBN = errors.New("book has no ISBN-13")
	ErrInvalidKey  = errors.New("title and ISBN must not contain the key separator")
)

// Book is a catalog record. JSON names match the persisted books.json and
// Btree.json files.
type Book struct {
	ID          string  `json:"id"`
	Title       string  `json:"titulo"`
	Author      string  `json:"autor"`
	ISBN13      string  `json:"isbn13"`
	ISBN10      string  `json:"isbn10"`
	Year        int     `json:"ano"`
	Pages       int     `json:"paginas"`
	Language    string  `json:"idioma"`
	Publisher   string  `json:"editora"`
	Genre       string  `json:"genero"`
	Description string  `json:"descricao"`
	Rating      float64 `json:"rating"`
	Ratings     int     `json:"avaliacao"` // number of ratings
	Reviews     int     `json:"resenha"`
	Abandoned   int     `json:"abandonos"`
	Rereading   int     `json:"relendo"`
	WantToRead  int     `json:"queremLer"`
	Reading     int     `json:"lendo"`
	Read        int     `json:"leram"`
	Male        float64 `json:"male"`   // % of male readers
	Female      float64 `json:"female"` // % of female readers
}

// Key returns the composite index key: title, separator, ISBN-13. Titles
// govern the order and the ISBN breaks ties.
func Key(title, isbn13 string) string {
	return title + KeySeparator + isbn13
}

// Key returns the book's composite index key
func (b Book) Key() string {
	return Key(b.Title, b.ISBN13)
}

// Validate checks that the book can be keyed uniquely.
func (b Book) Validate() error {
	if strings.TrimSpace(b.ISBN13) == "" {
		return ErrMissingISBN
	}
	if strings.Contains(b.Title, KeySeparator) || strings.Contains(b.ISBN13, KeySeparator) {
		return ErrInvalidKey
	}
	return nil
}

// TitleOf returns the display title; used for prefix searches.
func TitleOf(b Book) string {
	return b.Title
}
