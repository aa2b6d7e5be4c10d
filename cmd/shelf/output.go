package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/alexhholmes/shelf"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	dimColor   = color.New(color.FgHiBlack)
	errColor   = color.New(color.FgRed)
	okColor    = color.New(color.FgGreen)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printBook writes one book per line: title, author, year and ISBN-13.
func printBook(w io.Writer, b shelf.Book) {
	year := ""
	if b.Year != 0 {
		year = fmt.Sprintf(" (%d)", b.Year)
	}
	fmt.Fprintf(w, "%s  %s%s  %s\n",
		titleColor.Sprint(b.Title),
		b.Author,
		year,
		dimColor.Sprint("isbn13:"+b.ISBN13))
}

func printBooks(w io.Writer, books []shelf.Book) {
	for _, b := range books {
		printBook(w, b)
	}
	fmt.Fprintln(w, dimColor.Sprintf("%d book(s)", len(books)))
}

func printPage(w io.Writer, p shelf.SearchPage) {
	for _, b := range p.Results {
		printBook(w, b)
	}
	more := ""
	if p.HasNextPage {
		more = ", more available"
	}
	fmt.Fprintln(w, dimColor.Sprintf("page %d, %d result(s)%s", p.Page, len(p.Results), more))
}

func printStats(w io.Writer, st shelf.Stats) {
	fmt.Fprintf(w, "books:  %d\n", st.Books)
	fmt.Fprintf(w, "height: %d\n", st.Height)
	fmt.Fprintf(w, "degree: %d\n", st.Degree)
	fmt.Fprintf(w, "cache:  %d entries, %d hits, %d misses\n", st.CacheEntries, st.CacheHits, st.CacheMisses)
}
