package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexhholmes/shelf"
	"github.com/alexhholmes/shelf/internal/catalog"
)

// readBooks loads books from a CSV export or a JSON array, chosen by the
// file extension.
func readBooks(path string) ([]shelf.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var books []shelf.Book
		if err := json.NewDecoder(f).Decode(&books); err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
		}
		return books, nil
	default:
		return catalog.ReadCSV(f)
	}
}

func newImportCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv|file.json>",
		Short: "Import books from a CSV export or a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := readBooks(args[0])
			if err != nil {
				return err
			}

			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.db.Import(books)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d inserted, %d duplicate(s), %d invalid\n",
				okColor.Sprint("imported:"), stats.Inserted, stats.Duplicates, stats.Invalid)
			return nil
		},
	}
}
