package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexhholmes/shelf"
	"github.com/alexhholmes/shelf/internal/catalog"
)

// parseFilterArgs turns key=value pairs into filters using the same field
// names as the HTTP query string.
func parseFilterArgs(pairs []string) (shelf.Filters, error) {
	q := url.Values{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return shelf.Filters{}, fmt.Errorf("filter %q is not key=value", p)
		}
		q.Add(k, v)
	}
	return catalog.ParseFilters(q)
}

func newGetCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <isbn13> <title>",
		Short: "Look up a book by ISBN-13 and exact title",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			b, err := s.db.Get(strings.Join(args[1:], " "), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), b)
			}
			printBook(cmd.OutOrStdout(), b)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the book as JSON")
	return cmd
}

func newSearchCmd(g *globalFlags) *cobra.Command {
	var (
		filters  []string
		page     int
		pageSize int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search books with field filters, one page at a time",
		Example: `  shelf search --filter autor=machado --filter anoMax=1900
  shelf search --filter ratingMin=4.5 --page 2 --page-size 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := parseFilterArgs(filters)
			if err != nil {
				return err
			}

			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := s.db.Search(f, page, pageSize)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			printPage(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Filter as key=value (repeatable)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "Books per page")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the page as JSON")
	return cmd
}

func newPrefixCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "prefix <title prefix>",
		Short: "List books whose title starts with a prefix (case-sensitive)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			books, err := s.db.SearchPrefix(strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), books)
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the books as JSON")
	return cmd
}
