package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/alexhholmes/shelf"
)

const shellHelp = `
shelf shell

Available Commands:
  GET <isbn13> <title>              Look up a book by ISBN-13 and exact title
  PREFIX <prefix>                   List books whose title starts with prefix
  SEARCH [key=value ...]            Filtered search; page=N and pageSize=N pick the page
  DUMP [titles]                     Print the index structure
  STATS                             Show catalog and cache statistics
  HELP                              Show this help
  EXIT                              Terminate this session
`

// shell runs interactive commands against an open catalog.
type shell struct {
	db  *shelf.DB
	out io.Writer
}

// exec runs one input line. It reports false once the session should end.
func (s *shell) exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	var err error
	switch command := strings.ToLower(fields[0]); command {
	case "get":
		err = s.get(fields[1:])
	case "prefix":
		err = s.prefix(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0])))
	case "search":
		err = s.search(fields[1:])
	case "dump":
		err = dump(s.out, s.db, false, len(fields) > 1 && strings.EqualFold(fields[1], "titles"))
	case "stats":
		printStats(s.out, s.db.Stats())
	case "help":
		fmt.Fprint(s.out, shellHelp)
	case "exit", "quit":
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command %q\n", command)
	}

	if err != nil {
		fmt.Fprintln(s.out, errColor.Sprint("error: "+err.Error()))
	}
	return true
}

func (s *shell) get(args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: GET <isbn13> <title>")
		return nil
	}
	b, err := s.db.Get(strings.Join(args[1:], " "), args[0])
	if errors.Is(err, shelf.ErrBookNotFound) {
		fmt.Fprintln(s.out, "Book not found.")
		return nil
	}
	if err != nil {
		return err
	}
	printBook(s.out, b)
	return nil
}

func (s *shell) prefix(p string) error {
	books, err := s.db.SearchPrefix(p)
	if err != nil {
		return err
	}
	printBooks(s.out, books)
	return nil
}

func (s *shell) search(args []string) error {
	page, pageSize := 1, 20
	var pairs []string
	for _, a := range args {
		k, v, _ := strings.Cut(a, "=")
		switch k {
		case "page", "pageSize":
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return fmt.Errorf("%s must be a positive integer", k)
			}
			if k == "page" {
				page = n
			} else {
				pageSize = n
			}
		default:
			pairs = append(pairs, a)
		}
	}

	f, err := parseFilterArgs(pairs)
	if err != nil {
		return err
	}
	p, err := s.db.Search(f, page, pageSize)
	if err != nil {
		return err
	}
	printPage(s.out, p)
	return nil
}

func newShellCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive query shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "shelf> ",
				HistoryFile:     filepath.Join(os.TempDir(), "shelf_history"),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				Stdout:          cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}
			defer rl.Close()

			sh := &shell{db: sess.db, out: rl.Stdout()}
			fmt.Fprint(sh.out, shellHelp)
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if !sh.exec(line) {
					return nil
				}
			}
		},
	}
}
