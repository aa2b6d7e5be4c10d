// Command shelf manages a book catalog: it imports and queries books, serves
// the HTTP API and inspects the on-disk index.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexhholmes/shelf"
	"github.com/alexhholmes/shelf/logger"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dataDir   string
	degree    int
	logFormat string
	noSync    bool
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "shelf",
		Short: "Book catalog indexed by a B-tree",
		Long: `shelf keeps a book catalog in a data directory (books.json) together with
a B-tree index over title and ISBN-13 (Btree.json). It can import CSV
exports, answer filtered and paged searches and serve them over HTTP.`,
		SilenceUsage: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&g.dataDir, "data-dir", "d", "data", "Directory holding books.json and Btree.json")
	pf.IntVar(&g.degree, "degree", 3, "Minimum degree of a newly built index")
	pf.StringVar(&g.logFormat, "log-format", "zap", "Log output: zap, logrus, text or none")
	pf.BoolVar(&g.noSync, "no-sync", false, "Skip fsync on writes")

	root.AddCommand(
		newServeCmd(g),
		newImportCmd(g),
		newGetCmd(g),
		newSearchCmd(g),
		newPrefixCmd(g),
		newDumpCmd(g),
		newShellCmd(g),
		newBackupCmd(g),
		newRestoreCmd(g),
		newVersionCmd(),
	)
	return root
}

// newLogger builds the catalog logger selected by --log-format. The returned
// func flushes it.
func newLogger(format string, w io.Writer) (shelf.Logger, func(), error) {
	switch format {
	case "zap":
		zl, err := zap.NewProduction()
		if err != nil {
			return nil, nil, err
		}
		return logger.NewZap(zl), func() { _ = zl.Sync() }, nil
	case "logrus":
		ll := logrus.New()
		ll.SetOutput(w)
		ll.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return logger.NewLogrus(ll), func() {}, nil
	case "text":
		return slog.New(slog.NewTextHandler(w, nil)), func() {}, nil
	case "none", "":
		return shelf.DiscardLogger{}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", format)
	}
}

// options turns the global flags into catalog options.
func (g *globalFlags) options(log shelf.Logger) []shelf.Option {
	opts := []shelf.Option{
		shelf.WithDegree(g.degree),
		shelf.WithLogger(log),
	}
	if g.noSync {
		opts = append(opts, shelf.WithSyncOff())
	}
	return opts
}

// session is an open catalog plus the logger it writes to.
type session struct {
	db    *shelf.DB
	log   shelf.Logger
	flush func()
}

// open opens the catalog for cmd. Callers must Close the session.
func (g *globalFlags) open(cmd *cobra.Command) (*session, error) {
	log, flush, err := newLogger(g.logFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	db, err := shelf.Open(g.dataDir, g.options(log)...)
	if err != nil {
		flush()
		return nil, err
	}
	return &session{db: db, log: log, flush: flush}, nil
}

func (s *session) Close() {
	if err := s.db.Close(); err != nil {
		s.log.Error("failed to close catalog", "error", err)
	}
	s.flush()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shelf %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}
}
