package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexhholmes/shelf"
)

func newBackupCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file>",
		Short: "Write a compressed backup of every book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := s.db.Backup(f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d book(s) to %s\n", okColor.Sprint("backed up:"), s.db.Len(), args[0])
			return nil
		},
	}
}

func newRestoreCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the catalog with the books in a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			log, flush, err := newLogger(g.logFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer flush()

			db, stats, err := shelf.Restore(g.dataDir, f, g.options(log)...)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s %d book(s), %d duplicate(s), %d invalid\n",
				okColor.Sprint("restored:"), stats.Inserted, stats.Duplicates, stats.Invalid)
			return nil
		},
	}
}
