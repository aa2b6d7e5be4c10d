package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexhholmes/shelf/internal/server"
)

// defaultAddr listens on $PORT, falling back to 3000.
func defaultAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":3000"
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		addr    string
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			cfg := server.DefaultConfig()
			cfg.CORSOrigins = origins
			srv := server.New(s.db, server.WithConfig(cfg), server.WithLogger(s.log))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr(), "Listen address (defaults to :$PORT or :3000)")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", []string{"*"}, "Allowed CORS origins")
	return cmd
}
