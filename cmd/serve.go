package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/quizmate/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the solve and wrong-answer endpoints over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		e, err := openEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.Close()

		s, err := server.New(e.solver, e.cache, e.blocker, log)
		if err != nil {
			return err
		}
		return s.ListenAndServe(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, 127.0.0.1:8765)")
}
