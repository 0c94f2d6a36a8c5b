package main

import (
	"github.com/spf13/cobra"

	"racing-setup-rag/internal/config"
	"racing-setup-rag/internal/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the setup advice web form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			srv := web.NewServer(a.Assistant, a, a.Config.Server, a.Logger)
			return srv.ListenAndServe(cmd.Context())
		},
	}
	config.AddFlags(cmd.Flags(), "addr")
	return cmd
}
