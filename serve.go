package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"copymatch/checker"
	"copymatch/server"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves POST /check (multipart fileA, fileB or textB), POST /highlights,
GET /reports, GET and DELETE /reports/{id}, GET /healthz and GET /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	chk, err := checker.FromConfig(cfg)
	if err != nil {
		return err
	}
	defer chk.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(chk, cfg.Server).Run(ctx, addr)
}
