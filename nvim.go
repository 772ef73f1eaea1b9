package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var nvimDaemon bool

var nvimCmd = &cobra.Command{
	Use:   "nvim",
	Short: "Serve Neovim over stdio through the shared daemon",
	Long: `Started by the editor as an rpc job. The first instance spawns a daemon
that owns the checker and report cache; every instance relays its stdio
to the daemon socket. Exposes copymatch_compare(bufA, bufB) and
copymatch_clear(buf).`,
	Args: cobra.NoArgs,
	RunE: runNvim,
}

func init() {
	nvimCmd.Flags().BoolVar(&nvimDaemon, "daemon", false, "run as the daemon process")
	rootCmd.AddCommand(nvimCmd)
}

func runNvim(*cobra.Command, []string) error {
	if nvimDaemon {
		d, err := NewDaemon(cfg)
		if err != nil {
			return fmt.Errorf("error creating daemon: %w", err)
		}
		return d.Start()
	}

	client := NewClient()
	if err := client.EnsureDaemon(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	if err := client.Relay(os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("daemon connection: %w", err)
	}
	return nil
}
