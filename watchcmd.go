package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"copymatch/checker"
	"copymatch/logger"
	"copymatch/watch"

	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <fileA> <fileB>",
	Short: "Recompare two documents whenever either changes",
	Args:  cobra.ExactArgs(2),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before recomparing")
	watchCmd.Flags().BoolVar(&compareJSON, "json", false, "print reports as JSON")
	watchCmd.Flags().BoolVar(&compareScoreOnly, "score-only", false, "print only the overall score")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	chk, err := checker.FromConfig(cfg)
	if err != nil {
		return err
	}
	defer chk.Close()

	w, err := watch.New(args, watchDebounce)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	compare := func() {
		report, err := chk.Check(ctx, checker.Request{PathA: args[0], PathB: args[1], Transport: "watch"})
		if err != nil {
			// Files are often briefly missing mid-save; keep watching
			logger.Warn("watch: compare failed: %v", err)
			return
		}
		if err := printReport(cmd, report); err != nil {
			logger.Error("watch: %v", err)
		}
	}

	compare()
	return w.Run(ctx, compare)
}
