package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"copymatch/checker"
	"copymatch/config"
	"copymatch/render"
	"copymatch/types"

	"github.com/spf13/cobra"
)

var (
	compareJSON         bool
	compareScoreOnly    bool
	compareNoParagraphs bool
	compareEngine       string
	compareAnnotate     bool
	compareNoCache      bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <fileA> <fileB>",
	Short: "Compare a source document with a target document",
	Long: `Compares fileA (source) with fileB (target) and prints the overall score
and every highlighted target range. .docx and .doc files are read as documents.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print the report as JSON")
	compareCmd.Flags().BoolVar(&compareScoreOnly, "score-only", false, "print only the overall score")
	compareCmd.Flags().BoolVar(&compareNoParagraphs, "no-paragraphs", false, "disable paragraph-level highlights")
	compareCmd.Flags().StringVar(&compareEngine, "engine", "", "exact-match engine: local or remote")
	compareCmd.Flags().BoolVar(&compareAnnotate, "annotate", false, "print the target text with highlights marked")
	compareCmd.Flags().BoolVar(&compareNoCache, "no-cache", false, "ignore cached reports")
	rootCmd.AddCommand(compareCmd)
}

// applyCompareFlags overlays the command line on the loaded configuration
func applyCompareFlags(c config.Config) (config.Config, error) {
	if compareEngine != "" {
		c.Engine.Type = compareEngine
	}
	if compareNoParagraphs {
		c.Highlight.Paragraphs = false
	}
	return c, c.Validate()
}

func runCompare(cmd *cobra.Command, args []string) error {
	effective, err := applyCompareFlags(cfg)
	if err != nil {
		return err
	}

	chk, err := checker.FromConfig(effective)
	if err != nil {
		return err
	}
	defer chk.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := chk.Check(ctx, checker.Request{
		PathA:     args[0],
		PathB:     args[1],
		Transport: "cli",
		SkipCache: compareNoCache,
	})
	if err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}
	return printReport(cmd, report)
}

func printReport(cmd *cobra.Command, report *types.Report) error {
	out := cmd.OutOrStdout()
	switch {
	case compareScoreOnly:
		return render.Score(out, report)
	case compareJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	default:
		opts := render.Options{Width: 100}
		if f, ok := out.(*os.File); ok {
			opts = render.DetectOptions(f)
		}
		opts.Annotate = compareAnnotate
		return render.Report(out, report, opts)
	}
}
