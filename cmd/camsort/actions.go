package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"camsort/internal/orchestrator"
	"camsort/internal/watcher"
)

var fullMove bool

var fullCmd = &cobra.Command{
	Use:   "full",
	Short: "Analyze, save, classify and copy (or move with --move)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if fullMove {
			return runAction(cmd, orchestrator.ActionFullMove)
		}
		return runAction(cmd, orchestrator.ActionFull)
	},
}

var analyzeCmd = &cobra.Command{
	Use:     "analyze",
	Aliases: []string{"analyze-all"},
	Short:   "Extract metadata from every source file and save the results",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, orchestrator.ActionAnalyzeAll)
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Load saved results and log the session plan without touching files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, orchestrator.ActionClassify)
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Load saved results, classify and copy files into session folders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, orchestrator.ActionCopy)
	},
}

var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Load saved results, classify and move files into session folders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, orchestrator.ActionMove)
	},
}

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-analyze the source folder whenever new media files settle",
	Long: `Watch the source folder and its subdirectories. After media files stop
arriving for the debounce period, the source is analyzed again and the results
file rewritten. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd, true)
		if err != nil {
			return err
		}
		defer s.Close()

		debounce := time.Duration(s.settings.WatchDebounceSeconds) * time.Second
		if cmd.Flags().Changed("debounce") {
			debounce = watchDebounce
		}

		runner := s.runner()
		w := watcher.New(&watcher.WatchConfig{
			Debounce:        debounce,
			StableThreshold: time.Second,
			IgnorePatterns:  s.settings.IgnorePatterns,
			Logger:          s.logger,
		}, func() error {
			_, err := runner.AnalyzeAll()
			return err
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		summary, err := w.Run(ctx, s.settings.SourceFolder)
		if err != nil {
			return err
		}
		if summary.Errors > 0 {
			return fmt.Errorf("%d of %d analyze runs failed", summary.Errors, summary.Runs)
		}
		return nil
	},
}

func init() {
	fullCmd.Flags().BoolVar(&fullMove, "move", false, "move files instead of copying")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 5*time.Second, "quiet period before re-analysis")

	rootCmd.AddCommand(fullCmd, analyzeCmd, classifyCmd, copyCmd, moveCmd, watchCmd)
}
