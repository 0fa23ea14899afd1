// Package main provides the CLI entry point for camsort.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"camsort/internal/config"
	"camsort/internal/logging"
	"camsort/internal/messages"
	"camsort/internal/orchestrator"
	"camsort/internal/output"
	"camsort/internal/progress"
)

var (
	configPath string
	overrides  settingsFlags
)

// settingsFlags holds the command line overrides. Only flags the user set are
// applied on top of the config file and environment.
type settingsFlags struct {
	source          string
	target          string
	results         string
	replace         bool
	minFiles        int
	maxGap          int
	verbose         bool
	journalDir      string
	logDir          string
	logLevel        string
	failurePolicy   string
	collisionPolicy string
	symlinkPolicy   string
}

var rootCmd = &cobra.Command{
	Use:   "camsort",
	Short: "Sort camera files into shooting-session folders",
	Long: `camsort analyzes photos and videos from a camera card, groups them into
shooting sessions by capture time and copies or moves each session into its
own folder named after its start, length and dominant look.

Running camsort without a command performs the full pipeline: analyze, save
the results, classify and copy.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, orchestrator.ActionFull)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "settings file (.json, .toml, .yaml)")
	pf.StringVarP(&overrides.source, "source", "s", "", "source folder to analyze")
	pf.StringVarP(&overrides.target, "target", "t", "", "target folder for session folders")
	pf.StringVar(&overrides.results, "results", "", "analysis results file (.csv, .db, .sqlite)")
	pf.BoolVar(&overrides.replace, "replace", false, "remove the target folder before materializing")
	pf.IntVar(&overrides.minFiles, "min-files", 0, "minimum files in a session folder")
	pf.IntVar(&overrides.maxGap, "max-gap", 0, "maximum minutes between files in a session")
	pf.BoolVarP(&overrides.verbose, "verbose", "v", false, "log per-file details")
	pf.StringVar(&overrides.journalDir, "journal-dir", "", "journal directory (empty disables the journal)")
	pf.StringVar(&overrides.logDir, "log-dir", "", "also write logs to camsort.log in this directory")
	pf.StringVar(&overrides.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&overrides.failurePolicy, "failure-policy", "", "abort or continue on a failed file")
	pf.StringVar(&overrides.collisionPolicy, "collision-policy", "", "overwrite or rename existing files")
	pf.StringVar(&overrides.symlinkPolicy, "symlink-policy", "", "skip, follow or error on symlinks")
}

// loadSettings reads the config file (defaults when none is given), then
// applies CAMSORT_* environment variables and finally the flags.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	var settings *config.Settings
	var err error
	if configPath != "" {
		settings, err = config.Load(configPath)
	} else {
		s := config.Default()
		settings = &s
	}
	if err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(settings, os.LookupEnv); err != nil {
		return nil, err
	}
	applyFlags(cmd, settings)
	return settings, nil
}

func applyFlags(cmd *cobra.Command, s *config.Settings) {
	flags := cmd.Flags()
	if flags.Changed("source") {
		s.SourceFolder = overrides.source
	}
	if flags.Changed("target") {
		s.TargetFolder = overrides.target
	}
	if flags.Changed("results") {
		s.ResultsFilePath = overrides.results
	}
	if flags.Changed("replace") {
		s.IsReplaceTarget = overrides.replace
	}
	if flags.Changed("min-files") {
		s.MinFolderFilesCount = overrides.minFiles
	}
	if flags.Changed("max-gap") {
		s.MaxMinutesBetween = overrides.maxGap
	}
	if flags.Changed("verbose") {
		s.Verbose = overrides.verbose
	}
	if flags.Changed("journal-dir") {
		s.JournalDir = overrides.journalDir
	}
	if flags.Changed("log-dir") {
		s.LogDir = overrides.logDir
	}
	if flags.Changed("log-level") {
		s.LogLevel = overrides.logLevel
	}
	if flags.Changed("failure-policy") {
		s.FailurePolicy = overrides.failurePolicy
	}
	if flags.Changed("collision-policy") {
		s.CollisionPolicy = overrides.collisionPolicy
	}
	if flags.Changed("symlink-policy") {
		s.SymlinkPolicy = overrides.symlinkPolicy
	}
}

// session is the wiring shared by every command that runs the core.
type session struct {
	settings *config.Settings
	out      *output.Output
	logger   logging.Logger
	logFile  io.Closer
}

// newSession loads and validates settings and builds the console and log
// sinks. checkPaths also validates the source folder. The caller must
// defer Close.
func newSession(cmd *cobra.Command, checkPaths bool) (*session, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		return nil, &config.ConfigError{Type: config.InvalidValue, Message: "log_level: " + err.Error(), Err: err}
	}

	outCfg := output.DefaultConfig()
	outCfg.Verbose = settings.Verbose
	out := output.New(outCfg)

	s := &session{settings: settings, out: out}
	if settings.LogDir != "" {
		logger, f, err := logging.NewFileLogger(settings.LogDir, out, level)
		if err != nil {
			return nil, err
		}
		s.logger, s.logFile = logger, f
	} else {
		s.logger = logging.New(out, level)
	}

	var result *config.ValidationResult
	if checkPaths {
		result = config.ValidateSettings(settings)
	} else {
		result = config.ValidateValues(settings)
	}
	for _, w := range result.Warnings {
		s.logger.Warn(messages.ConfigWarning, "field", w.Field, "e", w.Message)
	}
	if err := result.Err(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) runner() *orchestrator.Runner {
	return orchestrator.New(s.settings, orchestrator.Options{
		Logger:   s.logger,
		Progress: progress.NewMulti(s.out, progress.NewLogged(s.logger)),
	})
}

func (s *session) Close() error {
	s.out.EndProgress()
	if s.logFile != nil {
		return s.logFile.Close()
	}
	return nil
}

func runAction(cmd *cobra.Command, action orchestrator.Action) error {
	scans := action == orchestrator.ActionFull || action == orchestrator.ActionFullMove ||
		action == orchestrator.ActionAnalyzeAll
	s, err := newSession(cmd, scans)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.runner().Run(action); err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}
