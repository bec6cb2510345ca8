package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sentlabel/internal/config"
	"sentlabel/internal/logging"
	"sentlabel/internal/record"
)

var (
	// Global flags
	verbose        bool
	configPath     string
	seed           int64
	maxLen         int
	annotatorID    string
	annotatorName  string
	annotatorEmail string

	// Effective configuration and diagnostics, set in PersistentPreRunE.
	cfg    *config.Config
	logger *logging.Logger

	// Swappable for tests.
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	now              = time.Now
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sentlabel",
	Short: "Human-in-the-loop sentence similarity labeling",
	Long: `sentlabel presents sentence pairs (classify) or triples (rank) one at a
time, records your labels with the gold label hidden, and reports how well
they agree with it.

Progress is matched to the input by content, so an interrupted input can be
resumed and a finished one reviewed. Outputs from several annotators or
sessions can be combined with merge.`,
	Args:          usageArgs(cobra.NoArgs),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		logger, err = logging.New(logging.Options{
			Config:  cfg.Logging,
			LogsDir: cfg.Dirs.Logs,
			Verbose: verbose,
			Stderr:  stderr,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Get(logging.CategoryBoot).Debug("configuration loaded",
			zap.String("config", configPath),
			zap.String("command", cmd.Name()),
			zap.Int64("seed", cfg.Seed),
			zap.Int("max_len", cfg.MaxLen))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// applyFlagOverrides copies explicitly set flags over the loaded config.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		c.Seed = seed
	}
	if flags.Changed("max-len") {
		c.MaxLen = maxLen
	}
}

// annotator returns the annotator from flags, or nil when none were given.
func annotator() *record.Annotator {
	return record.NewAnnotator(annotatorID, annotatorName, annotatorEmail)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to YAML config")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", config.DefaultSeed, "Random seed for shuffling items")
	rootCmd.PersistentFlags().IntVar(&maxLen, "max-len", config.DefaultMaxLen, "Max characters per field; longer records are skipped")
	rootCmd.PersistentFlags().StringVar(&annotatorID, "annotator-id", "", "Annotator id")
	rootCmd.PersistentFlags().StringVar(&annotatorName, "annotator-name", "", "Annotator full name")
	rootCmd.PersistentFlags().StringVar(&annotatorEmail, "annotator-email", "", "Annotator email")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	rootCmd.AddCommand(classifyCmd, rankCmd, mergeCmd, configCmd)
}

func main() {
	os.Exit(execute())
}

// execute runs the command tree and maps the outcome to an exit code.
func execute() int {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Close()
	}
	code := exitCode(err)
	switch code {
	case exitOK:
	case exitInterrupted:
		fmt.Fprintln(stderr, "Interrupted; nothing from this session was saved.")
	case exitUsage:
		fmt.Fprintf(stderr, "Error: %v\nRun 'sentlabel --help' for usage.\n", err)
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}
