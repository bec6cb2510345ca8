package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sentlabel/internal/logging"
	"sentlabel/internal/merge"
	"sentlabel/internal/paths"
)

var (
	mergePattern     string
	mergeOutput      string
	mergeConcurrency int
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Combine labeled outputs into one deduplicated file",
	Long: `Reads every JSON file matching --pattern (default: all JSON files in the
outputs directory), concatenates their records in sorted file order and
drops records whose texts and human labels repeat an earlier record.
Files that are not a JSON array of objects are skipped.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := paths.New(cfg.Dirs).WithClock(now)
		if err := p.Ensure(); err != nil {
			return err
		}
		pattern := mergePattern
		if pattern == "" {
			pattern = p.DefaultMergePattern()
		}
		out := mergeOutput
		if out == "" {
			out = p.MergedOutput()
		}

		m := merge.New(logger.Get(logging.CategoryMerge))
		if mergeConcurrency > 0 {
			m = m.WithConcurrency(mergeConcurrency)
		}
		res, err := m.Run(cmd.Context(), pattern, out)
		if err != nil {
			return err
		}
		for _, f := range res.Skipped {
			fmt.Fprintf(stderr, "Skipping %s: not a JSON array of objects\n", f)
		}
		fmt.Fprintf(stdout, "Merged -> %s\n", out)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergePattern, "pattern", "", "Glob of labeled outputs to merge (default <outputs>/*.json)")
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Merged file (default <outputs_merged>/merged_<timestamp>.json)")
	mergeCmd.Flags().IntVar(&mergeConcurrency, "concurrency", merge.DefaultConcurrency, "Files parsed in parallel")
}
