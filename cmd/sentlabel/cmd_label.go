package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sentlabel/cmd/sentlabel/ui"
	"sentlabel/internal/logging"
	"sentlabel/internal/metrics"
	"sentlabel/internal/paths"
	"sentlabel/internal/reconcile"
	"sentlabel/internal/record"
	"sentlabel/internal/report"
	"sentlabel/internal/resume"
	"sentlabel/internal/session"
	"sentlabel/internal/sessionlog"
	"sentlabel/internal/shuffle"
	"sentlabel/internal/store"
	"sentlabel/internal/validate"
)

const (
	reviewPrompt   = "This input file has already been completely labeled. Do you want to review/revise? [Y/n]: "
	reviewReminder = "Please type 'y' or 'n'."
)

var inputPath string

var classifyCmd = &cobra.Command{
	Use:   "classify [input]",
	Short: "Label sentence pairs as similar (t) or not (f)",
	Long: `Presents each {base, test} pair and asks whether the two sentences are
similar. Type t or f to label, s to skip, back to undo, save to stop early.
Type help during a session for the full list of commands.`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLabel(cmd, args, record.Classify)
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank [input]",
	Short: "Choose which of two sentences (a/b) is more similar to a base",
	Long: `Presents each {base, a, b} triple and asks which candidate is more
similar to the base. Type a or b to label, s to skip, back to undo, save to
stop early. Type help during a session for the full list of commands.`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLabel(cmd, args, record.Rank)
	},
}

// runLabel drives one labeling session:
//  1. Load the input and detect prior output for it
//  2. Ask before revising a fully labeled input
//  3. Shuffle, drop completed items and run the session engine
//  4. Reconcile with prior output and write labels, log and report
//
// An aborted session writes nothing beyond optional checkpoints.
func runLabel(cmd *cobra.Command, args []string, mode record.Mode) error {
	arg := inputPath
	if len(args) > 0 {
		if arg != "" && arg != args[0] {
			return usageError{fmt.Errorf("input given both as --input %q and argument %q", arg, args[0])}
		}
		arg = args[0]
	}
	if arg == "" {
		return usageError{errors.New("an input file is required (--input or positional argument)")}
	}

	start := now()
	p := paths.New(cfg.Dirs).WithClock(now)
	input := p.ResolveInput(arg)
	inputs, err := store.ReadRecords(input)
	if err != nil {
		return fmt.Errorf("failed to load input %s: %w", input, err)
	}
	if err := p.Ensure(); err != nil {
		return err
	}
	files := p.ForSession(input)

	log := logger.Get(logging.CategorySession).With(
		zap.String("mode", mode.String()),
		zap.String("input", input))
	log.Info("session starting", zap.Int("items", len(inputs)), zap.String("output", files.Output))

	console, err := ui.NewConsole(stdout, mode, cfg.UI)
	if err != nil {
		return err
	}
	if err := console.Intro(); err != nil {
		return err
	}

	prior := resume.Detect(files.Output, inputs, mode, logger.Get(logging.CategoryResume))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompter := session.NewLinePrompter(stdin, stdout)
	defer prompter.Close()

	switch {
	case prior.Review():
		ok, err := session.Confirm(ctx, prompter, reviewPrompt, true, func(string) {
			console.Println(reviewReminder)
		})
		if err != nil {
			return inputErr(err)
		}
		if !ok {
			console.Println("Exiting without changes.")
			log.Info("review declined")
			return nil
		}
		console.Infof("Review mode: You can revise any previous labels.")
	case prior.Resuming():
		console.Infof("Resuming from item %d. %d items already completed.", prior.ResumeIndex+1, len(prior.Completed))
	}

	seedValue := cfg.Seed
	console.Infof("Loaded %d items. Shuffled with seed=%d.", len(inputs), seedValue)
	queue := prior.Queue(shuffle.Order(len(inputs), seedValue))
	log.Debug("queue built", zap.Int("queued", len(queue)), zap.Int("completed", len(prior.Completed)))

	ann := annotator()
	reconcileInput := func(ds []session.Decision) reconcile.Input {
		return reconcile.Input{
			Mode:      mode,
			Existing:  prior.Existing,
			Decisions: ds,
			Review:    prior.Review(),
			Policy:    cfg.Session.ReviewPolicy,
			Annotator: ann,
		}
	}

	opts := session.Options{
		Mode:      mode,
		Inputs:    inputs,
		Queue:     queue,
		Validator: validate.New(mode, cfg.MaxLen, logger.Get(logging.CategoryValidate)),
		Prior:     prior,
		Prompter:  prompter,
		Presenter: console,
		Logger:    log,
		Now:       now,
	}
	if cfg.Session.FlushEachDecision {
		opts.OnChange = func(_ context.Context, ds []session.Decision) error {
			return checkpoint(files.Output, reconcileInput(ds))
		}
	}

	res, runErr := session.New(opts).Run(ctx)
	if res == nil {
		return runErr
	}
	if res.End == session.Aborted {
		log.Warn("session aborted", zap.Int("decisions", len(res.Decisions)), zap.Error(runErr))
		return errors.Join(errAborted, runErr)
	}

	labeled, err := reconcile.Reconcile(reconcileInput(res.Decisions))
	if err != nil {
		return err
	}
	if err := store.WriteRecords(files.Output, labeled); err != nil {
		return err
	}

	gold, human := reconcile.GoldPairs(mode, labeled, inputs)
	summary := metrics.Compute(mode, gold, human)

	header := sessionlog.Header{
		Cmd:               mode.String(),
		Input:             input,
		Seed:              seedValue,
		MaxLen:            cfg.MaxLen,
		ExistingCompleted: len(prior.Completed),
		Annotator:         ann,
	}
	if prior.Exists {
		idx := prior.ResumeIndex
		header.ResumingFrom = &idx
	}
	slog := sessionlog.New(files.Log, header, start)
	slog.AddResult(res)
	if err := slog.Finalize(summary, now()); err != nil {
		return err
	}

	rh := report.Header{
		Cmd:       mode.String(),
		Input:     input,
		Seed:      seedValue,
		MaxLen:    cfg.MaxLen,
		Annotator: ann,
		Time:      start,
	}
	if prior.Resuming() {
		rh.ResumeNote = report.ResumeNote(prior.ResumeIndex, len(prior.Completed))
	}
	if err := report.Write(files.Report, rh, report.Results{
		Metrics:     summary,
		HumanOutput: files.Output,
		LogPath:     files.Log,
	}); err != nil {
		return err
	}

	logger.Get(logging.CategoryReport).Info("session saved",
		zap.String("end_state", string(res.End)),
		zap.Int("decisions", len(res.Decisions)),
		zap.Int("skips", len(res.Skips)),
		zap.Int("records", len(labeled)),
		zap.Float64("accuracy", summary.Accuracy()))

	console.SavedPaths(files.Output, files.Log, files.Report)
	return nil
}

// inputErr maps a failed prompt outside the session engine to the same
// errors the engine reports.
func inputErr(err error) error {
	switch {
	case errors.Is(err, io.EOF):
		return session.ErrInputClosed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", session.ErrInterrupted, err)
	}
	return err
}

// checkpoint rewrites the output with the decisions made so far.
func checkpoint(path string, in reconcile.Input) error {
	labeled, err := reconcile.Reconcile(in)
	if err != nil {
		return err
	}
	if err := store.WriteRecords(path, labeled); err != nil {
		return err
	}
	logger.Get(logging.CategoryStore).Debug("checkpoint written",
		zap.String("path", path), zap.Int("records", len(labeled)))
	return nil
}

func init() {
	for _, c := range []*cobra.Command{classifyCmd, rankCmd} {
		c.Flags().StringVarP(&inputPath, "input", "i", "", "Input JSON file (array of objects)")
	}
}
