// Package session implements the labeling loop: one pass over a queue of
// input items, one operator decision per item, with an undo history.
//
// The loop:
//
//	queue position → Validator → Presenter → Prompter → command
//
// Labels become Decisions on a history stack; "back" pops the stack and
// rewinds to the popped item. Nothing is written to disk here; callers
// persist the Result (or checkpoint through OnChange).
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"go.uber.org/zap"

	"sentlabel/internal/config"
	"sentlabel/internal/record"
	"sentlabel/internal/resume"
	"sentlabel/internal/validate"
)

// ErrInterrupted reports that the context was cancelled at a prompt.
var ErrInterrupted = errors.New("session interrupted")

// ErrInputClosed reports that operator input ended mid-session.
var ErrInputClosed = errors.New("operator input closed")

// EndState is how a session finished.
type EndState string

const (
	Exhausted EndState = "exhausted" // every queued item was visited
	Saved     EndState = "saved"     // operator chose save
	Aborted   EndState = "aborted"   // abort, confirmed quit, interrupt or EOF
)

// Decision is one accepted human label. Decisions are never modified; undo
// removes them.
type Decision struct {
	Pos     int // queue position
	Index   int // input index
	Key     record.Key
	Item    record.Item
	Record  *record.Record // input record, shared and read-only
	Human   record.Label
	Gold    record.Label
	Elapsed time.Duration
	Note    string
}

// Skip is a validation rejection or operator skip.
type Skip struct {
	Pos     int
	Index   int
	Reason  string
	Preview map[string]string
}

// Result is the outcome of Run.
type Result struct {
	End       EndState
	Decisions []Decision
	Skips     []Skip
}

// ItemView is what the Presenter shows for one item.
type ItemView struct {
	Number     int // 1-based queue position
	Total      int
	Item       record.Item
	Current    record.Label
	HasCurrent bool
}

// Presenter renders the session for the operator.
type Presenter interface {
	ShowItem(v ItemView)
	Notice(msg string)
	// Help runs the interactive help menu and returns when the operator
	// leaves it.
	Help(ctx context.Context, p Prompter) error
}

// Options configures an Engine.
type Options struct {
	Mode      record.Mode
	Inputs    []*record.Record
	Queue     []int // input indices in presentation order
	Validator *validate.Validator
	Prior     resume.State

	Prompter  Prompter
	Presenter Presenter
	Logger    *zap.Logger
	Now       func() time.Time

	// OnChange is called with the accepted decisions after every accept
	// and every undo.
	OnChange func(ctx context.Context, decisions []Decision) error
}

// Engine runs one labeling session. It is not safe for concurrent use.
type Engine struct {
	opts    Options
	logger  *zap.Logger
	review  bool
	history []Decision
	skips   []Skip
}

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Validator == nil {
		opts.Validator = validate.New(opts.Mode, config.DefaultMaxLen, opts.Logger)
	}
	return &Engine{
		opts:   opts,
		logger: opts.Logger,
		review: opts.Prior.Review(),
	}
}

// step is the outcome of presenting one item.
type step struct {
	next int
	end  EndState // empty while running
}

// Run drives the session until the queue is exhausted or the operator
// saves or aborts.
//
// For each queue position:
//  1. Validate the item; rejections are recorded as skips and passed over.
//  2. Show the item, with its stored label in review mode.
//  3. Read commands until one moves the cursor or ends the session.
//
// An aborted session returns its partial Result together with
// ErrInterrupted or ErrInputClosed when the abort was not an explicit
// command.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	queue := e.opts.Queue
	e.logger.Info("session started",
		zap.String("mode", e.opts.Mode.String()),
		zap.Int("queued", len(queue)),
		zap.Bool("review", e.review))

	pos := 0
	for pos < len(queue) {
		idx := queue[pos]
		if idx < 0 || idx >= len(e.opts.Inputs) {
			return nil, fmt.Errorf("queue position %d: input index %d out of range", pos, idx)
		}

		item, err := e.opts.Validator.Validate(e.opts.Inputs[idx])
		if err != nil {
			var rej *validate.Rejection
			if !errors.As(err, &rej) {
				return nil, err
			}
			e.skips = append(e.skips, Skip{Pos: pos, Index: idx, Reason: rej.Reason, Preview: rej.Preview})
			pos++
			continue
		}

		st, err := e.present(ctx, pos, idx, item)
		if err != nil {
			if errors.Is(err, ErrInterrupted) || errors.Is(err, ErrInputClosed) {
				return e.finish(Aborted), err
			}
			return nil, err
		}
		if st.end != "" {
			return e.finish(st.end), nil
		}
		pos = st.next
	}
	return e.finish(Exhausted), nil
}

func (e *Engine) present(ctx context.Context, pos, idx int, item record.Item) (step, error) {
	key := item.Key()
	view := ItemView{Number: pos + 1, Total: len(e.opts.Queue), Item: item}
	if e.review {
		view.Current, view.HasCurrent = e.opts.Prior.CurrentLabel(key)
	}
	e.opts.Presenter.ShowItem(view)

	start := e.opts.Now()
	var note string
	for {
		line, err := e.opts.Prompter.Prompt(ctx, promptFor(e.opts.Mode, view.HasCurrent))
		if err != nil {
			return step{}, e.promptErr(ctx, err)
		}

		cmd, label, arg := parseCommand(e.opts.Mode, line, view.HasCurrent)
		switch cmd {
		case CmdLabel, CmdKeep:
			if cmd == CmdKeep {
				label = view.Current
			}
			e.accept(ctx, Decision{
				Pos:     pos,
				Index:   idx,
				Key:     key,
				Item:    item,
				Record:  e.opts.Inputs[idx],
				Human:   label,
				Gold:    record.Gold(e.opts.Inputs[idx], e.opts.Mode),
				Elapsed: e.opts.Now().Sub(start),
				Note:    note,
			})
			return step{next: pos + 1}, nil

		case CmdSkip:
			e.skips = append(e.skips, Skip{
				Pos:     pos,
				Index:   idx,
				Reason:  validate.ReasonUserSkip,
				Preview: validate.ItemPreview(item),
			})
			e.logger.Debug("item skipped", zap.Int("index", idx))
			return step{next: pos + 1}, nil

		case CmdBack:
			d, ok := e.undo(ctx)
			if !ok {
				e.opts.Presenter.Notice("Nothing to undo.")
				continue
			}
			return step{next: d.Pos}, nil

		case CmdSave:
			return step{end: Saved}, nil

		case CmdAbort:
			return step{end: Aborted}, nil

		case CmdQuit:
			yes, err := Confirm(ctx, e.opts.Prompter, "Quit without saving? [y/N]: ", false, e.opts.Presenter.Notice)
			if err != nil {
				return step{}, e.promptErr(ctx, err)
			}
			if yes {
				return step{end: Aborted}, nil
			}
			e.opts.Presenter.ShowItem(view)

		case CmdNote:
			if arg == "" {
				e.opts.Presenter.Notice("Usage: note <text>")
				continue
			}
			note = arg
			e.opts.Presenter.Notice("Note recorded.")

		case CmdHelp:
			if err := e.opts.Presenter.Help(ctx, e.opts.Prompter); err != nil {
				return step{}, e.promptErr(ctx, err)
			}
			e.opts.Presenter.ShowItem(view)

		default:
			e.opts.Presenter.Notice(usageFor(e.opts.Mode))
		}
	}
}

// promptErr maps prompt failures onto the session's abort errors.
func (e *Engine) promptErr(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		e.logger.Info("session interrupted")
		return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	case errors.Is(err, io.EOF):
		e.logger.Info("operator input closed")
		return ErrInputClosed
	}
	return err
}

func (e *Engine) accept(ctx context.Context, d Decision) {
	e.history = append(e.history, d)
	e.logger.Debug("label accepted",
		zap.Int("index", d.Index),
		zap.String("human", string(d.Human)),
		zap.Duration("elapsed", d.Elapsed))
	e.changed(ctx)
}

// undo pops the most recent decision and forgets skips recorded at or
// after its position, since those items are visited again.
func (e *Engine) undo(ctx context.Context) (Decision, bool) {
	if len(e.history) == 0 {
		return Decision{}, false
	}
	d := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]

	kept := e.skips[:0]
	for _, s := range e.skips {
		if s.Pos < d.Pos {
			kept = append(kept, s)
		}
	}
	e.skips = kept

	e.logger.Debug("label undone", zap.Int("index", d.Index))
	e.changed(ctx)
	return d, true
}

func (e *Engine) changed(ctx context.Context) {
	if e.opts.OnChange == nil {
		return
	}
	if err := e.opts.OnChange(ctx, e.Decisions()); err != nil {
		e.logger.Error("checkpoint failed", zap.Error(err))
		e.opts.Presenter.Notice("Warning: checkpoint write failed: " + err.Error())
	}
}

// Decisions returns a copy of the accepted decisions, oldest first.
func (e *Engine) Decisions() []Decision {
	return slices.Clone(e.history)
}

func (e *Engine) finish(end EndState) *Result {
	e.logger.Info("session ended",
		zap.String("end", string(end)),
		zap.Int("decisions", len(e.history)),
		zap.Int("skips", len(e.skips)))
	return &Result{
		End:       end,
		Decisions: e.Decisions(),
		Skips:     slices.Clone(e.skips),
	}
}

// Labels returns the human and gold label sequences of the decisions.
func Labels(ds []Decision) (human, gold []record.Label) {
	human = make([]record.Label, len(ds))
	gold = make([]record.Label, len(ds))
	for i, d := range ds {
		human[i] = d.Human
		gold[i] = d.Gold
	}
	return human, gold
}
