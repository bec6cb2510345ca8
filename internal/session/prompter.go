package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Prompter reads one line of operator input per call.
type Prompter interface {
	// Prompt shows prompt and blocks until a line arrives or ctx is done.
	// It returns io.EOF once the input is exhausted.
	Prompt(ctx context.Context, prompt string) (string, error)
}

type lineResult struct {
	text string
	err  error
}

// LinePrompter reads lines from a reader on a background goroutine so a
// blocked read never prevents Prompt from observing ctx cancellation.
type LinePrompter struct {
	out   io.Writer
	lines chan lineResult
	done  chan struct{}
	once  sync.Once
}

// NewLinePrompter starts reading from in. Prompts are written to out.
// Close must be called to release the reader goroutine.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	p := &LinePrompter{
		out:   out,
		lines: make(chan lineResult),
		done:  make(chan struct{}),
	}
	go p.read(in)
	return p
}

func (p *LinePrompter) read(in io.Reader) {
	defer close(p.lines)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		select {
		case p.lines <- lineResult{text: sc.Text()}:
		case <-p.done:
			return
		}
	}
	if err := sc.Err(); err != nil {
		select {
		case p.lines <- lineResult{err: err}:
		case <-p.done:
		}
	}
}

// Prompt implements Prompter.
func (p *LinePrompter) Prompt(ctx context.Context, prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(p.out, prompt)
	}
	select {
	case r, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		if r.err != nil {
			return "", fmt.Errorf("read input: %w", r.err)
		}
		return strings.TrimRight(r.text, "\r"), nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.done:
		return "", io.EOF
	}
}

// Close stops the reader goroutine once its pending read returns.
func (p *LinePrompter) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

// Confirm asks a yes/no question until it gets an answer. Empty input
// selects def. invalid is called with a reminder after other input.
func Confirm(ctx context.Context, p Prompter, prompt string, def bool, invalid func(string)) (bool, error) {
	for {
		line, err := p.Prompt(ctx, prompt)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if invalid != nil {
			invalid("Please type 'y' or 'n'.")
		}
	}
}
