package ui

import (
	"context"
	"embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"sentlabel/internal/config"
	"sentlabel/internal/record"
	"sentlabel/internal/session"
)

//go:embed help/*.md
var helpFS embed.FS

const ruleWidth = 60

// Console presents a labeling session on a terminal. It implements
// session.Presenter.
type Console struct {
	out    io.Writer
	mode   record.Mode
	color  bool
	styles Styles
	md     *glamour.TermRenderer
}

// NewConsole builds a Console for out. Color is used only when enabled in
// cfg and out is a terminal.
func NewConsole(out io.Writer, mode record.Mode, cfg config.UIConfig) (*Console, error) {
	color := cfg.Color && IsTerminal(out)

	r := lipgloss.NewRenderer(out)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	theme := ThemeFor(cfg.Theme)
	r.SetHasDarkBackground(theme.IsDark)

	mdStyle := glamour.WithStandardStyle("notty")
	if color {
		switch cfg.Theme {
		case "dark", "light":
			mdStyle = glamour.WithStandardStyle(cfg.Theme)
		default:
			mdStyle = glamour.WithAutoStyle()
		}
	}
	md, err := glamour.NewTermRenderer(mdStyle, glamour.WithWordWrap(80))
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return &Console{
		out:    out,
		mode:   mode,
		color:  color,
		styles: NewStyles(r, theme),
		md:     md,
	}, nil
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (c *Console) rule(ch string) string {
	return c.styles.Divider.Render(strings.Repeat(ch, ruleWidth))
}

// Println writes a plain line.
func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

// Infof writes an informational line.
func (c *Console) Infof(format string, a ...any) {
	fmt.Fprintln(c.out, c.styles.Info.Render(fmt.Sprintf(format, a...)))
}

// Successf writes a success line.
func (c *Console) Successf(format string, a ...any) {
	fmt.Fprintln(c.out, c.styles.Success.Render(fmt.Sprintf(format, a...)))
}

// Errorf writes an error line.
func (c *Console) Errorf(format string, a ...any) {
	fmt.Fprintln(c.out, c.styles.Error.Render(fmt.Sprintf(format, a...)))
}

// ShowItem implements session.Presenter.
func (c *Console) ShowItem(v session.ItemView) {
	var b strings.Builder
	b.WriteString(c.rule("-") + "\n")

	num := fmt.Sprintf("[%d/%d]", v.Number, v.Total)
	indent := strings.Repeat(" ", len(num)+1)
	field := func(prefix, caption, text string) {
		fmt.Fprintf(&b, "%s%s %s\n", prefix, c.styles.Label.Render(caption), c.styles.Body.Render(text))
	}

	switch it := v.Item.(type) {
	case record.ClassificationItem:
		field(c.styles.Muted.Render(num)+" ", "Base :", it.Base)
		field(indent, "Test :", it.Test)
	case record.RankingItem:
		field(c.styles.Muted.Render(num)+" ", "Base :", it.Base)
		field(indent, " (a):", it.A)
		field(indent, " (b):", it.B)
	}
	if v.HasCurrent {
		fmt.Fprintf(&b, "%s%s\n", indent, c.styles.Current.Render("Current: "+v.Current.Display()))
	}
	fmt.Fprint(c.out, b.String())
}

// Notice implements session.Presenter.
func (c *Console) Notice(msg string) {
	fmt.Fprintln(c.out, c.styles.Warning.Render(msg))
}

// Markdown renders an embedded help page.
func (c *Console) Markdown(name string) error {
	src, err := helpFS.ReadFile("help/" + name + ".md")
	if err != nil {
		return fmt.Errorf("help page %s: %w", name, err)
	}
	out, err := c.md.Render(string(src))
	if err != nil {
		return fmt.Errorf("render help page %s: %w", name, err)
	}
	fmt.Fprint(c.out, out)
	return nil
}

// Intro shows the workflow introduction.
func (c *Console) Intro() error {
	fmt.Fprintln(c.out, c.rule("="))
	if err := c.Markdown("intro_" + c.mode.String()); err != nil {
		return err
	}
	fmt.Fprintln(c.out, c.rule("="))
	return nil
}

// Help implements session.Presenter with a three-page menu. Enter leaves
// the menu.
func (c *Console) Help(ctx context.Context, p session.Prompter) error {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.rule("="))
	fmt.Fprintln(c.out, c.styles.Title.Render("HELP MENU"))
	fmt.Fprintln(c.out, c.rule("="))
	fmt.Fprintln(c.out, "  1 - Show task-specific help")
	fmt.Fprintln(c.out, "  2 - Recall introduction message")
	fmt.Fprintln(c.out, "  3 - Show general help")
	fmt.Fprintln(c.out)

	for {
		choice, err := p.Prompt(ctx, "Select help option (1-3) or Enter to exit help: ")
		if err != nil {
			return err
		}
		var pages []string
		switch strings.TrimSpace(choice) {
		case "":
			fmt.Fprintln(c.out, "Returning to labeling...")
			return nil
		case "1":
			pages = []string{"general", c.mode.String()}
		case "2":
			pages = []string{"intro_" + c.mode.String()}
		case "3":
			pages = []string{"general"}
		default:
			c.Notice("Please select 1, 2, 3, or press Enter to exit help.")
			continue
		}
		fmt.Fprintln(c.out, c.rule("-"))
		for _, page := range pages {
			if err := c.Markdown(page); err != nil {
				return err
			}
		}
		fmt.Fprintln(c.out, c.rule("-"))
	}
}

// SavedPaths prints where a session's files were written.
func (c *Console) SavedPaths(output, log, report string) {
	fmt.Fprintln(c.out)
	c.Successf("Saved:")
	fmt.Fprintf(c.out, "  Human labels -> %s\n", output)
	fmt.Fprintf(c.out, "  Log JSON     -> %s\n", log)
	fmt.Fprintf(c.out, "  Report TXT   -> %s\n", report)
	fmt.Fprintln(c.out)
}
