package session

import (
	"strings"

	"sentlabel/internal/record"
)

// Command is one operator instruction at the item prompt.
type Command string

const (
	CmdLabel   Command = "label"
	CmdKeep    Command = "keep" // empty input in review mode
	CmdSkip    Command = "skip"
	CmdBack    Command = "back"
	CmdSave    Command = "save"
	CmdAbort   Command = "abort"
	CmdQuit    Command = "quit"
	CmdNote    Command = "note"
	CmdHelp    Command = "help"
	CmdUnknown Command = ""
)

// parseCommand classifies one line of input. Labels are case-insensitive;
// controls are whole words so they never collide with a label letter.
// canKeep enables the empty-input "keep current label" command.
func parseCommand(mode record.Mode, input string, canKeep bool) (Command, record.Label, string) {
	input = strings.TrimSpace(input)
	lower := strings.ToLower(input)

	if lower == "" {
		if canKeep {
			return CmdKeep, "", ""
		}
		return CmdUnknown, "", ""
	}

	if label, ok := parseLabel(mode, lower); ok {
		return CmdLabel, label, ""
	}

	switch lower {
	case "s", "skip":
		return CmdSkip, "", ""
	case "back", "undo":
		return CmdBack, "", ""
	case "save":
		return CmdSave, "", ""
	case "abort":
		return CmdAbort, "", ""
	case "quit", "exit":
		return CmdQuit, "", ""
	case "h", "help", "?":
		return CmdHelp, "", ""
	case "note":
		return CmdNote, "", ""
	}

	if strings.HasPrefix(lower, "note ") || strings.HasPrefix(lower, "note:") {
		return CmdNote, "", strings.TrimSpace(input[5:])
	}

	return CmdUnknown, "", input
}

func parseLabel(mode record.Mode, lower string) (record.Label, bool) {
	switch mode {
	case record.Classify:
		switch lower {
		case "t", "true":
			return record.LabelTrue, true
		case "f", "false":
			return record.LabelFalse, true
		}
	case record.Rank:
		switch lower {
		case "a":
			return record.LabelA, true
		case "b":
			return record.LabelB, true
		}
	}
	return "", false
}

// promptFor returns the item prompt for the mode.
func promptFor(mode record.Mode, canKeep bool) string {
	if mode == record.Rank {
		if canKeep {
			return "Label ('a'/'b' or 's' to skip, Enter to keep current): "
		}
		return "Label ('a'/'b' or 's' to skip): "
	}
	if canKeep {
		return "Label (t/f) or 's' to skip, Enter to keep current: "
	}
	return "Label (t/f or s to skip): "
}

// usageFor is the reminder shown after unrecognized input.
func usageFor(mode record.Mode) string {
	labels := "'t', 'f'"
	if mode == record.Rank {
		labels = "'a', 'b'"
	}
	return "Please type " + labels + ", or 's' to skip. Other commands: back, save, abort, quit, note <text>, help."
}
