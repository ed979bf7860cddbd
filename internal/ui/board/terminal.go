package board

import "strings"

// TerminalLine is one console line of the post-submission flourish.
type TerminalLine struct {
	Text    string
	Level   string
	DelayMS int
}

// terminalScript is purely decorative; no step reflects real backend work.
var terminalScript = []TerminalLine{
	{Text: "[INFO]: Connecting to Mojang Auth Servers...", DelayMS: 200},
	{Text: "[INFO]: Validating UUID for user...", DelayMS: 800},
	{Text: "[WARN]: Checking punishment history (LiteBans)...", DelayMS: 1500},
	{Text: "[INFO]: History Clear. Linking Discord ID...", DelayMS: 2400},
	{Text: "[SUCCESS]: Application queued in /staff-requests.", DelayMS: 3200},
}

// TerminalLines returns the fixed console script with each line tagged by level.
func TerminalLines() []TerminalLine {
	lines := make([]TerminalLine, len(terminalScript))
	for i, line := range terminalScript {
		line.Level = lineLevel(line.Text)
		lines[i] = line
	}
	return lines
}

func lineLevel(text string) string {
	switch {
	case strings.HasPrefix(text, "[SUCCESS]"):
		return "success"
	case strings.Contains(text, "WARN"):
		return "warn"
	default:
		return "info"
	}
}
