package cmd

import "github.com/fatih/color"

// Output styles. fatih/color drops the escapes when NO_COLOR is set or
// stdout is not a terminal.
var (
	successStyle   = color.New(color.FgGreen)
	errorStyle     = color.New(color.FgRed)
	warningStyle   = color.New(color.FgYellow)
	highlightStyle = color.New(color.FgCyan)
	codeStyle      = color.New(color.FgMagenta)
	mutedStyle     = color.New(color.Faint)
)

func success(s string) string   { return successStyle.Sprint(s) }
func warning(s string) string   { return warningStyle.Sprint(s) }
func highlight(s string) string { return highlightStyle.Sprint(s) }
func code(s string) string      { return codeStyle.Sprint(s) }
func muted(s string) string     { return mutedStyle.Sprint(s) }
