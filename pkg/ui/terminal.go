package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔═══════════════════════════════════════════════════════╗
    ║ ██╗    ██╗██╗   ██╗███╗   ██╗██╗██╗  ██╗██╗           ║
    ║ ██║    ██║╚██╗ ██╔╝████╗  ██║██║██║ ██╔╝██║           ║
    ║ ██║ █╗ ██║ ╚████╔╝ ██╔██╗ ██║██║█████╔╝ ██║           ║
    ║ ██║███╗██║  ╚██╔╝  ██║╚██╗██║██║██╔═██╗ ██║           ║
    ║ ╚███╔███╔╝   ██║   ██║ ╚████║██║██║  ██╗██║           ║
    ║  ╚══╝╚══╝    ╚═╝   ╚═╝  ╚═══╝╚═╝╚═╝  ╚═╝╚═╝           ║
    ║        LAB RESULTS RETRIEVAL FOR wyniki.diag.pl       ║
    ╚═══════════════════════════════════════════════════════╝
`

var (
	modeMu       sync.RWMutex
	quietMode    bool
	progressOnly bool
	noColor      bool
	output       io.Writer = os.Stdout
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if NoColor() {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(quiet bool) {
	modeMu.Lock()
	defer modeMu.Unlock()
	quietMode = quiet
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return quietMode
}

// SetProgressOnlyMode keeps the progress output and drops informational lines
func SetProgressOnlyMode(on bool) {
	modeMu.Lock()
	defer modeMu.Unlock()
	progressOnly = on
}

// IsProgressOnlyMode reports whether progress-only mode is on
func IsProgressOnlyMode() bool {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return progressOnly
}

// SetNoColor disables ANSI colors
func SetNoColor(disabled bool) {
	modeMu.Lock()
	defer modeMu.Unlock()
	noColor = disabled
}

// NoColor reports whether colors are disabled
func NoColor() bool {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return noColor
}

// SetOutput redirects console output and returns the previous writer
func SetOutput(w io.Writer) io.Writer {
	modeMu.Lock()
	defer modeMu.Unlock()
	prev := output
	output = w
	return prev
}

// Output returns the current console writer
func Output() io.Writer {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return output
}

func chatty() bool {
	return !IsQuietMode() && !IsProgressOnlyMode()
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if !chatty() {
		return
	}
	fmt.Fprint(Output(), Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output(), Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output(), Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintln(Output(), Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	if !chatty() {
		return
	}
	fmt.Fprintf(Output(), "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	if len(args) > 0 {
		fmt.Fprintln(Output(), Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output(), Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if !chatty() {
		return
	}
	fmt.Fprintln(Output(), Magenta(msg))
}
