package main

import (
	"fmt"
	"os"
)

// ANSI escapes, disabled by --no-color.
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + ansiReset
}

func printSuccess(format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(ansiGreen, "✓ "+fmt.Sprintf(format, args...)))
}

func printError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(ansiRed, "✗ "+fmt.Sprintf(format, args...)))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(ansiYellow, "⚠ "+fmt.Sprintf(format, args...)))
}

// printField writes one aligned row of a label/value table. The padding is
// applied before coloring so escape codes do not skew the columns.
func printField(label, format string, args ...any) {
	padded := fmt.Sprintf("%-12s", label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", colorize(ansiBold, padded), fmt.Sprintf(format, args...))
}

// progressLine redraws the in-place progress indicator; finishProgress
// terminates it once the run is over.
func progressLine(percent int) {
	fmt.Fprintf(os.Stderr, "\r%s %3d%%", colorize(ansiCyan, "analyzing"), percent)
}

func finishProgress() {
	fmt.Fprintln(os.Stderr)
}
