package commands

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"martianoff/galamatch/galaerr"
)

var (
	colorOnce sync.Once
	colorOn   bool
)

func detectColor() bool {
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

func useColor() bool {
	if noColor {
		return false
	}
	colorOnce.Do(func() {
		colorOn = detectColor()
	})
	return colorOn
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func paint(code, s string) string {
	if !useColor() {
		return s
	}
	return code + s + ansiReset
}

func formatDiagnostic(d galaerr.Diagnostic) string {
	code := ansiYellow
	if d.Severity == galaerr.SeverityError {
		code = ansiRed
	}
	return paint(code, d.String())
}
