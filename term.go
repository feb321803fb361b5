package main

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

var isInputTTY = sync.OnceValue(func() bool {
	return isatty.IsTerminal(os.Stdin.Fd())
})

var isOutputTTY = sync.OnceValue(func() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
})

var isErrTTY = sync.OnceValue(func() bool {
	return isatty.IsTerminal(os.Stderr.Fd())
})

var stdoutRenderer = sync.OnceValue(func() *lipgloss.Renderer {
	return lipgloss.DefaultRenderer()
})

var stdoutStyles = sync.OnceValue(func() styles {
	return makeStyles(stdoutRenderer())
})

var stderrRenderer = sync.OnceValue(func() *lipgloss.Renderer {
	return lipgloss.NewRenderer(os.Stderr, termenv.WithColorCache(true))
})

var stderrStyles = sync.OnceValue(func() styles {
	return makeStyles(stderrRenderer())
})

func newLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          appName,
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	})
}
