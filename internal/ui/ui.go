// Released under an MIT license. See LICENSE.

// Package ui provides the terminal side of a cellar session: reading lines
// and rendering what the agent sends back.
package ui

import (
	"bufio"
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/michaelmacinnis/cellar/internal/interface/console"
	"github.com/michaelmacinnis/cellar/internal/system/history"
)

// Reader is a console.Reader that holds resources until closed.
type Reader interface {
	console.Reader
	io.Closer
}

// NewReader returns a line editor with history when stdin and stdout are
// terminals, and a plain line reader over stdin otherwise.
func NewReader(historyPath string, logger *log.Logger) Reader {
	if isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd()) {
		return NewTerminal(historyPath, logger)
	}

	return NewLines(os.Stdin)
}

// Terminal reads lines with liner.
type Terminal struct {
	cli     *liner.State
	history string
	logger  *log.Logger
}

// NewTerminal takes over the terminal and loads history from historyPath.
func NewTerminal(historyPath string, logger *log.Logger) *Terminal {
	cli := liner.NewLiner()
	cli.SetCtrlCAborts(true)

	if historyPath != "" {
		if err := history.Load(historyPath, cli.ReadHistory); err != nil {
			logger.Printf("history: %v", err)
		}
	}

	return &Terminal{cli: cli, history: historyPath, logger: logger}
}

// ReadLine implements console.Reader.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	line, err := t.cli.Prompt(prompt)

	switch {
	case err == nil:
		if strings.TrimSpace(line) != "" {
			t.cli.AppendHistory(line)
		}

		return line, nil
	case errors.Is(err, liner.ErrPromptAborted):
		return "", console.ErrAborted
	default:
		return "", err
	}
}

// Close saves history and gives the terminal back.
func (t *Terminal) Close() error {
	if t.history != "" {
		if err := history.Save(t.history, t.cli.WriteHistory); err != nil {
			t.logger.Printf("history: %v", err)
		}
	}

	return t.cli.Close()
}

// Lines reads lines without prompting.
type Lines struct {
	scanner *bufio.Scanner
}

// NewLines reads lines from r.
func NewLines(r io.Reader) *Lines {
	return &Lines{scanner: bufio.NewScanner(r)}
}

// ReadLine implements console.Reader.
func (l *Lines) ReadLine(string) (string, error) {
	if l.scanner.Scan() {
		return strings.TrimSuffix(l.scanner.Text(), "\r"), nil
	}

	if err := l.scanner.Err(); err != nil {
		return "", err
	}

	return "", io.EOF
}

// Close implements io.Closer.
func (l *Lines) Close() error {
	return nil
}
