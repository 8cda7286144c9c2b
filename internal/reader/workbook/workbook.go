// Released under an MIT license. See LICENSE.

// Package workbook reads workbook documents: markdown with YAML front matter
// whose fenced code blocks are the cells to evaluate.
package workbook

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/michaelmacinnis/cellar/internal/interface/backend"
)

// DefaultLanguage is the language of a workbook with no labelled cells.
const DefaultLanguage = "csharp"

// Manifest is a workbook's front matter.
type Manifest struct {
	UTI       string            `yaml:"uti"`
	ID        string            `yaml:"id"`
	Title     string            `yaml:"title"`
	Platforms []string          `yaml:"platforms"`
	Packages  []backend.Package `yaml:"packages"`
}

// Cell is a code cell and the prose that precedes it.
type Cell struct {
	Language string
	Prose    string
	Source   string
}

// T (workbook) is a parsed workbook.
type T struct {
	Manifest

	Cells    []Cell
	Language string
}

type workbook = T

// Open reads and parses the workbook at path. Errors from the file system
// are wrapped, so errors.Is(err, fs.ErrNotExist) reports a missing file.
func Open(path string) (*T, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}

	w, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("workbook: %s: %w", path, err)
	}

	return w, nil
}

// Parse parses src as a workbook.
func Parse(src []byte) (*T, error) {
	front, body := split(src)

	w := &workbook{}

	if front != nil {
		if err := yaml.Unmarshal(front, &w.Manifest); err != nil {
			return nil, fmt.Errorf("front matter: %w", err)
		}
	}

	root := goldmark.New().Parser().Parse(text.NewReader(body))

	var prose []string

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		fenced, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			if s := raw(n, body); s != "" {
				prose = append(prose, s)
			}

			continue
		}

		c := Cell{
			Language: string(fenced.Language(body)),
			Prose:    strings.Join(prose, "\n\n"),
			Source:   contents(fenced, body),
		}
		prose = nil

		if w.Language == "" && c.Language != "" {
			w.Language = c.Language
		}

		w.Cells = append(w.Cells, c)
	}

	if w.Language == "" {
		w.Language = DefaultLanguage
	}

	return w, nil
}

// Platform returns the first platform the workbook declares for which
// supported returns true.
func (w *workbook) Platform(supported func(string) bool) (string, bool) {
	for _, p := range w.Platforms {
		if supported(p) {
			return p, true
		}
	}

	return "", false
}

var fence = []byte("---")

// split separates YAML front matter, delimited by lines of three dashes at
// the very start of src, from the markdown that follows.
func split(src []byte) (front, body []byte) {
	src = bytes.TrimPrefix(src, []byte("\ufeff"))

	first, rest, ok := cut(src)
	if !ok || !bytes.Equal(bytes.TrimRight(first, " \t\r"), fence) {
		return nil, src
	}

	start := len(src) - len(rest)

	for len(rest) > 0 {
		line, next, _ := cut(rest)
		if bytes.Equal(bytes.TrimRight(line, " \t\r"), fence) {
			end := len(src) - len(rest)

			return src[start:end], next
		}

		rest = next
	}

	return nil, src
}

func cut(b []byte) (line, rest []byte, found bool) {
	line, rest, found = bytes.Cut(b, []byte("\n"))
	if !found {
		return line, nil, len(line) > 0
	}

	return line, rest, true
}

func contents(n *ast.FencedCodeBlock, src []byte) string {
	var b strings.Builder

	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}

	return strings.TrimRight(b.String(), "\n")
}

// raw returns the source text of the block n, from the start of its first
// line to the end of its last.
func raw(n ast.Node, src []byte) string {
	start, stop := -1, -1

	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || c.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}

		lines := c.Lines()
		if lines.Len() == 0 {
			return ast.WalkContinue, nil
		}

		if s := lines.At(0).Start; start < 0 || s < start {
			start = s
		}

		if s := lines.At(lines.Len() - 1).Stop; s > stop {
			stop = s
		}

		return ast.WalkContinue, nil
	})

	if start < 0 {
		return ""
	}

	start = bytes.LastIndexByte(src[:start], '\n') + 1

	if stop > start && src[stop-1] == '\n' {
		stop--
	}

	if i := bytes.IndexByte(src[stop:], '\n'); i >= 0 {
		stop += i
	} else {
		stop = len(src)
	}

	return strings.TrimSpace(string(src[start:stop]))
}
