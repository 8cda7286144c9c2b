package workbook

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const sample = `---
uti: com.xamarin.workbook
id: 2f2e1a4c-4ac2-4c2c-8d4b-2f1c4b8f9a11
title: Tour
platforms:
- Console
- DotNetCore
packages:
- id: Newtonsoft.Json
  version: 12.0.3
---

# Welcome

Some *prose* before the first cell.

` + "```csharp" + `
var x = 1;
x + 1
` + "```" + `

- one
- two

` + "```csharp" + `
if (x > 0) {
    x
}
` + "```" + `

Trailing words.
`

func TestParse(t *testing.T) {
	w, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	if w.UTI != "com.xamarin.workbook" || w.Title != "Tour" {
		t.Fatalf("manifest = %+v", w.Manifest)
	}

	if len(w.Platforms) != 2 || w.Platforms[0] != "Console" {
		t.Fatalf("platforms = %v", w.Platforms)
	}

	if len(w.Packages) != 1 || w.Packages[0].ID != "Newtonsoft.Json" || w.Packages[0].Version != "12.0.3" {
		t.Fatalf("packages = %+v", w.Packages)
	}

	if w.Language != "csharp" {
		t.Fatalf("language = %q", w.Language)
	}

	if len(w.Cells) != 2 {
		t.Fatalf("got %d cells, want 2", len(w.Cells))
	}

	want := []Cell{
		{
			Language: "csharp",
			Prose:    "# Welcome\n\nSome *prose* before the first cell.",
			Source:   "var x = 1;\nx + 1",
		},
		{
			Language: "csharp",
			Prose:    "- one\n- two",
			Source:   "if (x > 0) {\n    x\n}",
		},
	}

	for i, c := range w.Cells {
		if c != want[i] {
			t.Errorf("cell %d = %+v, want %+v", i, c, want[i])
		}
	}
}

func TestParseWithoutFrontMatter(t *testing.T) {
	w, err := Parse([]byte("```\n1 + 1\n```\n"))
	if err != nil {
		t.Fatal(err)
	}

	if w.Language != DefaultLanguage {
		t.Fatalf("language = %q, want %q", w.Language, DefaultLanguage)
	}

	if len(w.Cells) != 1 || w.Cells[0].Source != "1 + 1" {
		t.Fatalf("cells = %+v", w.Cells)
	}
}

func TestParseBadFrontMatter(t *testing.T) {
	if _, err := Parse([]byte("---\nplatforms: [\n---\n")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestPlatform(t *testing.T) {
	w := &T{Manifest: Manifest{Platforms: []string{"iOS", "Console"}}}

	p, ok := w.Platform(func(id string) bool { return id == "Console" })
	if !ok || p != "Console" {
		t.Fatalf("Platform() = %q, %v", p, ok)
	}

	if _, ok := w.Platform(func(string) bool { return false }); ok {
		t.Fatal("expected no platform")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	if _, err := Open(filepath.Join(dir, "missing.workbook")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Open() = %v, want fs.ErrNotExist", err)
	}

	path := filepath.Join(dir, "tour.workbook")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	w, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(w.Cells) != 2 {
		t.Fatalf("got %d cells, want 2", len(w.Cells))
	}
}
