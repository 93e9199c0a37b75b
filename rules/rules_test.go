package rules

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeRule(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "style.md", `---
name: style
description: Code style guidance
globs: "*.go, *.md"
---
Use tabs, not spaces.`)
	writeRule(t, dir, "unnamed.md", "No frontmatter here.")
	writeRule(t, dir, "ignored.txt", "not markdown")

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}

	style, ok := c.Get("style")
	if !ok {
		t.Fatal("rule style not found")
	}
	if style.Description != "Code style guidance" {
		t.Errorf("Description = %q", style.Description)
	}
	if !reflect.DeepEqual(style.Globs, []string{"*.go", "*.md"}) {
		t.Errorf("Globs = %v", style.Globs)
	}
	if style.Content != "Use tabs, not spaces." {
		t.Errorf("Content = %q", style.Content)
	}

	// No frontmatter name: the filename is the rule name.
	if _, ok := c.Get("unnamed.md"); !ok {
		t.Error("rule unnamed.md not found")
	}
}

func TestLoadMissingDir(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "testing.md", "---\nname: testing\n---\nWrite table-driven tests.")
	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if got := c.Resolve("testing"); got != "Write table-driven tests." {
		t.Errorf("Resolve(testing) = %q", got)
	}

	got := c.Resolve("testng")
	if !strings.Contains(got, `"testng" not found`) || !strings.Contains(got, `"testing"`) {
		t.Errorf("Resolve(testng) = %q, want miss with suggestion", got)
	}

	empty, _ := Load(filepath.Join(dir, "nope"))
	if got := empty.Resolve("x"); got != `(rule "x" not found)` {
		t.Errorf("Resolve on empty collection = %q", got)
	}
}

func TestToolDescription(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "a.md", "---\nname: naming\ndescription: How to name things\n---\nbody")
	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	desc := c.ToolDescription()
	if !strings.Contains(desc, "naming: How to name things") {
		t.Errorf("ToolDescription = %q", desc)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name  string
		globs []string
		path  string
		want  bool
	}{
		{"no globs matches all", nil, "anything/at/all.txt", true},
		{"simple extension", []string{"*.go"}, "main.go", true},
		{"extension in subdir", []string{"*.go"}, "cmd/app/main.go", true},
		{"star does not cross dirs", []string{"src/*.go"}, "src/a/b.go", false},
		{"doublestar crosses dirs", []string{"src/**/*.go"}, "src/a/b/c.go", true},
		{"doublestar matches zero dirs", []string{"**/main.go"}, "main.go", true},
		{"doublestar prefix no false match", []string{"**/main.go"}, "xmain.go", false},
		{"question mark", []string{"file?.txt"}, "file1.txt", true},
		{"question mark no slash", []string{"file?.txt"}, "file/.txt", false},
		{"windows separators", []string{"src/*.go"}, `src\main.go`, true},
		{"miss", []string{"*.py"}, "main.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Rule{Globs: tt.globs}
			if got := r.Matches(tt.path); got != tt.want {
				t.Errorf("Matches(%q) with globs %v = %v, want %v", tt.path, tt.globs, got, tt.want)
			}
		})
	}
}

func TestForFile(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "go.md", "---\nname: go-style\nglobs: \"*.go\"\n---\nGo things.")
	writeRule(t, dir, "all.md", "---\nname: general\n---\nEverything.")
	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	matched := c.ForFile("pkg/server.go")
	if len(matched) != 2 {
		t.Fatalf("ForFile(server.go) = %d rules, want 2", len(matched))
	}

	matched = c.ForFile("README.txt")
	if len(matched) != 1 || matched[0].Name != "general" {
		t.Errorf("ForFile(README.txt) = %+v, want only general", matched)
	}
}
