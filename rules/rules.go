// Package rules loads project rule documents: markdown files with a small
// frontmatter block describing when each rule applies. The chat orchestrator
// exposes them to the model through a synthetic tool and resolves requested
// rule names against a Collection.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Rule is one rule document.
type Rule struct {
	Name        string
	Description string
	Globs       []string
	Content     string
}

// Collection holds the rules discovered for one project.
type Collection struct {
	rules  []Rule
	byName map[string]int
}

// DefaultDir is the conventional rules location inside a project.
const DefaultDir = ".llamedit/rules"

// Load reads every *.md file under dir. A missing directory yields an empty
// collection, not an error. A rule with no frontmatter name falls back to
// its filename.
func Load(dir string) (*Collection, error) {
	c := &Collection{byName: map[string]int{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read rules directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read rule %s: %w", entry.Name(), err)
		}

		meta, body := parseFrontmatter(string(raw))
		rule := Rule{
			Name:        meta["name"],
			Description: meta["description"],
			Content:     strings.TrimSpace(body),
		}
		if rule.Name == "" {
			rule.Name = entry.Name()
		}
		if globs := meta["globs"]; globs != "" {
			for _, g := range strings.Split(globs, ",") {
				if g = strings.TrimSpace(g); g != "" {
					rule.Globs = append(rule.Globs, g)
				}
			}
		}

		c.byName[rule.Name] = len(c.rules)
		c.rules = append(c.rules, rule)
	}

	return c, nil
}

// parseFrontmatter splits an optional leading "---" block into key: value
// pairs and returns the remaining body. Anything that does not look like a
// frontmatter block is treated as body.
func parseFrontmatter(raw string) (map[string]string, string) {
	meta := map[string]string{}

	rest, ok := strings.CutPrefix(raw, "---\n")
	if !ok {
		return meta, raw
	}
	block, body, ok := strings.Cut(rest, "\n---")
	if !ok {
		return meta, raw
	}

	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		meta[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}

	body = strings.TrimPrefix(body, "\n")
	return meta, body
}

// Len reports the number of loaded rules.
func (c *Collection) Len() int {
	return len(c.rules)
}

// Names returns all rule names, sorted.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

// Get returns the rule with the exact given name.
func (c *Collection) Get(name string) (*Rule, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return &c.rules[idx], true
}

// Closest returns the best fuzzy match for a misspelled rule name.
func (c *Collection) Closest(name string) (string, bool) {
	matches := fuzzy.Find(name, c.Names())
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}

// Resolve returns the content for a rule name. A miss yields placeholder
// text (with a fuzzy suggestion when one exists) so one bad name never fails
// a whole rule-fetching call.
func (c *Collection) Resolve(name string) string {
	if rule, ok := c.Get(name); ok {
		return rule.Content
	}
	if suggestion, ok := c.Closest(name); ok {
		return fmt.Sprintf("(rule %q not found - closest available rule is %q)", name, suggestion)
	}
	return fmt.Sprintf("(rule %q not found)", name)
}

// ToolDescription builds the description for the synthetic project-rule
// tool, enumerating the available rules.
func (c *Collection) ToolDescription() string {
	var b strings.Builder
	b.WriteString("Fetch the content of one or more project rule documents by name. ")
	b.WriteString("Pass a comma-separated list of rule names. Available rules:")
	for _, r := range c.rules {
		b.WriteString("\n- ")
		b.WriteString(r.Name)
		if r.Description != "" {
			b.WriteString(": ")
			b.WriteString(r.Description)
		}
	}
	return b.String()
}

// ForFile returns the rules whose globs match the given path. Rules with no
// globs apply to every file.
func (c *Collection) ForFile(path string) []Rule {
	var matched []Rule
	for _, r := range c.rules {
		if r.Matches(path) {
			matched = append(matched, r)
		}
	}
	return matched
}
