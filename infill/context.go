// Package infill builds byte-budgeted context for fill-in-the-middle
// completion requests and debounces automatic completion triggers.
package infill

import "unicode/utf8"

// MinSuffixBytes is the floor below which the suffix is never shrunk. When
// the budget is tight the prefix gives way first.
const MinSuffixBytes = 4096

// Document is one extra context file offered alongside the completed
// document. The document being completed must not appear here; the builder
// trusts its input.
type Document struct {
	Name string
	Text string
}

// Context is the request-scoped payload for one infill request. Every field
// respects the byte budget passed to Build.
type Context struct {
	Prefix string
	Suffix string
	Extra  []Document
}

// Build splits fullText at cursorOffset (a rune offset, character-exact) and
// fits prefix, suffix and extra documents into maxBytes of UTF-8.
//
// When prefix+suffix exceed the budget, the suffix is truncated from its
// tail first, but never below MinSuffixBytes; the prefix is then truncated
// from its head to whatever remains. Leftover budget goes to otherFiles in
// caller order: whole files until one does not fit, that one truncated from
// its end to exactly the remaining budget, and nothing after it.
func Build(fullText string, cursorOffset, maxBytes int, otherFiles []Document) Context {
	prefix, suffix := splitAtRune(fullText, cursorOffset)

	if len(prefix)+len(suffix) > maxBytes {
		target := maxBytes - len(prefix)
		if target < MinSuffixBytes {
			target = MinSuffixBytes
		}
		if len(suffix) > target {
			suffix = truncateTail(suffix, target)
		}
		if len(prefix)+len(suffix) > maxBytes {
			remaining := maxBytes - len(suffix)
			if remaining < 0 {
				remaining = 0
			}
			prefix = truncateHead(prefix, remaining)
		}
	}

	ctx := Context{Prefix: prefix, Suffix: suffix}

	budget := maxBytes - len(prefix) - len(suffix)
	for _, f := range otherFiles {
		if budget <= 0 {
			break
		}
		if len(f.Text) <= budget {
			ctx.Extra = append(ctx.Extra, f)
			budget -= len(f.Text)
			continue
		}
		if truncated := truncateTail(f.Text, budget); truncated != "" {
			ctx.Extra = append(ctx.Extra, Document{Name: f.Name, Text: truncated})
		}
		break
	}

	return ctx
}

// splitAtRune splits s after the first n runes. Offsets outside the text
// clamp to its ends.
func splitAtRune(s string, n int) (string, string) {
	if n <= 0 {
		return "", s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i], s[i:]
		}
		count++
	}
	return s, ""
}

// truncateTail keeps the head of s, at most n bytes, snapping back to a rune
// boundary so a multi-byte character is never split.
func truncateTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// truncateHead keeps the tail of s, at most n bytes, snapping forward to a
// rune boundary.
func truncateHead(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
