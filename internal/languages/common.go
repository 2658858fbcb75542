package languages

import "strings"

// normalizeSpace collapses all whitespace runs to single spaces so that
// formatting-only edits inside a signature never change the rendered
// skeleton.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// hasPrivatePrefix covers the underscore convention shared by Python,
// Ruby, and JavaScript, plus TypeScript's hard-private '#'.
func hasPrivatePrefix(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, "#")
}
