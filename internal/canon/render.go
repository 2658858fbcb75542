// Package canon renders interface skeletons into a stable text form
// used only for hashing, never for display.
package canon

import (
	"sort"
	"strings"

	"github.com/mirra-dev/mirra/internal/parser"
)

// Version tags the rendering rules. Downstream hashes are a long-lived
// contract: any change to the output for a given tag breaks every
// stored interface hash, so format changes must bump this value and
// never alter what an existing tag produces.
const Version = "canon-v1"

// Render converts a skeleton into its canonical text. Pure and total:
// declaration collections are sorted by name so reordering declarations
// in the source never changes the result. Parameter order is preserved
// because it is part of the signature itself.
func Render(s *parser.Skeleton) string {
	var b strings.Builder
	b.WriteString(Version)
	b.WriteByte('\n')
	b.WriteString("lang ")
	b.WriteString(s.Language)
	b.WriteByte('\n')

	for _, name := range sortedStrings(s.Constants) {
		b.WriteString("const ")
		b.WriteString(name)
		b.WriteByte('\n')
	}

	for _, fn := range sortedFunctions(s.Functions) {
		writeFunction(&b, "func ", fn)
	}

	for _, cls := range sortedClasses(s.Classes) {
		b.WriteString("class ")
		b.WriteString(cls.Name)
		b.WriteByte('(')
		b.WriteString(strings.Join(sortedStrings(cls.Bases), ","))
		b.WriteString(")\n")
		for _, name := range sortedStrings(cls.Vars) {
			b.WriteString("\tvar ")
			b.WriteString(name)
			b.WriteByte('\n')
		}
		for _, m := range sortedFunctions(cls.Methods) {
			writeFunction(&b, "\tfunc ", m)
		}
	}

	for _, name := range sortedStrings(s.Exports) {
		b.WriteString("export ")
		b.WriteString(name)
		b.WriteByte('\n')
	}

	return b.String()
}

func writeFunction(b *strings.Builder, prefix string, fn parser.Function) {
	b.WriteString(prefix)
	b.WriteString(fn.Name)
	b.WriteByte('(')
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Name)
		if p.Type != "" {
			b.WriteByte(':')
			b.WriteString(p.Type)
		}
		if p.Default != "" {
			b.WriteByte('=')
			b.WriteString(p.Default)
		}
	}
	b.WriteByte(')')
	if fn.Returns != "" {
		b.WriteString("->")
		b.WriteString(fn.Returns)
	}
	if fn.Async {
		b.WriteString(" async")
	}
	if fn.Static {
		b.WriteString(" static")
	}
	if fn.ClassMethod {
		b.WriteString(" classmethod")
	}
	if fn.Property {
		b.WriteString(" property")
	}
	b.WriteByte('\n')
}

func sortedStrings(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

func sortedFunctions(values []parser.Function) []parser.Function {
	out := append([]parser.Function(nil), values...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedClasses(values []parser.Class) []parser.Class {
	out := append([]parser.Class(nil), values...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
