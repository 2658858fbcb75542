package languages

import "github.com/mirra-dev/mirra/internal/parser"

// NewDefaultRegistry creates a registry with all supported language extractors
func NewDefaultRegistry() *parser.Registry {
	r := parser.NewRegistry()

	r.Register(NewGoExtractor())
	r.Register(NewPythonExtractor())
	r.Register(NewRubyExtractor())
	r.Register(NewTypeScriptExtractor())

	return r
}
