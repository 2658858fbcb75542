package parser

import (
	"path/filepath"
	"strings"
)

// LanguageExtractor defines the interface each language must implement
type LanguageExtractor interface {
	// Language returns the language name (e.g., "go", "python")
	Language() string

	// Extensions returns file extensions this extractor handles
	Extensions() []string

	// Extract pulls the public interface skeleton out of source code.
	// Malformed input yields a partial skeleton, never an error: the
	// grammar's error recovery keeps whatever parsed cleanly.
	Extract(filename string, content []byte) (*Skeleton, error)
}

// Registry holds all registered language extractors
type Registry struct {
	extractors map[string]LanguageExtractor // language name -> extractor
	extToLang  map[string]string            // extension -> language name
}

// NewRegistry creates a new extractor registry
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]LanguageExtractor),
		extToLang:  make(map[string]string),
	}
}

// Register adds a language extractor to the registry
func (r *Registry) Register(e LanguageExtractor) {
	lang := e.Language()
	r.extractors[lang] = e
	for _, ext := range e.Extensions() {
		r.extToLang[ext] = lang
	}
}

// MapExtension declares that ext belongs to a language without providing
// an extractor for it. Files with such extensions trigger the one-time
// missing-grammar advisory instead of the silent unsupported path.
func (r *Registry) MapExtension(ext, lang string) {
	r.extToLang[ext] = lang
}

// LanguageForFile resolves the language tag for a filename, if any.
func (r *Registry) LanguageForFile(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	lang, ok := r.extToLang[ext]
	return lang, ok
}

// ExtractFile extracts the interface skeleton for one file. A nil
// skeleton with a nil error means the file has no extractable interface:
// either the extension is unknown (silent, expected) or the extension
// maps to a language whose grammar is not compiled in (one advisory per
// process through warnings).
func (r *Registry) ExtractFile(filename string, content []byte, warnings *Warnings) (*Skeleton, error) {
	lang, ok := r.LanguageForFile(filename)
	if !ok {
		return nil, nil // unsupported extension, skip silently
	}

	extractor, ok := r.extractors[lang]
	if !ok {
		warnings.Warnf(lang, "no grammar registered for language %q; files classified by content only", lang)
		return nil, nil
	}

	return extractor.Extract(filename, content)
}
