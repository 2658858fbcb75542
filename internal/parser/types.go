package parser

// Param is a single parameter in a function signature. Type and Default
// are empty when the language or the declaration omits them.
type Param struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Default string `json:"default,omitempty"`
}

// Function is a public function or method signature. Flags describe the
// call convention as derived from grammar node shape; decorator text is
// never carried.
type Function struct {
	Name        string  `json:"name"`
	Params      []Param `json:"params,omitempty"`
	Returns     string  `json:"returns,omitempty"`
	Async       bool    `json:"async,omitempty"`
	Static      bool    `json:"static,omitempty"`
	ClassMethod bool    `json:"classmethod,omitempty"`
	Property    bool    `json:"property,omitempty"`
}

// Class is a public class (or struct/interface) signature with its
// public methods and class-level variables.
type Class struct {
	Name    string     `json:"name"`
	Bases   []string   `json:"bases,omitempty"`
	Methods []Function `json:"methods,omitempty"`
	Vars    []string   `json:"vars,omitempty"`
}

// Skeleton is the extracted public interface of one source file.
// It deliberately contains no body text, comments, decorators, or line
// numbers: two files with the same public interface must produce equal
// skeletons regardless of how their internals differ.
type Skeleton struct {
	Language  string     `json:"language"`
	Constants []string   `json:"constants,omitempty"`
	Functions []Function `json:"functions,omitempty"`
	Classes   []Class    `json:"classes,omitempty"`
	Exports   []string   `json:"exports,omitempty"`
}

// IsEmpty reports whether extraction found no public symbols at all.
func (s *Skeleton) IsEmpty() bool {
	return len(s.Constants) == 0 && len(s.Functions) == 0 && len(s.Classes) == 0 && len(s.Exports) == 0
}
