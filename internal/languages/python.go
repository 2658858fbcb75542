package languages

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/mirra-dev/mirra/internal/parser"
)

// PythonExtractor implements interface extraction for Python source files
type PythonExtractor struct {
	parser *sitter.Parser
}

// NewPythonExtractor creates a new Python extractor
func NewPythonExtractor() *PythonExtractor {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &PythonExtractor{parser: p}
}

func (p *PythonExtractor) Language() string {
	return "python"
}

func (p *PythonExtractor) Extensions() []string {
	return []string{".py", ".pyw"}
}

func (p *PythonExtractor) Extract(filename string, content []byte) (*parser.Skeleton, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	skeleton := &parser.Skeleton{Language: "python"}
	root := tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		p.extractTopLevel(root.Child(i), content, skeleton)
	}
	return skeleton, nil
}

// pythonPublic excludes underscore-prefixed names except the
// constructor-equivalents, which are part of the construction contract.
func pythonPublic(name string) bool {
	if name == "__init__" || name == "__new__" {
		return true
	}
	return !hasPrivatePrefix(name)
}

func (p *PythonExtractor) extractTopLevel(node *sitter.Node, content []byte, skeleton *parser.Skeleton) {
	switch node.Type() {
	case "function_definition":
		fn := p.extractFunction(node, content, nil)
		if fn != nil {
			skeleton.Functions = append(skeleton.Functions, *fn)
		}

	case "decorated_definition":
		flags := p.decoratorFlags(node, content)
		def := node.ChildByFieldName("definition")
		if def == nil {
			return
		}
		switch def.Type() {
		case "function_definition":
			fn := p.extractFunction(def, content, flags)
			if fn != nil {
				skeleton.Functions = append(skeleton.Functions, *fn)
			}
		case "class_definition":
			cls := p.extractClass(def, content)
			if cls != nil {
				skeleton.Classes = append(skeleton.Classes, *cls)
			}
		}

	case "class_definition":
		cls := p.extractClass(node, content)
		if cls != nil {
			skeleton.Classes = append(skeleton.Classes, *cls)
		}

	case "expression_statement":
		p.extractModuleAssignment(node, content, skeleton)
	}
}

// decoratorFlags recognizes the three builtin call-convention
// decorators by name. Any other decorator is ignored, and no decorator
// text ever reaches the skeleton.
func (p *PythonExtractor) decoratorFlags(node *sitter.Node, content []byte) *parser.Function {
	flags := &parser.Function{}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "decorator" {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(child.Content(content), "@"))
		switch name {
		case "staticmethod":
			flags.Static = true
		case "classmethod":
			flags.ClassMethod = true
		case "property":
			flags.Property = true
		}
	}
	return flags
}

func (p *PythonExtractor) extractFunction(node *sitter.Node, content []byte, flags *parser.Function) *parser.Function {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(content)
	if !pythonPublic(name) {
		return nil
	}

	fn := &parser.Function{
		Name:    name,
		Params:  p.extractParams(node.ChildByFieldName("parameters"), content),
		Returns: normalizeSpace(nodeContent(node.ChildByFieldName("return_type"), content)),
	}
	if node.ChildCount() > 0 && node.Child(0).Type() == "async" {
		fn.Async = true
	}
	if flags != nil {
		fn.Static = flags.Static
		fn.ClassMethod = flags.ClassMethod
		fn.Property = flags.Property
	}
	return fn
}

func (p *PythonExtractor) extractClass(node *sitter.Node, content []byte) *parser.Class {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(content)
	if !pythonPublic(name) {
		return nil
	}

	cls := &parser.Class{Name: name}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			base := supers.NamedChild(i)
			switch base.Type() {
			case "identifier", "attribute":
				cls.Bases = append(cls.Bases, normalizeSpace(base.Content(content)))
			}
		}
	}

	// Class-level symbols only; method bodies are never descended into.
	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		stmt := body.Child(i)
		switch stmt.Type() {
		case "function_definition":
			fn := p.extractFunction(stmt, content, nil)
			if fn != nil {
				cls.Methods = append(cls.Methods, *fn)
			}
		case "decorated_definition":
			flags := p.decoratorFlags(stmt, content)
			def := stmt.ChildByFieldName("definition")
			if def != nil && def.Type() == "function_definition" {
				fn := p.extractFunction(def, content, flags)
				if fn != nil {
					cls.Methods = append(cls.Methods, *fn)
				}
			}
		case "expression_statement":
			for _, varName := range p.assignmentTargets(stmt, content) {
				if pythonPublic(varName) {
					cls.Vars = append(cls.Vars, varName)
				}
			}
		}
	}
	return cls
}

// extractModuleAssignment picks up module-level constants (upper-case
// names by convention) and the explicit __all__ export list.
func (p *PythonExtractor) extractModuleAssignment(node *sitter.Node, content []byte, skeleton *parser.Skeleton) {
	if node.ChildCount() == 0 {
		return
	}
	assign := node.Child(0)
	if assign.Type() != "assignment" {
		return
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return
	}
	name := left.Content(content)

	if name == "__all__" {
		if right := assign.ChildByFieldName("right"); right != nil {
			for i := 0; i < int(right.NamedChildCount()); i++ {
				item := right.NamedChild(i)
				if item.Type() == "string" {
					if export := stripPythonString(item.Content(content)); export != "" {
						skeleton.Exports = append(skeleton.Exports, export)
					}
				}
			}
		}
		return
	}

	if name == strings.ToUpper(name) && name != strings.ToLower(name) && pythonPublic(name) {
		skeleton.Constants = append(skeleton.Constants, name)
	}
}

func (p *PythonExtractor) assignmentTargets(stmt *sitter.Node, content []byte) []string {
	if stmt.ChildCount() == 0 {
		return nil
	}
	assign := stmt.Child(0)
	if assign.Type() != "assignment" {
		return nil
	}
	left := assign.ChildByFieldName("left")
	if left == nil {
		return nil
	}
	switch left.Type() {
	case "identifier":
		return []string{left.Content(content)}
	case "pattern_list":
		names := make([]string, 0)
		for i := 0; i < int(left.NamedChildCount()); i++ {
			item := left.NamedChild(i)
			if item.Type() == "identifier" {
				names = append(names, item.Content(content))
			}
		}
		return names
	}
	return nil
}

func (p *PythonExtractor) extractParams(paramsNode *sitter.Node, content []byte) []parser.Param {
	if paramsNode == nil {
		return nil
	}

	params := make([]parser.Param, 0)
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		node := paramsNode.NamedChild(i)
		switch node.Type() {
		case "identifier":
			params = append(params, parser.Param{Name: node.Content(content)})

		case "typed_parameter":
			name := ""
			for j := 0; j < int(node.ChildCount()); j++ {
				if node.Child(j).Type() == "identifier" {
					name = node.Child(j).Content(content)
					break
				}
			}
			params = append(params, parser.Param{
				Name: name,
				Type: normalizeSpace(nodeContent(node.ChildByFieldName("type"), content)),
			})

		case "default_parameter":
			params = append(params, parser.Param{
				Name:    nodeContent(node.ChildByFieldName("name"), content),
				Default: normalizeSpace(nodeContent(node.ChildByFieldName("value"), content)),
			})

		case "typed_default_parameter":
			params = append(params, parser.Param{
				Name:    nodeContent(node.ChildByFieldName("name"), content),
				Type:    normalizeSpace(nodeContent(node.ChildByFieldName("type"), content)),
				Default: normalizeSpace(nodeContent(node.ChildByFieldName("value"), content)),
			})

		case "list_splat_pattern":
			params = append(params, parser.Param{Name: "*" + innerIdentifier(node, content)})

		case "dictionary_splat_pattern":
			params = append(params, parser.Param{Name: "**" + innerIdentifier(node, content)})

		case "positional_separator":
			params = append(params, parser.Param{Name: "/"})

		case "keyword_separator":
			params = append(params, parser.Param{Name: "*"})
		}
	}
	return params
}

func innerIdentifier(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "identifier" {
			return node.Child(i).Content(content)
		}
	}
	return ""
}

func stripPythonString(s string) string {
	s = strings.TrimSpace(s)
	for _, quote := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, quote) && strings.HasSuffix(s, quote) && len(s) >= 2*len(quote) {
			return s[len(quote) : len(s)-len(quote)]
		}
	}
	return s
}
