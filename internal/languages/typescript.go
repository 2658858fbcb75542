package languages

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/mirra-dev/mirra/internal/parser"
)

// TypeScriptExtractor implements interface extraction for
// TypeScript/JavaScript source files
type TypeScriptExtractor struct {
	tsParser *sitter.Parser
	jsParser *sitter.Parser
}

// NewTypeScriptExtractor creates a new TypeScript/JavaScript extractor
func NewTypeScriptExtractor() *TypeScriptExtractor {
	ts := sitter.NewParser()
	ts.SetLanguage(typescript.GetLanguage())

	js := sitter.NewParser()
	js.SetLanguage(javascript.GetLanguage())

	return &TypeScriptExtractor{
		tsParser: ts,
		jsParser: js,
	}
}

func (t *TypeScriptExtractor) Language() string {
	return "typescript"
}

func (t *TypeScriptExtractor) Extensions() []string {
	return []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
}

func (t *TypeScriptExtractor) Extract(filename string, content []byte) (*parser.Skeleton, error) {
	// Choose parser based on extension
	p := t.tsParser
	lang := "typescript"
	if strings.HasSuffix(filename, ".js") || strings.HasSuffix(filename, ".jsx") ||
		strings.HasSuffix(filename, ".mjs") || strings.HasSuffix(filename, ".cjs") {
		p = t.jsParser
		lang = "javascript"
	}

	tree, err := p.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	skeleton := &parser.Skeleton{Language: lang}
	root := tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		t.extractTopLevel(root.Child(i), content, skeleton, false)
	}
	return skeleton, nil
}

func tsPublic(name string) bool {
	if name == "constructor" {
		return true
	}
	return !hasPrivatePrefix(name)
}

func (t *TypeScriptExtractor) extractTopLevel(node *sitter.Node, content []byte, skeleton *parser.Skeleton, exported bool) {
	switch node.Type() {
	case "export_statement":
		if clause := findChildByType(node, "export_clause"); clause != nil {
			for i := 0; i < int(clause.NamedChildCount()); i++ {
				spec := clause.NamedChild(i)
				if spec.Type() != "export_specifier" {
					continue
				}
				if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
					skeleton.Exports = append(skeleton.Exports, nameNode.Content(content))
				}
			}
			return
		}
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			t.extractTopLevel(decl, content, skeleton, true)
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			t.extractTopLevel(node.Child(i), content, skeleton, true)
		}

	case "function_declaration", "generator_function_declaration":
		fn := t.extractFunction(node, content)
		if fn != nil {
			skeleton.Functions = append(skeleton.Functions, *fn)
			if exported {
				skeleton.Exports = append(skeleton.Exports, fn.Name)
			}
		}

	case "class_declaration", "abstract_class_declaration":
		cls := t.extractClass(node, content)
		if cls != nil {
			skeleton.Classes = append(skeleton.Classes, *cls)
			if exported {
				skeleton.Exports = append(skeleton.Exports, cls.Name)
			}
		}

	case "interface_declaration":
		cls := t.extractInterface(node, content)
		if cls != nil {
			skeleton.Classes = append(skeleton.Classes, *cls)
			if exported {
				skeleton.Exports = append(skeleton.Exports, cls.Name)
			}
		}

	case "type_alias_declaration", "enum_declaration":
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			name := nameNode.Content(content)
			if tsPublic(name) {
				cls := parser.Class{Name: name}
				if node.Type() == "enum_declaration" {
					cls.Vars = t.extractEnumMembers(node, content)
				}
				skeleton.Classes = append(skeleton.Classes, cls)
				if exported {
					skeleton.Exports = append(skeleton.Exports, name)
				}
			}
		}

	case "lexical_declaration", "variable_declaration":
		t.extractDeclarators(node, content, skeleton, exported)
	}
}

func (t *TypeScriptExtractor) extractDeclarators(node *sitter.Node, content []byte, skeleton *parser.Skeleton, exported bool) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		name := nameNode.Content(content)
		if !tsPublic(name) {
			continue
		}

		valueNode := child.ChildByFieldName("value")
		if valueNode != nil && (valueNode.Type() == "arrow_function" || valueNode.Type() == "function_expression" || valueNode.Type() == "function") {
			fn := parser.Function{
				Name:    name,
				Params:  t.extractParams(valueNode.ChildByFieldName("parameters"), content),
				Returns: tsReturnType(valueNode, content),
				Async:   hasKeywordChild(valueNode, "async"),
			}
			skeleton.Functions = append(skeleton.Functions, fn)
		} else {
			skeleton.Constants = append(skeleton.Constants, name)
		}
		if exported {
			skeleton.Exports = append(skeleton.Exports, name)
		}
	}
}

func (t *TypeScriptExtractor) extractFunction(node *sitter.Node, content []byte) *parser.Function {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(content)
	if !tsPublic(name) {
		return nil
	}

	return &parser.Function{
		Name:    name,
		Params:  t.extractParams(node.ChildByFieldName("parameters"), content),
		Returns: tsReturnType(node, content),
		Async:   hasKeywordChild(node, "async"),
	}
}

func (t *TypeScriptExtractor) extractClass(node *sitter.Node, content []byte) *parser.Class {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(content)
	if !tsPublic(name) {
		return nil
	}

	cls := &parser.Class{Name: name, Bases: t.extractHeritage(node, content)}

	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		switch member.Type() {
		case "method_definition", "abstract_method_signature":
			fn := t.extractMethod(member, content)
			if fn != nil {
				cls.Methods = append(cls.Methods, *fn)
			}
		case "public_field_definition", "field_definition":
			if fieldName := nodeContent(member.ChildByFieldName("name"), content); fieldName != "" && tsPublic(fieldName) {
				cls.Vars = append(cls.Vars, fieldName)
			}
		}
	}
	return cls
}

func (t *TypeScriptExtractor) extractMethod(node *sitter.Node, content []byte) *parser.Function {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(content)
	if !tsPublic(name) {
		return nil
	}

	return &parser.Function{
		Name:     name,
		Params:   t.extractParams(node.ChildByFieldName("parameters"), content),
		Returns:  tsReturnType(node, content),
		Async:    hasKeywordChild(node, "async"),
		Static:   hasKeywordChild(node, "static"),
		Property: hasKeywordChild(node, "get") || hasKeywordChild(node, "set"),
	}
}

func (t *TypeScriptExtractor) extractInterface(node *sitter.Node, content []byte) *parser.Class {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(content)
	if !tsPublic(name) {
		return nil
	}

	cls := &parser.Class{Name: name}

	if ext := findChildByType(node, "extends_type_clause"); ext != nil {
		for i := 0; i < int(ext.NamedChildCount()); i++ {
			cls.Bases = append(cls.Bases, normalizeSpace(ext.NamedChild(i).Content(content)))
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		switch member.Type() {
		case "method_signature":
			fn := t.extractMethod(member, content)
			if fn != nil {
				cls.Methods = append(cls.Methods, *fn)
			}
		case "property_signature":
			if fieldName := nodeContent(member.ChildByFieldName("name"), content); fieldName != "" && tsPublic(fieldName) {
				cls.Vars = append(cls.Vars, fieldName)
			}
		}
	}
	return cls
}

func (t *TypeScriptExtractor) extractHeritage(node *sitter.Node, content []byte) []string {
	heritage := findChildByType(node, "class_heritage")
	if heritage == nil {
		return nil
	}

	bases := make([]string, 0)
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "identifier", "type_identifier", "member_expression", "generic_type":
			bases = append(bases, normalizeSpace(n.Content(content)))
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(heritage)
	return bases
}

func (t *TypeScriptExtractor) extractEnumMembers(node *sitter.Node, content []byte) []string {
	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	members := make([]string, 0)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "property_identifier":
			members = append(members, member.Content(content))
		case "enum_assignment":
			if nameNode := member.ChildByFieldName("name"); nameNode != nil {
				members = append(members, nameNode.Content(content))
			}
		}
	}
	return members
}

func (t *TypeScriptExtractor) extractParams(paramsNode *sitter.Node, content []byte) []parser.Param {
	if paramsNode == nil {
		return nil
	}

	params := make([]parser.Param, 0)
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		node := paramsNode.NamedChild(i)
		switch node.Type() {
		case "required_parameter", "optional_parameter":
			name := normalizeSpace(nodeContent(node.ChildByFieldName("pattern"), content))
			if node.Type() == "optional_parameter" {
				name += "?"
			}
			params = append(params, parser.Param{
				Name:    name,
				Type:    tsTypeAnnotation(node.ChildByFieldName("type"), content),
				Default: normalizeSpace(nodeContent(node.ChildByFieldName("value"), content)),
			})
		case "rest_parameter":
			params = append(params, parser.Param{
				Name: "..." + innerIdentifier(node, content),
				Type: tsTypeAnnotation(node.ChildByFieldName("type"), content),
			})
		case "identifier":
			params = append(params, parser.Param{Name: node.Content(content)})
		case "assignment_pattern":
			params = append(params, parser.Param{
				Name:    normalizeSpace(nodeContent(node.ChildByFieldName("left"), content)),
				Default: normalizeSpace(nodeContent(node.ChildByFieldName("right"), content)),
			})
		case "object_pattern", "array_pattern":
			params = append(params, parser.Param{Name: normalizeSpace(node.Content(content))})
		}
	}
	return params
}

func tsReturnType(node *sitter.Node, content []byte) string {
	return tsTypeAnnotation(node.ChildByFieldName("return_type"), content)
}

// tsTypeAnnotation strips the leading ':' from a type_annotation node.
func tsTypeAnnotation(node *sitter.Node, content []byte) string {
	raw := normalizeSpace(nodeContent(node, content))
	raw = strings.TrimSpace(strings.TrimPrefix(raw, ":"))
	return raw
}

func hasKeywordChild(node *sitter.Node, keyword string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == keyword {
			return true
		}
	}
	return false
}
