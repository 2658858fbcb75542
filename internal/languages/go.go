package languages

import (
	"context"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/mirra-dev/mirra/internal/parser"
)

// GoExtractor implements interface extraction for Go source files
type GoExtractor struct {
	parser *sitter.Parser
}

// NewGoExtractor creates a new Go extractor
func NewGoExtractor() *GoExtractor {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &GoExtractor{parser: p}
}

func (g *GoExtractor) Language() string {
	return "go"
}

func (g *GoExtractor) Extensions() []string {
	return []string{".go"}
}

func (g *GoExtractor) Extract(filename string, content []byte) (*parser.Skeleton, error) {
	tree, err := g.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	skeleton := &parser.Skeleton{Language: "go"}
	classes := make(map[string]*parser.Class)
	order := make([]string, 0)

	// Only top-level declarations are visited; bodies are never entered.
	root := tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		node := root.Child(i)
		switch node.Type() {
		case "function_declaration":
			fn := g.extractFunction(node, content)
			if fn != nil {
				skeleton.Functions = append(skeleton.Functions, *fn)
			}

		case "method_declaration":
			g.extractMethod(node, content, classes, &order)

		case "type_declaration":
			g.extractTypeDecl(node, content, classes, &order)

		case "const_declaration":
			skeleton.Constants = append(skeleton.Constants, g.extractConstNames(node, content)...)
		}
	}

	for _, name := range order {
		skeleton.Classes = append(skeleton.Classes, *classes[name])
	}
	return skeleton, nil
}

func goExported(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

func (g *GoExtractor) extractFunction(node *sitter.Node, content []byte) *parser.Function {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(content)
	if !goExported(name) {
		return nil
	}

	return &parser.Function{
		Name:    name,
		Params:  g.extractParams(node.ChildByFieldName("parameters"), content),
		Returns: normalizeSpace(nodeContent(node.ChildByFieldName("result"), content)),
	}
}

func (g *GoExtractor) extractMethod(node *sitter.Node, content []byte, classes map[string]*parser.Class, order *[]string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(content)
	if !goExported(name) {
		return
	}

	receiver := g.receiverTypeName(node.ChildByFieldName("receiver"), content)
	if receiver == "" || !goExported(receiver) {
		return
	}

	cls := ensureClass(classes, order, receiver)
	cls.Methods = append(cls.Methods, parser.Function{
		Name:    name,
		Params:  g.extractParams(node.ChildByFieldName("parameters"), content),
		Returns: normalizeSpace(nodeContent(node.ChildByFieldName("result"), content)),
	})
}

func (g *GoExtractor) extractTypeDecl(node *sitter.Node, content []byte, classes map[string]*parser.Class, order *[]string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		spec := node.Child(i)
		if spec.Type() != "type_spec" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Content(content)
		if !goExported(name) {
			continue
		}

		cls := ensureClass(classes, order, name)
		typeNode := spec.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		switch typeNode.Type() {
		case "struct_type":
			g.extractStructFields(typeNode, content, cls)
		case "interface_type":
			g.extractInterfaceMethods(typeNode, content, cls)
		}
	}
}

func (g *GoExtractor) extractStructFields(structNode *sitter.Node, content []byte, cls *parser.Class) {
	list := findChildByType(structNode, "field_declaration_list")
	if list == nil {
		return
	}
	for i := 0; i < int(list.ChildCount()); i++ {
		field := list.Child(i)
		if field.Type() != "field_declaration" {
			continue
		}
		named := false
		for j := 0; j < int(field.ChildCount()); j++ {
			child := field.Child(j)
			if child.Type() == "field_identifier" {
				named = true
				name := child.Content(content)
				if goExported(name) {
					cls.Vars = append(cls.Vars, name)
				}
			}
		}
		if !named {
			// Embedded field: the promoted type name is part of the
			// public surface.
			if typeNode := field.ChildByFieldName("type"); typeNode != nil {
				name := baseTypeName(typeNode.Content(content))
				if goExported(name) {
					cls.Vars = append(cls.Vars, name)
				}
			}
		}
	}
}

func (g *GoExtractor) extractInterfaceMethods(ifaceNode *sitter.Node, content []byte, cls *parser.Class) {
	for i := 0; i < int(ifaceNode.ChildCount()); i++ {
		elem := ifaceNode.Child(i)
		switch elem.Type() {
		case "method_spec", "method_elem":
			nameNode := elem.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := nameNode.Content(content)
			if !goExported(name) {
				continue
			}
			cls.Methods = append(cls.Methods, parser.Function{
				Name:    name,
				Params:  g.extractParams(elem.ChildByFieldName("parameters"), content),
				Returns: normalizeSpace(nodeContent(elem.ChildByFieldName("result"), content)),
			})
		case "type_elem", "type_identifier", "qualified_type", "interface_type_name":
			// Embedded interface. The grammar wraps the embedded name in a
			// type_elem node; the bare forms are kept for older revisions.
			name := baseTypeName(elem.Content(content))
			if goExported(name) {
				cls.Bases = append(cls.Bases, name)
			}
		}
	}
}

func (g *GoExtractor) extractConstNames(node *sitter.Node, content []byte) []string {
	names := make([]string, 0)
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "const_spec" {
			for i := 0; i < int(n.ChildCount()); i++ {
				child := n.Child(i)
				if child.Type() == "identifier" {
					name := child.Content(content)
					if goExported(name) {
						names = append(names, name)
					}
				}
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return names
}

func (g *GoExtractor) extractParams(paramsNode *sitter.Node, content []byte) []parser.Param {
	if paramsNode == nil {
		return nil
	}

	params := make([]parser.Param, 0)
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		decl := paramsNode.Child(i)
		switch decl.Type() {
		case "parameter_declaration", "variadic_parameter_declaration":
			typeText := normalizeSpace(nodeContent(decl.ChildByFieldName("type"), content))
			if decl.Type() == "variadic_parameter_declaration" {
				typeText = "..." + typeText
			}
			named := false
			for j := 0; j < int(decl.ChildCount()); j++ {
				child := decl.Child(j)
				if child.Type() == "identifier" {
					named = true
					params = append(params, parser.Param{Name: child.Content(content), Type: typeText})
				}
			}
			if !named {
				params = append(params, parser.Param{Name: "_", Type: typeText})
			}
		}
	}
	return params
}

func (g *GoExtractor) receiverTypeName(receiverNode *sitter.Node, content []byte) string {
	if receiverNode == nil {
		return ""
	}
	for i := 0; i < int(receiverNode.ChildCount()); i++ {
		decl := receiverNode.Child(i)
		if decl.Type() != "parameter_declaration" {
			continue
		}
		if typeNode := decl.ChildByFieldName("type"); typeNode != nil {
			return baseTypeName(typeNode.Content(content))
		}
	}
	return ""
}

// baseTypeName strips pointers, generics, and package qualifiers from a
// type expression, leaving the bare name.
func baseTypeName(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimLeft(raw, "*")
	if idx := strings.IndexAny(raw, "["); idx > 0 {
		raw = raw[:idx]
	}
	if idx := strings.LastIndex(raw, "."); idx >= 0 {
		raw = raw[idx+1:]
	}
	return strings.TrimSpace(raw)
}

func nodeContent(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(content)
}

func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

func ensureClass(classes map[string]*parser.Class, order *[]string, name string) *parser.Class {
	if cls, ok := classes[name]; ok {
		return cls
	}
	cls := &parser.Class{Name: name}
	classes[name] = cls
	*order = append(*order, name)
	return cls
}
