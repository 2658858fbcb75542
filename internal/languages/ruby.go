package languages

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/mirra-dev/mirra/internal/parser"
)

// RubyExtractor implements interface extraction for Ruby source files
type RubyExtractor struct {
	parser *sitter.Parser
}

// NewRubyExtractor creates a new Ruby extractor
func NewRubyExtractor() *RubyExtractor {
	p := sitter.NewParser()
	p.SetLanguage(ruby.GetLanguage())
	return &RubyExtractor{parser: p}
}

func (r *RubyExtractor) Language() string {
	return "ruby"
}

func (r *RubyExtractor) Extensions() []string {
	return []string{".rb", ".rake", ".gemspec"}
}

func (r *RubyExtractor) Extract(filename string, content []byte) (*parser.Skeleton, error) {
	tree, err := r.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	skeleton := &parser.Skeleton{Language: "ruby"}
	root := tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		r.extractTopLevel(root.Child(i), content, skeleton)
	}
	return skeleton, nil
}

func rubyPublic(name string) bool {
	if name == "initialize" {
		return true
	}
	return !hasPrivatePrefix(name)
}

func (r *RubyExtractor) extractTopLevel(node *sitter.Node, content []byte, skeleton *parser.Skeleton) {
	switch node.Type() {
	case "method":
		fn := r.extractMethod(node, content, false)
		if fn != nil {
			skeleton.Functions = append(skeleton.Functions, *fn)
		}

	case "class":
		cls := r.extractClass(node, content)
		if cls != nil {
			skeleton.Classes = append(skeleton.Classes, *cls)
		}

	case "module":
		cls := r.extractModule(node, content)
		if cls != nil {
			skeleton.Classes = append(skeleton.Classes, *cls)
		}

	case "assignment":
		if name := r.constantTarget(node, content); name != "" {
			skeleton.Constants = append(skeleton.Constants, name)
		}
	}
}

func (r *RubyExtractor) extractMethod(node *sitter.Node, content []byte, static bool) *parser.Function {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(content)
	if !rubyPublic(name) {
		return nil
	}

	return &parser.Function{
		Name:   name,
		Params: r.extractParams(node.ChildByFieldName("parameters"), content),
		Static: static,
	}
}

func (r *RubyExtractor) extractClass(node *sitter.Node, content []byte) *parser.Class {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	cls := &parser.Class{Name: nameNode.Content(content)}
	if super := node.ChildByFieldName("superclass"); super != nil {
		base := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(super.Content(content)), "<"))
		if base != "" {
			cls.Bases = append(cls.Bases, base)
		}
	}

	r.extractBody(node.ChildByFieldName("body"), content, cls)
	return cls
}

func (r *RubyExtractor) extractModule(node *sitter.Node, content []byte) *parser.Class {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	cls := &parser.Class{Name: nameNode.Content(content)}
	r.extractBody(node.ChildByFieldName("body"), content, cls)
	return cls
}

func (r *RubyExtractor) extractBody(body *sitter.Node, content []byte, cls *parser.Class) {
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		stmt := body.Child(i)
		switch stmt.Type() {
		case "method":
			fn := r.extractMethod(stmt, content, false)
			if fn != nil {
				cls.Methods = append(cls.Methods, *fn)
			}

		case "singleton_method":
			fn := r.extractMethod(stmt, content, true)
			if fn != nil {
				cls.Methods = append(cls.Methods, *fn)
			}

		case "assignment":
			if name := r.constantTarget(stmt, content); name != "" {
				cls.Vars = append(cls.Vars, name)
			}

		case "call":
			// attr_accessor / attr_reader / attr_writer declare public
			// attributes; their symbol arguments are class surface.
			cls.Vars = append(cls.Vars, r.extractAttrNames(stmt, content)...)
		}
	}
}

func (r *RubyExtractor) extractAttrNames(call *sitter.Node, content []byte) []string {
	methodNode := call.ChildByFieldName("method")
	if methodNode == nil {
		return nil
	}
	switch methodNode.Content(content) {
	case "attr_accessor", "attr_reader", "attr_writer":
	default:
		return nil
	}

	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	names := make([]string, 0)
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "simple_symbol" {
			name := strings.TrimPrefix(arg.Content(content), ":")
			if rubyPublic(name) {
				names = append(names, name)
			}
		}
	}
	return names
}

// constantTarget returns the assigned name when the left side is a Ruby
// constant (upper-case first letter).
func (r *RubyExtractor) constantTarget(assign *sitter.Node, content []byte) string {
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "constant" {
		return ""
	}
	return left.Content(content)
}

func (r *RubyExtractor) extractParams(paramsNode *sitter.Node, content []byte) []parser.Param {
	if paramsNode == nil {
		return nil
	}

	params := make([]parser.Param, 0)
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		node := paramsNode.NamedChild(i)
		switch node.Type() {
		case "identifier":
			params = append(params, parser.Param{Name: node.Content(content)})

		case "optional_parameter":
			params = append(params, parser.Param{
				Name:    nodeContent(node.ChildByFieldName("name"), content),
				Default: normalizeSpace(nodeContent(node.ChildByFieldName("value"), content)),
			})

		case "keyword_parameter":
			params = append(params, parser.Param{
				Name:    nodeContent(node.ChildByFieldName("name"), content) + ":",
				Default: normalizeSpace(nodeContent(node.ChildByFieldName("value"), content)),
			})

		case "splat_parameter":
			params = append(params, parser.Param{Name: "*" + innerIdentifier(node, content)})

		case "hash_splat_parameter":
			params = append(params, parser.Param{Name: "**" + innerIdentifier(node, content)})

		case "block_parameter":
			params = append(params, parser.Param{Name: "&" + innerIdentifier(node, content)})
		}
	}
	return params
}
