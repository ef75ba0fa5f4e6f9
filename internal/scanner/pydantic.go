package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"merovingian/internal/contract"
)

// modelBaseName is the base class that marks a class as a data model.
const modelBaseName = "BaseModel"

// scanModels extracts model definitions from Python sources under the
// configured scan directories of the repository.
func (s *Scanner) scanModels(ctx context.Context, repo contract.RepoInfo) ([]contract.Endpoint, error) {
	files, err := s.walker.FindByExt(repo.Path, s.cfg.ModelScanDirs, ".py")
	if err != nil {
		return nil, fmt.Errorf("finding python sources: %w", err)
	}

	var endpoints []contract.Endpoint
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := os.ReadFile(f)
		if err != nil {
			s.logger.Debug("skipping unreadable source", "file", f, "error", err)
			continue
		}
		rel, err := filepath.Rel(repo.Path, f)
		if err != nil {
			return nil, fmt.Errorf("relative path of %s: %w", f, err)
		}
		eps, err := ParseModels(ctx, src, ModulePath(rel), repo.Name)
		if err != nil {
			return nil, err
		}
		if eps == nil {
			s.logger.Debug("no models extracted", "file", f)
		}
		endpoints = append(endpoints, eps...)
	}
	return endpoints, nil
}

// ModulePath turns a source path relative to the repository root into a
// dotted module path: "src/app/models.py" becomes "src.app.models".
func ModulePath(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, ".py")
	return strings.ReplaceAll(rel, "/", ".")
}

// ParseModels extracts one SCHEMA endpoint per BaseModel subclass found at any
// depth of a Python source file. Sources that are not valid UTF-8 or contain
// syntax errors yield no endpoints. Only cancellation of ctx is reported as an error.
func ParseModels(ctx context.Context, src []byte, module, repoName string) ([]contract.Endpoint, error) {
	if !utf8.Valid(src) {
		return nil, nil
	}

	// A parser per call; tree-sitter parsers are not safe for concurrent use.
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return nil, nil
	}

	var endpoints []contract.Endpoint
	for _, class := range findClasses(root) {
		if !inheritsBaseModel(class, src) {
			continue
		}
		body := class.ChildByFieldName("body")
		fields := classFields(body, src)
		if len(fields) == 0 {
			continue
		}
		name := class.ChildByFieldName("name").Content(src)
		endpoints = append(endpoints, contract.Endpoint{
			RepoName:       repoName,
			Method:         contract.MethodSchema,
			Path:           module + "." + name,
			Summary:        docstring(body, src),
			ResponseSchema: fields.Encode(),
		})
	}
	return endpoints, nil
}

// findClasses returns every class_definition in the tree in source order,
// including classes nested in functions, other classes and decorators.
func findClasses(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	var visit func(*sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "class_definition" {
			out = append(out, n)
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(n)
	return out
}

// inheritsBaseModel reports whether one of the class's positional bases is
// BaseModel by simple name or as the last segment of a dotted name.
// Keyword arguments such as metaclass= are ignored.
func inheritsBaseModel(class *sitter.Node, src []byte) bool {
	bases := class.ChildByFieldName("superclasses")
	if bases == nil {
		return false
	}
	for i := 0; i < int(bases.NamedChildCount()); i++ {
		base := bases.NamedChild(i)
		switch base.Type() {
		case "identifier":
			if base.Content(src) == modelBaseName {
				return true
			}
		case "attribute":
			if attr := base.ChildByFieldName("attribute"); attr != nil && attr.Content(src) == modelBaseName {
				return true
			}
		}
	}
	return false
}

// classFields collects annotated assignments made directly in the class body.
// A field without a value is required. Defaults are not evaluated.
func classFields(body *sitter.Node, src []byte) contract.FieldTable {
	fields := contract.FieldTable{}
	if body == nil {
		return fields
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign.Type() != "assignment" {
			continue
		}
		target := assign.ChildByFieldName("left")
		annotation := assign.ChildByFieldName("type")
		if target == nil || annotation == nil || target.Type() != "identifier" {
			continue
		}
		fields[target.Content(src)] = contract.FieldDescriptor{
			Type:     renderAnnotation(annotation, src),
			Required: assign.ChildByFieldName("right") == nil,
		}
	}
	return fields
}

// renderAnnotation prints a type annotation in a normalized form. Names and
// dotted names print as written, subscripts as "Base[A, B]", unions as
// "A | B", constants as their value and "..." as Ellipsis. Anything else is
// "Any".
func renderAnnotation(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "type", "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return renderAnnotation(n.NamedChild(0), src)
		}
	case "identifier", "integer", "float", "true", "false", "none":
		return n.Content(src)
	case "ellipsis":
		return "Ellipsis"
	case "attribute":
		object := n.ChildByFieldName("object")
		attr := n.ChildByFieldName("attribute")
		if object != nil && attr != nil {
			return renderAnnotation(object, src) + "." + attr.Content(src)
		}
	case "member_type":
		// newer grammars: `a.b` in type position is (type "." identifier)
		parts := make([]string, 0, n.NamedChildCount())
		for i := 0; i < int(n.NamedChildCount()); i++ {
			parts = append(parts, renderAnnotation(n.NamedChild(i), src))
		}
		return strings.Join(parts, ".")
	case "subscript":
		value := n.ChildByFieldName("value")
		if value == nil {
			break
		}
		var args []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.StartByte() == value.StartByte() && child.EndByte() == value.EndByte() {
				continue
			}
			args = append(args, renderAnnotation(child, src))
		}
		return renderAnnotation(value, src) + "[" + strings.Join(args, ", ") + "]"
	case "generic_type":
		var base string
		var args []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "type_parameter" {
				for j := 0; j < int(child.NamedChildCount()); j++ {
					args = append(args, renderAnnotation(child.NamedChild(j), src))
				}
				continue
			}
			base = renderAnnotation(child, src)
		}
		return base + "[" + strings.Join(args, ", ") + "]"
	case "union_type":
		parts := make([]string, 0, 2)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			parts = append(parts, renderAnnotation(n.NamedChild(i), src))
		}
		return strings.Join(parts, " | ")
	case "binary_operator":
		op := n.ChildByFieldName("operator")
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")
		if op != nil && op.Type() == "|" && left != nil && right != nil {
			return renderAnnotation(left, src) + " | " + renderAnnotation(right, src)
		}
	case "tuple", "expression_list":
		parts := make([]string, 0, n.NamedChildCount())
		for i := 0; i < int(n.NamedChildCount()); i++ {
			parts = append(parts, renderAnnotation(n.NamedChild(i), src))
		}
		return strings.Join(parts, ", ")
	case "string":
		return stringValue(n, src)
	case "concatenated_string":
		var sb strings.Builder
		for i := 0; i < int(n.NamedChildCount()); i++ {
			sb.WriteString(stringValue(n.NamedChild(i), src))
		}
		return sb.String()
	}
	return "Any"
}

// docstring returns the stripped text of a leading string statement in body.
func docstring(body *sitter.Node, src []byte) string {
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() != 1 {
		return ""
	}
	expr := first.NamedChild(0)
	switch expr.Type() {
	case "string":
		if isFormatString(expr, src) {
			return ""
		}
	case "concatenated_string":
		for i := 0; i < int(expr.NamedChildCount()); i++ {
			if isFormatString(expr.NamedChild(i), src) {
				return ""
			}
		}
	default:
		return ""
	}
	return strings.TrimSpace(renderAnnotation(expr, src))
}

// isFormatString reports whether a string literal is an f-string. Python
// never treats those as docstrings, even without placeholders.
func isFormatString(n *sitter.Node, src []byte) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "interpolation" {
			return true
		}
	}
	text := n.Content(src)
	prefix := text[:len(text)-len(strings.TrimLeft(text, "rRbBuUfF"))]
	return strings.ContainsAny(prefix, "fF")
}

// stringValue returns the text between a string literal's delimiters.
func stringValue(n *sitter.Node, src []byte) string {
	var start, end *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "string_start":
			start = child
		case "string_end":
			end = child
		}
	}
	if start != nil && end != nil && start.EndByte() <= end.StartByte() {
		return string(src[start.EndByte():end.StartByte()])
	}

	// Older grammars have no delimiter nodes.
	text := strings.TrimLeft(n.Content(src), "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(text) >= 2*len(q) && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			return text[len(q) : len(text)-len(q)]
		}
	}
	return text
}
