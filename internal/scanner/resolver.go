package scanner

import (
	"fmt"
	"math"
	"strings"

	"merovingian/internal/contract"
)

// Reference prefixes understood by the resolver. OpenAPI 3 documents keep
// reusable schemas under components, Swagger 2 under definitions.
var refPrefixes = []string{"#/components/schemas/", "#/definitions/"}

// ResolveFields flattens a schema node into a field table. defs holds the
// document's named schemas. $ref, allOf, anyOf and oneOf are resolved; nodes
// that are not objects, dangling references and reference cycles all yield an
// empty table. It never fails.
func ResolveFields(node any, defs map[string]any) contract.FieldTable {
	schema := resolveSchema(asMap(node), defs, nil)
	if schema == nil {
		return contract.FieldTable{}
	}

	props := asMap(schema["properties"])
	if schema["type"] != "object" && props == nil {
		return contract.FieldTable{}
	}

	required := make(map[string]bool)
	for _, name := range asList(schema["required"]) {
		if s, ok := name.(string); ok {
			required[s] = true
		}
	}

	fields := make(contract.FieldTable, len(props))
	for name, raw := range props {
		field := resolveSchema(asMap(raw), defs, nil)
		fields[name] = contract.FieldDescriptor{
			Type:     typeName(field["type"]),
			Required: required[name],
			Default:  jsonDefault(field["default"]),
		}
	}
	return fields
}

// resolveSchema follows references and combinators until it reaches a plain
// schema. seen holds the references already followed on the current path.
// It returns nil when the chain is broken or cyclic.
func resolveSchema(schema map[string]any, defs map[string]any, seen map[string]bool) map[string]any {
	if schema == nil {
		return nil
	}

	if ref, ok := schema["$ref"].(string); ok {
		if seen[ref] {
			return nil
		}
		next := make(map[string]bool, len(seen)+1)
		for k := range seen {
			next[k] = true
		}
		next[ref] = true
		return resolveSchema(lookupRef(ref, defs), defs, next)
	}

	if parts := asList(schema["allOf"]); parts != nil {
		props := make(map[string]any)
		var required []any
		for _, part := range parts {
			resolved := resolveSchema(asMap(part), defs, seen)
			if resolved == nil {
				continue
			}
			for k, v := range asMap(resolved["properties"]) {
				props[k] = v
			}
			required = append(required, asList(resolved["required"])...)
		}
		return map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		}
	}

	for _, keyword := range []string{"anyOf", "oneOf"} {
		if branches := asList(schema[keyword]); len(branches) > 0 {
			return resolveSchema(asMap(branches[0]), defs, seen)
		}
	}

	return schema
}

// jsonDefault makes a default value encodable as JSON. YAML accepts .inf and
// .nan, which encoding/json rejects; those become "Infinity", "-Infinity" and
// "NaN", the spelling JSON-with-extensions writers use.
func jsonDefault(v any) any {
	switch t := v.(type) {
	case float64:
		switch {
		case math.IsNaN(t):
			return "NaN"
		case math.IsInf(t, 1):
			return "Infinity"
		case math.IsInf(t, -1):
			return "-Infinity"
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonDefault(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonDefault(val)
		}
		return out
	default:
		return v
	}
}

func lookupRef(ref string, defs map[string]any) map[string]any {
	for _, prefix := range refPrefixes {
		if name, ok := strings.CutPrefix(ref, prefix); ok {
			return asMap(defs[name])
		}
	}
	return nil
}

// typeName renders a schema's type keyword. A missing type means "object";
// a list of types (OpenAPI 3.1) is joined with '|'.
func typeName(v any) string {
	switch t := v.(type) {
	case nil:
		return "object"
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, "|")
	default:
		return fmt.Sprint(t)
	}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}
