package scanner

import (
	"math"
	"testing"

	"merovingian/internal/contract"
)

func TestResolveFields(t *testing.T) {
	defs := map[string]any{
		"Order": map[string]any{
			"type":     "object",
			"required": []any{"id"},
			"properties": map[string]any{
				"id":    map[string]any{"type": "integer"},
				"total": map[string]any{"type": "number", "default": 0.0},
			},
		},
		"Alias": map[string]any{"$ref": "#/components/schemas/Order"},
		"Loop":  map[string]any{"$ref": "#/components/schemas/Loop"},
		"Self": map[string]any{
			"allOf": []any{map[string]any{"$ref": "#/components/schemas/Self"}},
		},
		"Legacy": map[string]any{
			"properties": map[string]any{"code": map[string]any{"type": "string"}},
		},
	}

	tests := []struct {
		name string
		node any
		want contract.FieldTable
	}{
		{
			name: "inline object",
			node: map[string]any{
				"type":       "object",
				"required":   []any{"name"},
				"properties": map[string]any{"name": map[string]any{"type": "string"}},
			},
			want: contract.FieldTable{"name": {Type: "string", Required: true}},
		},
		{
			name: "reference",
			node: map[string]any{"$ref": "#/components/schemas/Order"},
			want: contract.FieldTable{
				"id":    {Type: "integer", Required: true},
				"total": {Type: "number", Default: 0.0},
			},
		},
		{
			name: "reference chain",
			node: map[string]any{"$ref": "#/components/schemas/Alias"},
			want: contract.FieldTable{
				"id":    {Type: "integer", Required: true},
				"total": {Type: "number", Default: 0.0},
			},
		},
		{
			name: "swagger definitions prefix",
			node: map[string]any{"$ref": "#/definitions/Legacy"},
			want: contract.FieldTable{"code": {Type: "string"}},
		},
		{
			name: "allOf merges properties and required",
			node: map[string]any{"allOf": []any{
				map[string]any{"$ref": "#/components/schemas/Order"},
				map[string]any{
					"type":       "object",
					"required":   []any{"note"},
					"properties": map[string]any{"note": map[string]any{"type": "string"}},
				},
			}},
			want: contract.FieldTable{
				"id":    {Type: "integer", Required: true},
				"total": {Type: "number", Default: 0.0},
				"note":  {Type: "string", Required: true},
			},
		},
		{
			name: "anyOf takes first branch",
			node: map[string]any{"anyOf": []any{
				map[string]any{"$ref": "#/components/schemas/Legacy"},
				map[string]any{"$ref": "#/components/schemas/Order"},
			}},
			want: contract.FieldTable{"code": {Type: "string"}},
		},
		{
			name: "property without type is object",
			node: map[string]any{
				"type":       "object",
				"properties": map[string]any{"meta": map[string]any{}},
			},
			want: contract.FieldTable{"meta": {Type: "object"}},
		},
		{
			name: "type list is joined",
			node: map[string]any{
				"type":       "object",
				"properties": map[string]any{"x": map[string]any{"type": []any{"string", "null"}}},
			},
			want: contract.FieldTable{"x": {Type: "string|null"}},
		},
		{
			name: "non-finite defaults are kept as text",
			node: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"limit": map[string]any{"type": "number", "default": math.Inf(1)},
					"floor": map[string]any{"type": "number", "default": math.Inf(-1)},
					"ratio": map[string]any{"type": "number", "default": math.NaN()},
				},
			},
			want: contract.FieldTable{
				"limit": {Type: "number", Default: "Infinity"},
				"floor": {Type: "number", Default: "-Infinity"},
				"ratio": {Type: "number", Default: "NaN"},
			},
		},
		{name: "self reference", node: map[string]any{"$ref": "#/components/schemas/Loop"}, want: contract.FieldTable{}},
		{name: "allOf self cycle", node: map[string]any{"$ref": "#/components/schemas/Self"}, want: contract.FieldTable{}},
		{name: "dangling reference", node: map[string]any{"$ref": "#/components/schemas/Missing"}, want: contract.FieldTable{}},
		{name: "foreign reference", node: map[string]any{"$ref": "other.yaml#/Order"}, want: contract.FieldTable{}},
		{name: "primitive", node: map[string]any{"type": "string"}, want: contract.FieldTable{}},
		{name: "array", node: map[string]any{"type": "array", "items": map[string]any{"type": "string"}}, want: contract.FieldTable{}},
		{name: "nil", node: nil, want: contract.FieldTable{}},
		{name: "not a mapping", node: "object", want: contract.FieldTable{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveFields(tt.node, defs)
			assertFields(t, got, tt.want)
		})
	}
}

func assertFields(t *testing.T, got, want contract.FieldTable) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d fields %v, want %d %v", len(got), got, len(want), want)
	}
	for name, w := range want {
		g, ok := got[name]
		if !ok {
			t.Errorf("missing field %q", name)
			continue
		}
		if g.Type != w.Type || g.Required != w.Required || g.Default != w.Default {
			t.Errorf("field %q = %+v, want %+v", name, g, w)
		}
	}
}
