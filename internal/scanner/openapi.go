package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"merovingian/internal/contract"
)

// httpMethods are the operation keys read from a path item, in output order.
var httpMethods = []string{"get", "post", "put", "patch", "delete", "head", "options"}

// successStatuses are tried in order for the response schema.
var successStatuses = []string{"200", "201", "202"}

// scanOpenAPI extracts endpoints from every specification document under the
// repository root whose name matches one of the configured patterns.
func (s *Scanner) scanOpenAPI(ctx context.Context, repo contract.RepoInfo) ([]contract.Endpoint, error) {
	files, err := s.walker.FindByName(repo.Path, s.cfg.OpenAPIPatterns)
	if err != nil {
		return nil, fmt.Errorf("finding specification documents: %w", err)
	}

	var endpoints []contract.Endpoint
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(f)
		if err != nil {
			s.logger.Debug("skipping unreadable specification", "file", f, "error", err)
			continue
		}
		eps := ParseOpenAPI(data, filepath.Ext(f), repo.Name)
		s.logger.Debug("specification parsed", "file", f, "endpoints", len(eps))
		endpoints = append(endpoints, eps...)
	}
	return endpoints, nil
}

// ParseOpenAPI extracts endpoints from one OpenAPI or Swagger document.
// ext selects the decoder: ".json" documents are decoded as JSON, everything
// else as YAML. Documents that cannot be decoded, or whose root is not a
// mapping, yield no endpoints.
func ParseOpenAPI(data []byte, ext, repoName string) []contract.Endpoint {
	doc, ok := decodeDocument(data, ext)
	if !ok {
		return nil
	}

	defs := asMap(asMap(doc["components"])["schemas"])
	if defs == nil {
		defs = asMap(doc["definitions"])
	}

	paths := asMap(doc["paths"])
	pathNames := make([]string, 0, len(paths))
	for p := range paths {
		pathNames = append(pathNames, p)
	}
	sort.Strings(pathNames)

	var endpoints []contract.Endpoint
	for _, p := range pathNames {
		item := asMap(paths[p])
		if item == nil {
			continue
		}
		for _, method := range httpMethods {
			op := asMap(item[method])
			if op == nil {
				continue
			}
			summary, _ := op["summary"].(string)
			endpoints = append(endpoints, contract.Endpoint{
				RepoName:       repoName,
				Method:         strings.ToUpper(method),
				Path:           p,
				Summary:        summary,
				RequestSchema:  requestFields(op, defs).Encode(),
				ResponseSchema: responseFields(op, defs).Encode(),
			})
		}
	}
	return endpoints
}

func decodeDocument(data []byte, ext string) (map[string]any, bool) {
	var raw any
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, false
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, false
		}
	}
	doc, ok := normalize(raw).(map[string]any)
	return doc, ok
}

// requestFields reads requestBody.content.application/json.schema, falling
// back to a Swagger 2 body parameter.
func requestFields(op, defs map[string]any) contract.FieldTable {
	if body := asMap(op["requestBody"]); body != nil {
		return ResolveFields(jsonSchema(body), defs)
	}
	for _, param := range asList(op["parameters"]) {
		pm := asMap(param)
		if pm["in"] == "body" {
			return ResolveFields(pm["schema"], defs)
		}
	}
	return contract.FieldTable{}
}

// responseFields returns the first non-empty table among the success statuses.
func responseFields(op, defs map[string]any) contract.FieldTable {
	responses := asMap(op["responses"])
	for _, status := range successStatuses {
		resp := asMap(responses[status])
		if resp == nil {
			continue
		}
		schema := jsonSchema(resp)
		if schema == nil {
			schema = resp["schema"]
		}
		if fields := ResolveFields(schema, defs); len(fields) > 0 {
			return fields
		}
	}
	return contract.FieldTable{}
}

func jsonSchema(holder map[string]any) any {
	return asMap(asMap(holder["content"])["application/json"])["schema"]
}

// normalize converts decoded YAML into JSON-shaped values: every mapping
// becomes map[string]any, with non-string keys such as unquoted status codes
// rendered as text.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
