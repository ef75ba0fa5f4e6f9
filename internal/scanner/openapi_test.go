package scanner

import (
	"testing"

	"merovingian/internal/contract"
)

const ordersSpec = `
openapi: 3.0.0
info:
  title: orders
  version: "1"
paths:
  /orders/{id}:
    get:
      summary: Fetch an order
      responses:
        200:
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Order'
    delete:
      summary: Cancel an order
      responses:
        "204":
          description: gone
  /orders:
    post:
      summary: Create an order
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [sku]
              properties:
                sku:
                  type: string
                quantity:
                  type: integer
                  default: 1
      responses:
        "201":
          description: created
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Order'
components:
  schemas:
    Order:
      type: object
      required: [id, total]
      properties:
        id:
          type: integer
        total:
          type: number
`

func TestParseOpenAPI_YAML(t *testing.T) {
	eps := ParseOpenAPI([]byte(ordersSpec), ".yaml", "orders")

	want := []contract.EndpointKey{
		{Method: "POST", Path: "/orders"},
		{Method: "GET", Path: "/orders/{id}"},
		{Method: "DELETE", Path: "/orders/{id}"},
	}
	if len(eps) != len(want) {
		t.Fatalf("got %d endpoints, want %d: %+v", len(eps), len(want), eps)
	}
	for i, w := range want {
		if eps[i].Key() != w {
			t.Errorf("endpoint %d = %s, want %s", i, eps[i].Key(), w)
		}
		if eps[i].RepoName != "orders" {
			t.Errorf("endpoint %d repo = %q", i, eps[i].RepoName)
		}
	}

	post := eps[0]
	if post.Summary != "Create an order" {
		t.Errorf("summary = %q", post.Summary)
	}
	assertFields(t, contract.DecodeFieldTable(post.RequestSchema), contract.FieldTable{
		"sku":      {Type: "string", Required: true},
		"quantity": {Type: "integer", Default: 1.0}, // defaults round-trip through JSON
	})
	assertFields(t, contract.DecodeFieldTable(post.ResponseSchema), contract.FieldTable{
		"id":    {Type: "integer", Required: true},
		"total": {Type: "number", Required: true},
	})

	// Unquoted status keys decode as integers and must still be found.
	get := eps[1]
	if get.RequestSchema != "" {
		t.Errorf("GET request schema = %q, want empty", get.RequestSchema)
	}
	assertFields(t, contract.DecodeFieldTable(get.ResponseSchema), contract.FieldTable{
		"id":    {Type: "integer", Required: true},
		"total": {Type: "number", Required: true},
	})

	if del := eps[2]; del.ResponseSchema != "" {
		t.Errorf("DELETE response schema = %q, want empty", del.ResponseSchema)
	}
}

func TestParseOpenAPI_JSON(t *testing.T) {
	doc := `{
	"openapi": "3.0.0",
	"paths": {
		"/invoices": {
			"get": {
				"responses": {
					"200": {
						"content": {"application/json": {"schema": {
							"type": "object",
							"properties": {"amount": {"type": "number"}}
						}}}
					}
				}
			}
		}
	}
}`
	eps := ParseOpenAPI([]byte(doc), ".json", "billing")
	if len(eps) != 1 {
		t.Fatalf("got %d endpoints, want 1", len(eps))
	}
	if eps[0].Key() != (contract.EndpointKey{Method: "GET", Path: "/invoices"}) {
		t.Errorf("key = %s", eps[0].Key())
	}
	assertFields(t, contract.DecodeFieldTable(eps[0].ResponseSchema), contract.FieldTable{
		"amount": {Type: "number"},
	})
}

func TestParseOpenAPI_Swagger2(t *testing.T) {
	doc := `
swagger: "2.0"
paths:
  /users:
    post:
      parameters:
        - in: query
          name: dry_run
          type: boolean
        - in: body
          name: user
          schema:
            $ref: '#/definitions/User'
      responses:
        "200":
          description: ok
          schema:
            $ref: '#/definitions/User'
definitions:
  User:
    type: object
    required: [email]
    properties:
      email:
        type: string
`
	eps := ParseOpenAPI([]byte(doc), ".yaml", "users")
	if len(eps) != 1 {
		t.Fatalf("got %d endpoints, want 1", len(eps))
	}
	want := contract.FieldTable{"email": {Type: "string", Required: true}}
	assertFields(t, contract.DecodeFieldTable(eps[0].RequestSchema), want)
	assertFields(t, contract.DecodeFieldTable(eps[0].ResponseSchema), want)
}

func TestParseOpenAPI_ResponseFallsThroughEmptyStatus(t *testing.T) {
	doc := `
paths:
  /jobs:
    put:
      responses:
        "200":
          description: no body
        "202":
          content:
            application/json:
              schema:
                type: object
                properties:
                  job_id:
                    type: string
`
	eps := ParseOpenAPI([]byte(doc), ".yml", "jobs")
	if len(eps) != 1 {
		t.Fatalf("got %d endpoints, want 1", len(eps))
	}
	assertFields(t, contract.DecodeFieldTable(eps[0].ResponseSchema), contract.FieldTable{
		"job_id": {Type: "string"},
	})
}

func TestParseOpenAPI_Unusable(t *testing.T) {
	tests := []struct {
		name string
		data string
		ext  string
	}{
		{name: "malformed yaml", data: "paths: [unclosed", ext: ".yaml"},
		{name: "malformed json", data: `{"paths": `, ext: ".json"},
		{name: "scalar root", data: "just a string", ext: ".yaml"},
		{name: "no paths", data: "openapi: 3.0.0\n", ext: ".yaml"},
		{name: "paths not a mapping", data: "paths: [a, b]\n", ext: ".yaml"},
		{name: "empty", data: "", ext: ".yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if eps := ParseOpenAPI([]byte(tt.data), tt.ext, "r"); len(eps) != 0 {
				t.Errorf("got %d endpoints, want none", len(eps))
			}
		})
	}
}

func TestParseOpenAPI_IgnoresNonOperationKeys(t *testing.T) {
	doc := `
paths:
  /health:
    parameters:
      - in: header
        name: X-Trace
    summary: shared
    get:
      summary: Liveness
`
	eps := ParseOpenAPI([]byte(doc), ".yaml", "r")
	if len(eps) != 1 || eps[0].Method != "GET" {
		t.Fatalf("got %+v, want single GET", eps)
	}
}

func TestParseOpenAPI_NonFiniteDefault(t *testing.T) {
	doc := `
paths:
  /items:
    get:
      responses:
        "200":
          content:
            application/json:
              schema:
                type: object
                properties:
                  id:
                    type: integer
                  limit:
                    type: number
                    default: .inf
`
	eps := ParseOpenAPI([]byte(doc), ".yaml", "r")
	if len(eps) != 1 {
		t.Fatalf("got %d endpoints, want 1", len(eps))
	}
	if eps[0].ResponseSchema == "" {
		t.Fatal("response schema dropped")
	}
	assertFields(t, contract.DecodeFieldTable(eps[0].ResponseSchema), contract.FieldTable{
		"id":    {Type: "integer"},
		"limit": {Type: "number", Default: "Infinity"},
	})

	// Re-extracting the same document must not look like a change.
	breaking, nonBreaking := contract.Diff(eps, ParseOpenAPI([]byte(doc), ".yaml", "r"))
	if len(breaking) != 0 || len(nonBreaking) != 0 {
		t.Errorf("Diff() = %v, %v; want no changes", breaking, nonBreaking)
	}
}
