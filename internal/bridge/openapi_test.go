package bridge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// descriptorServer serves the given OpenAPI document at /openapi.json.
func descriptorServer(t *testing.T, doc string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openapi.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func findCap(t *testing.T, caps []Capability, name string) Capability {
	t.Helper()
	for _, c := range caps {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("capability %q not found in %d capabilities", name, len(caps))
	return Capability{}
}

const sampleDescriptor = `{
	"openapi": "3.0.0",
	"info": {"title": "Compute API", "version": "1.0.0"},
	"paths": {
		"/compute/square": {
			"get": {
				"operationId": "compute_square",
				"summary": "Square a number",
				"parameters": [
					{
						"name": "n",
						"in": "query",
						"required": true,
						"description": "The number to square",
						"schema": {"type": "integer"}
					},
					{
						"name": "precision",
						"in": "query",
						"schema": {"type": "integer", "default": 2}
					}
				]
			}
		},
		"/items": {
			"post": {
				"operationId": "create_item",
				"description": "Create an item",
				"requestBody": {
					"required": true,
					"content": {
						"application/json": {
							"schema": {
								"type": "object",
								"required": ["name"],
								"properties": {
									"name": {"type": "string", "description": "Item name"},
									"tags": {"type": "array", "items": {"type": "string"}}
								}
							}
						}
					}
				}
			}
		},
		"/items/{id}": {
			"get": {
				"operationId": "get_item",
				"parameters": [
					{
						"name": "id",
						"in": "path",
						"required": true,
						"schema": {"type": "string"}
					}
				]
			}
		},
		"/internal/debug": {
			"get": {"operationId": "debug_state"}
		}
	}
}`

func TestBindOpenAPI_Synthesis(t *testing.T) {
	srv := descriptorServer(t, sampleDescriptor)

	b := newTestBuilder()
	if err := b.BindOpenAPI(t.Context(), srv.URL+"/openapi.json", BindOptions{}); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	caps := b.Capabilities()
	if len(caps) != 4 {
		t.Fatalf("expected 4 capabilities, got %d", len(caps))
	}

	square := findCap(t, caps, "compute_square")
	if square.Kind != KindRemote {
		t.Errorf("expected remote kind, got %s", square.Kind)
	}
	if square.Method != http.MethodGet {
		t.Errorf("expected GET, got %s", square.Method)
	}
	// No servers entry: the base URL falls back to the descriptor origin.
	if square.URL != srv.URL+"/compute/square" {
		t.Errorf("unexpected URL: %s", square.URL)
	}
	if square.Description != "Square a number" {
		t.Errorf("expected summary as description, got %q", square.Description)
	}
	if square.Map["n"] != LocationQuery {
		t.Errorf("expected n in query, got %v", square.Map)
	}

	var n, precision *ParameterSpec
	for i := range square.Params {
		switch square.Params[i].Name {
		case "n":
			n = &square.Params[i]
		case "precision":
			precision = &square.Params[i]
		}
	}
	if n == nil || precision == nil {
		t.Fatalf("missing parameters: %v", square.Params)
	}
	if !n.Required || n.Type.Kind != TypeInteger || n.Description != "The number to square" {
		t.Errorf("unexpected spec for n: %+v", n)
	}
	if precision.Required {
		t.Error("precision should be optional")
	}
	if precision.Default != float64(2) {
		t.Errorf("expected default 2 for precision, got %v", precision.Default)
	}

	create := findCap(t, caps, "create_item")
	if create.Map["name"] != LocationBody || create.Map["tags"] != LocationBody {
		t.Errorf("expected body properties flattened into body parameters, got %v", create.Map)
	}
	if create.FlattenTarget != "" {
		t.Errorf("object body should not set a flatten target, got %q", create.FlattenTarget)
	}
	name := findCap(t, caps, "create_item").Params[0]
	if name.Name != "name" || !name.Required || name.Type.Kind != TypeString {
		t.Errorf("unexpected spec for name: %+v", name)
	}
	tags := create.Params[1]
	if tags.Type.Kind != TypeArray || tags.Type.Items == nil || tags.Type.Items.Kind != TypeString {
		t.Errorf("unexpected spec for tags: %+v", tags)
	}

	get := findCap(t, caps, "get_item")
	if get.Map["id"] != LocationPath {
		t.Errorf("expected id in path, got %v", get.Map)
	}
	if !get.Params[0].Required {
		t.Error("path parameters are always required")
	}
}

func TestBindOpenAPI_PathFilters(t *testing.T) {
	srv := descriptorServer(t, sampleDescriptor)

	b := newTestBuilder()
	err := b.BindOpenAPI(t.Context(), srv.URL+"/openapi.json", BindOptions{
		IncludePaths: []string{"/items", "/compute"},
		ExcludePaths: []string{"/internal"},
	})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	caps := b.Capabilities()
	if len(caps) != 3 {
		t.Fatalf("expected 3 capabilities, got %d", len(caps))
	}
	for _, c := range caps {
		if strings.Contains(c.URL, "/internal") {
			t.Errorf("excluded path synthesized: %s", c.URL)
		}
	}
}

func TestBindOpenAPI_BaseURLOverride(t *testing.T) {
	srv := descriptorServer(t, sampleDescriptor)

	b := newTestBuilder()
	err := b.BindOpenAPI(t.Context(), srv.URL+"/openapi.json", BindOptions{
		BaseURL: "https://api.example.com/v2/",
	})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	c := findCap(t, b.Capabilities(), "get_item")
	if c.URL != "https://api.example.com/v2/items/{id}" {
		t.Errorf("unexpected URL: %s", c.URL)
	}
}

func TestBindOpenAPI_ServerURL(t *testing.T) {
	doc := `{
		"openapi": "3.0.0",
		"info": {"title": "T", "version": "1"},
		"servers": [{"url": "https://api.example.com/v1"}],
		"paths": {
			"/ping": {"get": {"operationId": "ping"}}
		}
	}`
	srv := descriptorServer(t, doc)

	b := newTestBuilder()
	if err := b.BindOpenAPI(t.Context(), srv.URL+"/openapi.json", BindOptions{}); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	c := findCap(t, b.Capabilities(), "ping")
	if c.URL != "https://api.example.com/v1/ping" {
		t.Errorf("unexpected URL: %s", c.URL)
	}
}

func TestBindOpenAPI_NameFromSummary(t *testing.T) {
	doc := `{
		"openapi": "3.0.0",
		"info": {"title": "T", "version": "1"},
		"paths": {
			"/quotes": {"get": {"summary": "Get Latest Quotes"}},
			"/unnamed": {"get": {}}
		}
	}`
	srv := descriptorServer(t, doc)

	// Without the opt-in both operations are skipped.
	b := newTestBuilder()
	if err := b.BindOpenAPI(t.Context(), srv.URL+"/openapi.json", BindOptions{}); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if got := len(b.Capabilities()); got != 0 {
		t.Fatalf("expected unnamed operations skipped, got %d capabilities", got)
	}

	b = newTestBuilder()
	if err := b.BindOpenAPI(t.Context(), srv.URL+"/openapi.json", BindOptions{NameFromSummary: true}); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	caps := b.Capabilities()
	if len(caps) != 1 {
		t.Fatalf("expected 1 capability, got %d", len(caps))
	}
	if caps[0].Name != "get_latest_quotes" {
		t.Errorf("unexpected slugged name: %s", caps[0].Name)
	}
}

func TestBindOpenAPI_NonObjectBody(t *testing.T) {
	doc := `{
		"openapi": "3.0.0",
		"info": {"title": "T", "version": "1"},
		"paths": {
			"/echo": {
				"post": {
					"operationId": "echo",
					"requestBody": {
						"required": true,
						"content": {
							"application/json": {"schema": {"type": "string"}}
						}
					}
				}
			}
		}
	}`
	srv := descriptorServer(t, doc)

	b := newTestBuilder()
	if err := b.BindOpenAPI(t.Context(), srv.URL+"/openapi.json", BindOptions{}); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	c := findCap(t, b.Capabilities(), "echo")
	if c.Map["body"] != LocationBody {
		t.Errorf("expected catch-all body parameter, got %v", c.Map)
	}
	if c.FlattenTarget != "body" {
		t.Errorf("expected body flatten target, got %q", c.FlattenTarget)
	}
	if len(c.Params) != 1 || !c.Params[0].Required || c.Params[0].Type.Kind != TypeString {
		t.Errorf("unexpected body spec: %+v", c.Params)
	}
}

func TestBindOpenAPI_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := newTestBuilder()
	if err := b.Proxy(ProxyTool{Name: "existing", URL: "http://example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := b.BindOpenAPI(t.Context(), srv.URL+"/openapi.json", BindOptions{})
	if err == nil {
		t.Fatal("expected error for failed descriptor fetch")
	}
	// A failed bind leaves previously registered capabilities untouched.
	if got := len(b.Capabilities()); got != 1 {
		t.Errorf("expected 1 capability after failed bind, got %d", got)
	}
}

func TestBindOpenAPI_ParseFailure(t *testing.T) {
	srv := descriptorServer(t, `{not json`)

	b := newTestBuilder()
	if err := b.BindOpenAPI(t.Context(), srv.URL+"/openapi.json", BindOptions{}); err == nil {
		t.Fatal("expected error for unparseable descriptor")
	}
	if got := len(b.Capabilities()); got != 0 {
		t.Errorf("expected no capabilities after failed parse, got %d", got)
	}
}
