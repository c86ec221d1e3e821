package server

import (
	"net/http"

	"github.com/bobmcallan/mcpbridge/internal/bridge"
)

// setupRoutes configures all HTTP routes. Routes registered through
// s.route carry the metadata the bridge's analyzer consumes; plain
// infrastructure endpoints are registered directly on the mux.
func (s *Server) setupRoutes() {
	// Infrastructure endpoints, not exposed as tools.
	s.mux.HandleFunc("GET /api/health", s.app.HealthHandler.ServeHTTP)
	s.mux.HandleFunc("GET /api/version", s.app.VersionHandler.ServeHTTP)

	// Items CRUD.
	s.route(bridge.Route{
		Name:        "list_items",
		Description: "List stored items, optionally filtered by tag",
		Method:      http.MethodGet,
		Path:        "/api/items",
		QueryParams: []bridge.ParameterSpec{
			{Name: "tag", Type: bridge.StringType(), Description: "Only items carrying this tag"},
			{Name: "limit", Type: bridge.IntegerType(), Description: "Maximum number of items to return"},
		},
	}, s.app.ItemsHandler.List)

	s.route(bridge.Route{
		Name:        "create_item",
		Description: "Create a new item",
		Method:      http.MethodPost,
		Path:        "/api/items",
		BodyFields: []bridge.ParameterSpec{
			{Name: "name", Type: bridge.StringType(), Description: "Item name", Required: true},
			{Name: "tags", Type: bridge.ArrayType(bridge.StringType()), Description: "Item tags"},
		},
		EmbedBody: true,
	}, s.app.ItemsHandler.Create)

	s.route(bridge.Route{
		Name:        "get_item",
		Description: "Fetch one item by ID",
		Method:      http.MethodGet,
		Path:        "/api/items/{id}",
		PathParams: []bridge.ParameterSpec{
			{Name: "id", Type: bridge.StringType(), Description: "Item ID", Required: true},
		},
	}, s.app.ItemsHandler.Get)

	s.route(bridge.Route{
		Name:        "update_item",
		Description: "Update an item's name or tags",
		Method:      http.MethodPut,
		Path:        "/api/items/{id}",
		PathParams: []bridge.ParameterSpec{
			{Name: "id", Type: bridge.StringType(), Description: "Item ID", Required: true},
		},
		BodyFields: []bridge.ParameterSpec{
			{Name: "name", Type: bridge.StringType(), Description: "New item name"},
			{Name: "tags", Type: bridge.ArrayType(bridge.StringType()), Description: "New item tags"},
		},
		EmbedBody: true,
	}, s.app.ItemsHandler.Update)

	s.route(bridge.Route{
		Name:        "delete_item",
		Description: "Delete an item by ID",
		Method:      http.MethodDelete,
		Path:        "/api/items/{id}",
		PathParams: []bridge.ParameterSpec{
			{Name: "id", Type: bridge.StringType(), Description: "Item ID", Required: true},
		},
	}, s.app.ItemsHandler.Delete)

	// Echo: single unembedded body field, so the payload value is the
	// literal request body.
	s.route(bridge.Route{
		Name:        "echo",
		Description: "Echo a payload back through the host application",
		Method:      http.MethodPost,
		Path:        "/api/echo",
		BodyFields: []bridge.ParameterSpec{
			{Name: "payload", Type: bridge.AnyType(), Description: "Payload to echo", Required: true},
		},
	}, s.app.EchoHandler.Echo)

	s.route(bridge.Route{
		Name:        "multiply",
		Description: "Multiply two numbers",
		Method:      http.MethodGet,
		Path:        "/api/compute/multiply",
		QueryParams: []bridge.ParameterSpec{
			{Name: "a", Type: bridge.NumberType(), Required: true},
			{Name: "b", Type: bridge.NumberType(), Required: true},
		},
	}, s.app.ComputeHandler.Multiply)

	// 404 handler for unmatched API routes
	s.mux.HandleFunc("/api/", s.handleNotFound)
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
