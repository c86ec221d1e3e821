package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/bobmcallan/mcpbridge/internal/common"
)

// ComputeHandler serves small computation endpoints used to exercise
// query-parameter operations.
type ComputeHandler struct {
	logger *common.Logger
}

// NewComputeHandler creates a new compute handler.
func NewComputeHandler(logger *common.Logger) *ComputeHandler {
	return &ComputeHandler{logger: logger}
}

// Multiply handles GET /api/compute/multiply with query parameters a and b.
func (h *ComputeHandler) Multiply(w http.ResponseWriter, r *http.Request) {
	a, errA := strconv.ParseFloat(r.URL.Query().Get("a"), 64)
	b, errB := strconv.ParseFloat(r.URL.Query().Get("b"), 64)
	if errA != nil || errB != nil {
		WriteError(w, http.StatusBadRequest, "a and b must be numbers")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]float64{
		"result": a * b,
	})
}

// EchoHandler returns the request payload unchanged. The route declares a
// single unembedded body field, so the raw request body is the payload value
// itself rather than an object wrapping it.
type EchoHandler struct {
	logger *common.Logger
}

// NewEchoHandler creates a new echo handler.
func NewEchoHandler(logger *common.Logger) *EchoHandler {
	return &EchoHandler{logger: logger}
}

// Echo handles POST /api/echo.
func (h *EchoHandler) Echo(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	var payload interface{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"received": payload,
		"source":   r.Header.Get("X-MCP-Source"),
	})
}
