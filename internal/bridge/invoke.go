package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/bobmcallan/mcpbridge/internal/common"
)

// maxResponseSize caps response bodies to prevent OOM from unexpectedly large responses.
const maxResponseSize = 50 << 20 // 50MB

// HeaderBridgeSource is the provenance marker added to every outbound and
// replayed request, distinguishing bridge-originated calls from direct ones.
const HeaderBridgeSource = "X-MCP-Source"

// strippedHeaders are hop-by-hop and transport headers never forwarded from
// the inbound MCP request.
var strippedHeaders = map[string]bool{
	"host":           true,
	"content-length": true,
	"content-type":   true,
	"connection":     true,
	"upgrade":        true,
}

// outboundHeaders builds the header set for a reconstructed request: the
// inbound request's headers minus transport headers, plus the provenance
// marker.
func outboundHeaders(ctx context.Context) http.Header {
	out := make(http.Header)
	if captured, ok := RequestHeaders(ctx); ok {
		for key, vals := range captured {
			if strippedHeaders[strings.ToLower(key)] {
				continue
			}
			for _, v := range vals {
				out.Add(key, v)
			}
		}
	}
	out.Set(HeaderBridgeSource, "true")
	return out
}

// splitArgs partitions a flat argument map into path, query, and body
// buckets using the capability's parameter map. Names absent from the map
// fall back by verb: GET/DELETE to query, everything else to body.
func splitArgs(c *Capability, args map[string]any) (pathArgs map[string]any, query url.Values, body map[string]any) {
	pathArgs = make(map[string]any)
	query = make(url.Values)
	body = make(map[string]any)

	queryByDefault := c.Method == http.MethodGet || c.Method == http.MethodDelete

	for name, val := range args {
		loc, ok := c.Map[name]
		if !ok {
			if queryByDefault {
				loc = LocationQuery
			} else {
				loc = LocationBody
			}
		}
		switch loc {
		case LocationPath:
			pathArgs[name] = val
		case LocationQuery:
			if val == nil {
				continue
			}
			if s := fmt.Sprint(val); s != "" {
				query.Set(name, s)
			}
		case LocationBody:
			if val != nil {
				body[name] = val
			}
		}
	}
	return pathArgs, query, body
}

// buildPath substitutes path placeholders with stringified argument values.
// Every placeholder must resolve before dispatch.
func buildPath(template string, pathArgs map[string]any) (string, error) {
	path := template
	for name, val := range pathArgs {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(fmt.Sprint(val)))
	}
	if m := placeholderRe.FindStringSubmatch(path); m != nil {
		return "", fmt.Errorf("unresolved path parameter %q in %q", m[1], template)
	}
	return path, nil
}

// buildPayload applies the single-body flatten rule: when the only body
// argument is the designated flatten target, its value is the payload root;
// otherwise all body arguments merge into one object keyed by name. Returns
// nil when there is nothing to send.
func buildPayload(c *Capability, body map[string]any) any {
	if len(body) == 0 {
		return nil
	}
	if c.FlattenTarget != "" && len(body) == 1 {
		if val, ok := body[c.FlattenTarget]; ok {
			return val
		}
	}
	return body
}

// Invoker executes one capability with a flat argument map and returns the
// raw response body. Transport failures are returned, never swallowed.
type Invoker interface {
	Invoke(ctx context.Context, c *Capability, args map[string]any) ([]byte, error)
}

// LocalInvoker replays reconstructed requests in-process against the host
// application's handler. No socket is involved.
type LocalInvoker struct {
	host   Host
	logger *common.Logger
}

// NewLocalInvoker creates an invoker replaying against the given host.
func NewLocalInvoker(host Host, logger *common.Logger) *LocalInvoker {
	return &LocalInvoker{host: host, logger: logger}
}

// Invoke rebuilds the request and serves it through the host handler,
// capturing the response with a recorder.
func (iv *LocalInvoker) Invoke(ctx context.Context, c *Capability, args map[string]any) ([]byte, error) {
	pathArgs, query, bodyArgs := splitArgs(c, args)

	path, err := buildPath(c.Path, pathArgs)
	if err != nil {
		return nil, err
	}
	// A root-relative route has an empty template; the replay target is the
	// equivalent alias at "/".
	if path == "" {
		path = "/"
	}

	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	payload := buildPayload(c, bodyArgs)
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	iv.logger.Debug().Str("method", c.Method).Str("path", path).Msg("local replay")

	req := httptest.NewRequestWithContext(ctx, c.Method, target, bodyReader)
	req.Header = outboundHeaders(ctx)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	rec := httptest.NewRecorder()
	iv.host.Handler().ServeHTTP(rec, req)
	duration := time.Since(start)

	resp := rec.Result()
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	iv.logger.Debug().Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("local replay response")

	if resp.StatusCode >= 400 {
		return nil, parseErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

// RemoteInvoker issues outbound HTTP calls to a capability's absolute URL.
type RemoteInvoker struct {
	client *http.Client
	logger *common.Logger
}

// NewRemoteInvoker creates an invoker using the given client. The client's
// timeout bounds every outbound call.
func NewRemoteInvoker(client *http.Client, logger *common.Logger) *RemoteInvoker {
	return &RemoteInvoker{client: client, logger: logger}
}

// Invoke serializes the body bucket as JSON and the query bucket as a query
// string, then executes the request over the network.
func (iv *RemoteInvoker) Invoke(ctx context.Context, c *Capability, args map[string]any) ([]byte, error) {
	pathArgs, query, bodyArgs := splitArgs(c, args)

	target, err := buildPath(c.URL, pathArgs)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}

	var bodyReader io.Reader
	payload := buildPayload(c, bodyArgs)
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	iv.logger.Debug().Str("method", c.Method).Str("url", target).Msg("remote request")

	req, err := http.NewRequestWithContext(ctx, c.Method, target, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header = outboundHeaders(ctx)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := iv.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		iv.logger.Error().Str("method", c.Method).Str("url", target).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("remote request failed")
		return nil, fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	iv.logger.Debug().Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("remote response")

	if resp.StatusCode >= 400 {
		return nil, parseErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

// parseErrorResponse extracts a meaningful error message from an HTTP error response.
func parseErrorResponse(statusCode int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("%s", errResp.Error)
	}
	return fmt.Errorf("request returned %d: %s", statusCode, string(body))
}
