package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/mcpbridge/internal/common"
	"github.com/bobmcallan/mcpbridge/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

var (
	// ErrAlreadyBuilt is returned when registering or building after Build.
	ErrAlreadyBuilt = errors.New("bridge already built")

	// ErrDuplicateTool is returned by Build when two capabilities share a name.
	ErrDuplicateTool = errors.New("duplicate tool name")

	// ErrUnsupportedMode is returned when registering a resource or prompt
	// capability. Only tool mode is implemented.
	ErrUnsupportedMode = errors.New("unsupported capability mode")
)

// defaultRequestTimeout bounds outbound calls when no timeout is configured.
const defaultRequestTimeout = 300 * time.Second

// Options configures a Builder.
type Options struct {
	Name         string
	Version      string
	JSONResponse bool

	// RequestTimeout bounds outbound remote calls and descriptor fetches.
	RequestTimeout time.Duration

	Logger     *common.Logger
	HTTPClient *http.Client
}

// Builder collects capability declarations and, on Build, turns each one
// into a registered MCP tool backed by the invocation router. The state
// machine is registration -> built; Build is terminal and building twice is
// an error.
type Builder struct {
	name         string
	version      string
	jsonResponse bool
	logger       *common.Logger
	client       *http.Client

	caps  []*Capability
	built bool

	local  Invoker
	remote Invoker
}

// NewBuilder creates a Builder in the registration state.
func NewBuilder(opts Options) *Builder {
	if opts.Name == "" {
		opts.Name = "mcpbridge"
	}
	if opts.Version == "" {
		opts.Version = config.GetVersion()
	}
	if opts.Logger == nil {
		opts.Logger = common.NewDefaultLogger()
	}
	if opts.HTTPClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		opts.HTTPClient = &http.Client{Timeout: timeout}
	}

	return &Builder{
		name:         opts.Name,
		version:      opts.Version,
		jsonResponse: opts.JSONResponse,
		logger:       opts.Logger,
		client:       opts.HTTPClient,
	}
}

// Tool declares a local route as a tool capability. The parameter structure
// is resolved from the route metadata at build time unless the route carries
// an explicit override.
func (b *Builder) Tool(r Route) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	name := r.Name
	if name == "" {
		return fmt.Errorf("route %s %s has no tool name", r.Method, r.Path)
	}
	route := r
	b.caps = append(b.caps, &Capability{
		Kind:        KindLocal,
		Mode:        ModeTool,
		Name:        name,
		Description: r.Description,
		Method:      r.Method,
		Path:        r.Path,
		route:       &route,
	})
	return nil
}

// Resource would declare a resource capability. Resources are declared by
// the capability model but not implemented; registration fails explicitly
// rather than silently skipping.
func (b *Builder) Resource(r Route) error {
	return fmt.Errorf("%w: resource (route %s)", ErrUnsupportedMode, r.Path)
}

// Prompt would declare a prompt capability. Not implemented; see Resource.
func (b *Builder) Prompt(r Route) error {
	return fmt.Errorf("%w: prompt (route %s)", ErrUnsupportedMode, r.Path)
}

// ProxyTool declares a remote endpoint as a tool, with an explicit parameter
// structure instead of route analysis.
type ProxyTool struct {
	Name        string
	Description string
	URL         string
	Method      string
	Params      []ParameterSpec
	Structure   ParameterMap
}

// Proxy declares a remote capability targeting an absolute URL.
func (b *Builder) Proxy(p ProxyTool) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	if p.Name == "" {
		return fmt.Errorf("proxy tool for %s has no name", p.URL)
	}
	if p.URL == "" {
		return fmt.Errorf("proxy tool %q has no target URL", p.Name)
	}
	method := p.Method
	if method == "" {
		method = http.MethodGet
	}
	pm := p.Structure
	if pm == nil {
		pm = make(ParameterMap)
	}
	b.caps = append(b.caps, &Capability{
		Kind:        KindRemote,
		Mode:        ModeTool,
		Name:        p.Name,
		Description: p.Description,
		Method:      method,
		URL:         p.URL,
		Params:      p.Params,
		Map:         pm,
	})
	return nil
}

// Capabilities returns a copy of the registered declarations.
func (b *Builder) Capabilities() []Capability {
	out := make([]Capability, len(b.caps))
	for i, c := range b.caps {
		out[i] = *c
	}
	return out
}

// Build resolves every declaration's parameter structure, registers the
// resulting tools with an MCP server, and mounts the protocol's streamable
// HTTP surface on the host at mountPath, wrapped with the header-capture
// middleware. Build transitions the builder to its terminal state; calling
// it twice returns ErrAlreadyBuilt.
func (b *Builder) Build(host Host, mountPath string) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	b.built = true

	b.local = NewLocalInvoker(host, b.logger)
	b.remote = NewRemoteInvoker(b.client, b.logger)

	srv := mcpserver.NewMCPServer(
		b.name,
		b.version,
		mcpserver.WithToolCapabilities(true),
	)

	seen := make(map[string]bool, len(b.caps))
	for _, c := range b.caps {
		if seen[c.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, c.Name)
		}
		seen[c.Name] = true

		b.resolveStructure(c)
		srv.AddTool(buildTool(c), b.toolHandler(c))
	}

	// Built-in version tool; overrides a same-named capability by design of
	// the registration order.
	srv.AddTool(b.versionTool(), b.versionToolHandler())

	streamable := mcpserver.NewStreamableHTTPServer(srv,
		mcpserver.WithStateLess(true),
	)

	host.Mount(mountPath, CaptureHeaders(streamable))
	host.OnStop(func(ctx context.Context) error {
		return streamable.Shutdown(ctx)
	})

	b.logger.Info().
		Int("tools", len(b.caps)).
		Str("mount_path", mountPath).
		Msg("bridge built")
	return nil
}

// resolveStructure fills in the capability's parameter map, specs, and
// flatten target. Remote capabilities carry theirs from registration; local
// ones run the analyzer here. Analysis failure is non-fatal: the capability
// keeps an empty map and dispatch uses the runtime fallback rule.
func (b *Builder) resolveStructure(c *Capability) {
	if c.Kind != KindLocal || c.route == nil {
		if c.Map == nil {
			c.Map = make(ParameterMap)
		}
		return
	}

	if c.route.Override != nil {
		c.Map = c.route.Override
		c.Params = append(append(append([]ParameterSpec{}, c.route.PathParams...), c.route.QueryParams...), c.route.BodyFields...)
		return
	}

	pm, flatten, specs, err := AnalyzeRoute(*c.route)
	if err != nil {
		b.logger.Warn().
			Str("tool", c.Name).
			Str("path", c.Path).
			Str("error", err.Error()).
			Msg("route analysis failed, falling back to runtime parameter inference")
		c.Map = make(ParameterMap)
		return
	}
	c.Map = pm
	c.FlattenTarget = flatten
	c.Params = specs
}

// toolHandler binds a handler closure over one resolved capability.
func (b *Builder) toolHandler(c *Capability) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := r.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		for _, p := range c.Params {
			if !p.Required {
				continue
			}
			if _, ok := args[p.Name]; !ok {
				return errorResult(fmt.Sprintf("Error: %s parameter is required", p.Name)), nil
			}
		}

		var (
			body []byte
			err  error
		)
		switch c.Kind {
		case KindLocal:
			body, err = b.local.Invoke(ctx, c, args)
		case KindRemote:
			body, err = b.remote.Invoke(ctx, c, args)
		default:
			err = fmt.Errorf("unknown capability kind %q", c.Kind)
		}
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		return b.formatResult(body), nil
	}
}

// formatResult shapes the response for the tool caller. In JSON mode the
// body is decoded and re-encoded, falling back to raw text when it is not
// valid JSON.
func (b *Builder) formatResult(body []byte) *mcp.CallToolResult {
	if b.jsonResponse {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			if out, err := json.Marshal(v); err == nil {
				return textResult(string(out))
			}
		}
	}
	return textResult(string(body))
}

// versionTool is the built-in connectivity check tool.
func (b *Builder) versionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get bridge version and registered tool count. Use this to verify connectivity."),
	)
}

func (b *Builder) versionToolHandler() mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := json.Marshal(map[string]any{
			"name":    b.name,
			"version": b.version,
			"build":   config.GetBuild(),
			"commit":  config.GetGitCommit(),
			"tools":   len(b.caps),
		})
		if err != nil {
			return errorResult("failed to marshal version info"), nil
		}
		return textResult(string(out)), nil
	}
}

// textResult creates a successful MCP text result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

// errorResult creates an MCP error result. Failed invocations are always
// distinguishable from empty successes.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(message)},
		IsError: true,
	}
}
