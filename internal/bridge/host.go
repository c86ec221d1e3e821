package bridge

import (
	"context"
	"net/http"
)

// Route is the metadata a host application declares for one operation. The
// analyzer derives the parameter structure from it: declared path parameters
// map to path segments, query parameters to the query string, and body
// fields to the JSON payload.
type Route struct {
	Name        string
	Description string
	Method      string
	Path        string

	PathParams  []ParameterSpec
	QueryParams []ParameterSpec
	BodyFields  []ParameterSpec

	// EmbedBody controls body shape when there is exactly one body field.
	// When false, that field's value is the literal request payload; when
	// true it is wrapped under its own key like any other field.
	EmbedBody bool

	// Override bypasses analysis entirely when set: it is used as the
	// parameter map verbatim.
	Override ParameterMap
}

// Host is the web application the bridge attaches to. It replays requests
// in-process through Handler, accepts the MCP serving surface via Mount, and
// exposes lifecycle hooks for the protocol's session shutdown.
type Host interface {
	// Handler returns the host's root handler for in-process replay.
	Handler() http.Handler

	// Mount attaches h at the given path prefix. The host must strip the
	// prefix from the request path before h sees it.
	Mount(prefix string, h http.Handler)

	// OnStart registers a hook run when the host starts serving.
	OnStart(fn func() error)

	// OnStop registers a hook run during host shutdown.
	OnStop(fn func(ctx context.Context) error)
}
