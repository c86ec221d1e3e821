package bridge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// maxDescriptorSize caps the fetched OpenAPI document (10MB).
const maxDescriptorSize = 10 << 20

// maxSchemaDepth bounds recursive schema resolution. Self-referencing
// schemas degrade to an unconstrained type beyond this depth.
const maxSchemaDepth = 12

// bindMethods is the verb whitelist for OpenAPI-synthesized capabilities.
var bindMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true,
}

// BindOptions configures one OpenAPI bind call.
type BindOptions struct {
	// BaseURL overrides the target base for synthesized capabilities. When
	// empty, the document's first server URL is used, falling back to the
	// descriptor URL's origin.
	BaseURL string

	// IncludePaths and ExcludePaths filter operations by substring match on
	// the path template. Include entries are ORed; exclude takes precedence.
	IncludePaths []string
	ExcludePaths []string

	// NameFromSummary opts in to naming operations without an operationId
	// from a slug of their summary.
	NameFromSummary bool
}

// BindOpenAPI fetches an OpenAPI descriptor and registers one remote tool
// capability per matching operation. A fetch or parse failure aborts the
// whole call without registering anything; capabilities from earlier calls
// are unaffected.
func (b *Builder) BindOpenAPI(ctx context.Context, descriptorURL string, opts BindOptions) error {
	if b.built {
		return ErrAlreadyBuilt
	}

	data, err := b.fetchDescriptor(ctx, descriptorURL)
	if err != nil {
		return fmt.Errorf("failed to fetch OpenAPI descriptor %s: %w", descriptorURL, err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("failed to parse OpenAPI descriptor %s: %w", descriptorURL, err)
	}

	baseURL, err := resolveBaseURL(descriptorURL, doc, opts)
	if err != nil {
		return err
	}

	caps := b.synthesize(doc, baseURL, opts)
	for _, c := range caps {
		b.caps = append(b.caps, c)
	}

	b.logger.Info().
		Str("descriptor", descriptorURL).
		Str("base_url", baseURL).
		Int("tools", len(caps)).
		Msg("OpenAPI descriptor bound")
	return nil
}

// fetchDescriptor retrieves the descriptor document over plain HTTP GET.
func (b *Builder) fetchDescriptor(ctx context.Context, descriptorURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, descriptorURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("descriptor fetch returned %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDescriptorSize))
}

// resolveBaseURL picks the target base for synthesized capabilities.
func resolveBaseURL(descriptorURL string, doc *openapi3.T, opts BindOptions) (string, error) {
	if opts.BaseURL != "" {
		return strings.TrimRight(opts.BaseURL, "/"), nil
	}

	parsed, err := url.Parse(descriptorURL)
	if err != nil {
		return "", fmt.Errorf("invalid descriptor URL %s: %w", descriptorURL, err)
	}
	origin := parsed.Scheme + "://" + parsed.Host

	if len(doc.Servers) > 0 && doc.Servers[0].URL != "" {
		srv := doc.Servers[0].URL
		if u, err := url.Parse(srv); err == nil && u.IsAbs() {
			return strings.TrimRight(srv, "/"), nil
		}
		// Relative server URL: resolve against the descriptor origin.
		return origin + "/" + strings.Trim(srv, "/"), nil
	}
	return origin, nil
}

// synthesize walks the document's paths and builds one remote capability per
// operation that passes the filters and verb whitelist.
func (b *Builder) synthesize(doc *openapi3.T, baseURL string, opts BindOptions) []*Capability {
	var caps []*Capability
	if doc.Paths == nil {
		return caps
	}

	pathItems := doc.Paths.Map()
	paths := make([]string, 0, len(pathItems))
	for p := range pathItems {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if !pathMatches(path, opts) {
			continue
		}
		item := pathItems[path]
		if item == nil {
			continue
		}

		ops := item.Operations()
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		sort.Strings(methods)

		for _, method := range methods {
			method = strings.ToUpper(method)
			if !bindMethods[method] {
				continue
			}
			op := ops[method]
			if op == nil {
				continue
			}

			name := operationName(op, opts)
			if name == "" {
				b.logger.Warn().
					Str("path", path).
					Str("method", method).
					Msg("skipping operation without operationId")
				continue
			}

			c := b.synthesizeOperation(name, method, path, baseURL, op)
			caps = append(caps, c)
		}
	}
	return caps
}

// pathMatches applies the include/exclude substring filters. Exclude wins.
func pathMatches(path string, opts BindOptions) bool {
	for _, sub := range opts.ExcludePaths {
		if strings.Contains(path, sub) {
			return false
		}
	}
	if len(opts.IncludePaths) == 0 {
		return true
	}
	for _, sub := range opts.IncludePaths {
		if strings.Contains(path, sub) {
			return true
		}
	}
	return false
}

// operationName picks the tool name: explicit operationId, or (opted in) a
// slug of the summary.
func operationName(op *openapi3.Operation, opts BindOptions) string {
	if op.OperationID != "" {
		return op.OperationID
	}
	if opts.NameFromSummary && op.Summary != "" {
		slug := strings.ToLower(strings.TrimSpace(op.Summary))
		return strings.ReplaceAll(slug, " ", "_")
	}
	return ""
}

// synthesizeOperation converts one OpenAPI operation into a remote
// capability: declared parameters keep their location, top-level JSON body
// properties flatten into individual body parameters, and a non-object or
// schema-less body becomes a single catch-all payload parameter.
func (b *Builder) synthesizeOperation(name, method, path, baseURL string, op *openapi3.Operation) *Capability {
	c := &Capability{
		Kind:   KindRemote,
		Mode:   ModeTool,
		Name:   name,
		Method: method,
		URL:    baseURL + path,
		Map:    make(ParameterMap),
	}

	c.Description = op.Description
	if c.Description == "" {
		c.Description = op.Summary
	}

	for _, ref := range op.Parameters {
		p := ref.Value
		if p == nil {
			continue
		}
		var loc ParameterLocation
		switch p.In {
		case openapi3.ParameterInPath:
			loc = LocationPath
		case openapi3.ParameterInQuery:
			loc = LocationQuery
		case openapi3.ParameterInHeader, openapi3.ParameterInCookie:
			// No header/cookie bucket exists in the reconstructed request;
			// these travel on the query string.
			loc = LocationQuery
		default:
			continue
		}

		spec := ParameterSpec{
			Name:     p.Name,
			Type:     mapSchemaType(p.Schema, 0, map[*openapi3.Schema]bool{}),
			Required: p.Required || p.In == openapi3.ParameterInPath,
		}
		if p.Description != "" {
			spec.Description = p.Description
		}
		if !spec.Required && p.Schema != nil && p.Schema.Value != nil {
			spec.Default = p.Schema.Value.Default
		}

		c.Params = append(c.Params, spec)
		c.Map[spec.Name] = loc
	}

	b.synthesizeBody(c, op)
	return c
}

// synthesizeBody flattens a JSON request body into body-located parameters.
func (b *Builder) synthesizeBody(c *Capability, op *openapi3.Operation) {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return
	}
	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil {
		return
	}

	schema := media.Schema
	if schema != nil && schema.Value != nil && schema.Value.Type != nil &&
		schema.Value.Type.Is(openapi3.TypeObject) && len(schema.Value.Properties) > 0 {
		requiredSet := make(map[string]bool, len(schema.Value.Required))
		for _, r := range schema.Value.Required {
			requiredSet[r] = true
		}

		names := make([]string, 0, len(schema.Value.Properties))
		for n := range schema.Value.Properties {
			names = append(names, n)
		}
		sort.Strings(names)

		for _, n := range names {
			prop := schema.Value.Properties[n]
			spec := ParameterSpec{
				Name:     n,
				Type:     mapSchemaType(prop, 0, map[*openapi3.Schema]bool{}),
				Required: requiredSet[n],
			}
			if prop != nil && prop.Value != nil {
				spec.Description = prop.Value.Description
				if !spec.Required {
					spec.Default = prop.Value.Default
				}
			}
			c.Params = append(c.Params, spec)
			c.Map[n] = LocationBody
		}
		return
	}

	// Non-object or schema-less body: one catch-all parameter whose value is
	// the literal payload.
	required := op.RequestBody.Value.Required
	c.Params = append(c.Params, ParameterSpec{
		Name:        "body",
		Type:        mapSchemaType(schema, 0, map[*openapi3.Schema]bool{}),
		Description: "Request payload",
		Required:    required,
	})
	c.Map["body"] = LocationBody
	c.FlattenTarget = "body"
}

// mapSchemaType recursively maps an OpenAPI schema to a ParamType. Cycles
// and over-deep nesting degrade to the unconstrained type.
func mapSchemaType(ref *openapi3.SchemaRef, depth int, seen map[*openapi3.Schema]bool) ParamType {
	if ref == nil || ref.Value == nil || depth > maxSchemaDepth {
		return AnyType()
	}
	s := ref.Value
	if seen[s] {
		return AnyType()
	}
	seen[s] = true
	defer delete(seen, s)

	if s.Type == nil {
		return AnyType()
	}
	switch {
	case s.Type.Is(openapi3.TypeString):
		return StringType()
	case s.Type.Is(openapi3.TypeInteger):
		return IntegerType()
	case s.Type.Is(openapi3.TypeNumber):
		return NumberType()
	case s.Type.Is(openapi3.TypeBoolean):
		return BooleanType()
	case s.Type.Is(openapi3.TypeArray):
		elem := mapSchemaType(s.Items, depth+1, seen)
		return ParamType{Kind: TypeArray, Items: &elem}
	case s.Type.Is(openapi3.TypeObject):
		if len(s.Properties) == 0 {
			return AnyType()
		}
		requiredSet := make(map[string]bool, len(s.Required))
		for _, r := range s.Required {
			requiredSet[r] = true
		}

		names := make([]string, 0, len(s.Properties))
		for n := range s.Properties {
			names = append(names, n)
		}
		sort.Strings(names)

		fields := make([]ParameterSpec, 0, len(names))
		for _, n := range names {
			prop := s.Properties[n]
			field := ParameterSpec{
				Name:     n,
				Type:     mapSchemaType(prop, depth+1, seen),
				Required: requiredSet[n],
			}
			if prop != nil && prop.Value != nil {
				field.Description = prop.Value.Description
			}
			fields = append(fields, field)
		}
		return ParamType{Kind: TypeObject, Properties: fields}
	default:
		return AnyType()
	}
}
