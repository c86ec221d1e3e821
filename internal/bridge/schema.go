package bridge

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// buildTool synthesizes the MCP tool registration for a capability: a flat,
// named-argument schema equivalent to the operation's real signature. Built
// once at Build time; no runtime signature machinery is involved.
func buildTool(c *Capability) mcp.Tool {
	properties := make(map[string]any, len(c.Params))
	required := []string{}

	for _, p := range c.Params {
		properties[p.Name] = propertySchema(p)
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return mcp.Tool{
		Name:        c.Name,
		Description: c.Description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

// propertySchema maps one parameter spec to a JSON schema fragment.
func propertySchema(p ParameterSpec) map[string]any {
	schema := typeSchema(p.Type)
	if p.Description != "" {
		schema["description"] = p.Description
	}
	if p.Default != nil {
		schema["default"] = p.Default
	}
	return schema
}

// typeSchema maps a ParamType to a JSON schema fragment. Recursion is
// bounded by the type structure itself, which the synthesizer already
// depth-limits.
func typeSchema(t ParamType) map[string]any {
	switch t.Kind {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		return map[string]any{"type": t.Kind}
	case TypeArray:
		items := map[string]any{}
		if t.Items != nil {
			items = typeSchema(*t.Items)
		}
		return map[string]any{"type": "array", "items": items}
	case TypeObject:
		props := make(map[string]any, len(t.Properties))
		required := []string{}
		for _, f := range t.Properties {
			props[f.Name] = propertySchema(f)
			if f.Required {
				required = append(required, f.Name)
			}
		}
		schema := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			schema["required"] = required
		}
		return schema
	default:
		// "any": unconstrained.
		return map[string]any{}
	}
}
