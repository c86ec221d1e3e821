// Package bridge exposes HTTP API operations as MCP tools. Operations are
// either local routes of a host application, replayed in-process, or remote
// endpoints described by an OpenAPI document and called over the network.
package bridge

// CapabilityKind distinguishes local (in-process replay) from remote
// (outbound HTTP) capabilities.
type CapabilityKind string

const (
	KindLocal  CapabilityKind = "local"
	KindRemote CapabilityKind = "remote"
)

// CapabilityMode is the MCP capability type. Only ModeTool is implemented;
// registering a resource or prompt fails with ErrUnsupportedMode.
type CapabilityMode string

const (
	ModeTool     CapabilityMode = "tool"
	ModeResource CapabilityMode = "resource"
	ModePrompt   CapabilityMode = "prompt"
)

// ParameterLocation says where a parameter belongs in the reconstructed
// request: a path segment, the query string, or a body field.
type ParameterLocation string

const (
	LocationPath  ParameterLocation = "path"
	LocationQuery ParameterLocation = "query"
	LocationBody  ParameterLocation = "body"
)

// ParameterMap maps parameter names to their request location. Names absent
// from the map use the runtime fallback rule at dispatch: GET/DELETE sends
// them as query parameters, every other verb as body fields.
type ParameterMap map[string]ParameterLocation

// ParamType describes the JSON type of a parameter. Array and object types
// nest recursively; KindAny accepts any JSON value.
type ParamType struct {
	Kind       string          // one of the Type* constants
	Items      *ParamType      // element type when Kind is TypeArray
	Properties []ParameterSpec // fields when Kind is TypeObject
}

const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeAny     = "any"
)

// ParameterSpec describes one parameter of a capability.
type ParameterSpec struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Default     any
}

// Capability is one operation exposed as a tool. Declarations are appended
// during registration and are immutable after Build.
type Capability struct {
	Kind        CapabilityKind
	Mode        CapabilityMode
	Name        string
	Description string
	Method      string

	// Path is the route template for local capabilities; URL is the absolute
	// target for remote ones.
	Path string
	URL  string

	Params []ParameterSpec
	Map    ParameterMap

	// FlattenTarget names the single body parameter whose value is sent as
	// the literal request payload instead of being keyed under its name.
	FlattenTarget string

	// route carries the host route metadata for local capabilities; the
	// analyzer resolves Map/Params/FlattenTarget from it at build time.
	route *Route
}

// StringType is a convenience constructor for the common primitive specs.
func StringType() ParamType  { return ParamType{Kind: TypeString} }
func IntegerType() ParamType { return ParamType{Kind: TypeInteger} }
func NumberType() ParamType  { return ParamType{Kind: TypeNumber} }
func BooleanType() ParamType { return ParamType{Kind: TypeBoolean} }
func AnyType() ParamType     { return ParamType{Kind: TypeAny} }

// ArrayType returns an array type with the given element type.
func ArrayType(elem ParamType) ParamType {
	return ParamType{Kind: TypeArray, Items: &elem}
}

// ObjectType returns a structured object type with the given fields.
func ObjectType(fields ...ParameterSpec) ParamType {
	return ParamType{Kind: TypeObject, Properties: fields}
}
