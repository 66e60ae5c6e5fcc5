package ir

// IR represents the resolved graph of an AsyncAPI contract
type IR struct {
	Title       string
	Version     string
	Description string
	Servers     []IRServer
	Channels    []IRChannel
	// Roots are the component schemas in declaration order
	Roots []*IRSchema
	// Nodes is the identity table: every resolved schema keyed by its document path
	Nodes           map[string]*IRSchema
	SecuritySchemes []IRSecurityScheme
	// Filtered is set when a tag or operation filter removed operations
	Filtered bool
}

// IRServer is one entry of the contract's servers section
type IRServer struct {
	Name        string
	URL         string
	Protocol    string
	Description string
}

// IRChannel represents an addressable endpoint and the operations bound to it
type IRChannel struct {
	// ID is the document path of the channel, e.g. "#/channels/petEvents"
	ID   string
	Name string
	// Address may embed {param} placeholders
	Address    string
	Params     []IRParam
	Operations []IROperation
}

// Direction tells whether the client sends or receives the operation's messages
type Direction string

const (
	DirectionSend    Direction = "send"
	DirectionReceive Direction = "receive"
)

// IROperation represents a single directional action on a channel
type IROperation struct {
	// ID is the document path of the operation
	ID          string
	OperationID string
	Direction   Direction
	ChannelID   string
	ChannelName string
	Address     string
	Summary     string
	Description string
	Deprecated  bool
	// Tags defaults to ["misc"] when the contract declares none
	Tags         []string
	PathParams   []IRParam
	HeaderParams []IRParam
	QueryParams  []IRParam
	Messages     []IRMessage
	Reply        []IRMessage
	Security     []string
	// SecurityDeclared is set when the operation carries its own security
	// list. An empty declared list means the operation is unauthenticated.
	SecurityDeclared bool
}

// IRParam represents a bound parameter (path, header or query)
type IRParam struct {
	Name        string
	Required    bool
	Schema      *IRSchema
	Description string
}

// IRMessage represents a message definition resolved to its payload schema
type IRMessage struct {
	ID          string
	Name        string
	Title       string
	Summary     string
	ContentType string
	Payload     *IRSchema
}

// IRAnnotations captures non-structural metadata that generators may render
type IRAnnotations struct {
	Title       string
	Description string
	Deprecated  bool
	ReadOnly    bool
	WriteOnly   bool
	Default     any
	Example     any
}

// IRSchemaKind represents the kind of schema
type IRSchemaKind string

const (
	IRKindUnknown IRSchemaKind = "unknown"
	IRKindString  IRSchemaKind = "string"
	IRKindNumber  IRSchemaKind = "number"
	IRKindInteger IRSchemaKind = "integer"
	IRKindBoolean IRSchemaKind = "boolean"
	IRKindNull    IRSchemaKind = "null"
	IRKindArray   IRSchemaKind = "array"
	IRKindMap     IRSchemaKind = "map"
	IRKindObject  IRSchemaKind = "object"
	IRKindEnum    IRSchemaKind = "enum"
	IRKindRef     IRSchemaKind = "ref"
	IRKindOneOf   IRSchemaKind = "oneOf"
	IRKindAnyOf   IRSchemaKind = "anyOf"
	IRKindAllOf   IRSchemaKind = "allOf"
	// IRKindInvalid marks a structurally broken schema position
	IRKindInvalid IRSchemaKind = "invalid"
)

// IRSchema is one node of the schema graph
type IRSchema struct {
	// ID is the canonical document path of the node, its identity
	ID string
	// Name is the declaration key for component schemas, or a naming hint
	Name     string
	Kind     IRSchemaKind
	Format   string
	Nullable bool
	// DeclaredType keeps the raw "type" value when it is not a known kind
	DeclaredType string

	// Object
	Properties           []IRField
	AdditionalProperties *IRSchema

	// Array
	Items *IRSchema

	// Enum
	EnumValues []string
	EnumRaw    []any
	EnumBase   IRSchemaKind

	// Ref holds the target identity when Kind is IRKindRef
	Ref string
	// BackRef is set when the target was on the active resolution path
	BackRef bool

	OneOf []*IRSchema
	AnyOf []*IRSchema
	AllOf []*IRSchema

	Annotations IRAnnotations
	// Problem explains an IRKindInvalid node
	Problem string
}

// IRField represents a field in an object schema
type IRField struct {
	Name        string
	Type        *IRSchema
	Required    bool
	Annotations IRAnnotations
}

// IRSecurityScheme captures the security scheme details needed for auth scaffolding
type IRSecurityScheme struct {
	Key          string
	Type         string
	Description  string
	Scheme       string
	BearerFormat string
	In           string
	Name         string
	Flows        *IROAuthFlows
	OpenIDURL    string
}

// IROAuthFlows lists the OAuth2 flows a scheme supports
type IROAuthFlows struct {
	Implicit          *IROAuthFlow
	Password          *IROAuthFlow
	ClientCredentials *IROAuthFlow
	AuthorizationCode *IROAuthFlow
}

// IROAuthFlow describes one OAuth2 flow
type IROAuthFlow struct {
	AuthorizationURL string
	TokenURL         string
	RefreshURL       string
	Scopes           []string
}

// Target follows reference nodes until a non-reference node, a back-reference
// or a dangling identity is reached.
func (r IR) Target(s *IRSchema) *IRSchema {
	seen := map[string]bool{}
	for s != nil && s.Kind == IRKindRef && !s.BackRef {
		if seen[s.Ref] {
			return s
		}
		seen[s.Ref] = true
		next, ok := r.Nodes[s.Ref]
		if !ok {
			return s
		}
		s = next
	}
	return s
}

// Operations returns every operation across channels in channel order
func (r IR) Operations() []IROperation {
	var out []IROperation
	for _, ch := range r.Channels {
		out = append(out, ch.Operations...)
	}
	return out
}
