package golang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blimu-dev/asyncapi-gen/pkg/config"
	"github.com/blimu-dev/asyncapi-gen/pkg/diag"
	"github.com/blimu-dev/asyncapi-gen/pkg/generrors"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
	"github.com/blimu-dev/asyncapi-gen/pkg/utils"
)

// scaffoldNames are declared by the client and utils templates
var scaffoldNames = []string{
	"Client", "NewClient", "ConnectionConfig", "Envelope", "Transport", "AuthConfig", "DefaultServiceURL",
}

// reservedLocals are identifiers the generated method bodies use
var reservedLocals = []string{"ctx", "c", "h", "u", "env", "raw", "out", "err", "client"}

type paramModel struct {
	Name        string
	Placeholder string
	Type        string
}

type methodModel struct {
	Name        string
	OperationID string
	Doc         string
	Deprecated  bool
	Direction   ir.Direction
	Channel     *channelModel
	Address     string
	PathParams  []paramModel
	HeadersType string
	QueryType   string
	PayloadType string
	ResultType  string
	// RawResult is set when nothing describes the received data
	RawResult bool
	Payload   string
	Params    map[string]string
	// Secured is false for operations that declare an empty security list
	Secured bool
}

// Receive reports whether the method waits for an incoming message
func (m methodModel) Receive() bool {
	return m.Direction == ir.DirectionReceive
}

// Signature renders the parameter list. Path parameters are left out when
// the method lives on a channel handle.
func (m methodModel) Signature(onHandle bool) string {
	params := []string{"ctx context.Context"}
	if !onHandle {
		for _, p := range m.PathParams {
			params = append(params, p.Name+" "+p.Type)
		}
	}
	if m.HeadersType != "" {
		params = append(params, m.Params["headers"]+" *"+m.HeadersType)
	}
	if m.QueryType != "" {
		params = append(params, m.Params["query"]+" *"+m.QueryType)
	}
	if m.PayloadType != "" {
		params = append(params, m.Payload+" "+m.PayloadType)
	}
	return strings.Join(params, ", ")
}

// Results renders the result list
func (m methodModel) Results() string {
	if m.ResultType == "" {
		return "error"
	}
	return "(" + m.ResultType + ", error)"
}

// Args renders the call arguments matching Signature
func (m methodModel) Args(onHandle bool) string {
	args := []string{"ctx"}
	if !onHandle {
		for _, p := range m.PathParams {
			args = append(args, p.Name)
		}
	}
	if m.HeadersType != "" {
		args = append(args, m.Params["headers"])
	}
	if m.QueryType != "" {
		args = append(args, m.Params["query"])
	}
	if m.PayloadType != "" {
		args = append(args, m.Payload)
	}
	return strings.Join(args, ", ")
}

// Receiver is the receiver clause of a generated method
func (m methodModel) Receiver(onHandle bool) string {
	if onHandle {
		return "h *" + m.Channel.Handle
	}
	return "c *Client"
}

// ClientExpr is the expression reaching the Client inside a method body
func (m methodModel) ClientExpr(onHandle bool) string {
	if onHandle {
		return "h.client"
	}
	return "c"
}

// AddressExpr builds the concrete channel address at call time
func (m methodModel) AddressExpr(onHandle bool) string {
	if len(m.PathParams) == 0 {
		return strconv.Quote(m.Address)
	}
	args := []string{addressFormat(m.Address)}
	for _, p := range m.PathParams {
		ref := p.Name
		if onHandle {
			ref = "h." + p.Name
		}
		args = append(args, "url.PathEscape(fmt.Sprint("+ref+"))")
	}
	return "fmt.Sprintf(" + strings.Join(args, ", ") + ")"
}

// OperationName is the name carried in envelopes
func (m methodModel) OperationName() string {
	if m.OperationID != "" {
		return m.OperationID
	}
	return m.Name
}

// HeadersArg, QueryArg and PayloadArg feed the envelope builder
func (m methodModel) HeadersArg() string {
	if m.HeadersType == "" {
		return "nil"
	}
	return m.Params["headers"]
}

func (m methodModel) QueryArg() string {
	if m.QueryType == "" {
		return "nil"
	}
	return m.Params["query"]
}

func (m methodModel) PayloadArg() string {
	if m.PayloadType == "" {
		return "nil"
	}
	return m.Payload
}

type channelModel struct {
	// Handle is the resource-style handle type, e.g. PetByIdChannel
	Handle     string
	Accessor   string
	Address    string
	PathParams []paramModel
	Methods    []*methodModel
}

// ParamList renders the accessor parameters of a resource handle
func (c channelModel) ParamList() string {
	params := make([]string, 0, len(c.PathParams))
	for _, p := range c.PathParams {
		params = append(params, p.Name+" "+p.Type)
	}
	return strings.Join(params, ", ")
}

type clientModel struct {
	Resource   bool
	DefaultURL string
	Methods    []*methodModel
	Channels   []*channelModel
}

// Sends returns the operations a service receives from its clients
func (c clientModel) Sends() []*methodModel {
	var out []*methodModel
	for _, m := range c.Methods {
		if m.Direction == ir.DirectionSend {
			out = append(out, m)
		}
	}
	return out
}

type clientSynth struct {
	client  config.Client
	mapper  *typeMapper
	names   *nameRegistry
	diags   *diag.List
	decls   []ir.TypeDecl
	methods map[string]bool
	roots   []string
}

// synthesizeClient builds one callable per operation and the declarations
// the callables need (parameter structs, message unions).
func synthesizeClient(graph ir.IR, client config.Client, mapper *typeMapper, names *nameRegistry, diags *diag.List) (clientModel, []ir.TypeDecl, []string, error) {
	cs := &clientSynth{
		client:  client,
		mapper:  mapper,
		names:   names,
		diags:   diags,
		methods: map[string]bool{},
	}
	model := clientModel{Resource: client.ClientMethods == config.MethodsResource}
	model.DefaultURL = client.DefaultServiceURL
	if model.DefaultURL == "" && len(graph.Servers) > 0 {
		model.DefaultURL = graph.Servers[0].URL
	}

	handles := map[string]bool{}
	for _, ch := range graph.Channels {
		ordered, missing := orderPathParams(ch.Address, ch.Params)
		if len(missing) > 0 {
			diags.Warnf(ch.ID, "address %q uses undeclared parameters %s, operations skipped", ch.Address, strings.Join(missing, ", "))
			continue
		}
		if len(ch.Operations) == 0 {
			continue
		}

		chName := utils.TypeName(ch.Name)
		cm := &channelModel{Address: ch.Address}
		if model.Resource {
			cm.Handle = names.claim(chName+"Channel", "channel:"+ch.ID)
			cm.Accessor = uniqueIdent(chName, handles)
		}
		paramNames := map[string]bool{}
		for _, local := range reservedLocals {
			paramNames[local] = true
		}
		for _, p := range ordered {
			t, err := mapper.goType(p.Schema, chName+utils.TypeName(p.Name))
			if err != nil {
				return clientModel{}, nil, nil, err
			}
			cs.roots = append(cs.roots, typeIdents(t)...)
			cm.PathParams = append(cm.PathParams, paramModel{
				Name:        uniqueIdent(utils.ParamName(p.Name), paramNames),
				Placeholder: p.Name,
				Type:        t,
			})
		}

		for _, op := range ch.Operations {
			m, err := cs.method(op, cm, paramNames)
			if err != nil {
				return clientModel{}, nil, nil, err
			}
			cm.Methods = append(cm.Methods, m)
			model.Methods = append(model.Methods, m)
		}
		model.Channels = append(model.Channels, cm)
	}
	return model, cs.decls, cs.roots, nil
}

func (cs *clientSynth) method(op ir.IROperation, cm *channelModel, pathNames map[string]bool) (*methodModel, error) {
	name := toPascalCase(defaultParseOperationID(op.OperationID))
	if name == "" {
		if cs.client.IsService() && cs.client.RequireOperationIDs {
			return nil, &generrors.MissingOperationIDError{Path: op.ID, Direction: string(op.Direction)}
		}
		name = utils.TypeName(string(op.Direction) + " " + op.Address)
		cs.diags.Warnf(op.ID, "operation has no operationId, named %s", name)
	}
	name = uniqueIdent(utils.TypeName(name), cs.methods)

	m := &methodModel{
		Name:        name,
		OperationID: op.OperationID,
		Doc:         op.Summary,
		Deprecated:  op.Deprecated,
		Direction:   op.Direction,
		Channel:     cm,
		Address:     op.Address,
		PathParams:  cm.PathParams,
		Params:      map[string]string{},
		Secured:     !op.SecurityDeclared || len(op.Security) > 0,
	}
	if m.Doc == "" {
		m.Doc = op.Description
	}

	taken := map[string]bool{}
	for k := range pathNames {
		taken[k] = true
	}
	for _, local := range []string{"headers", "query"} {
		m.Params[local] = uniqueIdent(local, taken)
	}
	m.Payload = uniqueIdent("payload", taken)

	var err error
	if m.HeadersType, err = cs.paramStruct(name+"Headers", op.ID+"#headers", op.HeaderParams); err != nil {
		return nil, err
	}
	if m.QueryType, err = cs.paramStruct(name+"Query", op.ID+"#query", op.QueryParams); err != nil {
		return nil, err
	}

	msgType, err := cs.messageType(name, "Message", op.ID+"#messages", op.Messages)
	if err != nil {
		return nil, err
	}
	switch op.Direction {
	case ir.DirectionReceive:
		m.ResultType = msgType
		if m.ResultType == "" {
			m.ResultType = "json.RawMessage"
			m.RawResult = true
		}
	default:
		m.PayloadType = msgType
		if m.ResultType, err = cs.messageType(name, "Reply", op.ID+"#reply", op.Reply); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// paramStruct declares a header or query struct; "" when nothing is bound
func (cs *clientSynth) paramStruct(base, origin string, params []ir.IRParam) (string, error) {
	if len(params) == 0 {
		return "", nil
	}
	name := cs.names.claim(base, origin)
	props := make([]ir.IRField, 0, len(params))
	for _, p := range params {
		props = append(props, ir.IRField{Name: p.Name, Type: p.Schema, Required: p.Required, Annotations: ir.IRAnnotations{Description: p.Description}})
	}
	fields, err := cs.mapper.fields(name, props)
	if err != nil {
		return "", err
	}
	cs.decls = append(cs.decls, ir.TypeDecl{Name: name, Origin: origin, Kind: ir.DeclStruct, Fields: fields})
	cs.roots = append(cs.roots, name)
	return name, nil
}

// messageType maps the message payloads of an operation. Several messages
// become a union named <Op><suffix>.
func (cs *clientSynth) messageType(op, suffix, origin string, msgs []ir.IRMessage) (string, error) {
	if len(msgs) == 0 {
		return "", nil
	}
	payloadType := func(msg ir.IRMessage, hint string) (string, error) {
		if msg.Payload == nil {
			return "json.RawMessage", nil
		}
		if msg.Name != "" {
			hint = msg.Name
		}
		return cs.mapper.goType(msg.Payload, hint)
	}

	if len(msgs) == 1 {
		t, err := payloadType(msgs[0], op+suffix)
		if err != nil {
			return "", err
		}
		cs.roots = append(cs.roots, typeIdents(t)...)
		return t, nil
	}

	name := cs.names.claim(op+suffix, origin)
	decl := ir.TypeDecl{Name: name, Origin: origin, Kind: ir.DeclUnion}
	taken := map[string]bool{}
	for i, msg := range msgs {
		t, err := payloadType(msg, fmt.Sprintf("%s%s%d", op, suffix, i+1))
		if err != nil {
			return "", err
		}
		label := utils.TypeName(msg.Name)
		if msg.Name == "" {
			label = typeLabel(t)
		}
		decl.Variants = append(decl.Variants, ir.VariantDecl{Name: uniqueIdent(label, taken), Type: pointerTo(t)})
	}
	cs.decls = append(cs.decls, decl)
	cs.roots = append(cs.roots, name)
	return name, nil
}
