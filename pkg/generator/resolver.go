package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-openapi/jsonpointer"
	"gopkg.in/yaml.v3"

	"github.com/blimu-dev/asyncapi-gen/pkg/asyncapi"
	"github.com/blimu-dev/asyncapi-gen/pkg/diag"
	"github.com/blimu-dev/asyncapi-gen/pkg/generrors"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
)

const (
	schemasPrefix = "#/components/schemas/"
	defaultTag    = "misc"
)

// resolver walks the document depth-first and builds the identity table
type resolver struct {
	doc    *asyncapi.Document
	nodes  map[string]*ir.IRSchema
	active map[string]bool
	diags  *diag.List
}

// Resolve turns a loaded document into the canonical graph. Every schema
// location is stored once in IR.Nodes keyed by its document path; references
// to a location on the active DFS path are tagged as back-references.
func Resolve(doc *asyncapi.Document, diags *diag.List) (ir.IR, error) {
	if diags == nil {
		diags = &diag.List{}
	}
	r := &resolver{
		doc:    doc,
		nodes:  map[string]*ir.IRSchema{},
		active: map[string]bool{},
		diags:  diags,
	}

	out := ir.IR{
		Title:       doc.Title,
		Version:     doc.InfoVersion,
		Description: doc.Description,
	}
	for _, s := range doc.Servers {
		out.Servers = append(out.Servers, ir.IRServer{Name: s.Name, URL: s.URL, Protocol: s.Protocol, Description: s.Description})
	}

	for _, e := range doc.Schemas {
		n, err := r.schema(e.Pointer, e.Node, e.Name)
		if err != nil {
			return ir.IR{}, err
		}
		if n.Name == "" {
			n.Name = e.Name
		}
		out.Roots = append(out.Roots, n)
	}

	channels, err := r.channels()
	if err != nil {
		return ir.IR{}, err
	}
	out.Channels = channels

	schemes, err := r.securitySchemes()
	if err != nil {
		return ir.IR{}, err
	}
	out.SecuritySchemes = schemes

	if err := r.checkReferenceChains(); err != nil {
		return ir.IR{}, err
	}
	out.Nodes = r.nodes
	return out, nil
}

// canonical normalizes a local reference so that equivalent spellings share one identity
func (r *resolver) canonical(ref, from string) (string, *yaml.Node, error) {
	if !strings.HasPrefix(ref, "#") {
		return "", nil, &generrors.MalformedReferenceError{Ref: ref, From: from, Reason: "reference points outside the document"}
	}
	p, err := jsonpointer.New(strings.TrimPrefix(ref, "#"))
	if err != nil {
		return "", nil, &generrors.MalformedReferenceError{Ref: ref, From: from, Reason: "invalid JSON pointer", Cause: err}
	}
	target, err := r.doc.Lookup(ref)
	if err != nil {
		return "", nil, &generrors.MalformedReferenceError{Ref: ref, From: from, Reason: "target does not exist"}
	}
	return asyncapi.Pointer(p.DecodedTokens()...), target, nil
}

// follow dereferences non-schema objects (messages, parameters, channels)
func (r *resolver) follow(ptr string, node *yaml.Node) (string, *yaml.Node, error) {
	seen := map[string]bool{}
	for {
		node = asyncapi.Deref(node)
		ref := asyncapi.Str(node, "$ref")
		if ref == "" {
			return ptr, node, nil
		}
		if seen[ptr] {
			return "", nil, &generrors.MalformedReferenceError{Ref: ref, From: ptr, Reason: "reference cycle"}
		}
		seen[ptr] = true
		next, target, err := r.canonical(ref, ptr)
		if err != nil {
			return "", nil, err
		}
		ptr, node = next, target
	}
}

// schema resolves the schema stored at ptr. hint names component roots.
func (r *resolver) schema(ptr string, node *yaml.Node, hint string) (*ir.IRSchema, error) {
	if n, ok := r.nodes[ptr]; ok {
		return n, nil
	}
	node = asyncapi.Deref(node)

	if ref := asyncapi.Str(node, "$ref"); ref != "" {
		target, targetNode, err := r.canonical(ref, ptr)
		if err != nil {
			return nil, err
		}
		n := &ir.IRSchema{ID: ptr, Name: hint, Kind: ir.IRKindRef, Ref: target}
		if r.active[target] {
			n.BackRef = true
			r.nodes[ptr] = n
			return n, nil
		}
		r.nodes[ptr] = n
		r.active[ptr] = true
		defer delete(r.active, ptr)
		if _, done := r.nodes[target]; !done {
			if _, err := r.schema(target, targetNode, rootName(target)); err != nil {
				return nil, err
			}
		}
		return n, nil
	}

	n := &ir.IRSchema{ID: ptr, Name: hint}
	r.nodes[ptr] = n
	r.active[ptr] = true
	defer delete(r.active, ptr)

	if node == nil || node.Kind != yaml.MappingNode {
		if node != nil && node.Kind == yaml.ScalarNode && node.Tag == "!!bool" && node.Value == "true" {
			n.Kind = ir.IRKindUnknown
			return n, nil
		}
		n.Kind = ir.IRKindInvalid
		n.Problem = "schema must be a mapping"
		return n, nil
	}

	s, err := decodeVocabulary(node)
	if err != nil {
		r.diags.Warnf(ptr, "unreadable schema keywords, using an opaque type: %v", err)
		n.Kind = ir.IRKindUnknown
		return n, nil
	}
	n.Format = s.Format
	n.Nullable = s.Nullable
	n.Annotations = extractAnnotations(s)
	kind, withNull := declaredKind(s)
	if withNull {
		n.Nullable = true
	}

	compositions := []struct {
		key  string
		kind ir.IRSchemaKind
		dest *[]*ir.IRSchema
	}{
		{"oneOf", ir.IRKindOneOf, &n.OneOf},
		{"anyOf", ir.IRKindAnyOf, &n.AnyOf},
		{"allOf", ir.IRKindAllOf, &n.AllOf},
	}
	for _, c := range compositions {
		list := asyncapi.Get(node, c.key)
		if list == nil {
			continue
		}
		if list.Kind != yaml.SequenceNode {
			n.Kind = ir.IRKindInvalid
			n.Problem = c.key + " must be a list of schemas"
			return n, nil
		}
		for i, member := range asyncapi.Items(list) {
			m, err := r.schema(asyncapi.Child(ptr, c.key, fmt.Sprint(i)), member, "")
			if err != nil {
				return nil, err
			}
			*c.dest = append(*c.dest, m)
		}
		if n.Kind == "" {
			n.Kind = c.kind
		}
	}
	if n.Kind != "" {
		// allOf members may still carry sibling properties
		if n.Kind == ir.IRKindAllOf {
			if err := r.properties(n, node, s); err != nil {
				return nil, err
			}
		}
		return n, nil
	}

	if len(s.Enum) > 0 {
		n.Kind = ir.IRKindEnum
		n.EnumRaw = s.Enum
		n.EnumBase = inferEnumBaseKind(s)
		for _, v := range s.Enum {
			if v == nil {
				n.Nullable = true
				continue
			}
			n.EnumValues = append(n.EnumValues, fmt.Sprint(v))
		}
		return n, nil
	}

	if strings.Contains(kind, typeListSep) {
		r.diags.Warnf(ptr, "type list [%s] is not supported, using an opaque type", strings.ReplaceAll(kind, typeListSep, ", "))
		n.Kind = ir.IRKindUnknown
		return n, nil
	}

	if kind == "" {
		switch {
		case asyncapi.Get(node, "properties") != nil || asyncapi.Get(node, "additionalProperties") != nil:
			kind = openapi3.TypeObject
		case asyncapi.Get(node, "items") != nil:
			kind = openapi3.TypeArray
		}
	}

	k, known := primitiveKind(kind)
	if !known {
		n.Kind = ir.IRKindUnknown
		n.DeclaredType = kind
		return n, nil
	}
	n.Kind = k

	switch k {
	case ir.IRKindArray:
		items := asyncapi.Get(node, "items")
		switch {
		case items == nil:
		case items.Kind == yaml.SequenceNode:
			r.diags.Warnf(ptr, "tuple-style items are not supported, using a list of opaque values")
		default:
			it, err := r.schema(asyncapi.Child(ptr, "items"), items, "")
			if err != nil {
				return nil, err
			}
			n.Items = it
		}
	case ir.IRKindObject:
		if err := r.properties(n, node, s); err != nil {
			return nil, err
		}
		if len(n.Properties) == 0 && n.Kind != ir.IRKindInvalid {
			n.Kind = ir.IRKindMap
		}
	}
	return n, nil
}

// properties fills record fields and the additionalProperties value schema
func (r *resolver) properties(n *ir.IRSchema, node *yaml.Node, s *openapi3.Schema) error {
	props := asyncapi.Get(node, "properties")
	if props != nil && props.Kind != yaml.MappingNode {
		n.Kind = ir.IRKindInvalid
		n.Problem = "properties must be a mapping"
		return nil
	}
	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}
	for _, p := range asyncapi.Pairs(props) {
		fs, err := r.schema(asyncapi.Child(n.ID, "properties", p.Key), p.Value, "")
		if err != nil {
			return err
		}
		n.Properties = append(n.Properties, ir.IRField{
			Name:        p.Key,
			Type:        fs,
			Required:    required[p.Key],
			Annotations: fs.Annotations,
		})
	}

	addl := asyncapi.Get(node, "additionalProperties")
	if addl != nil && addl.Kind == yaml.MappingNode {
		as, err := r.schema(asyncapi.Child(n.ID, "additionalProperties"), addl, "")
		if err != nil {
			return err
		}
		n.AdditionalProperties = as
	}
	return nil
}

// checkReferenceChains rejects reference cycles that never reach a schema, such as A -> B -> A
func (r *resolver) checkReferenceChains() error {
	ids := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := r.nodes[id]
		seen := map[string]bool{}
		for n != nil && n.Kind == ir.IRKindRef {
			if seen[n.ID] {
				return &generrors.MalformedReferenceError{Ref: n.Ref, From: id, Reason: "reference cycle never reaches a schema"}
			}
			seen[n.ID] = true
			next, ok := r.nodes[n.Ref]
			if !ok {
				return &generrors.MalformedReferenceError{Ref: n.Ref, From: n.ID, Reason: "dangling identity"}
			}
			n = next
		}
	}
	return nil
}

// rootName returns the declaration key when ptr addresses a component schema
func rootName(ptr string) string {
	if !strings.HasPrefix(ptr, schemasPrefix) {
		return ""
	}
	p, err := jsonpointer.New(strings.TrimPrefix(ptr, "#"))
	if err != nil {
		return ""
	}
	tokens := p.DecodedTokens()
	if len(tokens) != 3 {
		return ""
	}
	return tokens[2]
}

// lastToken returns the unescaped final segment of a pointer
func lastToken(ptr string) string {
	p, err := jsonpointer.New(strings.TrimPrefix(ptr, "#"))
	if err != nil {
		return ptr[strings.LastIndex(ptr, "/")+1:]
	}
	tokens := p.DecodedTokens()
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

// channels resolves channels and groups operations under them
func (r *resolver) channels() ([]ir.IRChannel, error) {
	out := make([]ir.IRChannel, 0, len(r.doc.Channels))
	index := map[string]int{}
	for _, e := range r.doc.Channels {
		ptr, node, err := r.follow(e.Pointer, e.Node)
		if err != nil {
			return nil, err
		}
		ch := ir.IRChannel{ID: e.Pointer, Name: e.Name, Address: e.Name}
		if r.doc.IsV3() {
			if !asyncapi.IsNull(asyncapi.Get(node, "address")) {
				ch.Address = asyncapi.Str(node, "address")
			}
		}
		params, err := r.channelParams(ptr, node)
		if err != nil {
			return nil, err
		}
		ch.Params = params

		if !r.doc.IsV3() {
			ops, err := r.v2Operations(ch, ptr, node)
			if err != nil {
				return nil, err
			}
			ch.Operations = ops
		}
		index[e.Pointer] = len(out)
		out = append(out, ch)
	}

	if r.doc.IsV3() {
		for _, e := range r.doc.Operations {
			op, chPtr, err := r.v3Operation(e, out, index)
			if err != nil {
				return nil, err
			}
			i := index[chPtr]
			out[i].Operations = append(out[i].Operations, op)
		}
	}
	return out, nil
}

// channelParams resolves declared channel parameters to schemas
func (r *resolver) channelParams(chPtr string, ch *yaml.Node) ([]ir.IRParam, error) {
	var params []ir.IRParam
	for _, p := range asyncapi.Pairs(asyncapi.Get(ch, "parameters")) {
		ptr, node, err := r.follow(asyncapi.Child(chPtr, "parameters", p.Key), p.Value)
		if err != nil {
			return nil, err
		}
		param := ir.IRParam{Name: p.Key, Required: true, Description: asyncapi.Str(node, "description")}
		if sn := asyncapi.Get(node, "schema"); sn != nil {
			s, err := r.schema(asyncapi.Child(ptr, "schema"), sn, "")
			if err != nil {
				return nil, err
			}
			param.Schema = s
		} else {
			// 3.x parameters are always strings, optionally restricted by enum
			param.Schema = r.stringParam(ptr, node)
		}
		params = append(params, param)
	}
	return params, nil
}

func (r *resolver) stringParam(ptr string, node *yaml.Node) *ir.IRSchema {
	if n, ok := r.nodes[ptr]; ok {
		return n
	}
	n := &ir.IRSchema{ID: ptr, Kind: ir.IRKindString}
	if values := asyncapi.Strings(asyncapi.Get(node, "enum")); len(values) > 0 {
		n.Kind = ir.IRKindEnum
		n.EnumBase = ir.IRKindString
		n.EnumValues = values
		for _, v := range values {
			n.EnumRaw = append(n.EnumRaw, v)
		}
	}
	n.Annotations.Description = asyncapi.Str(node, "description")
	r.nodes[ptr] = n
	return n
}

// v2Operations reads publish/subscribe operations of a 2.x channel
func (r *resolver) v2Operations(ch ir.IRChannel, chPtr string, node *yaml.Node) ([]ir.IROperation, error) {
	var ops []ir.IROperation
	header, query, err := r.bindingParams(chPtr, node)
	if err != nil {
		return nil, err
	}
	for _, d := range []struct {
		key string
		dir ir.Direction
	}{{"publish", ir.DirectionSend}, {"subscribe", ir.DirectionReceive}} {
		opNode := asyncapi.Get(node, d.key)
		if opNode == nil {
			continue
		}
		ptr := asyncapi.Child(chPtr, d.key)
		op := r.baseOperation(ptr, opNode, ch, d.dir)
		op.OperationID = asyncapi.Str(opNode, "operationId")
		for _, req := range asyncapi.Items(asyncapi.Get(opNode, "security")) {
			for _, p := range asyncapi.Pairs(req) {
				op.Security = append(op.Security, p.Key)
			}
		}

		msgNode := asyncapi.Get(opNode, "message")
		msgPtr := asyncapi.Child(ptr, "message")
		if msgNode != nil {
			if list := asyncapi.Get(msgNode, "oneOf"); list != nil && asyncapi.Get(msgNode, "$ref") == nil {
				for i, m := range asyncapi.Items(list) {
					msg, reply, err := r.message(asyncapi.Child(msgPtr, "oneOf", fmt.Sprint(i)), m)
					if err != nil {
						return nil, err
					}
					op.Messages = append(op.Messages, msg)
					op.Reply = append(op.Reply, reply...)
				}
			} else {
				msg, reply, err := r.message(msgPtr, msgNode)
				if err != nil {
					return nil, err
				}
				op.Messages = append(op.Messages, msg)
				op.Reply = append(op.Reply, reply...)
			}
		}
		op.HeaderParams = append(op.HeaderParams, header...)
		op.QueryParams = append(op.QueryParams, query...)
		if err := r.messageHeaders(&op); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// v3Operation reads one entry of the top-level operations section
func (r *resolver) v3Operation(e asyncapi.Entry, channels []ir.IRChannel, index map[string]int) (ir.IROperation, string, error) {
	ptr, node, err := r.follow(e.Pointer, e.Node)
	if err != nil {
		return ir.IROperation{}, "", err
	}
	chRef := asyncapi.Str(asyncapi.Get(node, "channel"), "$ref")
	if chRef == "" {
		return ir.IROperation{}, "", &generrors.MalformedReferenceError{From: asyncapi.Child(ptr, "channel"), Reason: "operation channel must be a $ref"}
	}
	chPtr, _, err := r.canonical(chRef, asyncapi.Child(ptr, "channel"))
	if err != nil {
		return ir.IROperation{}, "", err
	}
	i, ok := index[chPtr]
	if !ok {
		return ir.IROperation{}, "", &generrors.MalformedReferenceError{Ref: chRef, From: ptr, Reason: "operation channel must reference an entry of channels"}
	}
	ch := channels[i]
	_, chNode, err := r.follow(chPtr, r.channelNode(chPtr))
	if err != nil {
		return ir.IROperation{}, "", err
	}

	dir := ir.Direction(asyncapi.Str(node, "action"))
	if dir != ir.DirectionSend && dir != ir.DirectionReceive {
		return ir.IROperation{}, "", &generrors.SchemaValidationError{
			Path:     r.doc.Path,
			Problems: []string{fmt.Sprintf("operation %q has invalid action %q (want send or receive)", e.Name, dir)},
		}
	}
	op := r.baseOperation(e.Pointer, node, ch, dir)
	op.OperationID = e.Name
	for _, sec := range asyncapi.Items(asyncapi.Get(node, "security")) {
		if ref := asyncapi.Str(sec, "$ref"); ref != "" {
			op.Security = append(op.Security, lastToken(ref))
		} else {
			op.Security = append(op.Security, asyncapi.Str(sec, "type"))
		}
	}

	msgs, err := r.v3Messages(asyncapi.Child(ptr, "messages"), asyncapi.Get(node, "messages"), chPtr, chNode)
	if err != nil {
		return ir.IROperation{}, "", err
	}
	op.Messages = msgs

	if reply := asyncapi.Get(node, "reply"); reply != nil {
		replyPtr, replyNode, err := r.follow(asyncapi.Child(ptr, "reply"), reply)
		if err != nil {
			return ir.IROperation{}, "", err
		}
		replyChPtr, replyCh := chPtr, chNode
		if ref := asyncapi.Str(asyncapi.Get(replyNode, "channel"), "$ref"); ref != "" {
			if replyChPtr, replyCh, err = r.canonical(ref, asyncapi.Child(replyPtr, "channel")); err != nil {
				return ir.IROperation{}, "", err
			}
		}
		replies, err := r.v3Messages(asyncapi.Child(replyPtr, "messages"), asyncapi.Get(replyNode, "messages"), replyChPtr, replyCh)
		if err != nil {
			return ir.IROperation{}, "", err
		}
		op.Reply = replies
	}

	header, query, err := r.bindingParams(chPtr, chNode)
	if err != nil {
		return ir.IROperation{}, "", err
	}
	op.HeaderParams = append(op.HeaderParams, header...)
	op.QueryParams = append(op.QueryParams, query...)
	if err := r.messageHeaders(&op); err != nil {
		return ir.IROperation{}, "", err
	}
	return op, chPtr, nil
}

func (r *resolver) channelNode(ptr string) *yaml.Node {
	for _, e := range r.doc.Channels {
		if e.Pointer == ptr {
			return e.Node
		}
	}
	return nil
}

// v3Messages resolves an operation's message list; an absent list means every channel message
func (r *resolver) v3Messages(listPtr string, list *yaml.Node, chPtr string, ch *yaml.Node) ([]ir.IRMessage, error) {
	var out []ir.IRMessage
	if list == nil {
		for _, p := range asyncapi.Pairs(asyncapi.Get(ch, "messages")) {
			msg, _, err := r.message(asyncapi.Child(chPtr, "messages", p.Key), p.Value)
			if err != nil {
				return nil, err
			}
			if msg.Name == "" {
				msg.Name = p.Key
			}
			out = append(out, msg)
		}
		return out, nil
	}
	for i, m := range asyncapi.Items(list) {
		msg, _, err := r.message(asyncapi.Child(listPtr, fmt.Sprint(i)), m)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (r *resolver) baseOperation(ptr string, node *yaml.Node, ch ir.IRChannel, dir ir.Direction) ir.IROperation {
	op := ir.IROperation{
		ID:          ptr,
		Direction:   dir,
		ChannelID:   ch.ID,
		ChannelName: ch.Name,
		Address:     ch.Address,
		Summary:     asyncapi.Str(node, "summary"),
		Description: asyncapi.Str(node, "description"),
		Deprecated:  asyncapi.Bool(node, "deprecated"),
		PathParams:  ch.Params,
	}
	op.SecurityDeclared = asyncapi.Get(node, "security") != nil
	for _, t := range asyncapi.Items(asyncapi.Get(node, "tags")) {
		if name := asyncapi.Str(t, "name"); name != "" {
			op.Tags = append(op.Tags, name)
		}
	}
	if len(op.Tags) == 0 {
		op.Tags = []string{defaultTag}
	}
	return op
}

// message resolves a message object; the second result is its x-response reply, if any
func (r *resolver) message(ptr string, node *yaml.Node) (ir.IRMessage, []ir.IRMessage, error) {
	ptr, node, err := r.follow(ptr, node)
	if err != nil {
		return ir.IRMessage{}, nil, err
	}
	msg := ir.IRMessage{
		ID:          ptr,
		Name:        asyncapi.Str(node, "name"),
		Title:       asyncapi.Str(node, "title"),
		Summary:     asyncapi.Str(node, "summary"),
		ContentType: asyncapi.Str(node, "contentType"),
	}
	if msg.Name == "" && strings.Contains(ptr, "/messages/") {
		msg.Name = lastToken(ptr)
	}

	if payload := asyncapi.Get(node, "payload"); payload != nil {
		payloadPtr := asyncapi.Child(ptr, "payload")
		// 3.x multi-format schema object
		if asyncapi.Get(payload, "schemaFormat") != nil && asyncapi.Get(payload, "schema") != nil {
			payloadPtr = asyncapi.Child(payloadPtr, "schema")
			payload = asyncapi.Get(payload, "schema")
		}
		s, err := r.schema(payloadPtr, payload, msg.Name)
		if err != nil {
			return ir.IRMessage{}, nil, err
		}
		msg.Payload = s
	}

	var replies []ir.IRMessage
	if xr := asyncapi.Get(node, "x-response"); xr != nil {
		reply, _, err := r.message(asyncapi.Child(ptr, "x-response"), xr)
		if err != nil {
			return ir.IRMessage{}, nil, err
		}
		replies = append(replies, reply)
	}
	return msg, replies, nil
}

// messageHeaders turns the properties of each message's headers schema into header bindings
func (r *resolver) messageHeaders(op *ir.IROperation) error {
	seen := map[string]bool{}
	for _, p := range op.HeaderParams {
		seen[p.Name] = true
	}
	for _, m := range op.Messages {
		node, err := r.doc.Lookup(m.ID)
		if err != nil {
			return &generrors.MalformedReferenceError{Ref: m.ID, From: op.ID, Reason: "target does not exist", Cause: err}
		}
		hn := asyncapi.Get(node, "headers")
		if hn == nil {
			continue
		}
		hs, err := r.schema(asyncapi.Child(m.ID, "headers"), hn, "")
		if err != nil {
			return err
		}
		target := ir.IR{Nodes: r.nodes}.Target(hs)
		if target == nil || (target.Kind != ir.IRKindObject && target.Kind != ir.IRKindMap) {
			r.diags.Warnf(hs.ID, "message headers must be an object schema, headers ignored")
			continue
		}
		for _, f := range target.Properties {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			op.HeaderParams = append(op.HeaderParams, ir.IRParam{Name: f.Name, Required: f.Required, Schema: f.Type, Description: f.Annotations.Description})
		}
	}
	return nil
}

// bindingParams reads ws channel bindings (query and headers object schemas)
func (r *resolver) bindingParams(chPtr string, ch *yaml.Node) (header, query []ir.IRParam, err error) {
	ws := asyncapi.Get(asyncapi.Get(ch, "bindings"), "ws")
	if ws == nil {
		return nil, nil, nil
	}
	read := func(key string) ([]ir.IRParam, error) {
		sn := asyncapi.Get(ws, key)
		if sn == nil {
			return nil, nil
		}
		s, err := r.schema(asyncapi.Child(chPtr, "bindings", "ws", key), sn, "")
		if err != nil {
			return nil, err
		}
		target := ir.IR{Nodes: r.nodes}.Target(s)
		if target == nil || target.Kind != ir.IRKindObject {
			r.diags.Warnf(s.ID, "ws %s binding must be an object schema, binding ignored", key)
			return nil, nil
		}
		var out []ir.IRParam
		for _, f := range target.Properties {
			out = append(out, ir.IRParam{Name: f.Name, Required: f.Required, Schema: f.Type, Description: f.Annotations.Description})
		}
		return out, nil
	}
	if query, err = read("query"); err != nil {
		return nil, nil, err
	}
	if header, err = read("headers"); err != nil {
		return nil, nil, err
	}
	return header, query, nil
}

// securitySchemes decodes components.securitySchemes through openapi3.SecurityScheme
func (r *resolver) securitySchemes() ([]ir.IRSecurityScheme, error) {
	entries := append([]asyncapi.Entry(nil), r.doc.SecuritySchemes...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	out := make([]ir.IRSecurityScheme, 0, len(entries))
	for _, e := range entries {
		ptr, node, err := r.follow(e.Pointer, e.Node)
		if err != nil {
			return nil, err
		}
		s, err := decodeSecurityScheme(node)
		if err != nil {
			r.diags.Warnf(ptr, "unreadable security scheme skipped: %v", err)
			continue
		}
		sc := ir.IRSecurityScheme{
			Key:          e.Name,
			Type:         s.Type,
			Description:  s.Description,
			Scheme:       strings.ToLower(s.Scheme),
			BearerFormat: s.BearerFormat,
			In:           s.In,
			Name:         s.Name,
			OpenIDURL:    s.OpenIdConnectUrl,
		}
		if s.Flows != nil {
			sc.Flows = &ir.IROAuthFlows{
				Implicit:          convertFlow(s.Flows.Implicit),
				Password:          convertFlow(s.Flows.Password),
				ClientCredentials: convertFlow(s.Flows.ClientCredentials),
				AuthorizationCode: convertFlow(s.Flows.AuthorizationCode),
			}
		}
		out = append(out, sc)
	}
	return out, nil
}

func decodeSecurityScheme(node *yaml.Node) (*openapi3.SecurityScheme, error) {
	shallow := map[string]any{}
	for _, key := range []string{"type", "description", "name", "in", "scheme", "bearerFormat", "openIdConnectUrl"} {
		if v := asyncapi.Str(node, key); v != "" {
			shallow[key] = v
		}
	}
	if flowsNode := asyncapi.Get(node, "flows"); flowsNode != nil {
		flows := map[string]any{}
		for _, p := range asyncapi.Pairs(flowsNode) {
			flow := map[string]any{}
			for _, key := range []string{"authorizationUrl", "tokenUrl", "refreshUrl"} {
				if v := asyncapi.Str(p.Value, key); v != "" {
					flow[key] = v
				}
			}
			scopes := map[string]string{}
			for _, key := range []string{"scopes", "availableScopes"} {
				for _, sp := range asyncapi.Pairs(asyncapi.Get(p.Value, key)) {
					scopes[sp.Key] = asyncapi.Deref(sp.Value).Value
				}
			}
			flow["scopes"] = scopes
			flows[p.Key] = flow
		}
		shallow["flows"] = flows
	}
	raw, err := json.Marshal(shallow)
	if err != nil {
		return nil, err
	}
	var s openapi3.SecurityScheme
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func convertFlow(f *openapi3.OAuthFlow) *ir.IROAuthFlow {
	if f == nil {
		return nil
	}
	out := &ir.IROAuthFlow{AuthorizationURL: f.AuthorizationURL, TokenURL: f.TokenURL, RefreshURL: f.RefreshURL}
	for scope := range f.Scopes {
		out.Scopes = append(out.Scopes, scope)
	}
	sort.Strings(out.Scopes)
	return out
}
