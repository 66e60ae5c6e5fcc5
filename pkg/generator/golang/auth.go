package golang

import (
	"sort"

	"github.com/blimu-dev/asyncapi-gen/pkg/diag"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
	"github.com/blimu-dev/asyncapi-gen/pkg/utils"
)

type authKind string

const (
	authBearer            authKind = "bearer"
	authCredentials       authKind = "credentials"
	authAPIKeys           authKind = "apiKeys"
	authClientCredentials authKind = "oauth2ClientCredentials"
	authPassword          authKind = "oauth2Password"
	authRefreshToken      authKind = "oauth2RefreshToken"
)

// authTypeNames are fixed so that user code can rely on them
var authTypeNames = map[authKind]string{
	authBearer:            "BearerTokenConfig",
	authCredentials:       "CredentialsConfig",
	authAPIKeys:           "ApiKeysConfig",
	authClientCredentials: "OAuth2ClientCredentialsGrantConfig",
	authPassword:          "OAuth2PasswordGrantConfig",
	authRefreshToken:      "OAuth2RefreshTokenGrantConfig",
}

var authOrder = []authKind{authBearer, authCredentials, authAPIKeys, authClientCredentials, authPassword, authRefreshToken}

type authConfig struct {
	Kind     authKind
	TypeName string
	Schemes  []string
	Keys     []apiKey
	TokenURL string
	Scopes   []string
}

type apiKey struct {
	Field  string
	Name   string
	In     string
	Scheme string
}

type authModel struct {
	Configs []*authConfig
}

func (a authModel) Empty() bool {
	return len(a.Configs) == 0
}

// Has reports whether a config of the given kind was synthesized
func (a authModel) Has(kind string) bool {
	return a.config(authKind(kind)) != nil
}

func (a authModel) config(kind authKind) *authConfig {
	for _, c := range a.Configs {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// synthesizeAuth maps security schemes onto a fixed set of config types.
// Several schemes of the same kind share one config type.
func synthesizeAuth(schemes []ir.IRSecurityScheme, names *nameRegistry, diags *diag.List) (authModel, []ir.TypeDecl) {
	byKind := map[authKind]*authConfig{}
	use := func(kind authKind, scheme string) *authConfig {
		c, ok := byKind[kind]
		if !ok {
			c = &authConfig{Kind: kind, TypeName: authTypeNames[kind]}
			byKind[kind] = c
		}
		c.Schemes = append(c.Schemes, scheme)
		return c
	}
	takenKeys := map[string]bool{}

	for _, s := range schemes {
		switch s.Type {
		case "http":
			switch s.Scheme {
			case "bearer":
				use(authBearer, s.Key)
			case "basic":
				use(authCredentials, s.Key)
			default:
				diags.Warnf("#/components/securitySchemes/"+s.Key, "http scheme %q is not supported, skipped", s.Scheme)
			}
		case "httpBearer", "openIdConnect":
			use(authBearer, s.Key)
		case "userPassword", "plain", "scramSha256", "scramSha512":
			use(authCredentials, s.Key)
		case "apiKey", "httpApiKey":
			c := use(authAPIKeys, s.Key)
			name := s.Name
			if name == "" {
				name = s.Key
			}
			c.Keys = append(c.Keys, apiKey{
				Field:  uniqueIdent(utils.TypeName(s.Key), takenKeys),
				Name:   name,
				In:     s.In,
				Scheme: s.Key,
			})
		case "oauth2":
			if s.Flows == nil {
				diags.Warnf("#/components/securitySchemes/"+s.Key, "oauth2 scheme without flows, skipped")
				continue
			}
			if f := s.Flows.ClientCredentials; f != nil {
				addFlow(use(authClientCredentials, s.Key), f)
			}
			if f := s.Flows.Password; f != nil {
				addFlow(use(authPassword, s.Key), f)
			}
			for _, f := range []*ir.IROAuthFlow{s.Flows.AuthorizationCode, s.Flows.Implicit} {
				if f == nil {
					continue
				}
				addFlow(use(authRefreshToken, s.Key), f)
				use(authBearer, s.Key)
			}
		default:
			diags.Warnf("#/components/securitySchemes/"+s.Key, "security scheme type %q is not supported, skipped", s.Type)
		}
	}

	var model authModel
	var decls []ir.TypeDecl
	for _, kind := range authOrder {
		c, ok := byKind[kind]
		if !ok {
			continue
		}
		origin := "auth:" + string(kind)
		names.reserve(c.TypeName, origin)
		sort.Strings(c.Scopes)
		model.Configs = append(model.Configs, c)
		decls = append(decls, ir.TypeDecl{Name: c.TypeName, Origin: origin, Kind: ir.DeclStruct, Fields: authFields(c)})
	}
	return model, decls
}

func addFlow(c *authConfig, f *ir.IROAuthFlow) {
	if c.TokenURL == "" {
		c.TokenURL = f.TokenURL
	}
	seen := map[string]bool{}
	for _, s := range c.Scopes {
		seen[s] = true
	}
	for _, s := range f.Scopes {
		if !seen[s] {
			seen[s] = true
			c.Scopes = append(c.Scopes, s)
		}
	}
}

// authFields lists the user-facing fields of a config type
func authFields(c *authConfig) []ir.FieldDecl {
	str := func(name, key string) ir.FieldDecl {
		return ir.FieldDecl{Name: name, JSONName: key, Type: "string"}
	}
	oauth := []ir.FieldDecl{str("ClientID", "client_id"), str("ClientSecret", "client_secret")}
	tail := []ir.FieldDecl{str("TokenURL", "token_url"), {Name: "Scopes", JSONName: "scopes", Type: "[]string"}}

	switch c.Kind {
	case authBearer:
		return []ir.FieldDecl{str("Token", "token")}
	case authCredentials:
		return []ir.FieldDecl{str("Username", "username"), str("Password", "password")}
	case authAPIKeys:
		var out []ir.FieldDecl
		for _, k := range c.Keys {
			out = append(out, str(k.Field, toSnakeCase(k.Scheme)))
		}
		return out
	case authClientCredentials:
		return append(oauth, tail...)
	case authPassword:
		out := append(oauth, str("Username", "username"), str("Password", "password"))
		return append(out, tail...)
	case authRefreshToken:
		out := append(oauth, str("RefreshToken", "refresh_token"))
		return append(out, tail...)
	}
	return nil
}
