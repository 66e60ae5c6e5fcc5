package generator

import (
	"context"
	"path/filepath"

	"github.com/blimu-dev/asyncapi-gen/pkg/asyncapi"
	"github.com/blimu-dev/asyncapi-gen/pkg/config"
	"github.com/blimu-dev/asyncapi-gen/pkg/diag"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
)

// GenerateSDK is a convenience function for generating with minimal configuration.
// It never prompts.
func GenerateSDK(opts GenerateSDKOptions) (*Result, error) {
	service := NewService()

	genOpts := GenerateOptions{
		ConfigPath:   opts.ConfigPath,
		SingleClient: opts.SingleClient,
		Fallback: FallbackOptions{
			Spec:                opts.Spec,
			Type:                opts.Type,
			OutDir:              opts.OutDir,
			PackageName:         opts.PackageName,
			ModuleName:          opts.ModuleName,
			Name:                opts.Name,
			IncludeTags:         opts.IncludeTags,
			ExcludeTags:         opts.ExcludeTags,
			Operations:          opts.Operations,
			WithTests:           opts.WithTests,
			Mode:                opts.Mode,
			ClientMethods:       opts.ClientMethods,
			License:             opts.License,
			Nullable:            opts.Nullable,
			RequireOperationIDs: opts.RequireOperationIDs,
		},
	}

	return service.Generate(context.Background(), genOpts)
}

// GenerateSDKOptions contains options for the convenience GenerateSDK function
type GenerateSDKOptions struct {
	// ConfigPath is the path to the configuration file (optional)
	ConfigPath string

	// SingleClient generates only the named client from config (optional)
	SingleClient string

	// Fallback options when no config file is provided
	Spec                string   // AsyncAPI contract file
	Type                string   // Generator type, "go" by default
	OutDir              string   // Output directory
	PackageName         string   // Package name of the generated code
	ModuleName          string   // Module path used by generated tests to import the client
	Name                string   // Client name
	IncludeTags         []string // Regex patterns for tags to include
	ExcludeTags         []string // Regex patterns for tags to exclude
	Operations          []string // Operation ids to keep
	WithTests           bool     // Also emit tests/client_test.go and tests/Config.toml
	Mode                string   // "client" or "service"
	ClientMethods       string   // "remote" or "resource"
	License             string   // License header file
	Nullable            bool     // Make every record field optional
	RequireOperationIDs bool     // Fail service generation on operations without operationId
}

// GenerateGoClient is a convenience function specifically for Go client generation
func GenerateGoClient(spec, outDir, packageName, clientName string) (*Result, error) {
	absOutDir, err := filepath.Abs(outDir)
	if err != nil {
		return nil, err
	}

	return GenerateSDK(GenerateSDKOptions{
		Spec:        spec,
		Type:        "go",
		OutDir:      absOutDir,
		PackageName: packageName,
		Name:        clientName,
	})
}

// GenerateFromConfig is a convenience function for generating from a config file
func GenerateFromConfig(configPath string, singleClient ...string) (*Result, error) {
	service := NewService()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	onlyClient := ""
	if len(singleClient) > 0 {
		onlyClient = singleClient[0]
	}

	return service.GenerateFromConfig(context.Background(), cfg, onlyClient)
}

// ResolveFile loads and resolves a contract without generating anything.
// The diagnostics are the non-fatal problems found on the way.
func ResolveFile(path string) (ir.IR, []diag.Diagnostic, error) {
	doc, err := asyncapi.LoadDocument(path)
	if err != nil {
		return ir.IR{}, nil, err
	}
	diags := &diag.List{}
	graph, err := Resolve(doc, diags)
	return graph, diags.Items(), err
}

// ValidateContract checks that a contract loads and that every reference in
// it resolves. Warnings are not errors.
func ValidateContract(path string) error {
	_, _, err := ResolveFile(path)
	return err
}
