// Package asyncapigen generates Go clients and service scaffolds from AsyncAPI
// 2.x and 3.x contracts.
//
// Quick Start:
//
//	import asyncapigen "github.com/blimu-dev/asyncapi-gen"
//
//	// Generate a Go client
//	res, err := asyncapigen.GenerateGoClient(
//		"./asyncapi.yaml",
//		"./petsclient",
//		"petsclient",
//		"pets",
//	)
//
// For more control, see the generator package.
package asyncapigen

import (
	"github.com/blimu-dev/asyncapi-gen/pkg/generator"
)

// Result summarizes a generation run: the run id, the files written per
// target and the diagnostics collected along the way.
type Result = generator.Result

// GenerateGoClient generates a Go client with minimal configuration.
//
// Parameters:
//   - spec: Path to the AsyncAPI contract (.yaml, .yml or .json)
//   - outDir: Output directory for the generated package
//   - packageName: Go package name of the generated code
//   - clientName: Name of the client target
func GenerateGoClient(spec, outDir, packageName, clientName string) (*Result, error) {
	return generator.GenerateGoClient(spec, outDir, packageName, clientName)
}

// Generate generates code with full configuration options. It never prompts
// before overwriting files.
//
// Example:
//
//	res, err := asyncapigen.Generate(asyncapigen.Options{
//		Spec:        "./asyncapi.yaml",
//		OutDir:      "./pets",
//		PackageName: "pets",
//		Name:        "pets",
//		Mode:        "service",
//		WithTests:   true,
//	})
func Generate(opts Options) (*Result, error) {
	return generator.GenerateSDK(generator.GenerateSDKOptions(opts))
}

// GenerateFromConfig generates every client declared in a YAML configuration
// file. Optionally, a single client name restricts the run to that client.
//
//	res, err := asyncapigen.GenerateFromConfig("./asyncapi-gen.yaml")
//	res, err := asyncapigen.GenerateFromConfig("./asyncapi-gen.yaml", "pets")
func GenerateFromConfig(configPath string, singleClient ...string) (*Result, error) {
	return generator.GenerateFromConfig(configPath, singleClient...)
}

// ValidateContract checks that a contract loads and that all of its
// references resolve.
func ValidateContract(specPath string) error {
	return generator.ValidateContract(specPath)
}

// Options contains options for Generate
type Options struct {
	// ConfigPath is the path to the configuration file (optional)
	ConfigPath string

	// SingleClient generates only the named client from config (optional)
	SingleClient string

	// Fallback options when no config file is provided
	Spec                string   // AsyncAPI contract file
	Type                string   // Generator type, "go" by default
	OutDir              string   // Output directory
	PackageName         string   // Go package name
	ModuleName          string   // Module path used by the generated tests
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
