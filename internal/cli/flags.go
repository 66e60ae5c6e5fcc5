package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the CLI, e.g.
// ASYNCAPI_GEN_OUTPUT for --output
const EnvPrefix = "ASYNCAPI_GEN"

// Flag names shared by generate and watch
const (
	FlagConfig              = "config"
	FlagClient              = "client"
	FlagInput               = "input"
	FlagOutput              = "output"
	FlagPackageName         = "package-name"
	FlagModuleName          = "module-name"
	FlagClientName          = "client-name"
	FlagLicense             = "license"
	FlagWithTests           = "with-tests"
	FlagIncludeTags         = "include-tags"
	FlagExcludeTags         = "exclude-tags"
	FlagOperations          = "operations"
	FlagMode                = "mode"
	FlagClientMethods       = "client-methods"
	FlagNullable            = "nullable"
	FlagRequireOperationIDs = "require-operation-ids"
	FlagNonInteractive      = "non-interactive"
	FlagVerbose             = "verbose"
	FlagJSONLogs            = "json-logs"
)

// NewViper returns a viper instance reading ASYNCAPI_GEN_* variables
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// AddGenerateFlags declares the generation flags on fs
func AddGenerateFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagConfig, "c", "", "Path to an asyncapi-gen.yaml config")
	fs.String(FlagClient, "", "Generate only the named client from config")
	// Fallback single-client flags
	fs.StringP(FlagInput, "i", "", "AsyncAPI contract file (yaml/json)")
	fs.StringP(FlagOutput, "o", "", "Output directory")
	fs.String(FlagPackageName, "", "Go package name of the generated code")
	fs.String(FlagModuleName, "", "Module path the generated tests import the client from")
	fs.String(FlagClientName, "", "Client name")
	fs.String(FlagLicense, "", "File whose content is prepended to generated Go files")
	fs.Bool(FlagWithTests, false, "Also generate tests/client_test.go and tests/Config.toml")
	fs.StringArray(FlagIncludeTags, nil, "Regex patterns for tags to include")
	fs.StringArray(FlagExcludeTags, nil, "Regex patterns for tags to exclude")
	fs.StringArray(FlagOperations, nil, "Operation ids to generate")
	fs.String(FlagMode, "client", "Generation mode: client or service")
	fs.String(FlagClientMethods, "remote", "Client method style: remote or resource")
	fs.Bool(FlagNullable, false, "Make every record field optional")
	fs.Bool(FlagRequireOperationIDs, false, "Fail service generation on operations without operationId")
	fs.Bool(FlagNonInteractive, false, "Never prompt before overwriting files")
}

// AddLogFlags declares the logging flags on fs
func AddLogFlags(fs *pflag.FlagSet) {
	fs.BoolP(FlagVerbose, "v", false, "Debug logging")
	fs.Bool(FlagJSONLogs, false, "Structured JSON logs on stderr")
}

// BindFlags binds the flags of cmd, persistent ones included, to v. It is
// called from PreRunE so that commands sharing flag names do not overwrite
// each other's bindings.
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return v.BindPFlags(cmd.InheritedFlags())
}

// GenerateParams reads the bound flags and environment
func GenerateParams(v *viper.Viper) RunGenerateParams {
	return RunGenerateParams{
		ConfigPath:   v.GetString(FlagConfig),
		SingleClient: v.GetString(FlagClient),
		Fallback: FallbackParams{
			Spec:                v.GetString(FlagInput),
			Type:                "go",
			OutDir:              v.GetString(FlagOutput),
			PackageName:         v.GetString(FlagPackageName),
			ModuleName:          v.GetString(FlagModuleName),
			Name:                v.GetString(FlagClientName),
			IncludeTags:         v.GetStringSlice(FlagIncludeTags),
			ExcludeTags:         v.GetStringSlice(FlagExcludeTags),
			Operations:          v.GetStringSlice(FlagOperations),
			WithTests:           v.GetBool(FlagWithTests),
			Mode:                v.GetString(FlagMode),
			ClientMethods:       v.GetString(FlagClientMethods),
			Nullable:            v.GetBool(FlagNullable),
			License:             v.GetString(FlagLicense),
			RequireOperationIDs: v.GetBool(FlagRequireOperationIDs),
		},
		NonInteractive: v.GetBool(FlagNonInteractive),
		Verbose:        v.GetBool(FlagVerbose),
		JSONLogs:       v.GetBool(FlagJSONLogs),
	}
}
