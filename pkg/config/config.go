package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Generation modes
const (
	ModeClient  = "client"
	ModeService = "service"
)

// Client method styles
const (
	MethodsRemote   = "remote"
	MethodsResource = "resource"
)

// Config represents the complete configuration for code generation
type Config struct {
	Spec    string   `yaml:"spec"`
	Name    string   `yaml:"name"`
	Clients []Client `yaml:"clients"`
}

// Client represents configuration for a single generation target
type Client struct {
	Type        string   `yaml:"type"`
	OutDir      string   `yaml:"outDir"`
	PackageName string   `yaml:"packageName"`
	ModuleName  string   `yaml:"moduleName"`
	Name        string   `yaml:"name"`
	IncludeTags []string `yaml:"includeTags"`
	ExcludeTags []string `yaml:"excludeTags"`
	// Operations restricts generation to these operation ids
	Operations []string `yaml:"operations"`
	// WithTests emits tests/client_test.go and tests/Config.toml
	WithTests bool `yaml:"withTests"`
	// Mode is "client" (default) or "service"
	Mode string `yaml:"mode"`
	// ClientMethods is "remote" (default) or "resource"
	ClientMethods string `yaml:"clientMethods"`
	// Nullable makes every record field optional
	Nullable bool `yaml:"nullable"`
	// License is a file whose content is prepended to generated Go files
	License string `yaml:"license"`
	// RequireOperationIDs aborts service generation on operations without operationId
	RequireOperationIDs bool `yaml:"requireOperationIds"`
	// PreCommand runs in the output directory before generation.
	// Uses Docker Compose array format: ["goimports", "-w", "."]
	PreCommand []string `yaml:"preCommand"`
	// PostCommand runs in the output directory after the files are written.
	PostCommand []string `yaml:"postCommand"`
	// DefaultServiceURL overrides the URL taken from the contract's first server
	DefaultServiceURL string `yaml:"defaultServiceURL"`
	// ExcludeFiles is a list of file paths (relative to outDir) that should not be written
	// Example: ["utils.go", "tests/Config.toml"]
	ExcludeFiles []string `yaml:"exclude"`
}

// GetPreCommand returns the pre-generation command to execute.
func (c *Client) GetPreCommand() []string {
	return c.PreCommand
}

// GetPostCommand returns the post-generation command to execute.
func (c *Client) GetPostCommand() []string {
	return c.PostCommand
}

// ShouldExcludeFile checks if a file path should be excluded based on the ExcludeFiles list.
// targetPath should be an absolute path, and the comparison is done relative to OutDir.
func (c *Client) ShouldExcludeFile(targetPath string) bool {
	if len(c.ExcludeFiles) == 0 {
		return false
	}

	relPath, err := filepath.Rel(c.OutDir, targetPath)
	if err != nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	if relPath == "." {
		relPath = ""
	}

	for _, excludePattern := range c.ExcludeFiles {
		normalizedExclude := strings.TrimSuffix(filepath.ToSlash(excludePattern), "/")
		if relPath == normalizedExclude {
			return true
		}
		// "tests/" excludes everything below tests
		if normalizedExclude != "" && strings.HasPrefix(relPath, normalizedExclude+"/") {
			return true
		}
	}

	return false
}

// IsService reports whether the service scaffold should be generated
func (c *Client) IsService() bool {
	return c.Mode == ModeService
}

// Normalize fills defaults and absolutizes OutDir and License
func (c *Client) Normalize() {
	if c.Type == "" {
		c.Type = "go"
	}
	if c.Mode == "" {
		c.Mode = ModeClient
	}
	if c.ClientMethods == "" {
		c.ClientMethods = MethodsRemote
	}
	if c.PackageName == "" {
		c.PackageName = c.Name
	}
	if c.OutDir != "" && !filepath.IsAbs(c.OutDir) {
		if abs, err := filepath.Abs(c.OutDir); err == nil {
			c.OutDir = abs
		}
	}
	if c.License != "" && !filepath.IsAbs(c.License) {
		if abs, err := filepath.Abs(c.License); err == nil {
			c.License = abs
		}
	}
}

// Validate checks the fields Normalize cannot default
func (c *Client) Validate() error {
	var missing []string
	if c.OutDir == "" {
		missing = append(missing, "outDir")
	}
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.PackageName == "" {
		missing = append(missing, "packageName")
	}
	if len(missing) > 0 {
		return errors.Newf("missing required fields (%s)", strings.Join(missing, ", "))
	}
	if c.Mode != ModeClient && c.Mode != ModeService {
		return errors.WithHint(errors.Newf("invalid mode %q", c.Mode), "use \"client\" or \"service\"")
	}
	if c.ClientMethods != MethodsRemote && c.ClientMethods != MethodsResource {
		return errors.WithHint(errors.Newf("invalid clientMethods %q", c.ClientMethods), "use \"remote\" or \"resource\"")
	}
	return nil
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if cfg.Spec == "" {
		return nil, errors.New("config.spec is required")
	}
	if len(cfg.Clients) == 0 {
		return nil, errors.WithHint(errors.New("config.clients is empty"), "declare at least one client target")
	}

	// Relative paths in the file are relative to the file itself
	base := filepath.Dir(path)
	if !filepath.IsAbs(cfg.Spec) {
		cfg.Spec = filepath.Join(base, cfg.Spec)
	}
	if abs, err := filepath.Abs(cfg.Spec); err == nil {
		cfg.Spec = abs
	}
	for i := range cfg.Clients {
		c := &cfg.Clients[i]
		if c.OutDir != "" && !filepath.IsAbs(c.OutDir) {
			c.OutDir = filepath.Join(base, c.OutDir)
		}
		if c.License != "" && !filepath.IsAbs(c.License) {
			c.License = filepath.Join(base, c.License)
		}
		c.Normalize()
		if err := c.Validate(); err != nil {
			return nil, errors.Wrapf(err, "clients[%d]", i)
		}
	}
	return &cfg, nil
}
