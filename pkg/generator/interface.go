package generator

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blimu-dev/asyncapi-gen/internal/logger"
	"github.com/blimu-dev/asyncapi-gen/pkg/asyncapi"
	"github.com/blimu-dev/asyncapi-gen/pkg/config"
	"github.com/blimu-dev/asyncapi-gen/pkg/diag"
	"github.com/blimu-dev/asyncapi-gen/pkg/generator/golang"
	"github.com/blimu-dev/asyncapi-gen/pkg/generrors"
	"github.com/blimu-dev/asyncapi-gen/pkg/ir"
	"github.com/blimu-dev/asyncapi-gen/pkg/pipeline"
	"github.com/blimu-dev/asyncapi-gen/pkg/writer"
)

// Generator turns a resolved graph into the artifacts of one target language
type Generator interface {
	// Generate maps, synthesizes and assembles one client target. It must not
	// touch the filesystem.
	Generate(client config.Client, in ir.IR, tracker *pipeline.Tracker) (*ir.Bundle, error)
	// GetType returns the type identifier for this generator (e.g., "go")
	GetType() string
}

// Registry manages available generators
type Registry struct {
	generators map[string]Generator
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// Register adds a generator to the registry
func (r *Registry) Register(gen Generator) {
	r.generators[gen.GetType()] = gen
}

// Get retrieves a generator by type
func (r *Registry) Get(genType string) (Generator, bool) {
	gen, exists := r.generators[genType]
	return gen, exists
}

// GetAvailableTypes returns all registered generator types, sorted
func (r *Registry) GetAvailableTypes() []string {
	types := make([]string, 0, len(r.generators))
	for t := range r.generators {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// GenerateOptions contains options for code generation
type GenerateOptions struct {
	ConfigPath   string
	SingleClient string
	Fallback     FallbackOptions
}

// FallbackOptions describe a single target when no config file is provided
type FallbackOptions struct {
	Spec                string
	Type                string
	OutDir              string
	PackageName         string
	ModuleName          string
	Name                string
	IncludeTags         []string
	ExcludeTags         []string
	Operations          []string
	WithTests           bool
	Mode                string
	ClientMethods       string
	Nullable            bool
	License             string
	RequireOperationIDs bool
}

// Result summarizes one generation run
type Result struct {
	RunID       string
	Targets     []TargetResult
	Diagnostics []diag.Diagnostic
}

// TargetResult is what was written for one client target
type TargetResult struct {
	Client config.Client
	Write  writer.Result
}

// Service provides high-level generation functionality
type Service struct {
	registry *Registry
	logger   *zap.Logger
	prompter writer.Prompter
	stdout   io.Writer
	stderr   io.Writer
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithLogger sets the logger handed to every stage
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithPrompter enables the overwrite prompt of the writer
func WithPrompter(p writer.Prompter) ServiceOption {
	return func(s *Service) {
		s.prompter = p
	}
}

// WithCommandOutput redirects the output of pre and post commands
func WithCommandOutput(stdout, stderr io.Writer) ServiceOption {
	return func(s *Service) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// NewService creates a new generator service with default generators
func NewService(opts ...ServiceOption) *Service {
	s := NewServiceWithRegistry(NewRegistry(), opts...)
	s.registry.Register(golang.NewGoGenerator(golang.WithLogger(logger.Component(s.logger, "golang"))))
	return s
}

// NewServiceWithRegistry creates a new generator service with a custom registry
func NewServiceWithRegistry(registry *Registry, opts ...ServiceOption) *Service {
	s := &Service{
		registry: registry,
		logger:   zap.NewNop(),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrNop(s.logger)
	return s
}

// GetRegistry returns the generator registry
func (s *Service) GetRegistry() *Registry {
	return s.registry
}

// Generate generates code based on the provided options
func (s *Service) Generate(ctx context.Context, opts GenerateOptions) (*Result, error) {
	cfg, err := ConfigFromOptions(opts)
	if err != nil {
		return nil, err
	}
	return s.GenerateFromConfig(ctx, cfg, opts.SingleClient)
}

// ConfigFromOptions loads the config file, or builds a one-target config
// from the fallback options when no file is given
func ConfigFromOptions(opts GenerateOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	f := opts.Fallback
	if strings.TrimSpace(f.Spec) == "" {
		return nil, &generrors.InputError{Kind: generrors.InputMissing, Message: asyncapi.MissingPathMessage}
	}
	client := config.Client{
		Type:                f.Type,
		OutDir:              f.OutDir,
		PackageName:         f.PackageName,
		ModuleName:          f.ModuleName,
		Name:                f.Name,
		IncludeTags:         f.IncludeTags,
		ExcludeTags:         f.ExcludeTags,
		Operations:          f.Operations,
		WithTests:           f.WithTests,
		Mode:                f.Mode,
		ClientMethods:       f.ClientMethods,
		Nullable:            f.Nullable,
		License:             f.License,
		RequireOperationIDs: f.RequireOperationIDs,
	}
	client.Normalize()
	if err := client.Validate(); err != nil {
		return nil, errors.WithHint(err, "pass --config or the single-target flags")
	}
	return &config.Config{Spec: f.Spec, Clients: []config.Client{client}}, nil
}

type pendingTarget struct {
	client  config.Client
	bundle  *ir.Bundle
	tracker *pipeline.Tracker
	license string
}

// GenerateFromConfig runs every selected client target. All targets are
// generated before anything is written, so an error before the write phase
// leaves the filesystem untouched.
func (s *Service) GenerateFromConfig(ctx context.Context, cfg *config.Config, onlyClient string) (*Result, error) {
	runID := uuid.NewString()
	log := logger.Component(s.logger, "generator").With(zap.String(logger.FieldRunID, runID))
	started := time.Now()
	result := &Result{RunID: runID}

	clients, err := selectClients(cfg, onlyClient)
	if err != nil {
		return result, err
	}

	licenses := map[string]string{}
	for _, c := range clients {
		if c.License == "" {
			continue
		}
		if _, ok := licenses[c.License]; ok {
			continue
		}
		text, err := readLicense(c.License)
		if err != nil {
			return result, err
		}
		licenses[c.License] = text
	}

	doc, err := asyncapi.LoadDocument(cfg.Spec, asyncapi.WithLogger(log))
	if err != nil {
		return result, err
	}
	diags := &diag.List{}
	full, err := Resolve(doc, diags)
	if err != nil {
		return result, err
	}
	log.Debug("contract resolved",
		zap.Int("nodes", len(full.Nodes)),
		zap.Int("channels", len(full.Channels)),
		zap.Int("diagnostics", diags.Len()))

	var pending []pendingTarget
	for _, client := range clients {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		p, err := s.generateTarget(log, client, full)
		if err != nil {
			return result, errors.Wrapf(err, "client %s", client.Name)
		}
		p.license = licenses[client.License]
		diags.Merge(p.bundle.Diagnostics)
		pending = append(pending, p)
	}

	result.Diagnostics = diags.Items()
	for _, d := range diags.Items() {
		log.Debug(d.Message, zap.String(logger.FieldPath, d.Path), zap.String(logger.FieldSeverity, d.Severity.String()))
	}
	if diags.HasErrors() {
		first := diags.Errors()[0]
		return result, errors.Newf("generation aborted: %s", first)
	}

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		res, err := s.writeTarget(log, p)
		result.Targets = append(result.Targets, TargetResult{Client: p.client, Write: res})
		if err != nil {
			return result, err
		}
	}

	log.Debug("generation finished",
		zap.Int("targets", len(result.Targets)),
		zap.Int64(logger.FieldDurationMS, time.Since(started).Milliseconds()))
	return result, nil
}

func selectClients(cfg *config.Config, onlyClient string) ([]config.Client, error) {
	var out []config.Client
	for _, c := range cfg.Clients {
		if onlyClient != "" && c.Name != onlyClient {
			continue
		}
		c.Normalize()
		out = append(out, c)
	}
	if len(out) == 0 {
		if onlyClient != "" {
			return nil, &generrors.InputError{Kind: generrors.InputInvalid, Message: "client " + onlyClient + " is not declared in the config"}
		}
		return nil, &generrors.InputError{Kind: generrors.InputMissing, Message: "no client targets configured"}
	}
	return out, nil
}

func readLicense(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &generrors.InputError{Kind: generrors.InputLicense, Path: path, Message: "Invalid license file path : " + path, Cause: err}
	}
	return string(data), nil
}

// generateTarget runs Loaded through Assembled for one client
func (s *Service) generateTarget(log *zap.Logger, client config.Client, full ir.IR) (pendingTarget, error) {
	log = log.With(zap.String(logger.FieldClient, client.Name))
	tracker := pipeline.NewTracker(func(st pipeline.Stage) {
		log.Debug("stage entered", zap.String(logger.FieldStage, st.String()))
	})

	gen, exists := s.registry.Get(client.Type)
	if !exists {
		return pendingTarget{}, errors.WithHintf(
			errors.Newf("unsupported client type: %s", client.Type),
			"available types: %s", strings.Join(s.registry.GetAvailableTypes(), ", "))
	}

	for _, st := range []pipeline.Stage{pipeline.Loaded, pipeline.Resolved} {
		if err := tracker.Advance(st); err != nil {
			return pendingTarget{}, err
		}
	}
	filtered, err := filterIR(full, client)
	if err != nil {
		tracker.Fail()
		return pendingTarget{}, err
	}
	bundle, err := gen.Generate(client, filtered, tracker)
	if err != nil {
		tracker.Fail()
		return pendingTarget{}, err
	}
	if tracker.Current() != pipeline.Assembled {
		return pendingTarget{}, errors.Wrapf(pipeline.ErrOutOfOrder, "generator %s stopped at %s", gen.GetType(), tracker.Current())
	}
	return pendingTarget{client: client, bundle: bundle, tracker: tracker}, nil
}

// writeTarget runs the pre command, the writer and the post command
func (s *Service) writeTarget(log *zap.Logger, p pendingTarget) (writer.Result, error) {
	client := p.client
	log = log.With(zap.String(logger.FieldClient, client.Name))

	// Ensure output directory exists before pre-commands
	if err := os.MkdirAll(client.OutDir, 0o755); err != nil {
		return writer.Result{}, errors.Wrapf(err, "failed to create output directory for client %s", client.Name)
	}
	if err := s.executeCommand(client.GetPreCommand(), client.OutDir, "pre-command"); err != nil {
		return writer.Result{}, errors.Wrapf(err, "pre-generation commands failed for client %s", client.Name)
	}

	res, err := writer.Write(p.bundle.Artifacts, writer.Options{
		Root:     client.OutDir,
		License:  p.license,
		Prompter: s.prompter,
		Logger:   log,
	})
	if err != nil {
		p.tracker.Fail()
		return res, err
	}
	if err := p.tracker.Advance(pipeline.Written); err != nil {
		return res, err
	}

	if err := s.executeCommand(client.GetPostCommand(), client.OutDir, "post-command"); err != nil {
		return res, errors.Wrapf(err, "post-generation commands failed for client %s", client.Name)
	}
	return res, nil
}

// executeCommand executes a single command in Docker Compose array format
func (s *Service) executeCommand(command []string, workDir, commandLabel string) error {
	if len(command) == 0 {
		return nil
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = workDir
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "%s (%s) failed", commandLabel, strings.Join(command, " "))
	}
	return nil
}
