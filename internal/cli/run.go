package cli

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/blimu-dev/asyncapi-gen/internal/logger"
	"github.com/blimu-dev/asyncapi-gen/pkg/asyncapi"
	"github.com/blimu-dev/asyncapi-gen/pkg/config"
	"github.com/blimu-dev/asyncapi-gen/pkg/generator"
	"github.com/blimu-dev/asyncapi-gen/pkg/writer"
)

type FallbackParams = generator.FallbackOptions

type RunGenerateParams struct {
	ConfigPath   string
	SingleClient string
	Fallback     FallbackParams
	// NonInteractive disables the overwrite prompt even on a terminal
	NonInteractive bool
	Verbose        bool
	JSONLogs       bool
}

// RunValidate loads and resolves a contract and reports what it found
func RunValidate(input string) error {
	if err := asyncapi.ValidateDocument(input); err != nil {
		return err
	}
	graph, diags, err := generator.ResolveFile(input)
	if err != nil {
		return err
	}
	printDiagnostics(diags)
	printValid(input, graph)
	return nil
}

func RunGenerate(ctx context.Context, p RunGenerateParams) error {
	log, err := logger.New(p.Verbose, p.JSONLogs)
	if err != nil {
		return errors.Wrap(err, "create logger")
	}
	defer func() { _ = log.Sync() }()

	if p.ConfigPath == "" {
		p.Fallback.OutDir = absPath(p.Fallback.OutDir)
	}

	opts := []generator.ServiceOption{generator.WithLogger(log)}
	if !p.NonInteractive {
		if prompter := writer.StdPrompter(); prompter != nil {
			opts = append(opts, generator.WithPrompter(prompter))
		}
	}
	svc := generator.NewService(opts...)

	res, err := svc.Generate(ctx, generator.GenerateOptions{
		ConfigPath:   p.ConfigPath,
		SingleClient: p.SingleClient,
		Fallback:     p.Fallback,
	})
	if res != nil {
		printDiagnostics(res.Diagnostics)
	}
	if err != nil {
		if res != nil {
			log.Debug("run failed", zap.String(logger.FieldRunID, res.RunID), zap.Error(err))
		}
		return err
	}
	for _, t := range res.Targets {
		printTarget(t.Client.Mode == config.ModeService, t.Write)
	}
	return nil
}
