// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/browser/cdp"
	"github.com/xkilldash9x/caseforge-cli/internal/browser/rodengine"
	"github.com/xkilldash9x/caseforge-cli/internal/classifier"
	"github.com/xkilldash9x/caseforge-cli/internal/config"
	"github.com/xkilldash9x/caseforge-cli/internal/documents"
	"github.com/xkilldash9x/caseforge-cli/internal/recording"
	"github.com/xkilldash9x/caseforge-cli/internal/segmentation"
	"github.com/xkilldash9x/caseforge-cli/internal/synthesis"
)

// ComponentFactory builds the components a command needs. Commands depend on
// the interface so tests can substitute fakes.
type ComponentFactory interface {
	Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error)
}

type concreteFactory struct{}

// NewComponentFactory creates the production factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{}
}

// LaunchOptionsFromConfig translates browser config into engine-neutral launch options.
func LaunchOptionsFromConfig(cfg config.BrowserConfig) schemas.LaunchOptions {
	return schemas.LaunchOptions{
		Headless:          cfg.Headless,
		IgnoreTLSErrors:   cfg.IgnoreTLSErrors,
		InterceptRequests: cfg.InterceptRequests,
		Viewport:          schemas.Viewport{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height},
		Args:              append([]string(nil), cfg.Args...),
		NavigationTimeout: cfg.NavigationTimeout,
		IdleQuietPeriod:   cfg.IdleQuietPeriod,
	}
}

// NewLauncher selects the browser engine named by cfg.Engine.
func NewLauncher(cfg config.BrowserConfig, logger *zap.Logger) (schemas.BrowserLauncher, error) {
	switch strings.ToLower(cfg.Engine) {
	case config.EngineChromedp, "":
		return cdp.NewLauncher(logger), nil
	case config.EngineRod:
		return rodengine.NewLauncher(logger), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", cfg.Engine)
	}
}

// Create wires the classifier, synthesis, document reading and recording.
// The classifier is trained before Create returns.
func (f *concreteFactory) Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	intent, err := classifier.New(logger, cfg.Classifier)
	if err != nil {
		return nil, err
	}
	intent.Initialize()
	logger.Debug("Intent classifier trained.")

	synthesizer := synthesis.New(logger, intent, cfg.Synthesis)
	reader := documents.NewReader(logger)

	launcher, err := NewLauncher(cfg.Browser, logger)
	if err != nil {
		return nil, err
	}
	recorder := recording.NewRecorder(
		logger,
		launcher,
		LaunchOptionsFromConfig(cfg.Browser),
		cfg.Recording,
		segmentation.New(cfg.Segmentation),
		synthesizer,
	)
	logger.Debug("Recorder initialized.", zap.String("engine", cfg.Browser.Engine))

	return &Components{
		Classifier: intent,
		Reader:     reader,
		Recorder:   recorder,
		Generator:  NewGenerator(logger, reader, synthesizer, recorder),
	}, nil
}
