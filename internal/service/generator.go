// File: internal/service/generator.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/export"
	"github.com/xkilldash9x/caseforge-cli/internal/recording"
	"github.com/xkilldash9x/caseforge-cli/internal/synthesis"
)

// Generator is the core surface: story and document generation, recording
// sessions and export.
type Generator struct {
	logger      *zap.Logger
	reader      schemas.DocumentReader
	synthesizer *synthesis.Synthesizer
	recorder    *recording.Recorder

	// now is replaceable in tests.
	now func() time.Time
}

// NewGenerator wires a Generator. recorder may be nil when recording is not needed.
func NewGenerator(logger *zap.Logger, reader schemas.DocumentReader, synthesizer *synthesis.Synthesizer, recorder *recording.Recorder) *Generator {
	return &Generator{
		logger:      logger.Named("generator"),
		reader:      reader,
		synthesizer: synthesizer,
		recorder:    recorder,
		now:         time.Now,
	}
}

// GenerateFromStories builds one test case per story, in input order.
func (g *Generator) GenerateFromStories(ctx context.Context, stories []schemas.UserStory) ([]schemas.TestCase, error) {
	cases, err := g.synthesizer.FromStories(ctx, stories)
	if err != nil {
		return nil, fmt.Errorf("failed to generate test cases: %w", err)
	}
	g.logger.Info("Generated test cases from stories.", zap.Int("stories", len(stories)), zap.Int("test_cases", len(cases)))
	return cases, nil
}

// GenerateFromDocument reads stories from a document and generates their test cases.
func (g *Generator) GenerateFromDocument(ctx context.Context, data []byte, mediaType string) ([]schemas.TestCase, error) {
	stories, err := g.reader.Read(ctx, data, mediaType)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return g.GenerateFromStories(ctx, stories)
}

// StartSession begins recording target. creds may be nil.
func (g *Generator) StartSession(ctx context.Context, target string, creds *schemas.Credentials) (*recording.Session, error) {
	if g.recorder == nil {
		return nil, fmt.Errorf("recording is not configured")
	}
	return g.recorder.Start(ctx, target, creds)
}

// StopSession ends the active recording and returns its test cases.
func (g *Generator) StopSession(ctx context.Context) ([]schemas.TestCase, error) {
	if g.recorder == nil {
		return nil, schemas.ErrNoActiveSession
	}
	return g.recorder.Stop(ctx)
}

// ActiveSession returns the recording session, if any.
func (g *Generator) ActiveSession() *recording.Session {
	if g.recorder == nil {
		return nil
	}
	return g.recorder.Active()
}

// ExportTestCases encodes cases in format.
func (g *Generator) ExportTestCases(cases []schemas.TestCase, format string) (*export.Artifact, error) {
	artifact, err := export.Export(cases, format, g.now())
	if err != nil {
		return nil, err
	}
	g.logger.Debug("Exported test cases.",
		zap.String("format", format),
		zap.String("file", artifact.FileName),
		zap.Int("bytes", len(artifact.Bytes)))
	return artifact, nil
}
