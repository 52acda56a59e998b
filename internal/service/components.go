// File: internal/service/components.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/observability"
	"github.com/xkilldash9x/caseforge-cli/internal/recording"
)

// Components holds the initialized services of one command run.
type Components struct {
	Classifier schemas.IntentClassifier
	Reader     schemas.DocumentReader
	Recorder   *recording.Recorder
	Generator  *Generator
}

// Shutdown stops a recording left running so its browser does not outlive
// the process. The captured cases are discarded.
func (c *Components) Shutdown() {
	logger := observability.GetLogger()
	if c.Recorder == nil || c.Recorder.Active() == nil {
		return
	}

	// The caller's context is usually already cancelled at this point.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cases, err := c.Recorder.Stop(ctx)
	if err != nil {
		logger.Warn("Failed to stop recording during shutdown.", zap.Error(err))
		return
	}
	logger.Info("Stopped recording during shutdown.", zap.Int("discarded_test_cases", len(cases)))
}
