package ledger

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/BaSui01/webqa/browser"
)

// Evidence captures screenshots through the browser driver and writes them
// under the run's screenshot directory. Returned paths are relative to the
// run output root so the report links stay portable.
type Evidence struct {
	drv    browser.Driver
	dir    string
	logger *zap.Logger
}

// NewEvidence creates an evidence capturer writing into dir.
func NewEvidence(drv browser.Driver, dir string, logger *zap.Logger) *Evidence {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evidence{drv: drv, dir: dir, logger: logger.With(zap.String("component", "evidence"))}
}

// Capture implements Capturer. The relative path is returned even when the
// capture fails so the caller can keep a stable evidence reference.
func (e *Evidence) Capture(ctx context.Context, name string, fullPage bool) (string, error) {
	rel := filepath.ToSlash(filepath.Join("screenshots", name+".png"))

	data, err := e.drv.Screenshot(ctx, fullPage)
	if err != nil {
		return rel, err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return rel, err
	}
	if err := os.WriteFile(filepath.Join(e.dir, name+".png"), data, 0o644); err != nil {
		return rel, err
	}

	e.logger.Debug("evidence captured", zap.String("path", rel), zap.Int("bytes", len(data)))
	return rel, nil
}
