// Package ledger is the append-only authoritative store of discovered bugs
// for one run. A commit allocates the next sequential id, captures one
// evidence screenshot best-effort, and pushes the record. Append is the only
// mutation.
package ledger

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/webqa/types"
)

// Capturer takes one evidence screenshot and returns its report-relative
// path. Implementations are best-effort: an error never blocks a commit.
type Capturer interface {
	Capture(ctx context.Context, name string, fullPage bool) (string, error)
}

// Commit describes one bug being committed to the ledger.
type Commit struct {
	Title       string
	Severity    types.Severity
	Category    types.Category
	Description string
	Steps       []string
	Details     []string
	FullPage    bool
}

// Ledger assigns ids and owns the ordered bug list for one run.
type Ledger struct {
	capturer Capturer
	logger   *zap.Logger
	entries  []types.BugEntry
	seq      int
}

// New creates an empty ledger. capturer may be nil in tests; the evidence
// slot then holds a placeholder path so it is never empty.
func New(capturer Capturer, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		capturer: capturer,
		logger:   logger.With(zap.String("component", "ledger")),
	}
}

// Add commits one bug: allocate the next id, capture evidence, push record.
// It returns the committed entry.
func (l *Ledger) Add(ctx context.Context, c Commit) types.BugEntry {
	l.seq++
	id := types.BugID(l.seq)

	evidence := l.capture(ctx, id, c.FullPage)

	entry := types.BugEntry{
		ID:          id,
		Title:       c.Title,
		Severity:    c.Severity,
		Category:    c.Category,
		Description: c.Description,
		Steps:       c.Steps,
		Evidence:    []string{evidence},
		Details:     c.Details,
	}
	l.entries = append(l.entries, entry)

	l.logger.Info("bug recorded",
		zap.String("id", id),
		zap.String("severity", string(c.Severity)),
		zap.String("category", string(c.Category)),
		zap.String("title", c.Title))

	return entry
}

// capture takes the evidence screenshot. On failure the intended path is
// still recorded so every committed bug has a non-empty evidence list.
func (l *Ledger) capture(ctx context.Context, id string, fullPage bool) string {
	if l.capturer == nil {
		return "screenshots/" + id + ".png"
	}
	path, err := l.capturer.Capture(ctx, id, fullPage)
	if err != nil {
		l.logger.Warn("evidence capture failed", zap.String("id", id), zap.Error(err))
		if path == "" {
			path = "screenshots/" + id + ".png"
		}
	}
	return path
}

// Entries returns a copy of the committed bugs in commit order.
func (l *Ledger) Entries() []types.BugEntry {
	return append([]types.BugEntry(nil), l.entries...)
}

// Count returns the number of committed bugs.
func (l *Ledger) Count() int { return l.seq }
