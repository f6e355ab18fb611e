package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/webqa/types"
)

type stubCapturer struct {
	calls int
	fail  bool
}

func (s *stubCapturer) Capture(ctx context.Context, name string, fullPage bool) (string, error) {
	s.calls++
	path := "screenshots/" + name + ".png"
	if s.fail {
		return path, errors.New("screenshot failed")
	}
	return path, nil
}

func TestSequentialContiguousIDs(t *testing.T) {
	l := New(&stubCapturer{}, nil)
	for i := 0; i < 12; i++ {
		l.Add(context.Background(), Commit{
			Title:    fmt.Sprintf("bug %d", i),
			Severity: types.SeverityMedium,
			Category: types.CategoryFunctional,
		})
	}

	entries := l.Entries()
	require.Len(t, entries, 12)
	for i, e := range entries {
		assert.Equal(t, types.BugID(i+1), e.ID)
	}
	assert.Equal(t, "BUG-001", entries[0].ID)
	assert.Equal(t, "BUG-012", entries[11].ID)
	assert.Equal(t, 12, l.Count())
}

func TestEvidenceAlwaysNonEmpty(t *testing.T) {
	cap := &stubCapturer{fail: true}
	l := New(cap, nil)

	entry := l.Add(context.Background(), Commit{
		Title:    "layout shift",
		Severity: types.SeverityMedium,
		Category: types.CategoryLayout,
	})

	require.NotEmpty(t, entry.Evidence)
	assert.Equal(t, "screenshots/BUG-001.png", entry.Evidence[0])
	assert.Equal(t, 1, cap.calls)
}

func TestNilCapturerUsesPlaceholder(t *testing.T) {
	l := New(nil, nil)
	entry := l.Add(context.Background(), Commit{
		Title:    "no browser in test",
		Severity: types.SeverityLow,
		Category: types.CategorySEO,
	})
	require.NotEmpty(t, entry.Evidence)
	assert.Equal(t, "screenshots/BUG-001.png", entry.Evidence[0])
}

func TestEntriesIsACopy(t *testing.T) {
	l := New(nil, nil)
	l.Add(context.Background(), Commit{Title: "a", Severity: types.SeverityLow, Category: types.CategorySEO})

	entries := l.Entries()
	entries[0].Title = "mutated"
	assert.Equal(t, "a", l.Entries()[0].Title)
}

func TestCommitCarriesDetailsAndSteps(t *testing.T) {
	l := New(nil, nil)
	entry := l.Add(context.Background(), Commit{
		Title:    "broken links",
		Severity: types.SeverityHigh,
		Category: types.CategoryNavigation,
		Steps:    []string{"Open page", "Check links"},
		Details:  []string{"https://a -> 404", "https://b -> 500"},
	})
	assert.Equal(t, []string{"Open page", "Check links"}, entry.Steps)
	assert.Len(t, entry.Details, 2)
}
