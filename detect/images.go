package detect

import (
	"context"
	"fmt"

	"github.com/BaSui01/webqa/ledger"
	"github.com/BaSui01/webqa/types"
)

func runBrokenImages(ctx context.Context, env *Env, led *ledger.Ledger) {
	broken := env.Snap.BrokenImages
	if len(broken) == 0 {
		return
	}
	led.Add(ctx, ledger.Commit{
		Title:       fmt.Sprintf("%d broken image(s) on the page", len(broken)),
		Severity:    types.SeverityMedium,
		Category:    types.CategoryContent,
		Description: "Images that completed loading with zero natural width, i.e. the resource failed or is invalid.",
		Steps:       []string{"Open " + env.PageURL, "Inspect img elements with naturalWidth === 0"},
		Details:     truncate(broken, env.Policy.MaxDetails),
	})
}
