// pkg/assets/git.go
package assets

import (
	"context"
	"fmt"
	"os"
	"regexp"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kamisoel/gait-analyzer/pkg/manifest"
)

var hexRevRe = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// cloneRef materializes a source-control reference into dest. Tags and
// branches clone shallowly; commit hashes need a full clone and checkout.
func cloneRef(ctx context.Context, ref *manifest.SourceRef, dest string) error {
	if ref.VCS != "git" {
		return fmt.Errorf("unsupported vcs %q", ref.VCS)
	}

	if ref.Rev == "" {
		_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
			URL:   ref.URL,
			Depth: 1,
		})
		if err != nil {
			return fmt.Errorf("git clone failed: %w", err)
		}
		return nil
	}

	if !hexRevRe.MatchString(ref.Rev) {
		// Tag first, then branch.
		for _, name := range []plumbing.ReferenceName{
			plumbing.NewTagReferenceName(ref.Rev),
			plumbing.NewBranchReferenceName(ref.Rev),
		} {
			_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
				URL:           ref.URL,
				ReferenceName: name,
				SingleBranch:  true,
				Depth:         1,
			})
			if err == nil {
				return nil
			}
			os.RemoveAll(dest)
		}
	}

	// Commit hash, or a rev that is neither tag nor branch.
	repo, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{URL: ref.URL})
	if err != nil {
		return fmt.Errorf("git clone failed: %w", err)
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(ref.Rev))
	if err != nil {
		os.RemoveAll(dest)
		return fmt.Errorf("resolving revision %q: %w", ref.Rev, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash}); err != nil {
		return fmt.Errorf("checking out %s: %w", hash, err)
	}
	return nil
}
