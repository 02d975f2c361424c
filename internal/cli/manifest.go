// internal/cli/manifest.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamisoel/gait-analyzer/pkg/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Inspect asset manifests",
	Long: `Parse and validate asset manifests, and diff two revisions.

Examples:
  gait-analyzer manifest check requirements.txt
  gait-analyzer manifest diff old.txt new.txt`,
}

var manifestCheckCmd = &cobra.Command{
	Use:   "check <manifest>",
	Short: "Parse and validate a manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runManifestCheck,
}

var manifestDiffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Show requirement changes between two manifests",
	Args:  cobra.ExactArgs(2),
	RunE:  runManifestDiff,
}

func init() {
	manifestCmd.AddCommand(manifestCheckCmd)
	manifestCmd.AddCommand(manifestDiffCmd)
}

func runManifestCheck(cmd *cobra.Command, args []string) error {
	man, err := manifest.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("parsing manifest: %w", err)
	}
	if err := man.Validate(); err != nil {
		return fmt.Errorf("validating manifest: %w", err)
	}

	for _, req := range man.Requirements {
		fmt.Println(req.Specifier())
	}
	fmt.Printf("\n✓ %d requirement(s), %d find-links location(s)\n",
		len(man.Requirements), len(man.FindLinks()))
	return nil
}

func runManifestDiff(cmd *cobra.Command, args []string) error {
	oldMan, err := manifest.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	newMan, err := manifest.ParseFile(args[1])
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[1], err)
	}

	added, removed, changed := manifest.Diff(oldMan, newMan)
	for _, c := range added {
		fmt.Printf("+ %s\n", c.New)
	}
	for _, c := range removed {
		fmt.Printf("- %s\n", c.Old)
	}
	for _, c := range changed {
		fmt.Printf("~ %s -> %s\n", c.Old, c.New)
	}
	if len(added)+len(removed)+len(changed) == 0 {
		fmt.Println("No changes")
	}
	return nil
}
