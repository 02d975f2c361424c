// internal/cli/assets.go
package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamisoel/gait-analyzer/pkg/assets"
	"github.com/kamisoel/gait-analyzer/pkg/manifest"
)

var (
	assetsManifest string
	assetsForce    bool
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Manage model checkpoints and code assets",
	Long: `Download, verify and inspect the model assets the manifest declares.

Examples:
  gait-analyzer assets sync
  gait-analyzer assets verify
  gait-analyzer assets plan --manifest requirements.txt
  gait-analyzer assets list`,
}

var assetsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download missing assets and update the lock file",
	RunE:  runAssetsSync,
}

var assetsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check installed assets against the lock file",
	RunE:  runAssetsVerify,
}

var assetsPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what sync would install, without touching the network",
	RunE:  runAssetsPlan,
}

var assetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed assets from the lock file",
	RunE:  runAssetsList,
}

func init() {
	assetsCmd.PersistentFlags().StringVar(&assetsManifest, "manifest", "", "manifest path (overrides config)")
	assetsSyncCmd.Flags().BoolVar(&assetsForce, "force", false, "re-download assets even when they verify")
	assetsCmd.AddCommand(assetsSyncCmd)
	assetsCmd.AddCommand(assetsVerifyCmd)
	assetsCmd.AddCommand(assetsPlanCmd)
	assetsCmd.AddCommand(assetsListCmd)
}

func assetsSetup() (*assets.Manager, *manifest.Manifest, error) {
	path := assetsManifest
	if path == "" {
		path = cfg.Manifest
	}
	man, err := manifest.ParseFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := man.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validating manifest: %w", err)
	}

	mgr, err := assets.NewManager(assets.Config{
		AssetDir: cfg.AssetDir(),
		CacheDir: cfg.CacheDir(),
		Timeout:  time.Duration(cfg.Estimator.Timeout),
		Force:    assetsForce,
	})
	if err != nil {
		return nil, nil, err
	}
	return mgr, man, nil
}

func runAssetsSync(cmd *cobra.Command, args []string) error {
	mgr, man, err := assetsSetup()
	if err != nil {
		return err
	}
	if err := mgr.Sync(cmd.Context(), man); err != nil {
		return fmt.Errorf("syncing assets: %w", err)
	}
	fmt.Println("✓ Assets in sync")
	return nil
}

func runAssetsVerify(cmd *cobra.Command, args []string) error {
	mgr, man, err := assetsSetup()
	if err != nil {
		return err
	}
	statuses, err := mgr.Verify(man)
	if err != nil {
		return fmt.Errorf("verifying assets: %w", err)
	}

	bad := 0
	for _, st := range statuses {
		mark := "✓"
		if st.State != assets.StateOK {
			mark = "✗"
			bad++
		}
		fmt.Printf("%s %-30s %s\n", mark, st.Asset.Name, st.State)
	}
	if bad > 0 {
		return fmt.Errorf("%d asset(s) missing or modified", bad)
	}
	return nil
}

func runAssetsPlan(cmd *cobra.Command, args []string) error {
	mgr, man, err := assetsSetup()
	if err != nil {
		return err
	}
	plan, err := mgr.Plan(man)
	if err != nil {
		return fmt.Errorf("planning: %w", err)
	}

	for _, asset := range plan {
		if asset.Git != nil {
			fmt.Printf("%-30s %s\n", asset.Name, asset.Git.URL)
			continue
		}
		fmt.Printf("%-30s %s (%d candidate source(s))\n", asset.Name, asset.Version, len(asset.Sources))
	}
	return nil
}

func runAssetsList(cmd *cobra.Command, args []string) error {
	mgr, err := assets.NewManager(assets.Config{
		AssetDir: cfg.AssetDir(),
		CacheDir: cfg.CacheDir(),
	})
	if err != nil {
		return err
	}
	installed, err := mgr.Installed()
	if err != nil {
		return err
	}
	if len(installed) == 0 {
		fmt.Println("No assets installed")
		return nil
	}

	names := make([]string, 0, len(installed))
	for name := range installed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entry := installed[name]
		sum := entry.SHA256
		if len(sum) > 12 {
			sum = sum[:12]
		}
		fmt.Printf("%-30s %-12s %-12s %s\n", name, entry.Version, sum, entry.File)
	}
	return nil
}
