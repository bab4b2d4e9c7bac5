package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/core/asset"
	"github.com/novaengine/nova/internal/scripting"
)

// NewValidateCommand checks config, manifest, scripts and preload paths
// without starting the engine.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "validate",
		Short:        "Check config, scene manifest and scripts",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	cfg, _, err := loadConfig(opts)
	if err != nil {
		return err
	}
	printOK(out, "config")

	manifest, err := loadManifest(cfg)
	if err != nil {
		return err
	}
	printStat(out, "scenes", manifest.Count())

	lua, err := scripting.NewEngine(cfg.Scripts.Dir, manifest, zap.NewNop())
	if err != nil {
		return err
	}
	lua.Close()
	printOK(out, "scripts compiled")

	missing := 0
	for _, entry := range manifest.Scenes {
		for _, ref := range entry.Preload {
			p, err := asset.Resolve(ref.Path)
			if err == nil {
				_, err = os.Stat(filepath.Join(cfg.Assets.Root, filepath.FromSlash(p)))
			}
			if err != nil {
				missing++
				fmt.Fprintf(cmd.ErrOrStderr(), "  scene %s: preload %s: %v\n", entry.Name, ref.Path, err)
			}
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d preload asset(s) unavailable", missing)
	}
	printOK(out, "preload assets present")
	return nil
}
