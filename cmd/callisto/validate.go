package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/flags"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and flag registry",
	Long: `Validate the configuration file and the flag registry it references.

Checks performed:
  - Configuration parses, defaults apply, and all sections validate
  - The flag registry parses and every definition is well-formed
  - Every route's declared feature flag exists in the registry

Exit code is non-zero when any check fails.

Examples:
  # Validate the default config
  callisto validate

  # Validate a specific config
  callisto validate --config /etc/callisto/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	fmt.Println("✓ Configuration valid")

	registry, err := loadRegistry(cfg.Flags.RegistryPath)
	if err != nil {
		return fmt.Errorf("flag registry: %w", err)
	}
	fmt.Printf("✓ Flag registry valid (%d flags)\n", registry.Len())

	// Routes may only declare flags the registry knows; a typo here
	// would otherwise surface as a runtime configuration error.
	var unknown int
	for _, rc := range cfg.Routes {
		raw, ok := rc.Data[cfg.Guard.Keys.FeatureFlag]
		if !ok {
			continue
		}
		name, ok := raw.(string)
		if !ok || name == "" {
			continue
		}
		if !registry.Contains(flags.Flag(name)) {
			fmt.Printf("✗ route %q declares unknown flag %q\n", rc.Path, name)
			unknown++
		}
	}
	if unknown > 0 {
		return fmt.Errorf("%d route(s) declare unknown flags", unknown)
	}
	fmt.Printf("✓ All %d routes reference known flags\n", len(cfg.Routes))

	if verbose {
		for _, name := range registry.Names() {
			def, _ := registry.Lookup(name)
			fmt.Printf("  %s: %s", name, def.State)
			if def.State == flags.StateRollout {
				fmt.Printf(" (%d%%)", def.RolloutPercent)
			}
			fmt.Println()
		}
	}

	return nil
}

// loadRegistry parses a flag registry file without starting a service.
func loadRegistry(path string) (*flags.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	defs, err := flags.ParseRegistry(data)
	if err != nil {
		return nil, err
	}
	return flags.NewRegistry(defs), nil
}
