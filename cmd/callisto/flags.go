package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/flags"
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Manage persistent flag overrides",
	Long: `Manage persistent flag overrides.

Overrides take precedence over the registry's state and survive restarts,
making them the operational kill switch: set an override to force a flag
on or off without touching the registry file.

Examples:
  # List overrides
  callisto flags list

  # Force a flag off
  callisto flags set beta-reports false

  # Remove the override, returning the flag to its registry state
  callisto flags clear beta-reports`,
}

var flagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List flag overrides",
	RunE:  runFlagsList,
}

var flagsSetCmd = &cobra.Command{
	Use:   "set <flag> <true|false>",
	Short: "Set a flag override",
	Args:  cobra.ExactArgs(2),
	RunE:  runFlagsSet,
}

var flagsClearCmd = &cobra.Command{
	Use:   "clear <flag>",
	Short: "Clear a flag override",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlagsClear,
}

func init() {
	rootCmd.AddCommand(flagsCmd)
	flagsCmd.AddCommand(flagsListCmd)
	flagsCmd.AddCommand(flagsSetCmd)
	flagsCmd.AddCommand(flagsClearCmd)
}

// openOverrideStore opens the override store configured in the config
// file. The quiet logger keeps CLI output clean.
func openOverrideStore() (*flags.OverrideStore, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if !cfg.Flags.Overrides.Enabled {
		return nil, fmt.Errorf("flag overrides are not enabled in %s", cfgFile)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return flags.NewOverrideStore(cfg.Flags.Overrides.Path, logger)
}

func runFlagsList(cmd *cobra.Command, args []string) error {
	store, err := openOverrideStore()
	if err != nil {
		return err
	}
	defer store.Close()

	overrides, err := store.List(context.Background())
	if err != nil {
		return err
	}

	if len(overrides) == 0 {
		fmt.Println("No overrides set")
		return nil
	}

	names := make([]flags.Flag, 0, len(overrides))
	for flag := range overrides {
		names = append(names, flag)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	for _, flag := range names {
		fmt.Printf("%s: %t\n", flag, overrides[flag])
	}
	return nil
}

func runFlagsSet(cmd *cobra.Command, args []string) error {
	enabled, err := strconv.ParseBool(args[1])
	if err != nil {
		return fmt.Errorf("invalid value %q: want true or false", args[1])
	}

	store, err := openOverrideStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Set(context.Background(), flags.Flag(args[0]), enabled); err != nil {
		return err
	}
	fmt.Printf("✓ Override set: %s = %t\n", args[0], enabled)
	return nil
}

func runFlagsClear(cmd *cobra.Command, args []string) error {
	store, err := openOverrideStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(context.Background(), flags.Flag(args[0])); err != nil {
		return err
	}
	fmt.Printf("✓ Override cleared: %s\n", args[0])
	return nil
}
