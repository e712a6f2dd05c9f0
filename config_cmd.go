package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/profilectl/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE:  runConfigPath,
		Args:  cobra.NoArgs,
	}
}

// runConfigPath works without loading the config file, so it answers even
// when the file is missing or broken.
func runConfigPath(_ *cobra.Command, _ []string) error {
	path := config.ResolveConfigPath(config.ReadEnvOverrides(), config.CLIOverrides{
		ConfigPath: flagConfigPath,
	})

	fmt.Println(path)

	return nil
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		RunE:  runConfigShow,
		Args:  cobra.NoArgs,
	}
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	if resolvedCfg == nil {
		return fmt.Errorf("no configuration loaded")
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(resolvedCfg)
	}

	return config.RenderEffective(resolvedCfg, os.Stdout)
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a commented starter config file to the default location (or the
path given with --config). Refuses to overwrite an existing file.`,
		RunE: runConfigInit,
		Args: cobra.NoArgs,
	}
}

// runConfigInit also skips config loading: it must run before any config
// file exists.
func runConfigInit(_ *cobra.Command, _ []string) error {
	logger := buildLogger()
	path := config.ResolveConfigPath(config.ReadEnvOverrides(), config.CLIOverrides{
		ConfigPath: flagConfigPath,
	})

	if err := config.WriteDefaultConfig(path, logger); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return fmt.Errorf("config file already exists at %s", path)
		}

		return err
	}

	statusf(flagQuiet, "Wrote starter config to %s\n", path)

	return nil
}
