package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"wyniki/pkg/config"
	"wyniki/pkg/ui"
)

const defaultConfigFile = "wyniki.yaml"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage wyniki configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (WYNIKI_*), including .env, tests/.env and ~/.wyniki.env
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write every option with its default value to 'wyniki.yaml' in the current
directory, or to the path given with --config.

The password is never written; keep it in the keychain ('wyniki auth login')
or in WYNIKI_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file and check:
  - YAML syntax
  - The portal address
  - Timeouts and delays
  - Output and log paths`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = defaultConfigFile
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file %s already exists; remove it first to start over", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Set portal.account_id and review the timeouts")
	fmt.Println("2. Store the password with 'wyniki auth login'")
	fmt.Println("3. Run 'wyniki config validate', then 'wyniki crawl'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Password carries yaml:"-" and never reaches the output
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	if cfg.Portal.Password != "" {
		fmt.Println("\nPassword: set from the environment")
	}
	if configFile != "" {
		fmt.Printf("Configuration file: %s\n", configFile)
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		home, _ := os.UserHomeDir()
		for _, candidate := range []string{
			defaultConfigFile,
			".wyniki.yaml",
			filepath.Join(home, ".config", "wyniki", "config.yaml"),
			filepath.Join(home, ".wyniki.yaml"),
		} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return errors.New("no configuration file found; specify one with --config")
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var warnings, problems []string
	if cfg.Portal.AccountID == "" {
		warnings = append(warnings, "portal.account_id is not set; a stored login will be used")
	}
	if cfg.Browser.Headless {
		warnings = append(warnings, "browser.headless is on; the SMS code cannot be typed into a hidden window")
	}
	if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return errors.New("invalid configuration")
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Portal: %s\n", cfg.Portal.BaseURL)
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Two-factor timeout: %s\n", cfg.Timeouts.TwoFactor)
	fmt.Printf("  Download timeout: %s\n", cfg.Timeouts.Download)
	fmt.Printf("  Report: %s -> %s\n", cfg.Report.InputDirectory, cfg.Report.OutputFile)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
