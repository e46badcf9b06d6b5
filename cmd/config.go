package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/droidtile/internal/config"
	"github.com/mj1618/droidtile/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the droidtile configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (file, env and flags merged)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return output.Print(cfg)
	},
}

// ValidateResult is the YAML output of config validate.
type ValidateResult struct {
	OK         bool   `yaml:"ok"              json:"ok"`
	File       string `yaml:"file,omitempty"  json:"file,omitempty"`
	Workspaces int    `yaml:"workspaces"      json:"workspaces"`
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and report every problem",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return output.Print(ValidateResult{OK: true, File: cfgManager.ConfigFileUsed(), Workspaces: len(cfg.Workspaces)})
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(output.Stdout, string(data))
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath()
		if len(args) == 1 {
			path = args[0]
		} else if p, _ := rootCmd.PersistentFlags().GetString("config"); p != "" {
			path = p
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		return output.Print(map[string]interface{}{"ok": true, "file": path})
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(output.Stdout, config.DefaultPath())
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configValidateCmd, configSchemaCmd, configInitCmd, configPathCmd)
}
